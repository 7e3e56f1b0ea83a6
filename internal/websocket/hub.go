// internal/websocket/hub.go
package websocket

import (
	"context"
	"sync"

	wstypes "showroom-service/internal/domain/websocket"
	"showroom-service/internal/pkg/jwt"

	"go.uber.org/zap"
)

// TokenValidator resolves an access token into its claims.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*jwt.Claims, error)
}

type Hub struct {
	// Registered clients by subject
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	Register   chan *Client
	unregister chan *Client

	broadcast chan *BroadcastMessage

	// Handler registry for modular message handling
	handlerRegistry *HandlerRegistry

	validator TokenValidator
	logger    *zap.Logger
}

type BroadcastMessage struct {
	Subjects []string // nil means every client
	Channel  wstypes.ChannelType
	Message  *wstypes.WSMessage
}

func NewHub(validator TokenValidator, logger *zap.Logger) *Hub {
	return &Hub{
		clients:         make(map[string]map[*Client]bool),
		Register:        make(chan *Client),
		unregister:      make(chan *Client, 16),
		broadcast:       make(chan *BroadcastMessage, 256),
		handlerRegistry: NewHandlerRegistry(),
		validator:       validator,
		logger:          logger,
	}
}

// AuthenticateClient validates the token and returns the client identity
func (h *Hub) AuthenticateClient(ctx context.Context, token string) (*ClientAuth, error) {
	claims, err := h.validator.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}

	return &ClientAuth{
		Subject:   claims.Subject,
		SessionID: claims.ID,
		Roles:     claims.Roles,
		Email:     claims.Email,
		Device:    claims.Device,
	}, nil
}

// RegisterHandler registers a message handler
func (h *Hub) RegisterHandler(handler MessageHandler) {
	h.handlerRegistry.Register(handler)
}

// HandleClientMessage processes a message from a client using registered handlers
func (h *Hub) HandleClientMessage(ctx context.Context, client *Client, msg *wstypes.WSMessage) (bool, error) {
	handler, exists := h.handlerRegistry.GetHandler(msg.Type)
	if !exists {
		return false, nil
	}
	return true, handler.HandleMessage(ctx, client, msg)
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.BroadcastMessage(msg)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.subject] == nil {
		h.clients[client.subject] = make(map[*Client]bool)
	}
	h.clients[client.subject][client] = true

	// Back-office clients follow the lead feed by default
	client.Subscribe(wstypes.ChannelLeads)
	client.Subscribe(wstypes.ChannelSystem)

	h.logger.Info("websocket client connected",
		zap.String("subject", client.subject),
		zap.String("session_id", client.sessionID),
		zap.Int("total", h.totalClients()),
	)

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeConnected, map[string]any{
		"subject":    client.subject,
		"session_id": client.sessionID,
		"roles":      client.roles,
		"channels":   client.Channels(),
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.subject]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			client.Close()

			if len(clients) == 0 {
				delete(h.clients, client.subject)
			}

			h.logger.Info("websocket client disconnected",
				zap.String("subject", client.subject),
				zap.String("session_id", client.sessionID),
				zap.Int("total", h.totalClients()),
			)
		}
	}
}

func (h *Hub) BroadcastMessage(msg *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	send := func(clients map[*Client]bool) {
		for client := range clients {
			if client.IsSubscribed(msg.Channel) {
				client.SendMessage(msg.Message)
			}
		}
	}

	if msg.Subjects == nil {
		for _, clients := range h.clients {
			send(clients)
		}
		return
	}
	for _, subject := range msg.Subjects {
		send(h.clients[subject])
	}
}

func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalClients()
}

// enqueue never blocks the caller; a full queue drops the message.
func (h *Hub) enqueue(msg *BroadcastMessage) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("websocket broadcast queue full, dropping message",
			zap.String("type", string(msg.Message.Type)))
	}
}

// PublishLead implements the lead notifier used by the recorder.
func (h *Hub) PublishLead(event wstypes.LeadEvent) {
	h.enqueue(&BroadcastMessage{
		Channel: wstypes.ChannelLeads,
		Message: wstypes.NewMessage(wstypes.EventTypeLeadNew, event),
	})
}

// PublishOfferDecision implements the offer notifier used by the vehicle service.
func (h *Hub) PublishOfferDecision(event wstypes.OfferDecisionEvent) {
	h.enqueue(&BroadcastMessage{
		Channel: wstypes.ChannelLeads,
		Message: wstypes.NewMessage(wstypes.EventTypeOfferDecided, event),
	})
}

func (h *Hub) BroadcastSystemAlert(alert *wstypes.SystemAlertData) {
	h.enqueue(&BroadcastMessage{
		Channel: wstypes.ChannelSystem,
		Message: wstypes.NewMessage(wstypes.EventTypeSystemAlert, alert),
	})
}

// DisconnectSession closes the connections opened with a revoked token
func (h *Hub) DisconnectSession(subject, sessionID, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[subject]
	if !ok {
		return
	}

	msg := wstypes.NewMessage(wstypes.EventTypeDisconnected, map[string]any{"reason": reason})
	for client := range clients {
		if client.sessionID != sessionID {
			continue
		}
		client.SendMessage(msg)
		client.Close()
		delete(clients, client)
	}
	if len(clients) == 0 {
		delete(h.clients, subject)
	}
}

func (h *Hub) totalClients() int {
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for subject, clients := range h.clients {
		for client := range clients {
			client.Close()
		}
		delete(h.clients, subject)
	}
}
