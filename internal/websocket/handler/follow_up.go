// internal/websocket/handler/follow_up.go
package handler

import (
	"context"
	"fmt"

	"showroom-service/internal/domain/customer"
	wstypes "showroom-service/internal/domain/websocket"
	ws "showroom-service/internal/websocket"
)

const defaultFollowUpLimit = 20

// FollowUpLister returns the customers an admin should contact next.
type FollowUpLister interface {
	FollowUpQueue(ctx context.Context, limit int) ([]*customer.Profile, error)
}

// FollowUpHandler answers leads:follow_up requests over the socket.
type FollowUpHandler struct {
	customers FollowUpLister
}

func NewFollowUpHandler(customers FollowUpLister) *FollowUpHandler {
	return &FollowUpHandler{customers: customers}
}

func (h *FollowUpHandler) SupportedEvents() []wstypes.EventType {
	return []wstypes.EventType{wstypes.EventTypeFollowUpList}
}

func (h *FollowUpHandler) HandleMessage(ctx context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	if msg.Type != wstypes.EventTypeFollowUpList {
		return fmt.Errorf("unsupported event type: %s", msg.Type)
	}

	limit := defaultFollowUpLimit
	if data, ok := msg.Data.(map[string]any); ok {
		if l, ok := data["limit"].(float64); ok && l > 0 && l <= 100 {
			limit = int(l)
		}
	}

	profiles, err := h.customers.FollowUpQueue(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to load follow-up queue: %w", err)
	}

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeFollowUpList, map[string]any{
		"customers": profiles,
		"count":     len(profiles),
	}))
	return nil
}
