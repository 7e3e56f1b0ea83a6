// internal/domain/websocket/types.go
package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType represents different real-time event types
type EventType string

const (
	// Connection events
	EventTypePing         EventType = "ping"
	EventTypePong         EventType = "pong"
	EventTypeConnected    EventType = "connected"
	EventTypeDisconnected EventType = "disconnected"
	EventTypeError        EventType = "error"

	// Lead events (server -> client)
	EventTypeLeadNew      EventType = "lead:new"
	EventTypeOfferDecided EventType = "offer:decided"

	// Lead queries (client -> server)
	EventTypeFollowUpList EventType = "leads:follow_up"

	// System events
	EventTypeSystemAlert EventType = "system:alert"

	// Subscription events
	EventTypeSubscribe   EventType = "subscribe"
	EventTypeUnsubscribe EventType = "unsubscribe"
)

// WSMessage is the universal message format
type WSMessage struct {
	Type      EventType      `json:"type"`
	Data      any            `json:"data,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	ID        string         `json:"id,omitempty"`
}

// Subscription channels that clients can subscribe to
type ChannelType string

const (
	ChannelLeads  ChannelType = "leads"
	ChannelSystem ChannelType = "system"
)

func (c ChannelType) Valid() bool {
	return c == ChannelLeads || c == ChannelSystem
}

type SubscribeRequest struct {
	Channels []ChannelType `json:"channels"`
}

type UnsubscribeRequest struct {
	Channels []ChannelType `json:"channels"`
}

// ErrorData for error events
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// LeadEvent announces a freshly recorded storefront interaction.
type LeadEvent struct {
	CustomerID   string    `json:"customer_id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	VehicleID    string    `json:"vehicle_id"`
	VehicleLabel string    `json:"vehicle_label"`
	Kind         string    `json:"kind"`
	Status       string    `json:"status"`
	NewCustomer  bool      `json:"new_customer"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// OfferDecisionEvent announces an accepted or rejected cash offer.
type OfferDecisionEvent struct {
	VehicleID    string    `json:"vehicle_id"`
	VehicleLabel string    `json:"vehicle_label"`
	OfferID      string    `json:"offer_id"`
	Phone        string    `json:"phone"`
	OfferedPrice float64   `json:"offered_price"`
	Status       string    `json:"status"`
	DecidedAt    time.Time `json:"decided_at"`
}

type SystemAlertData struct {
	Severity string `json:"severity"` // info, warning, critical
	Title    string `json:"title"`
	Message  string `json:"message"`
}

// NewMessage stamps data with a type, time and id.
func NewMessage(eventType EventType, data any) *WSMessage {
	return &WSMessage{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
		ID:        ulid.Make().String(),
	}
}

func (m *WSMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ParseMessage(data []byte) (*WSMessage, error) {
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("parse message: missing type")
	}
	return &msg, nil
}
