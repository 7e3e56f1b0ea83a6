package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	wstypes "showroom-service/internal/domain/websocket"
	"showroom-service/internal/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubValidator struct {
	claims *jwt.Claims
	err    error
}

func (s stubValidator) ValidateToken(context.Context, string) (*jwt.Claims, error) {
	return s.claims, s.err
}

func newTestClient(h *Hub, subject, session string) *Client {
	return NewClient(h, nil, &ClientAuth{Subject: subject, SessionID: session, Roles: []string{jwt.RoleAdmin}})
}

func drain(t *testing.T, c *Client) *wstypes.WSMessage {
	t.Helper()
	select {
	case data := <-c.send:
		msg, err := wstypes.ParseMessage(data)
		require.NoError(t, err)
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message queued")
		return nil
	}
}

func TestAuthenticateClient(t *testing.T) {
	claims := &jwt.Claims{Email: "admin@showroom.test", Roles: []string{jwt.RoleAdmin}}
	claims.Subject = "admin"
	claims.ID = "01JTI"

	h := NewHub(stubValidator{claims: claims}, zap.NewNop())
	auth, err := h.AuthenticateClient(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, "admin", auth.Subject)
	assert.Equal(t, "01JTI", auth.SessionID)

	h = NewHub(stubValidator{err: errors.New("expired")}, zap.NewNop())
	_, err = h.AuthenticateClient(context.Background(), "token")
	assert.Error(t, err)
}

func TestRegisteredClientReceivesLeadEvents(t *testing.T) {
	h := NewHub(stubValidator{}, zap.NewNop())
	c := newTestClient(h, "admin", "s1")

	h.registerClient(c)
	assert.Equal(t, wstypes.EventTypeConnected, drain(t, c).Type)
	assert.Equal(t, 1, h.TotalClients())

	h.PublishLead(wstypes.LeadEvent{Phone: "+628123456789", Kind: "view_detail"})
	h.BroadcastMessage(<-h.broadcast)

	msg := drain(t, c)
	assert.Equal(t, wstypes.EventTypeLeadNew, msg.Type)

	raw, err := json.Marshal(msg.Data)
	require.NoError(t, err)
	var event wstypes.LeadEvent
	require.NoError(t, json.Unmarshal(raw, &event))
	assert.Equal(t, "+628123456789", event.Phone)
}

func TestUnsubscribedClientIsSkipped(t *testing.T) {
	h := NewHub(stubValidator{}, zap.NewNop())
	c := newTestClient(h, "admin", "s1")
	h.registerClient(c)
	drain(t, c)

	c.Unsubscribe(wstypes.ChannelLeads)
	h.BroadcastMessage(&BroadcastMessage{
		Channel: wstypes.ChannelLeads,
		Message: wstypes.NewMessage(wstypes.EventTypeOfferDecided, nil),
	})
	assert.Empty(t, c.send)
}

func TestPublishNeverBlocksWhenQueueIsFull(t *testing.T) {
	h := NewHub(stubValidator{}, zap.NewNop())
	done := make(chan struct{})
	go func() {
		for i := 0; i < cap(h.broadcast)+10; i++ {
			h.PublishOfferDecision(wstypes.OfferDecisionEvent{OfferID: "x"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked")
	}
	assert.Len(t, h.broadcast, cap(h.broadcast))
}

func TestDisconnectSessionOnlyDropsMatchingSession(t *testing.T) {
	h := NewHub(stubValidator{}, zap.NewNop())
	keep := newTestClient(h, "admin", "s1")
	drop := newTestClient(h, "admin", "s2")
	h.registerClient(keep)
	h.registerClient(drop)

	h.DisconnectSession("admin", "s2", "logout")

	assert.Equal(t, 1, h.TotalClients())
	assert.Error(t, drop.ctx.Err())
	assert.NoError(t, keep.ctx.Err())
}

func TestSubscribeRejectsUnknownChannel(t *testing.T) {
	c := newTestClient(NewHub(stubValidator{}, zap.NewNop()), "admin", "s1")
	assert.False(t, c.Subscribe("audit"))
	assert.True(t, c.Subscribe(wstypes.ChannelSystem))
	assert.True(t, c.IsSubscribed(wstypes.ChannelSystem))
}
