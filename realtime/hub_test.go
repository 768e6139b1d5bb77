package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestClient() *Client {
	return &Client{send: make(chan []byte, 16)}
}

func TestHubRegisterMarksUserOnline(t *testing.T) {
	h := NewHub()
	c := newTestClient()

	assert.False(t, h.IsOnline("user-1"))

	h.Register("user-1", c)
	assert.True(t, h.IsOnline("user-1"))

	// registering the same client twice is a no-op
	h.Register("user-1", c)
	assert.True(t, h.IsOnline("user-1"))

	h.Unregister(c)
	assert.False(t, h.IsOnline("user-1"))
}

func TestHubMultipleConnectionsPerUser(t *testing.T) {
	h := NewHub()
	c1 := newTestClient()
	c2 := newTestClient()

	h.Register("user-1", c1)
	h.Register("user-1", c2)
	assert.True(t, h.IsOnline("user-1"))

	// user stays online until the last connection goes away
	h.Unregister(c1)
	assert.True(t, h.IsOnline("user-1"))

	h.Unregister(c2)
	assert.False(t, h.IsOnline("user-1"))
}

func TestHubUnregisterUnknownClient(t *testing.T) {
	h := NewHub()
	h.Unregister(newTestClient())
	assert.False(t, h.IsOnline(""))
}

func TestHubSendToDeliversExactPayload(t *testing.T) {
	h := NewHub()
	c := newTestClient()
	h.Register("user-1", c)

	h.SendTo("user-1", EventNotificationNew, map[string]string{"message": "hello there"})

	raw := <-c.send
	var envelope struct {
		Event string            `json:"event"`
		Data  map[string]string `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(raw, &envelope))
	assert.Equal(t, EventNotificationNew, envelope.Event)
	assert.Equal(t, "hello there", envelope.Data["message"])
}

func TestHubSendToOfflineUserIsNoop(t *testing.T) {
	h := NewHub()
	c := newTestClient()
	h.Register("user-1", c)

	h.SendTo("someone-else", EventNotificationNew, "ignored")

	assert.Empty(t, c.send)
}

func TestHubSendToAllConnections(t *testing.T) {
	h := NewHub()
	c1 := newTestClient()
	c2 := newTestClient()
	h.Register("user-1", c1)
	h.Register("user-1", c2)

	h.SendTo("user-1", EventReportUpdated, "payload")

	assert.Len(t, c1.send, 1)
	assert.Len(t, c2.send, 1)
}

func TestHubDropsSlowClient(t *testing.T) {
	h := NewHub()
	slow := &Client{hub: h, send: make(chan []byte)} // unbuffered, never read
	h.Register("user-1", slow)

	h.SendTo("user-1", EventNotificationNew, "first")

	assert.False(t, h.IsOnline("user-1"))
}

func TestHubReregisterMovesClient(t *testing.T) {
	h := NewHub()
	c := newTestClient()

	h.Register("user-1", c)
	h.Register("user-2", c)

	assert.False(t, h.IsOnline("user-1"))
	assert.True(t, h.IsOnline("user-2"))
}
