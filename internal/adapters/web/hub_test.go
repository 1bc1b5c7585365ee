package web

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/spam-stream/internal/core"
)

func TestHubPublishesToSessionClients(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	defer hub.Stop()

	mine := &Client{Hub: hub, SessionID: "s1", Send: make(chan []byte, 4)}
	other := &Client{Hub: hub, SessionID: "s2", Send: make(chan []byte, 4)}
	hub.register <- mine
	hub.register <- other

	require.Eventually(t, func() bool {
		return hub.ClientCount("s1") == 1 && hub.ClientCount("s2") == 1
	}, time.Second, 5*time.Millisecond)

	hub.Publish(core.Event{
		Type:      core.EventMessage,
		SessionID: "s1",
		Message:   &core.MessageView{Index: 0, Sender: "a@x.com", SpamScore: 0.91, IsSpam: true},
	})

	select {
	case data := <-mine.Send:
		var ev core.Event
		require.NoError(t, json.Unmarshal(data, &ev))
		assert.Equal(t, core.EventMessage, ev.Type)
		assert.Equal(t, 0.91, ev.Message.SpamScore)
	case <-time.After(time.Second):
		t.Fatal("expected event for s1")
	}
	assert.Empty(t, other.Send)
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	defer hub.Stop()

	client := &Client{Hub: hub, SessionID: "s1", Send: make(chan []byte, 1)}
	hub.register <- client
	hub.unregister <- client

	require.Eventually(t, func() bool { return hub.ClientCount("s1") == 0 }, time.Second, 5*time.Millisecond)
	_, open := <-client.Send
	assert.False(t, open)
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	defer hub.Stop()

	slow := &Client{Hub: hub, SessionID: "s1", Send: make(chan []byte)}
	hub.register <- slow
	require.Eventually(t, func() bool { return hub.ClientCount("s1") == 1 }, time.Second, 5*time.Millisecond)

	hub.Publish(core.Event{Type: core.EventCompleted, SessionID: "s1"})

	require.Eventually(t, func() bool { return hub.ClientCount("s1") == 0 }, time.Second, 5*time.Millisecond)
}
