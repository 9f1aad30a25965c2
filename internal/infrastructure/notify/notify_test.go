package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/auraplan/domain"
	"github.com/fastygo/auraplan/internal/infrastructure/notify/notifytest"
)

func TestGate_SuppressesWhenDenied(t *testing.T) {
	rec := &notifytest.Recorder{}
	allowed := false
	gate := NewGate(rec, func() bool { return allowed }, nil)

	require.NoError(t, gate.Notify(context.Background(), domain.Notification{Title: "hidden"}))
	assert.Empty(t, rec.Sent())

	allowed = true
	require.NoError(t, gate.Notify(context.Background(), domain.Notification{Title: "shown"}))
	require.Len(t, rec.Sent(), 1)
	assert.Equal(t, "shown", rec.Sent()[0].Title)
}

func TestMulti_DeliversToAllAndJoinsErrors(t *testing.T) {
	rec := &notifytest.Recorder{}
	boom := errors.New("boom")
	m := Multi{rec, Func(func(context.Context, domain.Notification) error { return boom }), nil, NewLog(nil)}

	err := m.Notify(context.Background(), domain.Notification{Title: "x"})
	assert.ErrorIs(t, err, boom)
	assert.Len(t, rec.Sent(), 1)
}

func TestHub_BroadcastsToClients(t *testing.T) {
	hub := NewHub(HubConfig{Host: "127.0.0.1", Port: 0})
	require.NoError(t, hub.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hub.Stop(ctx)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws://"+hub.Addr()+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	var hello Message
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &hello))
	assert.Equal(t, MessageHello, hello.Type)

	require.NoError(t, hub.Notify(ctx, domain.Notification{Title: "⏰ Reminder: Essay", Tag: "task-reminder-1"}))

	var got Message
	_, data, err = conn.Read(ctx)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, MessageNotification, got.Type)
	require.NotNil(t, got.Data)
	assert.Equal(t, "⏰ Reminder: Essay", got.Data.Title)
}
