package wstouch_test

import (
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veldra/helmsman/dispatch"
	"github.com/veldra/helmsman/geom"
	"github.com/veldra/helmsman/source/wstouch"
)

type published struct {
	phase string
	ev    dispatch.TouchEvent
	focus bool
}

func startServer(t *testing.T) (*wstouch.Server, <-chan published) {
	t.Helper()

	bus := dispatch.NewBus()
	events := make(chan published, 16)
	_, err := bus.SubscribeBegan(func(ev dispatch.TouchEvent, focus bool) {
		events <- published{phase: "began", ev: ev, focus: focus}
	})
	require.NoError(t, err)
	_, err = bus.SubscribeEnded(func(ev dispatch.TouchEvent, focus bool) {
		events <- published{phase: "ended", ev: ev, focus: focus}
	})
	require.NoError(t, err)

	srv := wstouch.New(bus, wstouch.ServerConfig{Addr: "127.0.0.1:0"}, nil)
	require.NoError(t, srv.Start())
	t.Cleanup(srv.Close)
	return srv, events
}

func dial(t *testing.T, srv *wstouch.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+srv.Addr()+"/touch", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func recv(t *testing.T, events <-chan published) published {
	t.Helper()
	select {
	case p := <-events:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published touch event")
		return published{}
	}
}

func TestTouchMessagesArePublished(t *testing.T) {
	srv, events := startServer(t)
	conn := dial(t, srv)

	require.NoError(t, conn.WriteJSON(wstouch.Message{
		Phase: "began", ID: 3, X: 120, Y: 480, TS: 1700000000000,
	}))
	p := recv(t, events)
	assert.Equal(t, "began", p.phase)
	assert.Equal(t, int64(3), p.ev.ID)
	assert.Equal(t, geom.Vec2{X: 120, Y: 480}, p.ev.Pos)
	assert.Equal(t, time.UnixMilli(1700000000000), p.ev.Time)
	assert.True(t, p.focus, "focus defaults to true when omitted")

	focus := false
	require.NoError(t, conn.WriteJSON(wstouch.Message{
		Phase: "ended", ID: 3, X: 140, Y: 470, Focus: &focus,
	}))
	p = recv(t, events)
	assert.Equal(t, "ended", p.phase)
	assert.Equal(t, geom.Vec2{X: 140, Y: 470}, p.ev.Pos)
	assert.False(t, p.focus)
	assert.False(t, p.ev.Time.IsZero(), "server stamps messages without ts")
}

func TestUnknownPhaseIsIgnored(t *testing.T) {
	srv, events := startServer(t)
	conn := dial(t, srv)

	require.NoError(t, conn.WriteJSON(wstouch.Message{Phase: "moved", ID: 1}))
	require.NoError(t, conn.WriteJSON(wstouch.Message{Phase: "began", ID: 2}))

	// Only the valid message comes through, in order.
	p := recv(t, events)
	assert.Equal(t, "began", p.phase)
	assert.Equal(t, int64(2), p.ev.ID)
	assert.Empty(t, events)
}

func TestMultipleClients(t *testing.T) {
	srv, events := startServer(t)
	a := dial(t, srv)
	b := dial(t, srv)

	require.NoError(t, a.WriteJSON(wstouch.Message{Phase: "began", ID: 1}))
	require.NoError(t, b.WriteJSON(wstouch.Message{Phase: "began", ID: 2}))

	got := map[int64]bool{}
	got[recv(t, events).ev.ID] = true
	got[recv(t, events).ev.ID] = true
	assert.Equal(t, map[int64]bool{1: true, 2: true}, got)
}
