package live_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/ticketsync/pkg/adapter/live"
	"github.com/secmon-lab/ticketsync/pkg/domain/interfaces"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/errs"
	websocket_model "github.com/secmon-lab/ticketsync/pkg/domain/model/websocket"
	"github.com/secmon-lab/ticketsync/pkg/domain/types"
)

type pushServer struct {
	*httptest.Server
	conns  chan *websocket.Conn
	frames chan websocket_model.Frame
}

func newPushServer(t *testing.T) *pushServer {
	t.Helper()
	s := &pushServer{
		conns:  make(chan *websocket.Conn, 8),
		frames: make(chan websocket_model.Frame, 32),
	}
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tk" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.conns <- conn
		go func() {
			for {
				_, data, err := conn.ReadMessage()
				if err != nil {
					return
				}
				var f websocket_model.Frame
				if err := f.FromBytes(data); err == nil {
					s.frames <- f
				}
			}
		}()
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *pushServer) wsURL() string {
	return strings.Replace(s.URL, "http", "ws", 1) + "/socket"
}

func (s *pushServer) nextConn(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case c := <-s.conns:
		t.Cleanup(func() { _ = c.Close() })
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("no connection arrived")
	}
	return nil
}

func push(t *testing.T, conn *websocket.Conn, event websocket_model.EventName, payload any) {
	t.Helper()
	f, err := websocket_model.NewFrame(event, payload)
	gt.NoError(t, err)
	data, err := f.ToBytes()
	gt.NoError(t, err)
	gt.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func nextEvent(t *testing.T, l interfaces.LiveListener) *websocket_model.Event {
	t.Helper()
	select {
	case ev, ok := <-l.Events():
		if !ok {
			t.Fatal("event stream closed")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event arrived")
	}
	return nil
}

func TestManager_ReconnectAndJoin(t *testing.T) {
	ctx := context.Background()
	srv := newPushServer(t)

	m := live.New(srv.wsURL(), "tk")
	defer m.Close()
	l := m.Acquire()
	defer l.Release()

	gt.False(t, m.Connected())
	gt.NoError(t, m.Reconnect(ctx))
	srv.nextConn(t)
	gt.True(t, m.Connected())
	gt.V(t, nextEvent(t, l).Name).Equal(websocket_model.EventConnect)

	// already connected: no new dial
	gt.NoError(t, m.Reconnect(ctx))
	select {
	case <-srv.conns:
		t.Fatal("second connection was dialed")
	case <-time.After(100 * time.Millisecond):
	}

	gt.NoError(t, l.Emit(ctx, websocket_model.EventJoin, websocket_model.JoinPayload{TicketID: "T1"}))
	select {
	case f := <-srv.frames:
		gt.V(t, f.Event).Equal(websocket_model.EventJoin)
		var p websocket_model.JoinPayload
		gt.NoError(t, f.Decode(&p))
		gt.V(t, p.TicketID).Equal(types.TicketID("T1"))
	case <-time.After(2 * time.Second):
		t.Fatal("join frame not received")
	}
}

func TestManager_PushEvents(t *testing.T) {
	ctx := context.Background()
	srv := newPushServer(t)

	m := live.New(srv.wsURL(), "tk")
	defer m.Close()
	l := m.Acquire()
	defer l.Release()

	gt.NoError(t, m.Reconnect(ctx))
	conn := srv.nextConn(t)
	gt.V(t, nextEvent(t, l).Name).Equal(websocket_model.EventConnect)

	push(t, conn, websocket_model.EventMessage, map[string]any{
		"ticketId": "T1",
		"reply":    map[string]any{"by": "admin", "message": "On it", "createdAt": "2026-10-01T10:00:00.000Z"},
	})
	gt.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not a frame")))
	gt.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"support:typing","data":{}}`)))
	push(t, conn, websocket_model.EventStatus, map[string]any{"ticketId": "T1", "status": "closed"})

	ev := nextEvent(t, l)
	gt.V(t, ev.Name).Equal(websocket_model.EventMessage)
	gt.V(t, ev.Message.Reply.Message).Equal("On it")

	ev = nextEvent(t, l)
	gt.V(t, ev.Name).Equal(websocket_model.EventStatus)
	gt.V(t, ev.Status.Status).Equal(types.TicketStatusClosed)
}

func TestManager_SharedConnection(t *testing.T) {
	ctx := context.Background()
	srv := newPushServer(t)

	m := live.New(srv.wsURL(), "tk")
	defer m.Close()
	l1 := m.Acquire()
	l2 := m.Acquire()
	defer l2.Release()
	gt.V(t, l1.ID()).NotEqual(l2.ID())
	gt.V(t, m.Listeners()).Equal(2)

	gt.NoError(t, m.Reconnect(ctx))
	conn := srv.nextConn(t)
	gt.V(t, nextEvent(t, l1).Name).Equal(websocket_model.EventConnect)
	gt.V(t, nextEvent(t, l2).Name).Equal(websocket_model.EventConnect)

	l1.Release()
	l1.Release()
	gt.V(t, m.Listeners()).Equal(1)
	gt.True(t, m.Connected())

	_, ok := <-l1.Events()
	gt.False(t, ok)

	push(t, conn, websocket_model.EventStatus, map[string]any{"ticketId": "T1", "status": "resolved"})
	gt.V(t, nextEvent(t, l2).Name).Equal(websocket_model.EventStatus)
}

func TestManager_EmitWithoutConnection(t *testing.T) {
	m := live.New("ws://127.0.0.1:1/socket", "tk")
	l := m.Acquire()
	defer l.Release()

	err := l.Emit(context.Background(), websocket_model.EventJoin, websocket_model.JoinPayload{TicketID: "T1"})
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, errs.TagTransport))
}

func TestManager_Unauthorized(t *testing.T) {
	srv := newPushServer(t)

	m := live.New(srv.wsURL(), "wrong")
	err := m.Reconnect(context.Background())
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, errs.TagUnauthorized))
	gt.False(t, m.Connected())
}

func TestManager_MissingURL(t *testing.T) {
	err := live.New("", "tk").Reconnect(context.Background())
	gt.True(t, goerr.HasTag(err, errs.TagConfig))
}

func TestManager_AutoReconnect(t *testing.T) {
	ctx := context.Background()
	srv := newPushServer(t)

	m := live.New(srv.wsURL(), "tk", live.WithAutoReconnect(20*time.Millisecond))
	defer m.Close()
	l := m.Acquire()
	defer l.Release()

	gt.NoError(t, m.Reconnect(ctx))
	first := srv.nextConn(t)
	gt.V(t, nextEvent(t, l).Name).Equal(websocket_model.EventConnect)

	gt.NoError(t, first.Close())
	gt.V(t, nextEvent(t, l).Name).Equal(websocket_model.EventDisconnect)

	second := srv.nextConn(t)
	gt.V(t, nextEvent(t, l).Name).Equal(websocket_model.EventConnect)
	gt.True(t, m.Connected())

	push(t, second, websocket_model.EventStatus, map[string]any{"ticketId": "T1", "status": "open"})
	gt.V(t, nextEvent(t, l).Name).Equal(websocket_model.EventStatus)
}
