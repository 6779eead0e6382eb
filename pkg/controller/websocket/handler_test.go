package websocket_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/m-mizutani/gt"
	websocket_ctrl "github.com/secmon-lab/ticketsync/pkg/controller/websocket"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/ticket"
	websocket_model "github.com/secmon-lab/ticketsync/pkg/domain/model/websocket"
	"github.com/secmon-lab/ticketsync/pkg/domain/types"
	"github.com/secmon-lab/ticketsync/pkg/repository"
	"github.com/secmon-lab/ticketsync/pkg/utils/user"
)

func setupTestHandler(t *testing.T) (*websocket_ctrl.Hub, *httptest.Server) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	repo := repository.NewMemory()
	gt.NoError(t, repo.PutTicket(ctx, ticket.Ticket{
		ID:      "test-ticket",
		Subject: "Test Ticket",
		Status:  types.TicketStatusOpen,
	}))

	hub := websocket_ctrl.NewHub(ctx)
	go hub.Run()
	t.Cleanup(func() { _ = hub.Close() })
	time.Sleep(10 * time.Millisecond)

	handler := websocket_ctrl.NewHandler(hub, repo)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := r.Header.Get("X-Test-User"); id != "" {
				r = r.WithContext(user.WithUserID(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Get("/socket", handler.HandleSocket)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return hub, server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/socket"
	conn, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"X-Test-User": {"u1"}})
	gt.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func emit(t *testing.T, conn *websocket.Conn, event websocket_model.EventName, payload any) {
	t.Helper()
	f, err := websocket_model.NewFrame(event, payload)
	gt.NoError(t, err)
	data, err := f.ToBytes()
	gt.NoError(t, err)
	gt.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func readEvent(t *testing.T, conn *websocket.Conn) *websocket_model.Event {
	t.Helper()
	gt.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := conn.ReadMessage()
	gt.NoError(t, err)

	var f websocket_model.Frame
	gt.NoError(t, f.FromBytes(data))
	ev, err := websocket_model.EventFromFrame(&f)
	gt.NoError(t, err)
	return ev
}

func waitClients(t *testing.T, hub *websocket_ctrl.Hub, ticketID types.TicketID, want int) {
	t.Helper()
	for range 100 {
		if hub.GetClientCount(ticketID) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("room %s did not reach %d clients", ticketID, want)
}

func TestHandler_HandleSocket_MissingUserID(t *testing.T) {
	_, server := setupTestHandler(t)

	resp, err := http.Get(server.URL + "/socket")
	gt.NoError(t, err)
	defer resp.Body.Close()

	gt.Value(t, resp.StatusCode).Equal(http.StatusUnauthorized)
}

func TestHandler_HandleSocket_BadUpgrade(t *testing.T) {
	_, server := setupTestHandler(t)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/socket", nil)
	gt.NoError(t, err)
	req.Header.Set("X-Test-User", "u1")
	resp, err := http.DefaultClient.Do(req)
	gt.NoError(t, err)
	defer resp.Body.Close()

	gt.Value(t, resp.StatusCode).Equal(http.StatusBadRequest)
}

func TestHandler_JoinAndReceive(t *testing.T) {
	hub, server := setupTestHandler(t)
	conn := dial(t, server)

	emit(t, conn, websocket_model.EventJoin, websocket_model.JoinPayload{TicketID: "test-ticket"})
	waitClients(t, hub, "test-ticket", 1)

	gt.NoError(t, hub.SendStatusToTicket("test-ticket", types.TicketStatusResolved, time.Time{}))

	ev := readEvent(t, conn)
	gt.Value(t, ev.Name).Equal(websocket_model.EventStatus)
	gt.Value(t, ev.Status.TicketID).Equal(types.TicketID("test-ticket"))
	gt.Value(t, ev.Status.Status).Equal(types.TicketStatusResolved)
	gt.Nil(t, ev.Status.UpdatedAt)

	// closing the socket leaves the room
	gt.NoError(t, conn.Close())
	waitClients(t, hub, "test-ticket", 0)
}

func TestHandler_ErrorFrames(t *testing.T) {
	testCases := []struct {
		name  string
		frame string
		code  string
	}{
		{
			name:  "unknown ticket",
			frame: `{"event":"support:join","data":{"ticketId":"missing"}}`,
			code:  "not_found",
		},
		{
			name:  "join without ticket",
			frame: `{"event":"support:join","data":{}}`,
			code:  "invalid_request",
		},
		{
			name:  "unknown event",
			frame: `{"event":"support:typing","data":{}}`,
			code:  "unknown_event",
		},
		{
			name:  "broken frame",
			frame: `{"event":`,
			code:  "invalid_frame",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			hub, server := setupTestHandler(t)
			conn := dial(t, server)

			gt.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tc.frame)))

			ev := readEvent(t, conn)
			gt.Value(t, ev.Name).Equal(websocket_model.EventError)
			gt.Value(t, ev.Error.Code).Equal(tc.code)
			gt.Array(t, hub.GetActiveTickets()).Length(0)
		})
	}
}
