package websocket_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	websocket_ctrl "github.com/secmon-lab/ticketsync/pkg/controller/websocket"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/ticket"
	websocket_model "github.com/secmon-lab/ticketsync/pkg/domain/model/websocket"
	"github.com/secmon-lab/ticketsync/pkg/domain/types"
)

func setupTestHub(t *testing.T) (*websocket_ctrl.Hub, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := websocket_ctrl.NewHub(ctx)

	// Start hub in goroutine
	go hub.Run()

	// Give hub time to start
	time.Sleep(10 * time.Millisecond)

	return hub, cancel
}

func receiveFrame(t *testing.T, client *websocket_ctrl.Client) websocket_model.Frame {
	t.Helper()
	select {
	case data, ok := <-websocket_ctrl.Queue(client):
		gt.True(t, ok)
		var f websocket_model.Frame
		gt.NoError(t, f.FromBytes(data))
		return f
	case <-time.After(time.Second):
		t.Fatal("no frame received")
	}
	return websocket_model.Frame{}
}

func TestHub_RegisterAndJoin(t *testing.T) {
	hub, cancel := setupTestHub(t)
	defer cancel()
	defer func() { _ = hub.Close() }()

	ticketID := types.TicketID("T1")
	client := hub.NewClient(nil, false)
	hub.Register(client)
	time.Sleep(10 * time.Millisecond)

	// connected but in no room yet
	gt.Value(t, hub.GetTotalClientCount()).Equal(1)
	gt.Value(t, hub.GetClientCount(ticketID)).Equal(0)

	hub.Join(client, ticketID)
	hub.Join(client, ticketID)
	time.Sleep(10 * time.Millisecond)

	gt.Value(t, hub.GetClientCount(ticketID)).Equal(1)
	activeTickets := hub.GetActiveTickets()
	gt.Array(t, activeTickets).Length(1)
	gt.Value(t, activeTickets[0]).Equal(ticketID)
}

func TestHub_Unregister(t *testing.T) {
	hub, cancel := setupTestHub(t)
	defer cancel()
	defer func() { _ = hub.Close() }()

	client := hub.NewClient(nil, false)
	queue := websocket_ctrl.Queue(client)
	hub.Register(client)
	hub.Join(client, "T1")
	hub.Join(client, "T2")
	time.Sleep(10 * time.Millisecond)
	gt.Array(t, hub.GetActiveTickets()).Length(2)

	hub.Unregister(client)
	time.Sleep(10 * time.Millisecond)

	gt.Value(t, hub.GetTotalClientCount()).Equal(0)
	gt.Value(t, hub.GetClientCount("T1")).Equal(0)
	gt.Array(t, hub.GetActiveTickets()).Length(0)

	_, ok := <-queue
	gt.False(t, ok)
}

func TestHub_BroadcastOnlyToRoom(t *testing.T) {
	hub, cancel := setupTestHub(t)
	defer cancel()
	defer func() { _ = hub.Close() }()

	inRoom := hub.NewClient(nil, false)
	other := hub.NewClient(nil, true)
	hub.Register(inRoom)
	hub.Register(other)
	hub.Join(inRoom, "T1")
	hub.Join(other, "T2")
	time.Sleep(10 * time.Millisecond)

	created := time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)
	gt.NoError(t, hub.SendReplyToTicket("T1", ticket.Reply{
		By:        types.ReplyByAdmin,
		Message:   "We are on it",
		CreatedAt: created,
	}))

	f := receiveFrame(t, inRoom)
	gt.Value(t, f.Event).Equal(websocket_model.EventMessage)
	var payload websocket_model.MessagePayload
	gt.NoError(t, f.Decode(&payload))
	gt.Value(t, payload.TicketID).Equal(types.TicketID("T1"))
	gt.Value(t, payload.Reply.Message).Equal("We are on it")
	gt.True(t, payload.Reply.CreatedAt.Equal(created))

	select {
	case <-websocket_ctrl.Queue(other):
		t.Fatal("client of another room received the frame")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_SendStatusToTicket(t *testing.T) {
	hub, cancel := setupTestHub(t)
	defer cancel()
	defer func() { _ = hub.Close() }()

	client := hub.NewClient(nil, false)
	hub.Register(client)
	hub.Join(client, "T1")
	time.Sleep(10 * time.Millisecond)

	updated := time.Date(2026, 10, 1, 11, 0, 0, 0, time.UTC)
	gt.NoError(t, hub.SendStatusToTicket("T1", types.TicketStatusClosed, updated))

	f := receiveFrame(t, client)
	gt.Value(t, f.Event).Equal(websocket_model.EventStatus)
	ev, err := websocket_model.EventFromFrame(&f)
	gt.NoError(t, err)
	gt.Value(t, ev.Status.Status).Equal(types.TicketStatusClosed)
	gt.NotNil(t, ev.Status.UpdatedAt)
	gt.True(t, ev.Status.UpdatedAt.Equal(updated))
}

func TestHub_SendToClient(t *testing.T) {
	hub, cancel := setupTestHub(t)
	defer cancel()
	defer func() { _ = hub.Close() }()

	client := hub.NewClient(nil, false)
	hub.Register(client)
	time.Sleep(10 * time.Millisecond)

	gt.NoError(t, hub.SendToClient(client.GetClientID(), websocket_model.EventError, websocket_model.ErrorPayload{Message: "hi"}))
	f := receiveFrame(t, client)
	gt.Value(t, f.Event).Equal(websocket_model.EventError)

	gt.Error(t, hub.SendToClient("unknown", websocket_model.EventError, nil))
}

func TestHub_Close(t *testing.T) {
	hub, cancel := setupTestHub(t)
	defer cancel()

	client := hub.NewClient(nil, false)
	queue := websocket_ctrl.Queue(client)
	hub.Register(client)
	time.Sleep(10 * time.Millisecond)

	gt.NoError(t, hub.Close())
	_, ok := <-queue
	gt.False(t, ok)

	// operations after close return without blocking
	hub.BroadcastToTicket("T1", []byte("{}"))
	hub.Join(client, "T1")
}
