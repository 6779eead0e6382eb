package interfaces

import (
	"context"

	"github.com/secmon-lab/ticketsync/pkg/domain/model/ticket"
	websocket_model "github.com/secmon-lab/ticketsync/pkg/domain/model/websocket"
	"github.com/secmon-lab/ticketsync/pkg/domain/types"
)

// TicketAPI is the REST side of the backend. Every call returns the
// authoritative ticket.
type TicketAPI interface {
	FetchTicket(ctx context.Context, id types.TicketID) (*ticket.Ticket, error)
	PostReply(ctx context.Context, id types.TicketID, message string) (*ticket.Ticket, error)
	PatchStatus(ctx context.Context, id types.TicketID, status types.TicketStatus) (*ticket.Ticket, error)
	CloseTicket(ctx context.Context, id types.TicketID) (*ticket.Ticket, error)
}

// LiveChannel is the process-wide push connection shared by all views.
type LiveChannel interface {
	Connected() bool
	Reconnect(ctx context.Context) error
	Acquire() LiveListener
}

// LiveListener is one view's registration on the LiveChannel. Release
// detaches it without closing the shared connection.
type LiveListener interface {
	ID() types.ListenerID
	Events() <-chan *websocket_model.Event
	Emit(ctx context.Context, event websocket_model.EventName, payload any) error
	Release()
}
