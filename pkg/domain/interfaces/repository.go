package interfaces

import (
	"context"

	"github.com/secmon-lab/ticketsync/pkg/domain/model/ticket"
	"github.com/secmon-lab/ticketsync/pkg/domain/types"
)

// TicketRepository stores tickets for the development backend.
type TicketRepository interface {
	GetTicket(ctx context.Context, id types.TicketID) (*ticket.Ticket, error)
	PutTicket(ctx context.Context, t ticket.Ticket) error
	AppendReply(ctx context.Context, id types.TicketID, reply ticket.Reply) (*ticket.Ticket, error)
	UpdateStatus(ctx context.Context, id types.TicketID, status types.TicketStatus) (*ticket.Ticket, error)
	ListTickets(ctx context.Context) ([]*ticket.Ticket, error)
}
