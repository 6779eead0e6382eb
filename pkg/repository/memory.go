package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ticketsync/pkg/domain/interfaces"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/errs"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/ticket"
	"github.com/secmon-lab/ticketsync/pkg/domain/types"
	"github.com/secmon-lab/ticketsync/pkg/utils/clock"
	"github.com/secmon-lab/ticketsync/pkg/utils/errutil"
)

type Memory struct {
	mu      sync.RWMutex
	tickets map[types.TicketID]*ticket.Ticket

	// Call counter for tracking method invocations
	callCounts map[string]int
	callMu     sync.RWMutex

	eb *goerr.Builder
}

var _ interfaces.TicketRepository = &Memory{}

func NewMemory() *Memory {
	return &Memory{
		tickets:    make(map[types.TicketID]*ticket.Ticket),
		callCounts: make(map[string]int),
		eb:         goerr.NewBuilder(goerr.TV(errutil.RepositoryKey, "memory")),
	}
}

// incrementCallCount safely increments the call counter for a method
func (r *Memory) incrementCallCount(methodName string) {
	r.callMu.Lock()
	defer r.callMu.Unlock()
	r.callCounts[methodName]++
}

// GetCallCount returns the number of times a method has been called
func (r *Memory) GetCallCount(methodName string) int {
	r.callMu.RLock()
	defer r.callMu.RUnlock()
	return r.callCounts[methodName]
}

func (r *Memory) GetTicket(ctx context.Context, ticketID types.TicketID) (*ticket.Ticket, error) {
	r.incrementCallCount("GetTicket")
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tickets[ticketID]
	if !ok {
		return nil, r.eb.New("ticket not found",
			goerr.T(errs.TagNotFound),
			goerr.TV(errutil.TicketIDKey, ticketID))
	}
	return t.Clone(), nil
}

func (r *Memory) PutTicket(ctx context.Context, t ticket.Ticket) error {
	r.incrementCallCount("PutTicket")
	if err := t.Validate(); err != nil {
		return r.eb.Wrap(err, "invalid ticket", goerr.T(errs.TagValidation))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets[t.ID] = t.Clone()
	return nil
}

// AppendReply adds reply to the ticket and bumps its updatedAt. Closed tickets
// do not accept replies.
func (r *Memory) AppendReply(ctx context.Context, ticketID types.TicketID, reply ticket.Reply) (*ticket.Ticket, error) {
	r.incrementCallCount("AppendReply")
	if err := reply.Validate(); err != nil {
		return nil, r.eb.Wrap(err, "invalid reply", goerr.T(errs.TagValidation))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tickets[ticketID]
	if !ok {
		return nil, r.eb.New("ticket not found",
			goerr.T(errs.TagNotFound),
			goerr.TV(errutil.TicketIDKey, ticketID))
	}
	if t.Status == types.TicketStatusClosed {
		return nil, r.eb.New("ticket is closed",
			goerr.T(errs.TagValidation),
			goerr.TV(errutil.TicketIDKey, ticketID))
	}

	t.Replies = append(t.Replies, reply)
	t.UpdatedAt = reply.CreatedAt
	return t.Clone(), nil
}

func (r *Memory) UpdateStatus(ctx context.Context, ticketID types.TicketID, status types.TicketStatus) (*ticket.Ticket, error) {
	r.incrementCallCount("UpdateStatus")
	if err := status.Validate(); err != nil {
		return nil, r.eb.Wrap(err, "invalid status", goerr.T(errs.TagValidation))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tickets[ticketID]
	if !ok {
		return nil, r.eb.New("ticket not found",
			goerr.T(errs.TagNotFound),
			goerr.TV(errutil.TicketIDKey, ticketID))
	}

	t.Status = status
	t.UpdatedAt = clock.Now(ctx).UTC()
	return t.Clone(), nil
}

// ListTickets returns all tickets, oldest first.
func (r *Memory) ListTickets(ctx context.Context) ([]*ticket.Ticket, error) {
	r.incrementCallCount("ListTickets")
	r.mu.RLock()
	defer r.mu.RUnlock()

	tickets := make([]*ticket.Ticket, 0, len(r.tickets))
	for _, t := range r.tickets {
		tickets = append(tickets, t.Clone())
	}
	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].CreatedAt.Before(tickets[j].CreatedAt)
	})
	return tickets, nil
}
