package reconcile

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/errs"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/ticket"
	websocket_model "github.com/secmon-lab/ticketsync/pkg/domain/model/websocket"
	"github.com/secmon-lab/ticketsync/pkg/domain/types"
	"github.com/secmon-lab/ticketsync/pkg/utils/errutil"
	"github.com/secmon-lab/ticketsync/pkg/utils/logging"
	"github.com/secmon-lab/ticketsync/pkg/utils/ptr"
)

type ChangeKind string

const (
	ChangeSnapshot ChangeKind = "snapshot"
	ChangeReply    ChangeKind = "reply"
	ChangeStatus   ChangeKind = "status"
)

// Change is passed to observers after every applied mutation. Ticket is a
// copy of the Store contents after the change; Reply is set for ChangeReply.
type Change struct {
	Kind   ChangeKind
	Ticket *ticket.Ticket
	Reply  *ticket.Reply
}

type Observer func(ctx context.Context, change Change)

// Store holds the client side copy of one ticket and merges REST snapshots and
// push events into it.
type Store struct {
	id        types.TicketID
	mutex     sync.RWMutex
	ticket    *ticket.Ticket
	observers []Observer
}

func New(id types.TicketID, observers ...Observer) *Store {
	return &Store{
		id:        id,
		observers: observers,
	}
}

// Observe adds an observer. Observers run synchronously on the goroutine that
// applied the change.
func (s *Store) Observe(o Observer) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.observers = append(s.observers, o)
}

func (s *Store) ID() types.TicketID {
	return s.id
}

// Hydrated reports whether a snapshot has been applied.
func (s *Store) Hydrated() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.ticket != nil
}

// Snapshot returns a deep copy of the current ticket, or nil before the first
// snapshot.
func (s *Store) Snapshot() *ticket.Ticket {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.ticket.Clone()
}

// Reset discards the ticket. Observers are kept.
func (s *Store) Reset() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.ticket = nil
}

// ApplySnapshot replaces the whole ticket with t. Applying the same snapshot
// twice leaves the Store unchanged.
func (s *Store) ApplySnapshot(ctx context.Context, t *ticket.Ticket) error {
	if t == nil {
		return goerr.New("snapshot has no ticket",
			goerr.T(errs.TagInvalidResponse),
			goerr.TV(errutil.TicketIDKey, s.id))
	}
	if t.ID != s.id {
		return goerr.New("snapshot is for another ticket",
			goerr.T(errs.TagInvalidResponse),
			goerr.TV(errutil.TicketIDKey, s.id),
			goerr.V("snapshot_ticket_id", t.ID))
	}

	s.mutex.Lock()
	s.ticket = t.Clone()
	current := s.ticket.Clone()
	observers := s.observers
	s.mutex.Unlock()

	s.notify(ctx, observers, Change{Kind: ChangeSnapshot, Ticket: current})
	return nil
}

// ApplyMessage appends the pushed reply unless it is for another ticket, the
// Store is not hydrated yet, or an equal reply is already present. It returns
// true if the Store changed.
func (s *Store) ApplyMessage(ctx context.Context, p *websocket_model.MessagePayload) bool {
	logger := logging.From(ctx)
	if p == nil || p.TicketID != s.id {
		return false
	}

	s.mutex.Lock()
	if s.ticket == nil {
		s.mutex.Unlock()
		logger.Debug("reply arrived before snapshot, skipped", "ticket_id", s.id)
		return false
	}
	if s.ticket.HasReply(p.Reply) {
		s.mutex.Unlock()
		logger.Debug("duplicated reply skipped", "ticket_id", s.id)
		return false
	}

	reply := p.Reply
	s.ticket.Replies = append(s.ticket.Replies, reply)
	if !reply.CreatedAt.IsZero() {
		s.ticket.UpdatedAt = reply.CreatedAt
	}
	current := s.ticket.Clone()
	observers := s.observers
	s.mutex.Unlock()

	s.notify(ctx, observers, Change{Kind: ChangeReply, Ticket: current, Reply: &reply})
	return true
}

// ApplyStatus overwrites the status, and updatedAt when the event carries it.
// The last applied event wins.
func (s *Store) ApplyStatus(ctx context.Context, p *websocket_model.StatusPayload) bool {
	if p == nil || p.TicketID != s.id {
		return false
	}

	s.mutex.Lock()
	if s.ticket == nil {
		s.mutex.Unlock()
		logging.From(ctx).Debug("status arrived before snapshot, skipped", "ticket_id", s.id)
		return false
	}

	s.ticket.Status = p.Status
	if updatedAt := ptr.Deref(p.UpdatedAt); !updatedAt.IsZero() {
		s.ticket.UpdatedAt = updatedAt
	}
	current := s.ticket.Clone()
	observers := s.observers
	s.mutex.Unlock()

	s.notify(ctx, observers, Change{Kind: ChangeStatus, Ticket: current})
	return true
}

// ApplyEvent dispatches a push event. Events other than message and status
// are not Store mutations and return false.
func (s *Store) ApplyEvent(ctx context.Context, ev *websocket_model.Event) bool {
	if ev == nil {
		return false
	}
	switch ev.Name {
	case websocket_model.EventMessage:
		return s.ApplyMessage(ctx, ev.Message)
	case websocket_model.EventStatus:
		return s.ApplyStatus(ctx, ev.Status)
	}
	return false
}

func (s *Store) notify(ctx context.Context, observers []Observer, change Change) {
	for _, o := range observers {
		o(ctx, change)
	}
}
