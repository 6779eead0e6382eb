package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ticketsync/pkg/domain/interfaces"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/errs"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/ticket"
	"github.com/secmon-lab/ticketsync/pkg/domain/types"
	"github.com/secmon-lab/ticketsync/pkg/utils/clock"
	"github.com/secmon-lab/ticketsync/pkg/utils/errutil"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Firestore struct {
	db *firestore.Client
	eb *goerr.Builder
}

var _ interfaces.TicketRepository = &Firestore{}

func NewFirestore(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	if projectID == "" {
		return nil, goerr.New("firestore project ID is required", goerr.T(errs.TagConfig))
	}

	db, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.T(errs.TagConfig),
			goerr.V("project_id", projectID),
			goerr.V("database_id", databaseID))
	}

	return &Firestore{
		db: db,
		eb: goerr.NewBuilder(goerr.TV(errutil.RepositoryKey, "firestore")),
	}, nil
}

func (r *Firestore) Close() error {
	return r.db.Close()
}

const (
	collectionTickets = "tickets"
)

func (r *Firestore) ticketDoc(ticketID types.TicketID) *firestore.DocumentRef {
	return r.db.Collection(collectionTickets).Doc(ticketID.String())
}

func (r *Firestore) notFound(ticketID types.TicketID) error {
	return r.eb.New("ticket not found",
		goerr.T(errs.TagNotFound),
		goerr.TV(errutil.TicketIDKey, ticketID))
}

func (r *Firestore) GetTicket(ctx context.Context, ticketID types.TicketID) (*ticket.Ticket, error) {
	doc, err := r.ticketDoc(ticketID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, r.notFound(ticketID)
		}
		return nil, r.eb.Wrap(err, "failed to get ticket", goerr.TV(errutil.TicketIDKey, ticketID))
	}

	var t ticket.Ticket
	if err := doc.DataTo(&t); err != nil {
		return nil, r.eb.Wrap(err, "failed to convert data to ticket", goerr.TV(errutil.TicketIDKey, ticketID))
	}
	return &t, nil
}

func (r *Firestore) PutTicket(ctx context.Context, t ticket.Ticket) error {
	if err := t.Validate(); err != nil {
		return r.eb.Wrap(err, "invalid ticket", goerr.T(errs.TagValidation))
	}

	if _, err := r.ticketDoc(t.ID).Set(ctx, t); err != nil {
		return r.eb.Wrap(err, "failed to put ticket", goerr.TV(errutil.TicketIDKey, t.ID))
	}
	return nil
}

// update runs fn on the stored ticket inside a transaction and writes the
// result back.
func (r *Firestore) update(ctx context.Context, ticketID types.TicketID, fn func(t *ticket.Ticket) error) (*ticket.Ticket, error) {
	var updated ticket.Ticket

	err := r.db.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := r.ticketDoc(ticketID)
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return r.notFound(ticketID)
			}
			return r.eb.Wrap(err, "failed to get ticket in transaction", goerr.TV(errutil.TicketIDKey, ticketID))
		}
		if !snap.Exists() {
			return r.notFound(ticketID)
		}

		var t ticket.Ticket
		if err := snap.DataTo(&t); err != nil {
			return r.eb.Wrap(err, "failed to convert data to ticket", goerr.TV(errutil.TicketIDKey, ticketID))
		}
		if err := fn(&t); err != nil {
			return err
		}
		if err := tx.Set(ref, t); err != nil {
			return r.eb.Wrap(err, "failed to update ticket in transaction", goerr.TV(errutil.TicketIDKey, ticketID))
		}

		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// AppendReply adds reply to the ticket and bumps its updatedAt. Closed tickets
// do not accept replies.
func (r *Firestore) AppendReply(ctx context.Context, ticketID types.TicketID, reply ticket.Reply) (*ticket.Ticket, error) {
	if err := reply.Validate(); err != nil {
		return nil, r.eb.Wrap(err, "invalid reply", goerr.T(errs.TagValidation))
	}

	return r.update(ctx, ticketID, func(t *ticket.Ticket) error {
		if t.Status == types.TicketStatusClosed {
			return r.eb.New("ticket is closed",
				goerr.T(errs.TagValidation),
				goerr.TV(errutil.TicketIDKey, ticketID))
		}
		t.Replies = append(t.Replies, reply)
		t.UpdatedAt = reply.CreatedAt
		return nil
	})
}

func (r *Firestore) UpdateStatus(ctx context.Context, ticketID types.TicketID, newStatus types.TicketStatus) (*ticket.Ticket, error) {
	if err := newStatus.Validate(); err != nil {
		return nil, r.eb.Wrap(err, "invalid status", goerr.T(errs.TagValidation))
	}

	now := clock.Now(ctx).UTC()
	return r.update(ctx, ticketID, func(t *ticket.Ticket) error {
		t.Status = newStatus
		t.UpdatedAt = now
		return nil
	})
}

// ListTickets returns all tickets, oldest first.
func (r *Firestore) ListTickets(ctx context.Context) ([]*ticket.Ticket, error) {
	iter := r.db.Collection(collectionTickets).OrderBy("CreatedAt", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var tickets []*ticket.Ticket
	for {
		doc, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, r.eb.Wrap(err, "failed to get next ticket")
		}

		var t ticket.Ticket
		if err := doc.DataTo(&t); err != nil {
			return nil, r.eb.Wrap(err, "failed to convert data to ticket", goerr.V("doc_id", doc.Ref.ID))
		}
		tickets = append(tickets, &t)
	}

	return tickets, nil
}
