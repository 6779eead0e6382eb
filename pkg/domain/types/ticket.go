package types

import (
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// TicketID is an opaque identifier issued by the backend. It is not required
// to be a UUID.
type TicketID string

func (x TicketID) String() string {
	return string(x)
}

// NewTicketID generates an ID in the same shape the development backend uses.
func NewTicketID() TicketID {
	id, err := uuid.NewV7()
	if err != nil {
		panic(err)
	}
	return TicketID(id.String())
}

func (x TicketID) Validate() error {
	if x == EmptyTicketID {
		return goerr.New("empty ticket ID")
	}
	if strings.ContainsAny(string(x), "/?#") {
		return goerr.New("invalid ticket ID format", goerr.V("id", x))
	}
	return nil
}

const (
	EmptyTicketID TicketID = ""
)

type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// TicketStatusAll lists the statuses an admin view can request.
var TicketStatusAll = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusResolved,
	TicketStatusClosed,
}

var ticketStatusLabels = map[TicketStatus]string{
	TicketStatusOpen:       "🔍 Open",
	TicketStatusInProgress: "🕒 In progress",
	TicketStatusResolved:   "✅️ Resolved",
	TicketStatusClosed:     "📦 Closed",
}

func (s TicketStatus) String() string {
	return string(s)
}

// Label returns a display label. Statuses unknown to this client are shown
// verbatim because the server may use a wider vocabulary.
func (s TicketStatus) Label() string {
	if label, ok := ticketStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

func (s TicketStatus) Validate() error {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return nil
	}
	return goerr.New("invalid ticket status", goerr.V("status", s))
}

// ReplyAuthor tells which side of the conversation wrote a reply.
type ReplyAuthor string

const (
	ReplyByUser  ReplyAuthor = "user"
	ReplyByAdmin ReplyAuthor = "admin"
)

func (x ReplyAuthor) Validate() error {
	switch x {
	case ReplyByUser, ReplyByAdmin:
		return nil
	}
	return goerr.New("invalid reply author", goerr.V("by", x))
}

// ListenerID identifies one view's registration on the shared live connection.
type ListenerID string

func NewListenerID() ListenerID {
	return ListenerID(uuid.New().String())
}

func (x ListenerID) String() string {
	return string(x)
}
