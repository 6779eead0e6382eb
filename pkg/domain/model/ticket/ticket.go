package ticket

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ticketsync/pkg/domain/types"
)

// Ticket is one support ticket as returned by the backend. Replies are kept in
// the order the server or the push channel delivered them.
type Ticket struct {
	ID        types.TicketID     `json:"_id"`
	Subject   string             `json:"subject"`
	Category  string             `json:"category"`
	Message   string             `json:"message"`
	Status    types.TicketStatus `json:"status"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
	Replies   []Reply            `json:"replies"`
	User      *User              `json:"user,omitempty"`
}

// User is the ticket owner. It is read-only from the client side.
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UnmarshalJSON accepts both "_id" and "id" for the identifier, and a user
// that was not populated by the server (a bare id string).
func (x *Ticket) UnmarshalJSON(data []byte) error {
	type alias Ticket
	var raw struct {
		alias
		AltID types.TicketID  `json:"id"`
		User  json.RawMessage `json:"user,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return goerr.Wrap(err, "failed to decode ticket")
	}

	*x = Ticket(raw.alias)
	if x.ID == types.EmptyTicketID {
		x.ID = raw.AltID
	}

	x.User = nil
	if len(raw.User) > 0 && string(raw.User) != "null" {
		var u User
		if err := json.Unmarshal(raw.User, &u); err != nil {
			var id string
			if err2 := json.Unmarshal(raw.User, &id); err2 != nil {
				return goerr.Wrap(err, "failed to decode ticket user")
			}
			u.ID = id
		}
		x.User = &u
	}
	return nil
}

func (x *Ticket) Validate() error {
	if err := x.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid ticket ID")
	}
	for i := range x.Replies {
		if err := x.Replies[i].Validate(); err != nil {
			return goerr.Wrap(err, "invalid reply", goerr.V("index", i))
		}
	}
	return nil
}

// Clone returns a deep copy.
func (x *Ticket) Clone() *Ticket {
	if x == nil {
		return nil
	}
	out := *x
	out.Replies = slices.Clone(x.Replies)
	if x.User != nil {
		u := *x.User
		out.User = &u
	}
	return &out
}

// HasReply reports whether a reply equivalent to r is already in the list.
func (x *Ticket) HasReply(r Reply) bool {
	return slices.ContainsFunc(x.Replies, r.SameAs)
}

// LastReply returns the most recent reply, or nil when there is none.
func (x *Ticket) LastReply() *Reply {
	if len(x.Replies) == 0 {
		return nil
	}
	r := x.Replies[len(x.Replies)-1]
	return &r
}
