package ticket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ticketsync/pkg/domain/types"
	"github.com/secmon-lab/ticketsync/pkg/utils/clock"
)

// Reply is one message in a ticket conversation. ID is only set by backends
// that issue reply identifiers.
type Reply struct {
	ID        string            `json:"_id,omitempty"`
	By        types.ReplyAuthor `json:"by"`
	Message   string            `json:"message"`
	CreatedAt time.Time         `json:"createdAt"`
}

func (x *Reply) Validate() error {
	if err := x.By.Validate(); err != nil {
		return goerr.Wrap(err, "invalid reply author")
	}
	return nil
}

// SameAs reports whether x and other describe the same reply: equal server
// issued IDs, or the same message text created in the same millisecond. Two
// distinct replies with the same text in the same millisecond collide.
func (x Reply) SameAs(other Reply) bool {
	if x.ID != "" && x.ID == other.ID {
		return true
	}
	return x.Message == other.Message &&
		x.CreatedAt.UnixMilli() == other.CreatedAt.UnixMilli()
}

// UnmarshalJSON accepts both "_id" and "id" for the identifier.
func (x *Reply) UnmarshalJSON(data []byte) error {
	type alias Reply
	var raw struct {
		alias
		AltID string `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return goerr.Wrap(err, "failed to decode reply")
	}

	*x = Reply(raw.alias)
	if x.ID == "" {
		x.ID = raw.AltID
	}
	return nil
}

// NewReply stamps a reply with the context clock, truncated to the precision
// the wire format keeps.
func NewReply(ctx context.Context, by types.ReplyAuthor, message string) Reply {
	return Reply{
		By:        by,
		Message:   message,
		CreatedAt: clock.Now(ctx).UTC().Truncate(time.Millisecond),
	}
}
