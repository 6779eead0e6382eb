package render

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/ticket"
	"github.com/secmon-lab/ticketsync/pkg/domain/types"
	"github.com/secmon-lab/ticketsync/pkg/service/reconcile"
	"github.com/secmon-lab/ticketsync/pkg/utils/clock"
)

// Conversation prints a ticket as a chat transcript and keeps appending as
// the Store changes. Only replies not printed yet are written, so the output
// always ends at the newest reply.
type Conversation struct {
	w     io.Writer
	mutex sync.Mutex

	printed int
	status  types.TicketStatus
	started bool
}

func NewConversation(w io.Writer) *Conversation {
	return &Conversation{w: w}
}

// Observer returns the Store observer driving the transcript.
func (x *Conversation) Observer() reconcile.Observer {
	return func(ctx context.Context, change reconcile.Change) {
		x.Apply(ctx, change)
	}
}

func (x *Conversation) Apply(ctx context.Context, change reconcile.Change) {
	x.mutex.Lock()
	defer x.mutex.Unlock()

	t := change.Ticket
	if t == nil {
		return
	}
	now := clock.Now(ctx)

	switch change.Kind {
	case reconcile.ChangeSnapshot:
		if !x.started || len(t.Replies) < x.printed {
			Header(x.w, t)
			x.printed = 0
			x.started = true
		} else if t.Status != x.status {
			statusLine(x.w, t.Status)
		}
		for _, r := range t.Replies[x.printed:] {
			Reply(x.w, r, now)
		}
		x.printed = len(t.Replies)

	case reconcile.ChangeReply:
		for _, r := range t.Replies[min(x.printed, len(t.Replies)):] {
			Reply(x.w, r, now)
		}
		x.printed = len(t.Replies)

	case reconcile.ChangeStatus:
		if t.Status != x.status {
			statusLine(x.w, t.Status)
		}
	}
	x.status = t.Status
}

// Header writes the ticket summary.
func Header(w io.Writer, t *ticket.Ticket) {
	bold := color.New(color.Bold)
	gray := color.New(color.FgHiBlack)

	_, _ = bold.Fprintf(w, "%s\n", orDefault(t.Subject, "(no subject)"))
	_, _ = fmt.Fprintf(w, "  Status:   %s\n", statusColor(t.Status).Sprint(t.Status.Label()))
	if t.Category != "" {
		_, _ = fmt.Fprintf(w, "  Category: %s\n", t.Category)
	}
	if t.User != nil {
		owner := t.User.Name
		if t.User.Email != "" {
			owner = strings.TrimSpace(owner + " <" + t.User.Email + ">")
		}
		if owner == "" {
			owner = t.User.ID
		}
		_, _ = fmt.Fprintf(w, "  Owner:    %s\n", owner)
	}
	_, _ = gray.Fprintf(w, "  Ticket:   %s\n", t.ID)
	if t.Message != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n", t.Message)
	}
	_, _ = fmt.Fprintln(w, strings.Repeat("-", 40))
}

// Reply writes one reply with its author side and age relative to now.
func Reply(w io.Writer, r ticket.Reply, now time.Time) {
	side := color.New(color.FgCyan, color.Bold)
	label := "You"
	if r.By == types.ReplyByAdmin {
		side = color.New(color.FgMagenta, color.Bold)
		label = "Support"
	}

	when := ""
	if !r.CreatedAt.IsZero() {
		when = humanize.RelTime(r.CreatedAt, now, "ago", "from now")
	}

	_, _ = side.Fprintf(w, "%s", label)
	if when != "" {
		_, _ = color.New(color.FgHiBlack).Fprintf(w, " (%s)", when)
	}
	_, _ = fmt.Fprintf(w, ": %s\n", r.Message)
}

func statusLine(w io.Writer, status types.TicketStatus) {
	_, _ = fmt.Fprintf(w, "* status changed to %s\n", statusColor(status).Sprint(status.Label()))
}

func statusColor(status types.TicketStatus) *color.Color {
	switch status {
	case types.TicketStatusOpen:
		return color.New(color.FgGreen)
	case types.TicketStatusInProgress:
		return color.New(color.FgYellow)
	case types.TicketStatusResolved:
		return color.New(color.FgBlue)
	case types.TicketStatusClosed:
		return color.New(color.FgHiBlack)
	}
	return color.New(color.FgWhite)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
