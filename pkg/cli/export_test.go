package cli

import (
	"context"
	"io"

	"github.com/secmon-lab/ticketsync/pkg/domain/interfaces"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/ticket"
)

type TicketActions = ticketActions

var (
	GenerateBackendURL = generateBackendURL
	SeedTickets        = seedTickets
	LoadDotEnv         = loadDotEnv
)

// ParseInputForTest exposes parseInput as a (kind name, argument) pair.
func ParseInputForTest(line string) (string, string, error) {
	in, err := parseInput(line)
	if err != nil {
		return "", "", err
	}
	names := map[inputKind]string{
		inputNone:    "none",
		inputReply:   "reply",
		inputStatus:  "status",
		inputClose:   "close",
		inputRefresh: "refresh",
		inputHelp:    "help",
		inputQuit:    "quit",
	}
	return names[in.kind], in.arg, nil
}

func Interact(ctx context.Context, view TicketActions, ntf interfaces.Notifier, r io.Reader) error {
	return interact(ctx, view, ntf, r)
}

func WriteTicket(ctx context.Context, w io.Writer, format string, t *ticket.Ticket) error {
	return writeTicket(ctx, w, outputFormat(format), t)
}

