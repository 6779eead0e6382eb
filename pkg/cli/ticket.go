package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ticketsync/pkg/cli/config"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/errs"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/notice"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/ticket"
	"github.com/secmon-lab/ticketsync/pkg/domain/types"
	"github.com/secmon-lab/ticketsync/pkg/service/notifier"
	"github.com/secmon-lab/ticketsync/pkg/service/render"
	"github.com/secmon-lab/ticketsync/pkg/usecase"
	"github.com/secmon-lab/ticketsync/pkg/utils/clock"
	"github.com/secmon-lab/ticketsync/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

type outputFormat string

const (
	formatText outputFormat = "text"
	formatJSON outputFormat = "json"
	formatYAML outputFormat = "yaml"
)

func (x outputFormat) Validate() error {
	switch x {
	case formatText, formatJSON, formatYAML:
		return nil
	}
	return goerr.New("invalid output format", goerr.V("format", x), goerr.T(errs.TagValidation))
}

func cmdShow() *cli.Command {
	var (
		ticketID   string
		format     string
		backendCfg config.Backend
	)

	return &cli.Command{
		Name:  "show",
		Usage: "Print one snapshot of a ticket",
		Flags: joinFlags(
			[]cli.Flag{
				ticketIDFlag(&ticketID),
				&cli.StringFlag{
					Name:        "format",
					Usage:       "Output format [text|json|yaml]",
					Value:       string(formatText),
					Destination: &format,
					Validator: func(s string) error {
						return outputFormat(s).Validate()
					},
				},
			},
			backendCfg.Flags(),
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logging.From(ctx).Debug("show ticket", "ticket_id", ticketID, "backend", backendCfg)

			t, err := backendCfg.APIClient().FetchTicket(ctx, types.TicketID(ticketID))
			if err != nil {
				notifier.NewConsoleNotifier(os.Stderr).Notify(ctx, notice.Error(ctx, types.TicketID(ticketID), errs.UserMessage(err)))
				return err
			}
			return writeTicket(ctx, os.Stdout, outputFormat(format), t)
		},
	}
}

// writeTicket prints t in the requested format.
func writeTicket(ctx context.Context, w io.Writer, format outputFormat, t *ticket.Ticket) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(t); err != nil {
			return goerr.Wrap(err, "failed to encode ticket as JSON")
		}
		return nil

	case formatYAML:
		return writeYAML(w, t)

	default:
		render.Header(w, t)
		now := clock.Now(ctx)
		for _, r := range t.Replies {
			render.Reply(w, r, now)
		}
		return nil
	}
}

// writeYAML goes through the JSON form so that field names and their order
// match the wire format.
func writeYAML(w io.Writer, t *ticket.Ticket) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return goerr.Wrap(err, "failed to encode ticket")
	}

	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return goerr.Wrap(err, "failed to convert ticket to YAML")
	}
	plainStyle(&node)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return goerr.Wrap(err, "failed to encode ticket as YAML")
	}
	return enc.Close()
}

// plainStyle drops the flow and quoting styles inherited from JSON.
func plainStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		plainStyle(c)
	}
}

// oneShot mounts a REST-only view, runs fn against it and unmounts. Results
// and errors are reported through the console notifier.
func oneShot(ctx context.Context, backendCfg *config.Backend, ticketID string, fn func(ctx context.Context, view *usecase.TicketView) error) error {
	uc := usecase.New(
		usecase.WithTicketAPI(backendCfg.APIClient()),
		usecase.WithNotifier(notifier.NewConsoleNotifier(os.Stderr)),
	)
	view, err := uc.OpenTicket(types.TicketID(ticketID))
	if err != nil {
		return err
	}
	if err := view.Mount(ctx); err != nil {
		return err
	}
	defer view.Unmount()

	return fn(ctx, view)
}

func cmdReply() *cli.Command {
	var (
		ticketID   string
		message    string
		backendCfg config.Backend
	)

	return &cli.Command{
		Name:  "reply",
		Usage: "Post a reply to a ticket",
		Flags: joinFlags(
			[]cli.Flag{
				ticketIDFlag(&ticketID),
				&cli.StringFlag{
					Name:        "message",
					Aliases:     []string{"m"},
					Usage:       "Reply text",
					Required:    true,
					Destination: &message,
				},
			},
			backendCfg.Flags(),
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return oneShot(ctx, &backendCfg, ticketID, func(ctx context.Context, view *usecase.TicketView) error {
				return view.Reply(ctx, message)
			})
		},
	}
}

func cmdStatus() *cli.Command {
	var (
		ticketID   string
		status     string
		backendCfg config.Backend
	)

	return &cli.Command{
		Name:  "status",
		Usage: "Change the status of a ticket",
		Flags: joinFlags(
			[]cli.Flag{
				ticketIDFlag(&ticketID),
				&cli.StringFlag{
					Name:        "status",
					Aliases:     []string{"s"},
					Usage:       "New status [open|in_progress|resolved|closed]",
					Required:    true,
					Destination: &status,
					Validator: func(s string) error {
						return types.TicketStatus(s).Validate()
					},
				},
			},
			backendCfg.Flags(),
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return oneShot(ctx, &backendCfg, ticketID, func(ctx context.Context, view *usecase.TicketView) error {
				return view.UpdateStatus(ctx, types.TicketStatus(status))
			})
		},
	}
}

func cmdClose() *cli.Command {
	var (
		ticketID   string
		backendCfg config.Backend
	)

	return &cli.Command{
		Name:  "close",
		Usage: "Close a ticket",
		Flags: joinFlags(
			[]cli.Flag{
				ticketIDFlag(&ticketID),
			},
			backendCfg.Flags(),
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return oneShot(ctx, &backendCfg, ticketID, func(ctx context.Context, view *usecase.TicketView) error {
				return view.CloseTicket(ctx)
			})
		},
	}
}
