package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ticketsync/pkg/cli/config"
	"github.com/secmon-lab/ticketsync/pkg/domain/interfaces"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/errs"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/notice"
	"github.com/secmon-lab/ticketsync/pkg/domain/types"
	"github.com/secmon-lab/ticketsync/pkg/service/notifier"
	"github.com/secmon-lab/ticketsync/pkg/service/render"
	"github.com/secmon-lab/ticketsync/pkg/usecase"
	"github.com/secmon-lab/ticketsync/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const watchHelp = "Type a message to reply. Commands: /status <status>, /close, /refresh, /help, /quit"

func cmdWatch() *cli.Command {
	var (
		ticketID   string
		backendCfg config.Backend
	)

	return &cli.Command{
		Name:    "watch",
		Aliases: []string{"w"},
		Usage:   "Follow a ticket conversation live and reply interactively",
		Flags: joinFlags(
			[]cli.Flag{
				ticketIDFlag(&ticketID),
			},
			backendCfg.Flags(),
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			logging.From(ctx).Debug("watch ticket", "ticket_id", ticketID, "backend", backendCfg)

			manager, err := backendCfg.LiveManager()
			if err != nil {
				return err
			}
			defer manager.Close()

			ntf := notifier.NewConsoleNotifier(os.Stderr)
			conv := render.NewConversation(os.Stdout)
			uc := usecase.New(
				usecase.WithTicketAPI(backendCfg.APIClient()),
				usecase.WithLiveChannel(manager),
				usecase.WithNotifier(ntf),
			)
			view, err := uc.OpenTicket(types.TicketID(ticketID), usecase.WithObserver(conv.Observer()))
			if err != nil {
				return err
			}

			if err := view.Mount(ctx); err != nil {
				if !view.Loaded() {
					ntf.Notify(ctx, notice.New(ctx, notice.LevelInfo, view.ID(), "Ticket is not loaded. Type /refresh to retry"))
				} else {
					return err
				}
			}
			defer view.Unmount()

			ntf.Notify(ctx, notice.New(ctx, notice.LevelInfo, view.ID(), watchHelp))
			return interact(ctx, view, ntf, os.Stdin)
		},
	}
}

// ticketActions is the part of a ticket view driven by interactive input.
type ticketActions interface {
	ID() types.TicketID
	Refresh(ctx context.Context) error
	Reply(ctx context.Context, message string) error
	UpdateStatus(ctx context.Context, status types.TicketStatus) error
	CloseTicket(ctx context.Context) error
}

type inputKind int

const (
	inputNone inputKind = iota
	inputReply
	inputStatus
	inputClose
	inputRefresh
	inputHelp
	inputQuit
)

type input struct {
	kind inputKind
	arg  string
}

// parseInput reads one line typed by the user. Lines starting with "/" are
// commands, anything else is a reply.
func parseInput(line string) (input, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return input{kind: inputNone}, nil
	}
	if !strings.HasPrefix(line, "/") {
		return input{kind: inputReply, arg: line}, nil
	}

	name, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "status":
		if arg == "" {
			return input{}, goerr.New("Usage: /status <open|in_progress|resolved|closed>", goerr.T(errs.TagValidation))
		}
		return input{kind: inputStatus, arg: arg}, nil
	case "close":
		return input{kind: inputClose}, nil
	case "refresh":
		return input{kind: inputRefresh}, nil
	case "help", "?":
		return input{kind: inputHelp}, nil
	case "quit", "exit", "q":
		return input{kind: inputQuit}, nil
	}
	return input{}, goerr.New("Unknown command /"+name, goerr.T(errs.TagValidation), goerr.V("command", name))
}

// interact feeds lines from r to view until EOF, /quit or ctx is done.
// Failed actions were already reported by the view, so they do not stop the
// loop.
func interact(ctx context.Context, view ticketActions, ntf interfaces.Notifier, r io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			logging.From(ctx).Warn("failed to read input", "error", err)
		}
	}()

	for {
		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = l
		}

		in, err := parseInput(line)
		if err != nil {
			ntf.Notify(ctx, notice.Error(ctx, view.ID(), err.Error()))
			continue
		}

		switch in.kind {
		case inputReply:
			_ = view.Reply(ctx, in.arg)
		case inputStatus:
			_ = view.UpdateStatus(ctx, types.TicketStatus(in.arg))
		case inputClose:
			_ = view.CloseTicket(ctx)
		case inputRefresh:
			_ = view.Refresh(ctx)
		case inputHelp:
			ntf.Notify(ctx, notice.New(ctx, notice.LevelInfo, view.ID(), watchHelp))
		case inputQuit:
			return nil
		}
	}
}
