package cli

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ticketsync/pkg/cli/config"
	server "github.com/secmon-lab/ticketsync/pkg/controller/http"
	websocket_controller "github.com/secmon-lab/ticketsync/pkg/controller/websocket"
	"github.com/secmon-lab/ticketsync/pkg/domain/interfaces"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/ticket"
	"github.com/secmon-lab/ticketsync/pkg/domain/types"
	"github.com/secmon-lab/ticketsync/pkg/repository"
	"github.com/secmon-lab/ticketsync/pkg/utils/clock"
	"github.com/secmon-lab/ticketsync/pkg/utils/logging"
	"github.com/secmon-lab/ticketsync/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

// generateBackendURL generates a client URL from the listen address
func generateBackendURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		// Port only format (e.g., ":8080")
		if strings.HasPrefix(addr, ":") {
			return fmt.Sprintf("http://localhost%s", addr)
		}
		return fmt.Sprintf("http://%s", addr)
	}

	// If host is empty (e.g. from ":8080"), "0.0.0.0", or "::" (unspecified IPv6), replace with localhost.
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}

	return fmt.Sprintf("http://%s", net.JoinHostPort(host, port))
}

func cmdDev() *cli.Command {
	var (
		addr       string
		userToken  string
		adminToken string
		noSeed     bool

		firestoreCfg config.Firestore
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Aliases:     []string{"a"},
			Sources:     cli.EnvVars("TICKETSYNC_ADDR"),
			Usage:       "Listen address",
			Value:       "127.0.0.1:8080",
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "user-token",
			Sources:     cli.EnvVars("TICKETSYNC_DEV_USER_TOKEN"),
			Usage:       "Bearer token accepted for the ticket owner",
			Value:       "dev-user-token",
			Destination: &userToken,
		},
		&cli.StringFlag{
			Name:        "admin-token",
			Sources:     cli.EnvVars("TICKETSYNC_DEV_ADMIN_TOKEN"),
			Usage:       "Bearer token accepted for support staff (/admin routes)",
			Value:       "dev-admin-token",
			Destination: &adminToken,
		},
		&cli.BoolFlag{
			Name:        "no-seed",
			Usage:       "Start with an empty ticket store",
			Destination: &noSeed,
		},
	}
	flags = joinFlags(flags, firestoreCfg.Flags())

	return &cli.Command{
		Name:    "dev",
		Aliases: []string{"d"},
		Usage:   "Run the development backend with seeded tickets",
		Flags:   flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if userToken == "" || adminToken == "" || userToken == adminToken {
				return goerr.New("user and admin tokens must be set and differ")
			}

			logger := logging.From(ctx)
			logger.Info("starting development backend",
				"addr", addr,
				"user-token.len", len(userToken),
				"admin-token.len", len(adminToken),
			)

			var repo interfaces.TicketRepository = repository.NewMemory()
			if firestoreCfg.IsConfigured() {
				fs, err := firestoreCfg.Configure(ctx)
				if err != nil {
					return err
				}
				defer safe.Close(ctx, fs)
				repo = fs
				logger.Info("using firestore ticket store", "firestore", firestoreCfg)
			}

			if !noSeed {
				ids, err := seedTickets(ctx, repo)
				if err != nil {
					return err
				}
				baseURL := generateBackendURL(addr)
				for _, id := range ids {
					logger.Info("seeded ticket", "ticket_id", id,
						"try", fmt.Sprintf("ticketsync watch --backend-url %s --token <user-token> -t %s", baseURL, id))
				}
			}

			wsHub := websocket_controller.NewHub(ctx)
			go wsHub.Run() // Start the hub in a goroutine

			httpServer := http.Server{
				Addr: addr,
				Handler: server.New(repo,
					server.WithBroadcaster(wsHub),
					server.WithWebSocketHandler(websocket_controller.NewHandler(wsHub, repo)),
					server.WithUserToken(userToken),
					server.WithAdminToken(adminToken),
				),
				ReadTimeout:       30 * time.Second,
				ReadHeaderTimeout: 10 * time.Second,
				BaseContext: func(l net.Listener) context.Context {
					return ctx
				},
			}

			errCh := make(chan error, 1)
			go func() {
				defer close(errCh)
				if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			select {
			case err := <-errCh:
				if err != nil {
					return goerr.Wrap(err, "failed to run development backend", goerr.V("addr", addr))
				}
				return nil
			case <-sigCh:
			case <-ctx.Done():
			}

			if err := wsHub.Close(); err != nil {
				logger.Error("failed to close WebSocket hub", "error", err)
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	}
}

type seedTicket struct {
	subject  string
	category string
	message  string
	status   types.TicketStatus
	replies  []ticket.Reply
}

// seedTickets stores a few tickets in different states and returns their IDs
// in creation order.
func seedTickets(ctx context.Context, repo interfaces.TicketRepository) ([]types.TicketID, error) {
	now := clock.Now(ctx).UTC().Truncate(time.Millisecond)
	owner := &ticket.User{ID: "u-1001", Name: "Alex Doe", Email: "alex@example.com"}

	seeds := []seedTicket{
		{
			subject:  "Withdrawal stuck in pending",
			category: "wallet",
			message:  "My withdrawal has been pending for two days.",
			status:   types.TicketStatusOpen,
		},
		{
			subject:  "Cannot verify my phone number",
			category: "account",
			message:  "The verification code never arrives.",
			status:   types.TicketStatusInProgress,
			replies: []ticket.Reply{
				{By: types.ReplyByAdmin, Message: "Thanks for reaching out. Which carrier do you use?", CreatedAt: now.Add(-50 * time.Minute)},
				{By: types.ReplyByUser, Message: "It is a prepaid SIM from a local carrier.", CreatedAt: now.Add(-45 * time.Minute)},
			},
		},
		{
			subject:  "Refund for duplicate charge",
			category: "billing",
			message:  "I was charged twice for the same order.",
			status:   types.TicketStatusResolved,
			replies: []ticket.Reply{
				{By: types.ReplyByAdmin, Message: "The duplicate charge has been refunded.", CreatedAt: now.Add(-20 * time.Hour)},
			},
		},
	}

	ids := make([]types.TicketID, 0, len(seeds))
	for i, s := range seeds {
		created := now.Add(-time.Duration(len(seeds)-i) * 24 * time.Hour)
		updated := created
		if n := len(s.replies); n > 0 {
			updated = s.replies[n-1].CreatedAt
		}

		t := ticket.Ticket{
			ID:        types.NewTicketID(),
			Subject:   s.subject,
			Category:  s.category,
			Message:   s.message,
			Status:    s.status,
			CreatedAt: created,
			UpdatedAt: updated,
			Replies:   s.replies,
			User:      owner,
		}
		if err := repo.PutTicket(ctx, t); err != nil {
			return nil, goerr.Wrap(err, "failed to seed ticket", goerr.V("subject", s.subject))
		}
		ids = append(ids, t.ID)
	}

	return ids, nil
}
