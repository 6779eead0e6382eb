package config

import (
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ticketsync/pkg/adapter/backend"
	"github.com/secmon-lab/ticketsync/pkg/adapter/live"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/errs"
	"github.com/secmon-lab/ticketsync/pkg/utils/errutil"
	"github.com/urfave/cli/v3"
)

// Backend holds the connection settings shared by every client command.
type Backend struct {
	url              string
	socketURL        string
	token            string
	admin            bool
	timeout          time.Duration
	reconnectBackoff time.Duration
}

func (x *Backend) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "backend-url",
			Usage:       "Base URL of the support backend REST API",
			Category:    "Backend",
			Sources:     cli.EnvVars("TICKETSYNC_BACKEND_URL"),
			Destination: &x.url,
		},
		&cli.StringFlag{
			Name:        "socket-url",
			Usage:       "URL of the push channel (default: backend URL with ws scheme and /socket path)",
			Category:    "Backend",
			Sources:     cli.EnvVars("TICKETSYNC_SOCKET_URL"),
			Destination: &x.socketURL,
		},
		&cli.StringFlag{
			Name:        "token",
			Usage:       "Bearer token for the backend",
			Category:    "Backend",
			Sources:     cli.EnvVars("TICKETSYNC_TOKEN"),
			Destination: &x.token,
		},
		&cli.BoolFlag{
			Name:        "admin",
			Usage:       "Use the admin endpoints",
			Category:    "Backend",
			Sources:     cli.EnvVars("TICKETSYNC_ADMIN"),
			Destination: &x.admin,
		},
		&cli.DurationFlag{
			Name:        "timeout",
			Usage:       "REST request timeout",
			Category:    "Backend",
			Sources:     cli.EnvVars("TICKETSYNC_TIMEOUT"),
			Value:       30 * time.Second,
			Destination: &x.timeout,
		},
		&cli.DurationFlag{
			Name:        "reconnect-backoff",
			Usage:       "Initial delay before reconnecting the push channel (0 disables reconnect)",
			Category:    "Backend",
			Sources:     cli.EnvVars("TICKETSYNC_RECONNECT_BACKOFF"),
			Value:       time.Second,
			Destination: &x.reconnectBackoff,
		},
	}
}

func (x Backend) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("url", x.url),
		slog.String("socket-url", x.socketURL),
		slog.Int("token.len", len(x.token)),
		slog.Bool("admin", x.admin),
		slog.Duration("timeout", x.timeout),
		slog.Duration("reconnect-backoff", x.reconnectBackoff),
	)
}

func (x *Backend) Admin() bool {
	return x.admin
}

// APIClient builds the REST client. A missing backend URL is not rejected
// here; the client reports it on every call.
func (x *Backend) APIClient() *backend.Client {
	opts := []backend.Option{
		backend.WithTimeout(x.timeout),
	}
	if x.admin {
		opts = append(opts, backend.WithPathPrefix("admin"))
	}
	return backend.New(x.url, x.token, opts...)
}

// LiveManager builds the shared push connection.
func (x *Backend) LiveManager() (*live.Manager, error) {
	socketURL, err := x.SocketURL()
	if err != nil {
		return nil, err
	}

	var opts []live.Option
	if x.reconnectBackoff > 0 {
		opts = append(opts, live.WithAutoReconnect(x.reconnectBackoff))
	}
	return live.New(socketURL, x.token, opts...), nil
}

// SocketURL returns the push channel URL, deriving it from the backend URL
// when not set explicitly.
func (x *Backend) SocketURL() (string, error) {
	if x.socketURL != "" {
		return x.socketURL, nil
	}
	if x.url == "" {
		return "", nil
	}
	return DeriveSocketURL(x.url)
}

// DeriveSocketURL maps http(s)://host/base to ws(s)://host/base/socket.
func DeriveSocketURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", goerr.Wrap(err, "invalid backend URL",
			goerr.T(errs.TagConfig),
			goerr.TV(errutil.URLKey, baseURL))
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", goerr.New("unsupported backend URL scheme",
			goerr.T(errs.TagConfig),
			goerr.TV(errutil.URLKey, baseURL))
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + "/socket"
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}
