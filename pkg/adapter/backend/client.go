package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ticketsync/pkg/domain/interfaces"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/errs"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/ticket"
	"github.com/secmon-lab/ticketsync/pkg/domain/types"
	"github.com/secmon-lab/ticketsync/pkg/utils/clock"
	"github.com/secmon-lab/ticketsync/pkg/utils/errutil"
	"github.com/secmon-lab/ticketsync/pkg/utils/logging"
	"github.com/secmon-lab/ticketsync/pkg/utils/request_id"
	"github.com/secmon-lab/ticketsync/pkg/utils/safe"
)

const maxResponseSize = 4 * 1024 * 1024

// Client talks to the ticket endpoints of the backend REST API.
type Client struct {
	baseURL    string
	token      string
	pathPrefix string
	httpClient *http.Client
}

var _ interfaces.TicketAPI = &Client{}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(x *Client) {
		x.httpClient = c
	}
}

// WithTimeout bounds each request. Expiry of this timeout is a failure, not a
// cancellation.
func WithTimeout(d time.Duration) Option {
	return func(x *Client) {
		x.httpClient = &http.Client{
			Transport: x.httpClient.Transport,
			Timeout:   d,
		}
	}
}

// WithPathPrefix mounts the ticket routes under prefix, e.g. "/admin" for the
// admin views.
func WithPathPrefix(prefix string) Option {
	return func(x *Client) {
		x.pathPrefix = "/" + strings.Trim(prefix, "/")
		if x.pathPrefix == "/" {
			x.pathPrefix = ""
		}
	}
}

// New creates a client. An empty baseURL is accepted; every call then fails
// with a configuration error so that callers can report it once.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("base_url", c.baseURL),
		slog.String("path_prefix", c.pathPrefix),
		slog.Int("token.len", len(c.token)),
	)
}

func (c *Client) FetchTicket(ctx context.Context, id types.TicketID) (*ticket.Ticket, error) {
	if err := id.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid ticket ID", goerr.T(errs.TagValidation))
	}
	return c.do(ctx, http.MethodGet, id, "", nil)
}

// PostReply submits a reply. The message is trimmed and must not be empty;
// an empty message is rejected before any request is made.
func (c *Client) PostReply(ctx context.Context, id types.TicketID, message string) (*ticket.Ticket, error) {
	if err := id.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid ticket ID", goerr.T(errs.TagValidation))
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, goerr.New("reply message is empty",
			goerr.T(errs.TagValidation),
			goerr.TV(errutil.TicketIDKey, id))
	}

	body := struct {
		Message string `json:"message"`
	}{Message: message}
	return c.do(ctx, http.MethodPost, id, "/reply", body)
}

// PatchStatus requests a status transition. A response carrying another
// status means the update did not persist and is returned as an error.
func (c *Client) PatchStatus(ctx context.Context, id types.TicketID, status types.TicketStatus) (*ticket.Ticket, error) {
	if err := id.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid ticket ID", goerr.T(errs.TagValidation))
	}
	if err := status.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid status", goerr.T(errs.TagValidation))
	}

	body := struct {
		Status types.TicketStatus `json:"status"`
	}{Status: status}
	t, err := c.do(ctx, http.MethodPatch, id, "/status", body)
	if err != nil {
		return nil, err
	}
	if err := expectStatus(t, status); err != nil {
		return nil, err
	}
	return t, nil
}

// CloseTicket closes the ticket. The response must report the closed status.
func (c *Client) CloseTicket(ctx context.Context, id types.TicketID) (*ticket.Ticket, error) {
	if err := id.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid ticket ID", goerr.T(errs.TagValidation))
	}

	t, err := c.do(ctx, http.MethodPatch, id, "/close", nil)
	if err != nil {
		return nil, err
	}
	if err := expectStatus(t, types.TicketStatusClosed); err != nil {
		return nil, err
	}
	return t, nil
}

func expectStatus(t *ticket.Ticket, want types.TicketStatus) error {
	if t.Status != want {
		return goerr.New("status update did not persist",
			goerr.T(errs.TagInconsistent),
			goerr.TV(errutil.TicketIDKey, t.ID),
			goerr.TV(errutil.StatusKey, want),
			goerr.V("response_status", t.Status))
	}
	return nil
}

type envelope struct {
	Success *bool  `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
	Data    *struct {
		Ticket *ticket.Ticket `json:"ticket"`
	} `json:"data,omitempty"`
}

func (c *Client) endpoint(id types.TicketID, suffix string) string {
	return c.baseURL + c.pathPrefix + "/tickets/" + url.PathEscape(id.String()) + suffix
}

func (c *Client) do(ctx context.Context, method string, id types.TicketID, suffix string, payload any) (*ticket.Ticket, error) {
	if c.baseURL == "" {
		return nil, goerr.Wrap(errs.ErrBackendURLNotSet, "cannot call backend",
			goerr.T(errs.TagConfig))
	}

	ctx, reqID := request_id.Ensure(ctx)
	endpoint := c.endpoint(id, suffix)
	eb := goerr.NewBuilder(
		goerr.TV(errutil.TicketIDKey, id),
		goerr.TV(errutil.MethodKey, method),
		goerr.TV(errutil.EndpointKey, endpoint),
		goerr.TV(errutil.RequestIDKey, reqID),
	)

	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, eb.Wrap(err, "failed to marshal request body")
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, eb.Wrap(err, "failed to create request", goerr.T(errs.TagConfig))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(request_id.Header, reqID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	logger := logging.From(ctx)
	started := clock.Now(ctx)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, eb.Wrap(err, "request canceled", goerr.T(errs.TagCanceled))
		}
		return nil, eb.Wrap(err, "failed to send request", goerr.T(errs.TagExternal))
	}
	defer safe.DrainAndClose(ctx, resp.Body)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		if ctx.Err() != nil {
			return nil, eb.Wrap(err, "request canceled", goerr.T(errs.TagCanceled))
		}
		return nil, eb.Wrap(err, "failed to read response body", goerr.T(errs.TagExternal))
	}

	logger.Debug("backend response",
		"method", method,
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"request_id", reqID,
		"duration", clock.Since(ctx, started),
	)

	contentType := resp.Header.Get("Content-Type")
	isJSON := isJSONContent(contentType)

	var env envelope
	decodeErr := errNotJSON
	if isJSON {
		decodeErr = json.Unmarshal(body, &env)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		opts := []goerr.Option{
			goerr.TV(errutil.HTTPStatusKey, resp.StatusCode),
			statusTag(resp.StatusCode),
		}
		if decodeErr == nil && env.Message != "" {
			opts = append(opts, goerr.V(errs.ServerMessageKey, env.Message))
		} else if !isJSON {
			opts = append(opts, goerr.TV(errutil.ContentTypeKey, contentType))
		}
		return nil, eb.New("backend returned error status", opts...)
	}

	if !isJSON {
		return nil, eb.New("backend returned non-JSON response",
			goerr.T(errs.TagInvalidResponse),
			goerr.TV(errutil.HTTPStatusKey, resp.StatusCode),
			goerr.TV(errutil.ContentTypeKey, contentType))
	}
	if decodeErr != nil {
		return nil, eb.Wrap(decodeErr, "failed to decode response", goerr.T(errs.TagInvalidResponse))
	}
	if env.Success != nil && !*env.Success {
		return nil, eb.New("backend reported failure",
			goerr.T(errs.TagExternal),
			goerr.V(errs.ServerMessageKey, env.Message))
	}
	if env.Data == nil || env.Data.Ticket == nil {
		return nil, eb.New("response has no ticket", goerr.T(errs.TagInvalidResponse))
	}
	if env.Data.Ticket.ID == types.EmptyTicketID {
		env.Data.Ticket.ID = id
	}

	return env.Data.Ticket, nil
}

var errNotJSON error = goerr.New("response is not JSON")

func isJSONContent(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// statusTag tags an error by the HTTP status the backend answered with.
func statusTag(code int) goerr.Option {
	switch code {
	case http.StatusUnauthorized:
		return goerr.T(errs.TagUnauthorized)
	case http.StatusForbidden:
		return goerr.T(errs.TagForbidden)
	case http.StatusNotFound:
		return goerr.T(errs.TagNotFound)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return goerr.T(errs.TagValidation)
	}
	return goerr.T(errs.TagExternal)
}
