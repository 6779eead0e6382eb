package errs_test

import (
	"context"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/errs"
	"github.com/secmon-lab/ticketsync/pkg/utils/request_id"
)

func TestHandle(t *testing.T) {
	// Initialize Sentry with a test transport to capture events
	transport := &testTransport{
		events: make([]*sentry.Event, 0),
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:       "https://test@test.ingest.sentry.io/test",
		Transport: transport,
	})
	gt.NoError(t, err)
	defer sentry.Flush(0)

	t.Run("with request ID", func(t *testing.T) {
		transport.events = nil

		ctx := request_id.With(context.Background(), "test-request-id-123")
		errs.Handle(ctx, goerr.New("fetch failed", goerr.T(errs.TagExternal)))
		sentry.Flush(0)

		gt.A(t, transport.events).Length(1)
		event := transport.events[0]
		gt.V(t, event.Tags["request_id"]).Equal("test-request-id-123")
		gt.V(t, event.Tags["error.kind"]).Equal("external")
	})

	t.Run("without request ID", func(t *testing.T) {
		transport.events = nil

		errs.Handle(context.Background(), goerr.New("test error without request ID"))
		sentry.Flush(0)

		gt.A(t, transport.events).Length(1)
		_, exists := transport.events[0].Tags["request_id"]
		gt.False(t, exists)
	})

	t.Run("canceled is not reported", func(t *testing.T) {
		transport.events = nil

		errs.Handle(context.Background(), goerr.Wrap(context.Canceled, "fetch ticket"))
		sentry.Flush(0)

		gt.A(t, transport.events).Length(0)
	})

	t.Run("nil error", func(t *testing.T) {
		transport.events = nil

		errs.Handle(context.Background(), nil)
		sentry.Flush(0)

		gt.A(t, transport.events).Length(0)
	})
}

// testTransport is a custom Sentry transport for testing
type testTransport struct {
	events []*sentry.Event
}

func (t *testTransport) Configure(options sentry.ClientOptions) {}

func (t *testTransport) SendEvent(event *sentry.Event) {
	t.events = append(t.events, event)
}

func (t *testTransport) Flush(timeout time.Duration) bool {
	return true
}

func (t *testTransport) FlushWithContext(ctx context.Context) bool {
	return true
}

func (t *testTransport) Close() {}
