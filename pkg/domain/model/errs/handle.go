package errs

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ticketsync/pkg/utils/logging"
	"github.com/secmon-lab/ticketsync/pkg/utils/request_id"
)

// Handle logs err and reports it to Sentry. Cancellations are logged at debug
// level only; they are view teardown, not failures.
func Handle(ctx context.Context, err error) {
	if err == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			// Ultimate fallback to stderr if slog crashes
			fmt.Fprintf(os.Stderr, "[CRITICAL] slog crashed during error handling: original_error=%s, slog_panic=%v\n",
				err.Error(), r)
		}
	}()

	logger := logging.From(ctx)
	if IsCanceled(err) {
		logger.Debug("request canceled", slog.Any("error", err))
		return
	}

	logAttrs := []any{slog.Any("error", err)}

	hub := sentry.CurrentHub().Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		if reqID := request_id.FromContext(ctx); reqID != "" {
			scope.SetTag("request_id", reqID)
		}

		for k, v := range goerr.Values(err) {
			scope.SetExtra(k, v)
		}
		if kind := Kind(err); kind != "" {
			scope.SetTag("error.kind", kind)
		}
	})
	evID := hub.CaptureException(err)
	if evID != nil {
		logAttrs = append(logAttrs, slog.Any("sentry.id", *evID))
	}

	logger.Error("Error: "+err.Error(), logAttrs...)
}
