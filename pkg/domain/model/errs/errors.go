package errs

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
)

var ErrBackendURLNotSet = errors.New("backend URL is not configured")
var ErrNotConnected = errors.New("live connection is not established")

// IsCanceled reports whether err comes from a cancelled request context
// rather than from a real failure. An expired deadline is a failure.
func IsCanceled(err error) bool {
	if err == nil {
		return false
	}
	return goerr.HasTag(err, TagCanceled) || errors.Is(err, context.Canceled)
}
