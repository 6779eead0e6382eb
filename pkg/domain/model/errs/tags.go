package errs

import "github.com/m-mizutani/goerr/v2"

var (
	// Client errors (4xx)
	TagNotFound     = goerr.NewTag("not_found")    // 404
	TagValidation   = goerr.NewTag("validation")   // 400
	TagUnauthorized = goerr.NewTag("unauthorized") // 401
	TagForbidden    = goerr.NewTag("forbidden")    // 403

	// Server errors (5xx)
	TagInternal = goerr.NewTag("internal") // 500
	TagExternal = goerr.NewTag("external") // 502/503

	// Client side conditions
	TagConfig          = goerr.NewTag("config")
	TagCanceled        = goerr.NewTag("canceled")
	TagInvalidResponse = goerr.NewTag("invalid_response")
	TagInconsistent    = goerr.NewTag("inconsistent")
	TagTransport       = goerr.NewTag("transport")
)
