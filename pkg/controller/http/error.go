package http

import (
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/errs"
	"github.com/secmon-lab/ticketsync/pkg/utils/logging"
)

// handleError maps tagged errors to a status code and writes the envelope
// with the error message.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.From(r.Context())

	switch {
	case goerr.HasTag(err, errs.TagNotFound):
		logger.Warn("Not Found", "error", err)
		writeFailure(w, r, http.StatusNotFound, "Ticket not found")

	case goerr.HasTag(err, errs.TagValidation):
		logger.Warn("Bad Request", "error", err)
		writeFailure(w, r, http.StatusBadRequest, err.Error())

	case goerr.HasTag(err, errs.TagUnauthorized):
		logger.Warn("Unauthorized", "error", err)
		writeFailure(w, r, http.StatusUnauthorized, "Unauthorized")

	case goerr.HasTag(err, errs.TagForbidden):
		logger.Warn("Forbidden", "error", err)
		writeFailure(w, r, http.StatusForbidden, "Admin access required")

	case goerr.HasTag(err, errs.TagExternal):
		logger.Error("External Service Error", "error", err)
		writeFailure(w, r, http.StatusBadGateway, err.Error())

	default:
		errs.Handle(r.Context(), err)
		writeFailure(w, r, http.StatusInternalServerError, "Internal server error")
	}
}
