package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ticketsync/pkg/domain/interfaces"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/errs"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/ticket"
	"github.com/secmon-lab/ticketsync/pkg/domain/types"
	"github.com/secmon-lab/ticketsync/pkg/utils/errutil"
	"github.com/secmon-lab/ticketsync/pkg/utils/logging"
	"github.com/secmon-lab/ticketsync/pkg/utils/safe"
)

const maxRequestBodySize = 1 << 20

type envelope struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	Data    *envelopeData `json:"data,omitempty"`
}

type envelopeData struct {
	Ticket *ticket.Ticket `json:"ticket"`
}

type replyRequest struct {
	Message string `json:"message"`
}

type statusRequest struct {
	Status types.TicketStatus `json:"status"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body envelope) {
	data, err := json.Marshal(body)
	if err != nil {
		errs.Handle(r.Context(), goerr.Wrap(err, "failed to marshal response"))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	safe.Write(r.Context(), w, data)
}

func writeTicket(w http.ResponseWriter, r *http.Request, message string, t *ticket.Ticket) {
	writeJSON(w, r, http.StatusOK, envelope{
		Success: true,
		Message: message,
		Data:    &envelopeData{Ticket: t},
	})
}

func writeFailure(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, envelope{Success: false, Message: message})
}

func ticketIDParam(r *http.Request) (types.TicketID, error) {
	id := types.TicketID(chi.URLParam(r, "ticketID"))
	if err := id.Validate(); err != nil {
		return "", goerr.Wrap(err, "invalid ticket ID", goerr.T(errs.TagValidation))
	}
	return id, nil
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodySize)).Decode(v); err != nil {
		return goerr.Wrap(err, "invalid request body", goerr.T(errs.TagValidation))
	}
	return nil
}

func getTicketHandler(repo interfaces.TicketRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := ticketIDParam(r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		t, err := repo.GetTicket(r.Context(), id)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeTicket(w, r, "", t)
	}
}

func postReplyHandler(repo interfaces.TicketRepository, b Broadcaster, by types.ReplyAuthor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := ticketIDParam(r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		var req replyRequest
		if err := decodeBody(r, &req); err != nil {
			handleError(w, r, err)
			return
		}
		message := strings.TrimSpace(req.Message)
		if message == "" {
			handleError(w, r, goerr.New("Please enter a message", goerr.T(errs.TagValidation)))
			return
		}

		t, err := repo.AppendReply(ctx, id, ticket.NewReply(ctx, by, message))
		if err != nil {
			handleError(w, r, err)
			return
		}

		if b != nil && len(t.Replies) > 0 {
			if err := b.SendReplyToTicket(t.ID, t.Replies[len(t.Replies)-1]); err != nil {
				logging.From(ctx).Warn("failed to broadcast reply", "error", err, "ticket_id", t.ID)
			}
		}
		writeTicket(w, r, "Reply added", t)
	}
}

func patchStatusHandler(repo interfaces.TicketRepository, b Broadcaster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := ticketIDParam(r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		var req statusRequest
		if err := decodeBody(r, &req); err != nil {
			handleError(w, r, err)
			return
		}

		updateStatus(w, r, repo, b, id, req.Status)
	}
}

func closeTicketHandler(repo interfaces.TicketRepository, b Broadcaster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := ticketIDParam(r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		updateStatus(w, r, repo, b, id, types.TicketStatusClosed)
	}
}

func updateStatus(w http.ResponseWriter, r *http.Request, repo interfaces.TicketRepository, b Broadcaster, id types.TicketID, status types.TicketStatus) {
	ctx := r.Context()
	t, err := repo.UpdateStatus(ctx, id, status)
	if err != nil {
		handleError(w, r, goerr.Wrap(err, "failed to update status",
			goerr.TV(errutil.TicketIDKey, id),
			goerr.TV(errutil.StatusKey, status)))
		return
	}

	if b != nil {
		if err := b.SendStatusToTicket(t.ID, t.Status, t.UpdatedAt); err != nil {
			logging.From(ctx).Warn("failed to broadcast status", "error", err, "ticket_id", t.ID)
		}
	}
	writeTicket(w, r, "Status updated", t)
}
