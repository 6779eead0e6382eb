package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	websocket_controller "github.com/secmon-lab/ticketsync/pkg/controller/websocket"
	"github.com/secmon-lab/ticketsync/pkg/domain/interfaces"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/ticket"
	"github.com/secmon-lab/ticketsync/pkg/domain/types"
)

// Broadcaster pushes ticket changes to the clients that joined the ticket's
// room.
type Broadcaster interface {
	SendReplyToTicket(ticketID types.TicketID, reply ticket.Reply) error
	SendStatusToTicket(ticketID types.TicketID, status types.TicketStatus, updatedAt time.Time) error
}

type Server struct {
	router        *chi.Mux
	repo          interfaces.TicketRepository
	broadcaster   Broadcaster
	websocketCtrl *websocket_controller.Handler // push channel
	userToken     string
	adminToken    string
}

type Options func(*Server)

func WithBroadcaster(b Broadcaster) Options {
	return func(s *Server) {
		s.broadcaster = b
	}
}

func WithWebSocketHandler(handler *websocket_controller.Handler) Options {
	return func(s *Server) {
		s.websocketCtrl = handler
	}
}

func WithUserToken(token string) Options {
	return func(s *Server) {
		s.userToken = token
	}
}

func WithAdminToken(token string) Options {
	return func(s *Server) {
		s.adminToken = token
	}
}

func New(repo interfaces.TicketRepository, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		repo:   repo,
	}
	for _, opt := range opts {
		opt(s)
	}

	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware)
	r.Use(panicRecoveryMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware(s.userToken, s.adminToken))

		r.Route("/tickets", s.ticketRoutes(types.ReplyByUser))
		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAdmin)
			r.Route("/tickets", s.ticketRoutes(types.ReplyByAdmin))
		})

		// WebSocket endpoint
		if s.websocketCtrl != nil {
			r.Get("/socket", s.websocketCtrl.HandleSocket)
		}
	})

	return s
}

func (s *Server) ticketRoutes(by types.ReplyAuthor) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/{ticketID}", getTicketHandler(s.repo))
		r.Post("/{ticketID}/reply", postReplyHandler(s.repo, s.broadcaster, by))
		r.Patch("/{ticketID}/status", patchStatusHandler(s.repo, s.broadcaster))
		r.Patch("/{ticketID}/close", closeTicketHandler(s.repo, s.broadcaster))
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
