package websocket

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ticketsync/pkg/domain/interfaces"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/errs"
	websocket_model "github.com/secmon-lab/ticketsync/pkg/domain/model/websocket"
	"github.com/secmon-lab/ticketsync/pkg/utils/logging"
	"github.com/secmon-lab/ticketsync/pkg/utils/user"
)

// Handler upgrades push channel connections and serves room joins
type Handler struct {
	hub        *Hub
	repository interfaces.TicketRepository
	upgrader   websocket.Upgrader
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, repository interfaces.TicketRepository) *Handler {
	return &Handler{
		hub:        hub,
		repository: repository,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Development backend accepts any origin
				return true
			},
		},
	}
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10
)

// HandleSocket upgrades an authenticated request to the push channel. The
// client joins ticket rooms afterwards with support:join frames.
func (h *Handler) HandleSocket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.From(ctx)

	// Get user ID from context (set by authentication middleware)
	userID := user.FromContext(ctx)
	if userID == "" {
		logger.Warn("missing user ID in WebSocket request")
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("failed to upgrade connection",
			"error", err,
			"error_type", fmt.Sprintf("%T", err),
			"user_id", userID)
		// Don't call http.Error here as upgrader may have already written headers
		return
	}

	client := h.hub.NewClient(conn, user.IsAdmin(ctx))
	send := client.send
	h.hub.Register(client)

	logger.Info("WebSocket connection established",
		"client_id", client.clientID,
		"user_id", userID,
		"admin", client.admin)

	go h.writePump(client, send)
	go h.readPump(client)
}

// readPump pumps frames from the websocket connection to the hub
func (h *Handler) readPump(client *Client) {
	logger := logging.From(client.ctx).With("client_id", client.clientID)

	defer func() {
		h.hub.Unregister(client)
		if err := client.conn.Close(); err != nil {
			logger.Debug("failed to close connection in readPump", "error", err)
		}
	}()

	client.conn.SetReadLimit(maxMessageSize)
	if err := client.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logger.Error("failed to set read deadline", "error", err)
		return
	}
	client.conn.SetPongHandler(func(string) error {
		if err := client.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			logger.Error("failed to set read deadline in pong handler", "error", err)
		}
		return nil
	})

	for {
		select {
		case <-client.ctx.Done():
			return
		default:
		}

		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("unexpected WebSocket close", "error", err)
			}
			return
		}

		var frame websocket_model.Frame
		if err := frame.FromBytes(data); err != nil {
			logger.Warn("invalid frame format", "error", err)
			h.sendErrorToClient(client, "Invalid frame format", "invalid_frame")
			continue
		}

		switch frame.Event {
		case websocket_model.EventJoin:
			if err := h.handleJoin(client, &frame); err != nil {
				logger.Warn("failed to join room", "error", err)
				code := "invalid_request"
				message := "Invalid join request"
				if goerr.HasTag(err, errs.TagNotFound) {
					code, message = "not_found", "Ticket not found"
				}
				h.sendErrorToClient(client, message, code)
			}

		default:
			logger.Warn("unhandled event", "event", frame.Event)
			h.sendErrorToClient(client, "Unknown event", "unknown_event")
		}
	}
}

func (h *Handler) handleJoin(client *Client, frame *websocket_model.Frame) error {
	var req websocket_model.JoinPayload
	if err := frame.Decode(&req); err != nil {
		return err
	}
	if err := req.TicketID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid ticket ID in join", goerr.T(errs.TagValidation))
	}

	// Verify ticket exists before joining its room
	if _, err := h.repository.GetTicket(client.ctx, req.TicketID); err != nil {
		return err
	}

	h.hub.Join(client, req.TicketID)
	return nil
}

// writePump pumps frames from the hub to the websocket connection. send is
// the client's queue captured before registration; the hub closes it on
// unregister.
func (h *Handler) writePump(client *Client, send <-chan []byte) {
	logger := logging.From(client.ctx).With("client_id", client.clientID)

	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		if err := client.conn.Close(); err != nil {
			logger.Debug("failed to close connection in writePump", "error", err)
		}
	}()

	for {
		select {
		case <-client.ctx.Done():
			return

		case message, ok := <-send:
			if err := client.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logger.Error("failed to set write deadline", "error", err)
				return
			}
			if !ok {
				// The hub closed the channel
				if err := client.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					logger.Debug("failed to write close message", "error", err)
				}
				return
			}

			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Error("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			if err := client.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logger.Error("failed to set write deadline for ping", "error", err)
				return
			}
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendErrorToClient sends a support:error frame to a specific client
func (h *Handler) sendErrorToClient(client *Client, message, code string) {
	frame, err := websocket_model.NewFrame(websocket_model.EventError, websocket_model.ErrorPayload{
		Message: message,
		Code:    code,
	})
	if err != nil {
		return
	}
	data, err := frame.ToBytes()
	if err != nil {
		return
	}
	client.trySend(data)
}
