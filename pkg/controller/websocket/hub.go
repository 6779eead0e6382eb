package websocket

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/ticket"
	websocket_model "github.com/secmon-lab/ticketsync/pkg/domain/model/websocket"
	"github.com/secmon-lab/ticketsync/pkg/domain/types"
	"github.com/secmon-lab/ticketsync/pkg/utils/logging"
	"github.com/secmon-lab/ticketsync/pkg/utils/ptr"
)

// Hub maintains the set of active clients and the ticket rooms they joined
type Hub struct {
	// Joined clients grouped by ticket ID
	rooms map[types.TicketID]map[*Client]bool

	// Registered clients indexed by client ID for direct access
	clients map[string]*Client

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Room join requests
	join chan *joinRequest

	// Broadcast frame to clients of a specific ticket
	broadcast chan *BroadcastMessage

	// Mutex to protect concurrent access to rooms and clients maps
	mu sync.RWMutex

	// Context for graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// Client is a middleman between the websocket connection and the hub. One
// client may join any number of ticket rooms.
type Client struct {
	hub *Hub

	// The websocket connection
	conn *websocket.Conn

	// Buffered channel of outbound frames
	send chan []byte

	// Whether the connection authenticated with the admin token
	admin bool

	// Unique client ID for this connection
	clientID string

	// Rooms this client joined, owned by the hub loop
	rooms map[types.TicketID]bool

	// Context for this client
	ctx    context.Context
	cancel context.CancelFunc

	// Mutex to protect send channel
	mu sync.Mutex
}

// BroadcastMessage represents a frame to be broadcast to all clients of a ticket
type BroadcastMessage struct {
	TicketID types.TicketID
	Message  []byte
}

type joinRequest struct {
	client   *Client
	ticketID types.TicketID
}

const (
	// Maximum message size allowed from peer (64KB)
	maxMessageSize = 64 * 1024

	// Maximum number of rooms one client may join
	maxRoomsPerClient = 32

	// Buffer size for client send channel
	clientSendBufferSize = 256
)

// NewHub creates a new Hub
func NewHub(ctx context.Context) *Hub {
	ctx, cancel := context.WithCancel(ctx)
	return &Hub{
		rooms:      make(map[types.TicketID]map[*Client]bool),
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan *joinRequest),
		broadcast:  make(chan *BroadcastMessage),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	logger := logging.From(h.ctx)
	logger.Info("WebSocket Hub started")

	defer func() {
		logger.Info("WebSocket Hub stopped")
		h.cancel()
	}()

	for {
		select {
		case <-h.ctx.Done():
			logger.Info("Hub context cancelled, shutting down")
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case req := <-h.join:
			h.joinRoom(req)

		case message := <-h.broadcast:
			h.broadcastToTicket(message)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.clientID] = client
	logging.From(h.ctx).Info("Client registered",
		"client_id", client.clientID,
		"admin", client.admin,
		"total_clients", len(h.clients))
}

func (h *Hub) joinRoom(req *joinRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	logger := logging.From(h.ctx)
	client := req.client
	if _, ok := h.clients[client.clientID]; !ok {
		return
	}
	if client.rooms[req.ticketID] {
		return
	}
	if len(client.rooms) >= maxRoomsPerClient {
		logger.Warn("Maximum rooms reached for client",
			"client_id", client.clientID,
			"max_rooms", maxRoomsPerClient)
		h.sendError(client, "Too many rooms joined", "too_many_rooms")
		return
	}

	if _, exists := h.rooms[req.ticketID]; !exists {
		h.rooms[req.ticketID] = make(map[*Client]bool)
	}
	h.rooms[req.ticketID][client] = true
	client.rooms[req.ticketID] = true

	logger.Info("Client joined ticket room",
		"ticket_id", req.ticketID,
		"client_id", client.clientID,
		"room_clients", len(h.rooms[req.ticketID]))
}

// unregisterClient removes a client from the hub and all of its rooms
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	logger := logging.From(h.ctx)

	if _, exists := h.clients[client.clientID]; !exists {
		return
	}
	delete(h.clients, client.clientID)

	for ticketID := range client.rooms {
		clients := h.rooms[ticketID]
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.rooms, ticketID)
			logger.Info("Removed empty room", "ticket_id", ticketID)
		}
	}

	// Only close if channel is not nil (prevents double close)
	client.mu.Lock()
	if client.send != nil {
		close(client.send)
		client.send = nil
	}
	client.mu.Unlock()

	logger.Info("Client unregistered",
		"client_id", client.clientID,
		"remaining_clients", len(h.clients))

	// Cancel client context
	client.cancel()
}

// broadcastToTicket sends a frame to all clients that joined a specific ticket
func (h *Hub) broadcastToTicket(message *BroadcastMessage) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[message.TicketID]))
	for client := range h.rooms[message.TicketID] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	logger := logging.From(h.ctx)
	logger.Debug("Broadcasting frame to ticket",
		"ticket_id", message.TicketID,
		"client_count", len(clients))

	for _, client := range clients {
		if !client.trySend(message.Message) {
			// Client's send channel is full, remove the client
			h.unregisterClient(client)
		}
	}
}

// trySend queues data without blocking. It returns false when the queue is
// full or already closed.
func (c *Client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.send == nil {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// sendError must be called with h.mu held.
func (h *Hub) sendError(client *Client, message, code string) {
	frame, err := websocket_model.NewFrame(websocket_model.EventError, websocket_model.ErrorPayload{
		Message: message,
		Code:    code,
	})
	if err != nil {
		return
	}
	if data, err := frame.ToBytes(); err == nil {
		client.trySend(data)
	}
}

// BroadcastToTicket sends a frame to all clients of a specific ticket
func (h *Hub) BroadcastToTicket(ticketID types.TicketID, message []byte) {
	select {
	case h.broadcast <- &BroadcastMessage{
		TicketID: ticketID,
		Message:  message,
	}:
	case <-h.ctx.Done():
		// Hub is shutting down
	}
}

// Join adds client to the room of ticketID
func (h *Hub) Join(client *Client, ticketID types.TicketID) {
	select {
	case h.join <- &joinRequest{client: client, ticketID: ticketID}:
	case <-h.ctx.Done():
	}
}

// GetClientCount returns the number of clients joined to a specific ticket
func (h *Hub) GetClientCount(ticketID types.TicketID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, exists := h.rooms[ticketID]; exists {
		return len(clients)
	}
	return 0
}

// GetTotalClientCount returns the number of connected clients
func (h *Hub) GetTotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetActiveTickets returns a list of ticket IDs that have joined clients
func (h *Hub) GetActiveTickets() []types.TicketID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	tickets := make([]types.TicketID, 0, len(h.rooms))
	for ticketID := range h.rooms {
		tickets = append(tickets, ticketID)
	}
	return tickets
}

// NewClient creates a new client for conn
func (h *Hub) NewClient(conn *websocket.Conn, admin bool) *Client {
	ctx, cancel := context.WithCancel(h.ctx)

	return &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, clientSendBufferSize),
		admin:    admin,
		clientID: generateClientID(),
		rooms:    make(map[types.TicketID]bool),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Register registers a client with the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
		// Hub is shutting down
		client.mu.Lock()
		if client.send != nil {
			close(client.send)
			client.send = nil
		}
		client.mu.Unlock()
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
		// Hub is already shutting down
	}
}

// Close gracefully shuts down the hub
func (h *Hub) Close() error {
	h.cancel()

	// Close all client connections
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		client.cancel()
		client.mu.Lock()
		if client.send != nil {
			close(client.send)
			client.send = nil
		}
		client.mu.Unlock()
	}

	return nil
}

// SendFrameToTicket encodes payload as event and broadcasts it to the room
func (h *Hub) SendFrameToTicket(ticketID types.TicketID, event websocket_model.EventName, payload any) error {
	frame, err := websocket_model.NewFrame(event, payload)
	if err != nil {
		return err
	}
	data, err := frame.ToBytes()
	if err != nil {
		return goerr.Wrap(err, "failed to marshal frame", goerr.V("event", event))
	}

	h.BroadcastToTicket(ticketID, data)
	return nil
}

// SendReplyToTicket pushes a new reply to all clients of a ticket
func (h *Hub) SendReplyToTicket(ticketID types.TicketID, reply ticket.Reply) error {
	return h.SendFrameToTicket(ticketID, websocket_model.EventMessage, websocket_model.MessagePayload{
		TicketID: ticketID,
		Reply:    reply,
	})
}

// SendStatusToTicket pushes a status change to all clients of a ticket
func (h *Hub) SendStatusToTicket(ticketID types.TicketID, status types.TicketStatus, updatedAt time.Time) error {
	return h.SendFrameToTicket(ticketID, websocket_model.EventStatus, websocket_model.StatusPayload{
		TicketID:  ticketID,
		Status:    status,
		UpdatedAt: ptr.RefNonZero(updatedAt),
	})
}

// SendToClient sends a frame to a specific client by client ID
func (h *Hub) SendToClient(clientID string, event websocket_model.EventName, payload any) error {
	h.mu.RLock()
	client, exists := h.clients[clientID]
	h.mu.RUnlock()

	if !exists {
		return goerr.New("client not found", goerr.V("client_id", clientID))
	}

	frame, err := websocket_model.NewFrame(event, payload)
	if err != nil {
		return err
	}
	data, err := frame.ToBytes()
	if err != nil {
		return goerr.Wrap(err, "failed to marshal frame")
	}

	if !client.trySend(data) {
		// Client's send channel is full, unregister the client
		h.Unregister(client)
		return goerr.New("client send channel full, client unregistered", goerr.V("client_id", clientID))
	}
	return nil
}

// generateClientID generates a unique client ID
func generateClientID() string {
	// Create a unique ID using timestamp and random bytes
	timestamp := time.Now().Unix()
	randomBytes := make([]byte, 8)
	if _, err := rand.Read(randomBytes); err != nil {
		// Fallback to timestamp-based ID if random generation fails
		return fmt.Sprintf("client_%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("client_%d_%s", timestamp, hex.EncodeToString(randomBytes))
}

// GetClientID returns the client ID for a client
func (c *Client) GetClientID() string {
	return c.clientID
}
