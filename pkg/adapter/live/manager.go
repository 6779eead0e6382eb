package live

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ticketsync/pkg/domain/interfaces"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/errs"
	websocket_model "github.com/secmon-lab/ticketsync/pkg/domain/model/websocket"
	"github.com/secmon-lab/ticketsync/pkg/domain/types"
	"github.com/secmon-lab/ticketsync/pkg/utils/errutil"
	"github.com/secmon-lab/ticketsync/pkg/utils/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024

	sendBufferSize     = 64
	listenerBufferSize = 128
	maxBackoff         = 30 * time.Second
)

// Manager owns the single push connection of the process. Views share it
// through listeners acquired with Acquire.
type Manager struct {
	url     string
	token   string
	dialer  *websocket.Dialer
	backoff time.Duration

	dialMutex sync.Mutex

	mutex     sync.Mutex
	conn      *connection
	listeners map[types.ListenerID]*Listener
	closed    bool
	stop      chan struct{}
}

var _ interfaces.LiveChannel = &Manager{}

type Option func(*Manager)

func WithDialer(d *websocket.Dialer) Option {
	return func(m *Manager) {
		m.dialer = d
	}
}

// WithAutoReconnect makes the Manager redial after a transport drop, waiting
// backoff before the first attempt and doubling it up to 30 seconds.
func WithAutoReconnect(backoff time.Duration) Option {
	return func(m *Manager) {
		m.backoff = backoff
	}
}

func New(url, token string, opts ...Option) *Manager {
	m := &Manager{
		url:   url,
		token: token,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
		listeners: make(map[types.ListenerID]*Listener),
		stop:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type connection struct {
	ws        *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func (c *connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		_ = c.ws.Close()
	})
}

func (m *Manager) Connected() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.conn != nil
}

// Listeners returns the number of listeners currently attached.
func (m *Manager) Listeners() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.listeners)
}

// Reconnect dials the push endpoint unless a connection is already up. On
// success every listener receives a connect event.
func (m *Manager) Reconnect(ctx context.Context) error {
	m.dialMutex.Lock()
	defer m.dialMutex.Unlock()

	m.mutex.Lock()
	if m.closed {
		m.mutex.Unlock()
		return goerr.New("live manager is closed", goerr.T(errs.TagTransport))
	}
	if m.conn != nil {
		m.mutex.Unlock()
		return nil
	}
	m.mutex.Unlock()

	if m.url == "" {
		return goerr.Wrap(errs.ErrBackendURLNotSet, "no socket URL", goerr.T(errs.TagConfig))
	}

	header := http.Header{}
	if m.token != "" {
		header.Set("Authorization", "Bearer "+m.token)
	}

	ws, resp, err := m.dialer.DialContext(ctx, m.url, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if ctx.Err() != nil {
			return goerr.Wrap(err, "dial canceled", goerr.T(errs.TagCanceled), goerr.TV(errutil.URLKey, m.url))
		}
		opts := []goerr.Option{goerr.T(errs.TagTransport), goerr.TV(errutil.URLKey, m.url)}
		if resp != nil {
			opts = append(opts, goerr.TV(errutil.HTTPStatusKey, resp.StatusCode))
			switch resp.StatusCode {
			case http.StatusUnauthorized:
				opts = append(opts, goerr.T(errs.TagUnauthorized))
			case http.StatusForbidden:
				opts = append(opts, goerr.T(errs.TagForbidden))
			}
		}
		return goerr.Wrap(err, "failed to dial push endpoint", opts...)
	}

	c := &connection{
		ws:   ws,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}

	m.mutex.Lock()
	if m.closed {
		m.mutex.Unlock()
		c.close()
		return goerr.New("live manager is closed", goerr.T(errs.TagTransport))
	}
	m.conn = c
	m.mutex.Unlock()

	pumpCtx := context.WithoutCancel(ctx)
	go m.writePump(pumpCtx, c)
	go m.readPump(pumpCtx, c)

	logging.From(ctx).Info("push connection established", "url", m.url)
	m.broadcast(ctx, &websocket_model.Event{Name: websocket_model.EventConnect})
	return nil
}

// Acquire registers a new listener. The caller must Release it.
func (m *Manager) Acquire() interfaces.LiveListener {
	l := &Listener{
		id:      types.NewListenerID(),
		manager: m,
		events:  make(chan *websocket_model.Event, listenerBufferSize),
	}

	m.mutex.Lock()
	m.listeners[l.id] = l
	m.mutex.Unlock()
	return l
}

// Close shuts the connection down and stops reconnecting. Listeners stay
// registered until released.
func (m *Manager) Close() {
	m.mutex.Lock()
	if m.closed {
		m.mutex.Unlock()
		return
	}
	m.closed = true
	close(m.stop)
	c := m.conn
	m.conn = nil
	m.mutex.Unlock()

	if c != nil {
		c.close()
	}
}

func (m *Manager) release(l *Listener) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, ok := m.listeners[l.id]; !ok {
		return
	}
	delete(m.listeners, l.id)
	close(l.events)
}

func (m *Manager) send(ctx context.Context, data []byte) error {
	m.mutex.Lock()
	c := m.conn
	m.mutex.Unlock()

	if c == nil {
		return goerr.Wrap(errs.ErrNotConnected, "cannot emit", goerr.T(errs.TagTransport))
	}

	select {
	case c.send <- data:
	case <-c.done:
		return goerr.Wrap(errs.ErrNotConnected, "connection closed while emitting", goerr.T(errs.TagTransport))
	default:
		logging.From(ctx).Warn("send queue full, frame dropped", "url", m.url)
	}
	return nil
}

// broadcast hands ev to every listener without blocking. A listener whose
// buffer is full misses the event.
func (m *Manager) broadcast(ctx context.Context, ev *websocket_model.Event) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for id, l := range m.listeners {
		select {
		case l.events <- ev:
		default:
			logging.From(ctx).Warn("listener buffer full, event dropped",
				"listener_id", id,
				"event", ev.Name)
		}
	}
}

// drop detaches c after a transport failure and schedules a redial when auto
// reconnect is on.
func (m *Manager) drop(ctx context.Context, c *connection, cause error) {
	m.mutex.Lock()
	current := m.conn == c
	if current {
		m.conn = nil
	}
	closed := m.closed
	m.mutex.Unlock()

	c.close()
	if !current {
		return
	}

	logging.From(ctx).Warn("push connection lost", "error", cause, "url", m.url)
	m.broadcast(ctx, &websocket_model.Event{Name: websocket_model.EventDisconnect})

	if m.backoff > 0 && !closed {
		go m.reconnectLoop(ctx)
	}
}

func (m *Manager) reconnectLoop(ctx context.Context) {
	logger := logging.From(ctx)
	wait := m.backoff

	for {
		select {
		case <-m.stop:
			return
		case <-time.After(wait):
		}

		if m.Connected() {
			return
		}
		err := m.Reconnect(ctx)
		if err == nil {
			return
		}
		logger.Warn("reconnect failed", "error", err, "retry_in", wait)

		wait *= 2
		if wait > maxBackoff {
			wait = maxBackoff
		}
	}
}

func (m *Manager) readPump(ctx context.Context, c *connection) {
	logger := logging.From(ctx)

	c.ws.SetReadLimit(maxMessageSize)
	if err := c.ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		m.drop(ctx, c, err)
		return
	}
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("unexpected push close", "error", err)
			}
			m.drop(ctx, c, err)
			return
		}

		var frame websocket_model.Frame
		if err := frame.FromBytes(data); err != nil {
			logger.Warn("malformed push frame skipped", "error", err)
			continue
		}
		ev, err := websocket_model.EventFromFrame(&frame)
		if err != nil {
			logger.Warn("undecodable push event skipped", "error", err, "event", frame.Event)
			continue
		}

		m.broadcast(ctx, ev)
	}
}

func (m *Manager) writePump(ctx context.Context, c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return

		case data := <-c.send:
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				m.drop(ctx, c, err)
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				m.drop(ctx, c, err)
				return
			}

		case <-ticker.C:
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				m.drop(ctx, c, err)
				return
			}
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				m.drop(ctx, c, err)
				return
			}
		}
	}
}
