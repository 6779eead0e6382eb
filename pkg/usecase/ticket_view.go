package usecase

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ticketsync/pkg/domain/interfaces"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/errs"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/notice"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/ticket"
	websocket_model "github.com/secmon-lab/ticketsync/pkg/domain/model/websocket"
	"github.com/secmon-lab/ticketsync/pkg/domain/types"
	"github.com/secmon-lab/ticketsync/pkg/service/reconcile"
	"github.com/secmon-lab/ticketsync/pkg/utils/errutil"
	"github.com/secmon-lab/ticketsync/pkg/utils/logging"
)

// TicketView is the live view of one ticket. It owns a Store and applies
// every mutation on a single goroutine; REST calls run on the caller's
// goroutine and post their result to that loop.
type TicketView struct {
	id        types.TicketID
	api       interfaces.TicketAPI
	live      interfaces.LiveChannel
	notifier  interfaces.Notifier
	store     *reconcile.Store
	observers []reconcile.Observer

	ops      chan func(ctx context.Context)
	ctx      context.Context
	cancel   context.CancelFunc
	loopDone chan struct{}
	pumpDone chan struct{}
	listener interfaces.LiveListener

	// push events received before the first snapshot; owned by the loop
	pending []*websocket_model.Event

	mutex          sync.Mutex
	mounted        bool
	unmounted      bool
	loaded         bool
	loadErr        error
	configReported bool
}

// maxPendingEvents bounds the push events kept while the first snapshot is
// loading.
const maxPendingEvents = 256

type TicketViewOption func(*TicketView)

// WithObserver registers an observer on the view's Store, e.g. a renderer
// that scrolls to the newest reply.
func WithObserver(o reconcile.Observer) TicketViewOption {
	return func(v *TicketView) {
		v.observers = append(v.observers, o)
	}
}

// NewTicketView creates an unmounted view. live may be nil, in which case the
// view works on REST only.
func NewTicketView(id types.TicketID, api interfaces.TicketAPI, live interfaces.LiveChannel, notifier interfaces.Notifier, opts ...TicketViewOption) *TicketView {
	v := &TicketView{
		id:       id,
		api:      api,
		live:     live,
		notifier: notifier,
		ops:      make(chan func(ctx context.Context)),
		loopDone: make(chan struct{}),
		pumpDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.store = reconcile.New(id, v.observers...)
	return v
}

func (v *TicketView) ID() types.TicketID {
	return v.id
}

// Mount starts the view: it attaches to the push channel, joins the ticket
// room and loads the snapshot. A load failure is notified and returned; the
// view stays mounted in the not loaded state and Refresh may retry.
func (v *TicketView) Mount(ctx context.Context) error {
	v.mutex.Lock()
	if v.mounted || v.unmounted {
		v.mutex.Unlock()
		return goerr.New("ticket view cannot be mounted twice", goerr.TV(errutil.TicketIDKey, v.id))
	}
	v.mounted = true
	v.ctx, v.cancel = context.WithCancel(logging.WithAttrs(ctx, "ticket_id", v.id.String()))
	v.mutex.Unlock()

	go v.loop()

	if v.live != nil {
		v.listener = v.live.Acquire()
		go v.pump(v.listener)

		if v.live.Connected() {
			v.post(v.join)
		} else {
			go v.connect()
		}
	} else {
		close(v.pumpDone)
	}

	return v.load(ctx)
}

// Unmount cancels in-flight calls, detaches from the push channel and drops
// the Store. Results that arrive later are discarded. Calling it more than
// once, or before Mount, is safe.
func (v *TicketView) Unmount() {
	v.mutex.Lock()
	if v.unmounted {
		v.mutex.Unlock()
		return
	}
	v.unmounted = true
	mounted := v.mounted
	v.mutex.Unlock()

	if !mounted {
		return
	}

	v.cancel()
	<-v.loopDone
	if v.listener != nil {
		v.listener.Release()
	}
	<-v.pumpDone
	v.pending = nil
	v.store.Reset()
	logging.From(v.ctx).Debug("ticket view unmounted")
}

// Ticket returns a copy of the current ticket, or nil when nothing is loaded.
func (v *TicketView) Ticket() *ticket.Ticket {
	return v.store.Snapshot()
}

func (v *TicketView) Loaded() bool {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	return v.loaded
}

// LoadError returns the error of the last failed load, or nil.
func (v *TicketView) LoadError() error {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	return v.loadErr
}

// Refresh reloads the snapshot.
func (v *TicketView) Refresh(ctx context.Context) error {
	return v.load(ctx)
}

// Reply posts a message. The view is updated from the server response only.
func (v *TicketView) Reply(ctx context.Context, message string) error {
	return v.write(ctx, "reply", func(ctx context.Context) (*ticket.Ticket, error) {
		return v.api.PostReply(ctx, v.id, message)
	}, "Reply sent")
}

func (v *TicketView) UpdateStatus(ctx context.Context, status types.TicketStatus) error {
	return v.write(ctx, "update_status", func(ctx context.Context) (*ticket.Ticket, error) {
		return v.api.PatchStatus(ctx, v.id, status)
	}, "Status updated to "+status.Label())
}

func (v *TicketView) CloseTicket(ctx context.Context) error {
	return v.write(ctx, "close", func(ctx context.Context) (*ticket.Ticket, error) {
		return v.api.CloseTicket(ctx, v.id)
	}, "Ticket closed")
}

func (v *TicketView) load(ctx context.Context) error {
	vctx, err := v.viewContext()
	if err != nil {
		return err
	}

	callCtx, cancel := bind(ctx, vctx)
	defer cancel()

	t, err := v.api.FetchTicket(callCtx, v.id)
	if err == nil {
		var applyErr error
		if !v.run(func(ctx context.Context) { applyErr = v.applySnapshot(ctx, t) }) {
			return nil
		}
		err = applyErr
	}

	if err != nil && !v.isCanceled(err) {
		v.mutex.Lock()
		if !v.loaded {
			v.loadErr = err
		}
		v.mutex.Unlock()
		return v.fail(ctx, "load", err)
	}
	if err != nil {
		return nil
	}

	v.mutex.Lock()
	v.loaded = true
	v.loadErr = nil
	v.mutex.Unlock()
	return nil
}

func (v *TicketView) write(ctx context.Context, op string, call func(ctx context.Context) (*ticket.Ticket, error), successMsg string) error {
	vctx, err := v.viewContext()
	if err != nil {
		return err
	}

	callCtx, cancel := bind(ctx, vctx)
	defer cancel()

	t, err := call(callCtx)
	if err != nil {
		return v.fail(ctx, op, err)
	}

	var applyErr error
	if !v.run(func(ctx context.Context) { applyErr = v.applySnapshot(ctx, t) }) {
		return nil
	}
	if applyErr != nil {
		return v.fail(ctx, op, applyErr)
	}

	v.mutex.Lock()
	v.loaded = true
	v.loadErr = nil
	v.mutex.Unlock()

	v.notify(ctx, notice.Success(ctx, v.id, successMsg))
	return nil
}

// fail reports err to the user and returns it. Cancellations and results for
// an unmounted view are swallowed. A configuration error is shown only once.
func (v *TicketView) fail(ctx context.Context, op string, err error) error {
	logger := logging.From(ctx)
	if v.isCanceled(err) {
		logger.Debug("ticket view call canceled", "op", op, "ticket_id", v.id)
		return nil
	}

	if goerr.HasTag(err, errs.TagConfig) {
		v.mutex.Lock()
		reported := v.configReported
		v.configReported = true
		v.mutex.Unlock()
		if reported {
			return err
		}
	}

	switch errs.Kind(err) {
	case "external", "invalid_response", "internal", "":
		errs.Handle(ctx, err)
	default:
		logger.Warn("ticket view call failed", "op", op, "ticket_id", v.id, "error", err)
	}

	v.notify(ctx, notice.Error(ctx, v.id, errs.UserMessage(err)))
	return err
}

func (v *TicketView) isCanceled(err error) bool {
	if errs.IsCanceled(err) {
		return true
	}
	vctx, vErr := v.viewContext()
	return vErr == nil && vctx.Err() != nil
}

func (v *TicketView) notify(ctx context.Context, n notice.Notice) {
	if v.notifier == nil {
		return
	}
	v.notifier.Notify(ctx, n)
}

func (v *TicketView) viewContext() (context.Context, error) {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	if !v.mounted {
		return nil, goerr.New("ticket view is not mounted", goerr.TV(errutil.TicketIDKey, v.id))
	}
	return v.ctx, nil
}

// bind derives a context from ctx that is also cancelled with the view.
func bind(ctx, vctx context.Context) (context.Context, context.CancelFunc) {
	callCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(vctx, cancel)
	return callCtx, func() {
		stop()
		cancel()
	}
}

func (v *TicketView) loop() {
	defer close(v.loopDone)
	for {
		select {
		case <-v.ctx.Done():
			return
		case op := <-v.ops:
			op(v.ctx)
		}
	}
}

// post queues fn on the loop. It returns false once the view is unmounted.
func (v *TicketView) post(fn func(ctx context.Context)) bool {
	select {
	case v.ops <- fn:
		return true
	case <-v.ctx.Done():
		return false
	}
}

// run is post followed by waiting for fn to finish.
func (v *TicketView) run(fn func(ctx context.Context)) bool {
	done := make(chan struct{})
	if !v.post(func(ctx context.Context) {
		defer close(done)
		fn(ctx)
	}) {
		return false
	}
	select {
	case <-done:
		return true
	case <-v.ctx.Done():
		return false
	}
}

func (v *TicketView) pump(l interfaces.LiveListener) {
	defer close(v.pumpDone)
	for ev := range l.Events() {
		v.post(func(ctx context.Context) { v.handleEvent(ctx, ev) })
	}
}

func (v *TicketView) connect() {
	if err := v.live.Reconnect(v.ctx); err != nil && !v.isCanceled(err) {
		logging.From(v.ctx).Warn("push connection failed", "error", err)
		if goerr.HasTag(err, errs.TagConfig) {
			return
		}
		v.notify(v.ctx, notice.Warning(v.ctx, v.id, "Live updates are unavailable"))
	}
}

func (v *TicketView) join(ctx context.Context) {
	err := v.listener.Emit(ctx, websocket_model.EventJoin, websocket_model.JoinPayload{TicketID: v.id})
	if err != nil {
		logging.From(ctx).Warn("failed to join ticket room", "error", err)
	}
}

func (v *TicketView) handleEvent(ctx context.Context, ev *websocket_model.Event) {
	logger := logging.From(ctx)

	switch ev.Name {
	case websocket_model.EventConnect:
		v.join(ctx)

	case websocket_model.EventDisconnect:
		logger.Info("push connection lost, waiting for reconnect")

	case websocket_model.EventMessage, websocket_model.EventStatus:
		if !v.store.Hydrated() {
			v.hold(ctx, ev)
			return
		}
		v.store.ApplyEvent(ctx, ev)

	case websocket_model.EventError:
		msg := "Live update error"
		if ev.Error != nil && ev.Error.Message != "" {
			msg = ev.Error.Message
		}
		logger.Warn("push channel reported error", "message", msg)
		v.notify(ctx, notice.Error(ctx, v.id, msg))

	default:
		logger.Debug("unhandled push event", "event", ev.Name)
	}
}

// hold keeps ev until the first snapshot is applied. A reply pushed while the
// snapshot request is in flight may be missing from the snapshot.
func (v *TicketView) hold(ctx context.Context, ev *websocket_model.Event) {
	if len(v.pending) >= maxPendingEvents {
		logging.From(ctx).Warn("too many push events before snapshot, oldest dropped", "event", v.pending[0].Name)
		v.pending = v.pending[1:]
	}
	v.pending = append(v.pending, ev)
}

// applySnapshot overwrites the Store with t and replays the held push events
// in arrival order. Duplicates of replies already in t are suppressed by the
// Store. Runs on the loop.
func (v *TicketView) applySnapshot(ctx context.Context, t *ticket.Ticket) error {
	if err := v.store.ApplySnapshot(ctx, t); err != nil {
		return err
	}

	pending := v.pending
	v.pending = nil
	for _, ev := range pending {
		v.store.ApplyEvent(ctx, ev)
	}
	return nil
}
