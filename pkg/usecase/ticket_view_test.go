package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/ticketsync/pkg/domain/interfaces"
	"github.com/secmon-lab/ticketsync/pkg/domain/mock"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/errs"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/notice"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/ticket"
	websocket_model "github.com/secmon-lab/ticketsync/pkg/domain/model/websocket"
	"github.com/secmon-lab/ticketsync/pkg/domain/types"
	"github.com/secmon-lab/ticketsync/pkg/service/reconcile"
	"github.com/secmon-lab/ticketsync/pkg/usecase"
)

var createdAt = time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)

func openTicket(replies ...ticket.Reply) *ticket.Ticket {
	return &ticket.Ticket{
		ID:        "T1",
		Subject:   "Payout missing",
		Status:    types.TicketStatusOpen,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
		Replies:   replies,
	}
}

type noticeRecorder struct {
	mutex   sync.Mutex
	notices []notice.Notice
}

func (r *noticeRecorder) Notify(ctx context.Context, n notice.Notice) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.notices = append(r.notices, n)
}

func (r *noticeRecorder) All() []notice.Notice {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]notice.Notice{}, r.notices...)
}

type fakeLive struct {
	channel  *mock.LiveChannelMock
	listener *mock.LiveListenerMock
	events   chan *websocket_model.Event

	mutex     sync.Mutex
	connected bool
	released  bool
}

func newFakeLive(connected bool) *fakeLive {
	f := &fakeLive{
		events:    make(chan *websocket_model.Event, 16),
		connected: connected,
	}
	f.listener = &mock.LiveListenerMock{
		IDFunc:     func() types.ListenerID { return "L1" },
		EventsFunc: func() <-chan *websocket_model.Event { return f.events },
		EmitFunc: func(ctx context.Context, event websocket_model.EventName, payload any) error {
			return nil
		},
		ReleaseFunc: func() {
			f.mutex.Lock()
			defer f.mutex.Unlock()
			if !f.released {
				f.released = true
				close(f.events)
			}
		},
	}
	f.channel = &mock.LiveChannelMock{
		ConnectedFunc: func() bool {
			f.mutex.Lock()
			defer f.mutex.Unlock()
			return f.connected
		},
		ReconnectFunc: func(ctx context.Context) error {
			f.mutex.Lock()
			defer f.mutex.Unlock()
			f.connected = true
			return nil
		},
		AcquireFunc: func() interfaces.LiveListener { return f.listener },
	}
	return f
}

func (f *fakeLive) push(ev *websocket_model.Event) {
	f.events <- ev
}

func (f *fakeLive) joins() int {
	n := 0
	for _, c := range f.listener.EmitCalls() {
		if c.Event == websocket_model.EventJoin {
			n++
		}
	}
	return n
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestTicketView_MountLoadsAndJoins(t *testing.T) {
	ctx := context.Background()
	api := &mock.TicketAPIMock{
		FetchTicketFunc: func(ctx context.Context, id types.TicketID) (*ticket.Ticket, error) {
			return openTicket(), nil
		},
	}
	live := newFakeLive(true)

	view := usecase.NewTicketView("T1", api, live.channel, &noticeRecorder{})
	gt.NoError(t, view.Mount(ctx))
	defer view.Unmount()

	gt.True(t, view.Loaded())
	gt.Nil(t, view.LoadError())
	gt.V(t, view.Ticket().Subject).Equal("Payout missing")
	gt.A(t, api.FetchTicketCalls()).Length(1)
	gt.A(t, live.channel.ReconnectCalls()).Length(0)

	eventually(t, func() bool { return live.joins() == 1 })
	payload := gt.Cast[websocket_model.JoinPayload](t, live.listener.EmitCalls()[0].Payload)
	gt.V(t, payload.TicketID).Equal(types.TicketID("T1"))
}

func TestTicketView_JoinsOnConnect(t *testing.T) {
	ctx := context.Background()
	api := &mock.TicketAPIMock{
		FetchTicketFunc: func(ctx context.Context, id types.TicketID) (*ticket.Ticket, error) {
			return openTicket(), nil
		},
	}
	live := newFakeLive(false)

	view := usecase.NewTicketView("T1", api, live.channel, &noticeRecorder{})
	gt.NoError(t, view.Mount(ctx))
	defer view.Unmount()

	eventually(t, func() bool { return len(live.channel.ReconnectCalls()) == 1 })
	gt.V(t, live.joins()).Equal(0)

	live.push(&websocket_model.Event{Name: websocket_model.EventConnect})
	eventually(t, func() bool { return live.joins() == 1 })

	// a later reconnect joins again
	live.push(&websocket_model.Event{Name: websocket_model.EventDisconnect})
	live.push(&websocket_model.Event{Name: websocket_model.EventConnect})
	eventually(t, func() bool { return live.joins() == 2 })
}

func TestTicketView_PushUpdates(t *testing.T) {
	ctx := context.Background()
	api := &mock.TicketAPIMock{
		FetchTicketFunc: func(ctx context.Context, id types.TicketID) (*ticket.Ticket, error) {
			return openTicket(), nil
		},
	}
	live := newFakeLive(true)

	var mutex sync.Mutex
	var kinds []reconcile.ChangeKind
	view := usecase.NewTicketView("T1", api, live.channel, &noticeRecorder{},
		usecase.WithObserver(func(ctx context.Context, c reconcile.Change) {
			mutex.Lock()
			defer mutex.Unlock()
			kinds = append(kinds, c.Kind)
		}))
	gt.NoError(t, view.Mount(ctx))
	defer view.Unmount()

	live.push(&websocket_model.Event{
		Name: websocket_model.EventMessage,
		Message: &websocket_model.MessagePayload{
			TicketID: "T1",
			Reply:    ticket.Reply{By: types.ReplyByAdmin, Message: "We are on it", CreatedAt: createdAt.Add(time.Minute)},
		},
	})
	live.push(&websocket_model.Event{
		Name:    websocket_model.EventMessage,
		Message: &websocket_model.MessagePayload{TicketID: "T2", Reply: ticket.Reply{Message: "other"}},
	})
	live.push(&websocket_model.Event{
		Name:   websocket_model.EventStatus,
		Status: &websocket_model.StatusPayload{TicketID: "T1", Status: types.TicketStatusClosed},
	})

	eventually(t, func() bool { return view.Ticket().Status == types.TicketStatusClosed })
	got := view.Ticket()
	gt.A(t, got.Replies).Length(1)
	gt.V(t, got.Replies[0].Message).Equal("We are on it")

	mutex.Lock()
	defer mutex.Unlock()
	gt.V(t, kinds).Equal([]reconcile.ChangeKind{reconcile.ChangeSnapshot, reconcile.ChangeReply, reconcile.ChangeStatus})
}

func TestTicketView_ReplyThenIdenticalPush(t *testing.T) {
	ctx := context.Background()
	reply := ticket.Reply{By: types.ReplyByUser, Message: "Hello", CreatedAt: createdAt.Add(time.Minute)}
	api := &mock.TicketAPIMock{
		FetchTicketFunc: func(ctx context.Context, id types.TicketID) (*ticket.Ticket, error) {
			return openTicket(), nil
		},
		PostReplyFunc: func(ctx context.Context, id types.TicketID, message string) (*ticket.Ticket, error) {
			return openTicket(reply), nil
		},
	}
	live := newFakeLive(true)
	notifier := &noticeRecorder{}

	view := usecase.NewTicketView("T1", api, live.channel, notifier)
	gt.NoError(t, view.Mount(ctx))
	defer view.Unmount()

	gt.NoError(t, view.Reply(ctx, "Hello"))
	gt.A(t, view.Ticket().Replies).Length(1)

	live.push(&websocket_model.Event{
		Name:    websocket_model.EventMessage,
		Message: &websocket_model.MessagePayload{TicketID: "T1", Reply: reply},
	})
	live.push(&websocket_model.Event{
		Name:   websocket_model.EventStatus,
		Status: &websocket_model.StatusPayload{TicketID: "T1", Status: types.TicketStatusInProgress},
	})
	eventually(t, func() bool { return view.Ticket().Status == types.TicketStatusInProgress })

	gt.A(t, view.Ticket().Replies).Length(1)
	notices := notifier.All()
	gt.A(t, notices).Length(1)
	gt.V(t, notices[0].Level).Equal(notice.LevelSuccess)
}

func TestTicketView_PushDuringInitialFetch(t *testing.T) {
	late := ticket.Reply{ID: "r9", By: types.ReplyByAdmin, Message: "late", CreatedAt: createdAt.Add(time.Minute)}

	testCases := []struct {
		name       string
		pushed     []*websocket_model.Event
		snapshot   *ticket.Ticket
		wantReply  []string
		wantStatus types.TicketStatus
	}{
		{
			name: "reply missing from snapshot is kept",
			pushed: []*websocket_model.Event{
				{Name: websocket_model.EventMessage, Message: &websocket_model.MessagePayload{TicketID: "T1", Reply: late}},
			},
			snapshot:   openTicket(),
			wantReply:  []string{"late"},
			wantStatus: types.TicketStatusOpen,
		},
		{
			name: "reply already in snapshot is not duplicated",
			pushed: []*websocket_model.Event{
				{Name: websocket_model.EventMessage, Message: &websocket_model.MessagePayload{TicketID: "T1", Reply: late}},
			},
			snapshot:   openTicket(late),
			wantReply:  []string{"late"},
			wantStatus: types.TicketStatusOpen,
		},
		{
			name: "status change is applied",
			pushed: []*websocket_model.Event{
				{Name: websocket_model.EventMessage, Message: &websocket_model.MessagePayload{TicketID: "T1", Reply: late}},
				{Name: websocket_model.EventStatus, Status: &websocket_model.StatusPayload{TicketID: "T1", Status: types.TicketStatusInProgress}},
			},
			snapshot:   openTicket(),
			wantReply:  []string{"late"},
			wantStatus: types.TicketStatusInProgress,
		},
		{
			name: "other ticket is ignored",
			pushed: []*websocket_model.Event{
				{Name: websocket_model.EventMessage, Message: &websocket_model.MessagePayload{TicketID: "T2", Reply: late}},
			},
			snapshot:   openTicket(),
			wantReply:  []string{},
			wantStatus: types.TicketStatusOpen,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			live := newFakeLive(true)
			api := &mock.TicketAPIMock{
				FetchTicketFunc: func(ctx context.Context, id types.TicketID) (*ticket.Ticket, error) {
					for _, ev := range tc.pushed {
						live.push(ev)
					}
					// let the pump hand the events to the view before the
					// snapshot is returned
					deadline := time.Now().Add(time.Second)
					for len(live.events) > 0 && time.Now().Before(deadline) {
						time.Sleep(time.Millisecond)
					}
					time.Sleep(20 * time.Millisecond)
					return tc.snapshot, nil
				},
			}

			view := usecase.NewTicketView("T1", api, live.channel, &noticeRecorder{})
			gt.NoError(t, view.Mount(ctx))
			defer view.Unmount()

			eventually(t, func() bool {
				got := view.Ticket()
				return len(got.Replies) == len(tc.wantReply) && got.Status == tc.wantStatus
			})

			// nothing else arrives later
			time.Sleep(20 * time.Millisecond)
			got := view.Ticket()
			gt.A(t, got.Replies).Length(len(tc.wantReply))
			for i, msg := range tc.wantReply {
				gt.V(t, got.Replies[i].Message).Equal(msg)
			}
			gt.V(t, got.Status).Equal(tc.wantStatus)
		})
	}
}

func TestTicketView_WriteResponseOverwrites(t *testing.T) {
	ctx := context.Background()
	api := &mock.TicketAPIMock{
		FetchTicketFunc: func(ctx context.Context, id types.TicketID) (*ticket.Ticket, error) {
			return openTicket(ticket.Reply{Message: "a", CreatedAt: createdAt}), nil
		},
		PatchStatusFunc: func(ctx context.Context, id types.TicketID, status types.TicketStatus) (*ticket.Ticket, error) {
			t := openTicket()
			t.Status = status
			return t, nil
		},
		CloseTicketFunc: func(ctx context.Context, id types.TicketID) (*ticket.Ticket, error) {
			t := openTicket()
			t.Status = types.TicketStatusClosed
			return t, nil
		},
	}

	view := usecase.NewTicketView("T1", api, nil, &noticeRecorder{})
	gt.NoError(t, view.Mount(ctx))
	defer view.Unmount()

	gt.NoError(t, view.UpdateStatus(ctx, types.TicketStatusResolved))
	got := view.Ticket()
	gt.V(t, got.Status).Equal(types.TicketStatusResolved)
	gt.A(t, got.Replies).Length(0)

	gt.NoError(t, view.CloseTicket(ctx))
	gt.V(t, view.Ticket().Status).Equal(types.TicketStatusClosed)
}

func TestTicketView_LoadFailure(t *testing.T) {
	ctx := context.Background()
	calls := 0
	api := &mock.TicketAPIMock{
		FetchTicketFunc: func(ctx context.Context, id types.TicketID) (*ticket.Ticket, error) {
			calls++
			if calls == 1 {
				return nil, goerr.New("status 404", goerr.T(errs.TagNotFound))
			}
			return openTicket(), nil
		},
	}
	notifier := &noticeRecorder{}

	view := usecase.NewTicketView("T1", api, nil, notifier)
	err := view.Mount(ctx)
	defer view.Unmount()

	gt.Error(t, err)
	gt.False(t, view.Loaded())
	gt.Error(t, view.LoadError())
	gt.Nil(t, view.Ticket())
	gt.A(t, notifier.All()).Length(1)
	gt.V(t, notifier.All()[0].Message).Equal("Ticket not found")

	gt.NoError(t, view.Refresh(ctx))
	gt.True(t, view.Loaded())
	gt.Nil(t, view.LoadError())
}

func TestTicketView_ConfigErrorReportedOnce(t *testing.T) {
	ctx := context.Background()
	configErr := goerr.Wrap(errs.ErrBackendURLNotSet, "cannot call backend", goerr.T(errs.TagConfig))
	api := &mock.TicketAPIMock{
		FetchTicketFunc: func(ctx context.Context, id types.TicketID) (*ticket.Ticket, error) {
			return nil, configErr
		},
		PostReplyFunc: func(ctx context.Context, id types.TicketID, message string) (*ticket.Ticket, error) {
			return nil, configErr
		},
	}
	notifier := &noticeRecorder{}

	view := usecase.NewTicketView("T1", api, nil, notifier)
	gt.Error(t, view.Mount(ctx))
	defer view.Unmount()
	gt.Error(t, view.Refresh(ctx))
	gt.Error(t, view.Reply(ctx, "hi"))

	notices := notifier.All()
	gt.A(t, notices).Length(1)
	gt.V(t, notices[0].Message).Equal("Backend URL is not configured")
}

func TestTicketView_UnmountCancelsInFlight(t *testing.T) {
	ctx := context.Background()
	started := make(chan struct{})
	api := &mock.TicketAPIMock{
		FetchTicketFunc: func(ctx context.Context, id types.TicketID) (*ticket.Ticket, error) {
			return openTicket(), nil
		},
		PostReplyFunc: func(ctx context.Context, id types.TicketID, message string) (*ticket.Ticket, error) {
			close(started)
			<-ctx.Done()
			return nil, goerr.Wrap(ctx.Err(), "request canceled", goerr.T(errs.TagCanceled))
		},
	}
	live := newFakeLive(true)
	notifier := &noticeRecorder{}

	view := usecase.NewTicketView("T1", api, live.channel, notifier)
	gt.NoError(t, view.Mount(ctx))

	result := make(chan error, 1)
	go func() {
		result <- view.Reply(ctx, "Hello")
	}()
	<-started

	view.Unmount()
	view.Unmount()

	select {
	case err := <-result:
		gt.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("reply did not return after unmount")
	}

	gt.Nil(t, view.Ticket())
	gt.A(t, notifier.All()).Length(0)
	gt.A(t, live.listener.ReleaseCalls()).Length(1)
}

func TestTicketView_LateResultIsDiscarded(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	started := make(chan struct{})
	api := &mock.TicketAPIMock{
		FetchTicketFunc: func(ctx context.Context, id types.TicketID) (*ticket.Ticket, error) {
			return openTicket(), nil
		},
		PatchStatusFunc: func(ctx context.Context, id types.TicketID, status types.TicketStatus) (*ticket.Ticket, error) {
			close(started)
			<-release
			t := openTicket()
			t.Status = status
			return t, nil
		},
	}
	notifier := &noticeRecorder{}

	view := usecase.NewTicketView("T1", api, nil, notifier)
	gt.NoError(t, view.Mount(ctx))

	result := make(chan error, 1)
	go func() {
		result <- view.UpdateStatus(ctx, types.TicketStatusResolved)
	}()
	<-started
	view.Unmount()
	close(release)

	gt.NoError(t, <-result)
	gt.Nil(t, view.Ticket())
	gt.A(t, notifier.All()).Length(0)
}

func TestTicketView_ServerErrorEvent(t *testing.T) {
	ctx := context.Background()
	api := &mock.TicketAPIMock{
		FetchTicketFunc: func(ctx context.Context, id types.TicketID) (*ticket.Ticket, error) {
			return openTicket(), nil
		},
	}
	live := newFakeLive(true)
	notifier := &noticeRecorder{}

	view := usecase.NewTicketView("T1", api, live.channel, notifier)
	gt.NoError(t, view.Mount(ctx))
	defer view.Unmount()

	live.push(&websocket_model.Event{
		Name:  websocket_model.EventError,
		Error: &websocket_model.ErrorPayload{Message: "room not found"},
	})
	eventually(t, func() bool { return len(notifier.All()) == 1 })
	gt.V(t, notifier.All()[0].Level).Equal(notice.LevelError)
	gt.V(t, notifier.All()[0].Message).Equal("room not found")
}

func TestTicketView_NotMounted(t *testing.T) {
	view := usecase.NewTicketView("T1", &mock.TicketAPIMock{}, nil, nil)
	gt.Error(t, view.Refresh(context.Background()))
	view.Unmount()
	gt.Error(t, view.Mount(context.Background()))
}
