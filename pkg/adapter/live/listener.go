package live

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ticketsync/pkg/domain/interfaces"
	websocket_model "github.com/secmon-lab/ticketsync/pkg/domain/model/websocket"
	"github.com/secmon-lab/ticketsync/pkg/domain/types"
	"github.com/secmon-lab/ticketsync/pkg/utils/errutil"
)

// Listener is one view's attachment to the Manager.
type Listener struct {
	id      types.ListenerID
	manager *Manager
	events  chan *websocket_model.Event
	once    sync.Once
}

var _ interfaces.LiveListener = &Listener{}

func (l *Listener) ID() types.ListenerID {
	return l.id
}

// Events is closed by Release.
func (l *Listener) Events() <-chan *websocket_model.Event {
	return l.events
}

// Emit queues a frame on the shared connection. It never waits for the peer.
func (l *Listener) Emit(ctx context.Context, event websocket_model.EventName, payload any) error {
	frame, err := websocket_model.NewFrame(event, payload)
	if err != nil {
		return err
	}
	data, err := frame.ToBytes()
	if err != nil {
		return goerr.Wrap(err, "failed to encode frame", goerr.TV(errutil.EventKey, event.String()))
	}
	if err := l.manager.send(ctx, data); err != nil {
		return goerr.Wrap(err, "failed to emit",
			goerr.TV(errutil.EventKey, event.String()),
			goerr.TV(errutil.ListenerIDKey, l.id))
	}
	return nil
}

// Release detaches the listener. The shared connection stays open. Calling it
// more than once is safe.
func (l *Listener) Release() {
	l.once.Do(func() {
		l.manager.release(l)
	})
}
