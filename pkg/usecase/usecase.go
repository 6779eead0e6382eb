package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ticketsync/pkg/domain/interfaces"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/errs"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/notice"
	"github.com/secmon-lab/ticketsync/pkg/domain/types"
)

var (
	ErrTicketAPINotConfigured = goerr.New("ticket API not configured", goerr.T(errs.TagConfig))
)

type UseCases struct {
	// services and adapters
	ticketAPI   interfaces.TicketAPI
	liveChannel interfaces.LiveChannel
	notifier    interfaces.Notifier
}

type Option func(*UseCases)

func WithTicketAPI(api interfaces.TicketAPI) Option {
	return func(u *UseCases) {
		u.ticketAPI = api
	}
}

// WithLiveChannel enables push updates for views opened by the use cases.
// Without it views work on REST only.
func WithLiveChannel(live interfaces.LiveChannel) Option {
	return func(u *UseCases) {
		u.liveChannel = live
	}
}

func WithNotifier(notifier interfaces.Notifier) Option {
	return func(u *UseCases) {
		u.notifier = notifier
	}
}

func New(opts ...Option) *UseCases {
	uc := &UseCases{
		notifier: &discardNotifier{},
	}
	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// OpenTicket creates an unmounted view of ticketID bound to the configured
// adapters.
func (u *UseCases) OpenTicket(ticketID types.TicketID, opts ...TicketViewOption) (*TicketView, error) {
	if u.ticketAPI == nil {
		return nil, ErrTicketAPINotConfigured
	}
	if err := ticketID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid ticket ID", goerr.T(errs.TagValidation))
	}

	return NewTicketView(ticketID, u.ticketAPI, u.liveChannel, u.notifier, opts...), nil
}

// discardNotifier is a no-op implementation of Notifier
type discardNotifier struct{}

func (d *discardNotifier) Notify(ctx context.Context, n notice.Notice) {}
