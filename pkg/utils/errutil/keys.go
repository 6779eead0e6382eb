package errutil

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ticketsync/pkg/domain/types"
)

var (
	// IDs
	TicketIDKey   = goerr.NewTypedKey[types.TicketID]("ticket_id")
	ListenerIDKey = goerr.NewTypedKey[types.ListenerID]("listener_id")
	RequestIDKey  = goerr.NewTypedKey[string]("request_id")

	// Values
	StatusKey    = goerr.NewTypedKey[types.TicketStatus]("status")
	OperationKey = goerr.NewTypedKey[string]("operation")
	EventKey     = goerr.NewTypedKey[string]("event")
	DurationKey  = goerr.NewTypedKey[time.Duration]("duration")

	// External services
	EndpointKey    = goerr.NewTypedKey[string]("endpoint")
	MethodKey      = goerr.NewTypedKey[string]("method")
	HTTPStatusKey  = goerr.NewTypedKey[int]("http_status")
	ContentTypeKey = goerr.NewTypedKey[string]("content_type")
	URLKey         = goerr.NewTypedKey[string]("url")

	// Storage
	RepositoryKey = goerr.NewTypedKey[string]("repository")
)
