package websocket

import (
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/ticket"
	"github.com/secmon-lab/ticketsync/pkg/domain/types"
)

// EventName names a frame on the push channel, or a transport level
// notification delivered to listeners.
type EventName string

const (
	// Client to server
	EventJoin EventName = "support:join"

	// Server to client
	EventMessage EventName = "support:message"
	EventStatus  EventName = "support:status"
	EventError   EventName = "support:error"

	// Transport notifications, never sent on the wire
	EventConnect    EventName = "connect"
	EventDisconnect EventName = "disconnect"
)

func (x EventName) String() string {
	return string(x)
}

// Frame is the envelope of every message on the push channel.
type Frame struct {
	Event EventName       `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewFrame encodes payload as the frame data.
func NewFrame(event EventName, payload any) (*Frame, error) {
	frame := &Frame{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to marshal frame payload", goerr.V("event", event))
		}
		frame.Data = data
	}
	return frame, nil
}

// ToBytes converts Frame to JSON bytes
func (f *Frame) ToBytes() ([]byte, error) {
	return json.Marshal(f)
}

// FromBytes parses JSON bytes to Frame
func (f *Frame) FromBytes(data []byte) error {
	if err := json.Unmarshal(data, f); err != nil {
		return goerr.Wrap(err, "failed to decode frame")
	}
	if f.Event == "" {
		return goerr.New("frame has no event name")
	}
	return nil
}

// Decode unmarshals the frame data into v.
func (f *Frame) Decode(v any) error {
	if len(f.Data) == 0 {
		return goerr.New("frame has no data", goerr.V("event", f.Event))
	}
	if err := json.Unmarshal(f.Data, v); err != nil {
		return goerr.Wrap(err, "failed to decode frame data", goerr.V("event", f.Event))
	}
	return nil
}

type JoinPayload struct {
	TicketID types.TicketID `json:"ticketId"`
}

type MessagePayload struct {
	TicketID types.TicketID `json:"ticketId"`
	Reply    ticket.Reply   `json:"reply"`
}

type StatusPayload struct {
	TicketID  types.TicketID     `json:"ticketId"`
	Status    types.TicketStatus `json:"status"`
	UpdatedAt *time.Time         `json:"updatedAt,omitempty"`
}

// ErrorPayload carries whatever the server reports on support:error. A bare
// string payload is accepted as the message.
type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (x *ErrorPayload) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		x.Message = s
		return nil
	}
	type alias ErrorPayload
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return goerr.Wrap(err, "failed to decode error payload")
	}
	*x = ErrorPayload(a)
	return nil
}

// Event is one item of a listener's stream. Exactly one payload is set for
// the support:* events; connect and disconnect carry none.
type Event struct {
	Name    EventName
	Message *MessagePayload
	Status  *StatusPayload
	Error   *ErrorPayload
}

// EventFromFrame decodes a server frame into an Event. Frames with an
// unknown event name return an error.
func EventFromFrame(f *Frame) (*Event, error) {
	ev := &Event{Name: f.Event}
	switch f.Event {
	case EventMessage:
		var p MessagePayload
		if err := f.Decode(&p); err != nil {
			return nil, err
		}
		ev.Message = &p
	case EventStatus:
		var p StatusPayload
		if err := f.Decode(&p); err != nil {
			return nil, err
		}
		ev.Status = &p
	case EventError:
		var p ErrorPayload
		if len(f.Data) > 0 {
			if err := f.Decode(&p); err != nil {
				return nil, err
			}
		}
		ev.Error = &p
	default:
		return nil, goerr.New("unknown event", goerr.V("event", f.Event))
	}
	return ev, nil
}
