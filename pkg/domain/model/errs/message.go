package errs

import (
	"github.com/m-mizutani/goerr/v2"
)

// kinds are checked in order; the first matching tag names the error.
var kinds = []struct {
	kind string
	has  func(err error) bool
}{
	{"canceled", func(err error) bool { return goerr.HasTag(err, TagCanceled) }},
	{"config", func(err error) bool { return goerr.HasTag(err, TagConfig) }},
	{"unauthorized", func(err error) bool { return goerr.HasTag(err, TagUnauthorized) }},
	{"forbidden", func(err error) bool { return goerr.HasTag(err, TagForbidden) }},
	{"validation", func(err error) bool { return goerr.HasTag(err, TagValidation) }},
	{"not_found", func(err error) bool { return goerr.HasTag(err, TagNotFound) }},
	{"inconsistent", func(err error) bool { return goerr.HasTag(err, TagInconsistent) }},
	{"invalid_response", func(err error) bool { return goerr.HasTag(err, TagInvalidResponse) }},
	{"transport", func(err error) bool { return goerr.HasTag(err, TagTransport) }},
	{"external", func(err error) bool { return goerr.HasTag(err, TagExternal) }},
	{"internal", func(err error) bool { return goerr.HasTag(err, TagInternal) }},
}

// Kind returns the name of the first known tag attached to err, or an empty
// string.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if k.has(err) {
			return k.kind
		}
	}
	return ""
}

// ServerMessageKey is the goerr value key holding the message text the
// backend returned in its error envelope.
const ServerMessageKey = "server_message"

// UserMessage turns err into the short text shown in a notification.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	serverMsg, _ := goerr.Values(err)[ServerMessageKey].(string)

	switch Kind(err) {
	case "config":
		return "Backend URL is not configured"
	case "unauthorized":
		return "Session expired, please login again"
	case "forbidden":
		return "Forbidden: admin access required"
	case "validation":
		if serverMsg != "" {
			return serverMsg
		}
		return "Please enter a message"
	case "not_found":
		return "Ticket not found"
	case "inconsistent":
		return "Update did not persist, please try again"
	case "invalid_response":
		return "Unexpected response from server"
	case "transport":
		return "Live updates are unavailable"
	}

	if serverMsg != "" {
		return serverMsg
	}
	return "Something went wrong, please try again"
}
