package notice

import (
	"context"
	"time"

	"github.com/secmon-lab/ticketsync/pkg/domain/types"
	"github.com/secmon-lab/ticketsync/pkg/utils/clock"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a transient, user-visible notification about one ticket view.
type Notice struct {
	Level     Level          `json:"level"`
	Message   string         `json:"message"`
	TicketID  types.TicketID `json:"ticket_id,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func New(ctx context.Context, level Level, ticketID types.TicketID, message string) Notice {
	return Notice{
		Level:     level,
		Message:   message,
		TicketID:  ticketID,
		CreatedAt: clock.Now(ctx),
	}
}

func Success(ctx context.Context, ticketID types.TicketID, message string) Notice {
	return New(ctx, LevelSuccess, ticketID, message)
}

func Error(ctx context.Context, ticketID types.TicketID, message string) Notice {
	return New(ctx, LevelError, ticketID, message)
}

func Warning(ctx context.Context, ticketID types.TicketID, message string) Notice {
	return New(ctx, LevelWarning, ticketID, message)
}
