package notifier

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/secmon-lab/ticketsync/pkg/domain/interfaces"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/notice"
)

// ConsoleNotifier prints notices as colored one-line toasts. Useful for CLI
// mode and debugging.
type ConsoleNotifier struct {
	w     io.Writer
	mutex sync.Mutex
}

var _ interfaces.Notifier = &ConsoleNotifier{}

// NewConsoleNotifier creates a notifier writing to w, or stderr when w is nil.
func NewConsoleNotifier(w io.Writer) *ConsoleNotifier {
	if w == nil {
		w = os.Stderr
	}
	return &ConsoleNotifier{w: w}
}

func (n *ConsoleNotifier) Notify(ctx context.Context, ntc notice.Notice) {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	label, c := style(ntc.Level)
	_, _ = c.Fprintf(n.w, "[%s] ", label)
	_, _ = color.New(color.FgWhite).Fprintln(n.w, ntc.Message)
}

func style(level notice.Level) (string, *color.Color) {
	switch level {
	case notice.LevelSuccess:
		return "ok", color.New(color.FgGreen, color.Bold)
	case notice.LevelWarning:
		return "warn", color.New(color.FgYellow, color.Bold)
	case notice.LevelError:
		return "error", color.New(color.FgRed, color.Bold)
	default:
		return "info", color.New(color.FgBlue, color.Bold)
	}
}
