package logging

import (
	"io"
	"log/slog"
	"sync"

	"github.com/fatih/color"
	"github.com/m-mizutani/clog"
	"github.com/m-mizutani/clog/hooks"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/masq"
)

type Format int

const (
	FormatConsole Format = iota + 1
	FormatJSON
)

func (x Format) String() string {
	switch x {
	case FormatConsole:
		return "console"
	case FormatJSON:
		return "json"
	}
	return "unknown"
}

var (
	defaultLogger = slog.Default()
	loggerMutex   sync.Mutex
)

func Default() *slog.Logger {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()
	return defaultLogger
}

func SetDefault(logger *slog.Logger) {
	loggerMutex.Lock()
	defaultLogger = logger
	loggerMutex.Unlock()
}

// Quiet discards every record. Used by --log-quiet and by tests.
func Quiet() {
	SetDefault(slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

// secretFields are attribute and struct field names whose values never reach
// the log output. Bearer tokens travel as "token" or in the Authorization
// header.
var secretFields = []string{
	"Authorization",
	"authorization",
	"token",
	"Token",
}

func newFilter() func(groups []string, a slog.Attr) slog.Attr {
	opts := []masq.Option{
		masq.WithTag("secret"),
		masq.WithFieldPrefix("secret_"),
	}
	for _, name := range secretFields {
		opts = append(opts, masq.WithFieldName(name))
	}
	return masq.New(opts...)
}

// goerrValuesOnly renders a goerr error as its message and values, without
// the stack trace.
func goerrValuesOnly(_ []string, attr slog.Attr) *clog.HandleAttr {
	goErr, ok := attr.Value.Any().(*goerr.Error)
	if !ok {
		return nil
	}

	attrs := []any{slog.String("cause", goErr.Error())}
	for k, v := range goErr.Values() {
		attrs = append(attrs, slog.Any(k, v))
	}
	newAttr := slog.Group(attr.Key, attrs...)

	return &clog.HandleAttr{
		NewAttr: &newAttr,
	}
}

var consoleColors = &clog.ColorMap{
	Level: map[slog.Level]*color.Color{
		slog.LevelDebug: color.New(color.FgGreen, color.Bold),
		slog.LevelInfo:  color.New(color.FgCyan, color.Bold),
		slog.LevelWarn:  color.New(color.FgYellow, color.Bold),
		slog.LevelError: color.New(color.FgRed, color.Bold),
	},
	LevelDefault: color.New(color.FgBlue, color.Bold),
	Time:         color.New(color.FgWhite),
	Message:      color.New(color.FgHiWhite),
	AttrKey:      color.New(color.FgHiCyan),
	AttrValue:    color.New(color.FgHiWhite),
}

// New builds a logger writing to w. The watch command prints the
// conversation on stdout, so callers pass stderr or a file here.
func New(w io.Writer, level slog.Level, format Format, stacktrace bool) *slog.Logger {
	filter := newFilter()

	switch format {
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			AddSource:   true,
			Level:       level,
			ReplaceAttr: filter,
		}))

	default:
		attrHook := hooks.GoErr()
		if !stacktrace {
			attrHook = goerrValuesOnly
		}
		return slog.New(clog.New(
			clog.WithWriter(w),
			clog.WithLevel(level),
			clog.WithReplaceAttr(filter),
			clog.WithAttrHook(attrHook),
			clog.WithColorMap(consoleColors),
		))
	}
}
