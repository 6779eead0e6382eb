package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mattn/go-isatty"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/errs"
	"github.com/secmon-lab/ticketsync/pkg/utils/logging"
	"github.com/secmon-lab/ticketsync/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

// Logger configures diagnostics. Ticket output owns stdout, so logs go to
// stderr or to a file and never to stdout.
type Logger struct {
	level      string
	format     string
	output     string
	quiet      bool
	stacktrace bool
}

const logOutputStderr = "stderr"

func (x *Logger) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Category:    "logging",
			Sources:     cli.EnvVars("TICKETSYNC_LOG_LEVEL"),
			Usage:       "Diagnostic log level [debug|info|warn|error]. Ticket output is not affected",
			Value:       "warn",
			Destination: &x.level,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Category:    "logging",
			Sources:     cli.EnvVars("TICKETSYNC_LOG_FORMAT"),
			Usage:       "Diagnostic log format [console|json]. Defaults to console on a terminal and json otherwise",
			Destination: &x.format,
		},
		&cli.StringFlag{
			Name:        "log-output",
			Category:    "logging",
			Sources:     cli.EnvVars("TICKETSYNC_LOG_OUTPUT"),
			Usage:       "Where diagnostics go: 'stderr' or a file path. stdout is reserved for ticket output",
			Value:       logOutputStderr,
			Destination: &x.output,
		},
		&cli.BoolFlag{
			Name:        "log-quiet",
			Category:    "logging",
			Sources:     cli.EnvVars("TICKETSYNC_LOG_QUIET"),
			Usage:       "Discard diagnostics. Notices and ticket output are still printed",
			Destination: &x.quiet,
		},
		&cli.BoolFlag{
			Name:        "log-stacktrace",
			Category:    "logging",
			Sources:     cli.EnvVars("TICKETSYNC_LOG_STACKTRACE"),
			Usage:       "Include stack traces of errors in console logs",
			Destination: &x.stacktrace,
		},
	}
}

func (x Logger) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("level", x.level),
		slog.String("format", x.format),
		slog.String("output", x.output),
		slog.Bool("quiet", x.quiet),
	)
}

// Configure installs the default logger. The returned closer is never nil
// and releases a log file if one was opened.
func (x *Logger) Configure() (func(), error) {
	nop := func() {}
	if x.quiet {
		logging.Quiet()
		return nop, nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(x.level)); err != nil {
		return nop, goerr.Wrap(err, "invalid log level", goerr.T(errs.TagConfig), goerr.V("level", x.level))
	}

	w, closer, err := openLogOutput(x.output)
	if err != nil {
		return nop, err
	}

	format, err := logFormat(x.format, w)
	if err != nil {
		closer()
		return nop, err
	}

	logging.SetDefault(logging.New(w, level, format, x.stacktrace))
	return closer, nil
}

func openLogOutput(output string) (io.Writer, func(), error) {
	switch strings.ToLower(output) {
	case "", logOutputStderr:
		return os.Stderr, func() {}, nil
	case "stdout", "-":
		return nil, nil, goerr.New("logs cannot be written to stdout, it carries ticket output",
			goerr.T(errs.TagConfig), goerr.V("output", output))
	}

	f, err := os.OpenFile(filepath.Clean(output), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to open log file", goerr.T(errs.TagConfig), goerr.V("path", output))
	}
	return f, func() { safe.Close(context.Background(), f) }, nil
}

// logFormat resolves name, picking console for a terminal and json for a
// pipe or file when name is empty.
func logFormat(name string, w io.Writer) (logging.Format, error) {
	switch strings.ToLower(name) {
	case logging.FormatConsole.String():
		return logging.FormatConsole, nil
	case logging.FormatJSON.String():
		return logging.FormatJSON, nil
	case "":
		if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			return logging.FormatConsole, nil
		}
		return logging.FormatJSON, nil
	}
	return 0, goerr.New("invalid log format", goerr.T(errs.TagConfig), goerr.V("format", name))
}
