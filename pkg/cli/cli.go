package cli

import (
	"context"
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ticketsync/pkg/cli/config"
	"github.com/secmon-lab/ticketsync/pkg/domain/model/errs"
	"github.com/secmon-lab/ticketsync/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// dotEnvFile is read before flags are parsed so that its variables act as
// flag sources. Variables already set in the environment win.
const dotEnvFile = ".env"

func Run(ctx context.Context, args []string) error {
	if err := loadDotEnv(dotEnvFile); err != nil {
		logging.Default().Error("failed to load env file", "error", err)
		return err
	}

	var (
		loggerCfg config.Logger
		sentryCfg config.Sentry
		closers   []func()
	)
	app := &cli.Command{
		Name:  "ticketsync",
		Usage: "Follow support tickets live from the terminal",
		Flags: joinFlags(
			loggerCfg.Flags(),
			sentryCfg.Flags(),
		),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			f, err := loggerCfg.Configure()
			closers = append(closers, f)
			if err != nil {
				return ctx, err
			}

			flush, err := sentryCfg.Configure()
			closers = append(closers, flush)
			if err != nil {
				return ctx, err
			}

			logging.Default().Debug("base options", "logger", loggerCfg, "sentry", sentryCfg)
			return logging.With(ctx, logging.Default()), nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			for i := len(closers) - 1; i >= 0; i-- {
				if closers[i] != nil {
					closers[i]()
				}
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdWatch(),
			cmdShow(),
			cmdReply(),
			cmdStatus(),
			cmdClose(),
			cmdDev(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		logging.Default().Error("failed to run app", "error", err)
		return err
	}

	return nil
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return goerr.Wrap(err, "failed to load env file",
			goerr.T(errs.TagConfig),
			goerr.V("path", path))
	}
	return nil
}
