package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/parlaplate/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "parlaplate",
		Usage: "Conversational restaurant ordering assistant",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("PARLAPLATE_LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (console, json)",
				Value:   "console",
				Sources: cli.EnvVars("PARLAPLATE_LOG_FORMAT"),
			},
		},
		Commands: []*cli.Command{
			chatCommand(),
			extractCommand(),
			personasCommand(),
			ordersCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		logging.Default().Error("command failed", "error", err)
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}

// loggingContext builds the logger from the root flags and attaches it to
// the context. Called at the start of every command action.
func loggingContext(ctx context.Context, c *cli.Command) (context.Context, error) {
	logger, err := logging.New(c.Root().String("log-level"), c.Root().String("log-format"), os.Stderr)
	if err != nil {
		return ctx, err
	}
	logging.SetDefault(logger)
	return logging.With(ctx, logger), nil
}
