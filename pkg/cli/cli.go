package cli

import (
	"context"
	"io"
	"os"

	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	if err := run(ctx, argv, os.Stdout); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}
	return nil
}

func run(ctx context.Context, argv []string, w io.Writer) error {
	var logCfg logConfig

	cmd := &cli.Command{
		Name:   "forge",
		Usage:  "Generate, track and export AI projects",
		Writer: w,
		Flags:  logFlags(&logCfg),
		Commands: []*cli.Command{
			generateCommand(&logCfg),
			historyCommand(&logCfg),
			exportCommand(&logCfg),
			analyticsCommand(&logCfg),
			roiCommand(),
			mcpCommand(&logCfg),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		logCfg.newLogger().Error("command failed", "error", err)
		return err
	}

	return nil
}
