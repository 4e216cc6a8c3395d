package cli

import (
	"context"

	"github.com/flashfusion/forge/pkg/service/mcp"
	"github.com/flashfusion/forge/pkg/usecase/history"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/urfave/cli/v3"
)

func mcpCommand(logCfg *logConfig) *cli.Command {
	var (
		cfg          config
		analyticsCfg analyticsConfig
	)

	flags := storeFlags(&cfg)
	flags = append(flags, analyticsFlags(&analyticsCfg)...)

	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve history, analytics and ROI tools over MCP stdio",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = logCfg.withLogger(ctx)

			kv, closeKV, err := cfg.newKVStore(ctx)
			if err != nil {
				return err
			}
			defer closeKV()

			svc, err := analyticsCfg.newService(ctx, c)
			if err != nil {
				return err
			}

			server := mcp.NewServer(history.New(ctx, kv), svc)
			return server.Run(ctx, &mcpsdk.StdioTransport{})
		},
	}
}
