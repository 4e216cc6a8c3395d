package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/flashfusion/forge/pkg/model"
	"github.com/flashfusion/forge/pkg/policy"
	"github.com/flashfusion/forge/pkg/usecase/export"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func exportCommand(logCfg *logConfig) *cli.Command {
	var (
		sinkCfg   sinkConfig
		input     string
		policyDir string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "Path to JSON file describing the project",
			Destination: &input,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "policy-dir",
			Usage:       "Directory of Rego files with package export (deny and exclude rules)",
			Sources:     cli.EnvVars("FORGE_EXPORT_POLICY_DIR"),
			Destination: &policyDir,
		},
	}
	flags = append(flags, sinkFlags(&sinkCfg)...)

	return &cli.Command{
		Name:  "export",
		Usage: "Package a project into a zip archive",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = logCfg.withLogger(ctx)

			data, err := os.ReadFile(input)
			if err != nil {
				return goerr.Wrap(err, "failed to read project file", goerr.V("path", input))
			}
			var project model.ExportableProject
			if err := json.Unmarshal(data, &project); err != nil {
				return goerr.Wrap(err, "failed to parse project file", goerr.V("path", input))
			}

			sink, err := sinkCfg.newSink(ctx)
			if err != nil {
				return err
			}

			var opts []export.Option
			if policyDir != "" {
				p, err := policy.Load(ctx, policyDir, "export")
				if err != nil {
					return goerr.Wrap(err, "failed to load export policy")
				}
				opts = append(opts, export.WithPolicy(p))
			}

			res := export.New(sink, opts...).Download(ctx, &project)
			if !res.Success {
				return goerr.Wrap(res.Error, "export failed", goerr.V("project", project.Name))
			}

			fmt.Fprintf(c.Root().Writer, "%s (%d bytes) -> %s\n", res.FileName, res.Size, res.Location)
			return nil
		},
	}
}
