package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/flashfusion/forge/pkg/usecase/analytics"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func analyticsCommand(logCfg *logConfig) *cli.Command {
	var (
		cfg       analyticsConfig
		subjectID string
		noCache   bool
		asJSON    bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "subject",
			Aliases:     []string{"s"},
			Usage:       "User or workspace ID",
			Sources:     cli.EnvVars("FORGE_SUBJECT"),
			Destination: &subjectID,
			Required:    true,
		},
		&cli.BoolFlag{
			Name:        "no-cache",
			Usage:       "Rebuild the dashboard even if cached",
			Destination: &noCache,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "Print the response as JSON",
			Destination: &asJSON,
		},
	}
	flags = append(flags, analyticsFlags(&cfg)...)

	return &cli.Command{
		Name:  "analytics",
		Usage: "Show the analytics dashboard of a subject",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = logCfg.withLogger(ctx)

			svc, err := cfg.newService(ctx, c)
			if err != nil {
				return err
			}

			useCache := !noCache
			resp, err := svc.Fetch(ctx, subjectID, analytics.FetchOptions{UseCache: &useCache})
			if err != nil {
				return err
			}

			w := c.Root().Writer
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if err := enc.Encode(resp); err != nil {
					return goerr.Wrap(err, "failed to encode response")
				}
				return nil
			}

			printDashboard(w, resp)
			return nil
		},
	}
}

func printDashboard(w io.Writer, resp *analytics.Response) {
	d := resp.Data
	fmt.Fprintf(w, "Analytics for %s (%s)\n", d.SubjectID, d.TimeRange)
	fmt.Fprintf(w, "  XP %d  projects %d  deployments %d  success %.1f%%\n",
		d.Summary.TotalXP, d.Summary.Projects, d.Summary.Deployments, d.Summary.SuccessRate)

	fmt.Fprintln(w, "Activity")
	for _, a := range d.Activity {
		fmt.Fprintf(w, "  %s  %6d XP  %3d generations\n", a.Date.Format("2006-01-02"), a.XP, a.Generations)
	}

	fmt.Fprintln(w, "Tools")
	for _, t := range d.Tools {
		fmt.Fprintf(w, "  %-20s %5d  %s\n", t.Name, t.Uses, t.Trend)
	}

	fmt.Fprintln(w, "Deployments")
	for _, s := range d.Deployments {
		fmt.Fprintf(w, "  %-12s %5d  %5.1f%%\n", s.Target, s.Count, s.Percentage)
	}

	fmt.Fprintln(w, "Insights")
	for _, in := range d.Insights {
		fmt.Fprintf(w, "  [%s] %s: %s\n", in.Kind, in.Title, in.Message)
	}

	fmt.Fprintf(w, "request %s  fetched %s  %dms  cached=%t\n",
		resp.Metadata.RequestID, resp.Metadata.FetchedAt, resp.Metadata.ProcessingTimeMs, resp.Metadata.Cached)
}
