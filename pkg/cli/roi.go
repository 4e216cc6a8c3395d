package cli

import (
	"context"
	"fmt"

	"github.com/flashfusion/forge/pkg/usecase/analytics"
	"github.com/urfave/cli/v3"
)

func roiCommand() *cli.Command {
	var campaign analytics.Campaign

	return &cli.Command{
		Name:  "roi",
		Usage: "Estimate the return of a marketing campaign",
		Flags: []cli.Flag{
			&cli.FloatFlag{
				Name:        "reach",
				Usage:       "Number of people reached",
				Destination: &campaign.Reach,
				Required:    true,
			},
			&cli.FloatFlag{
				Name:        "engagement",
				Usage:       "Engagement rate in percent",
				Destination: &campaign.Engagement,
				Required:    true,
			},
			&cli.FloatFlag{
				Name:        "budget",
				Usage:       "Campaign budget",
				Destination: &campaign.Budget,
				Required:    true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			res := analytics.CalculateCampaignROI(campaign)
			fmt.Fprintf(c.Root().Writer, "revenue %.2f\nprofit  %.2f\nroi     %.1f%%\n", res.Revenue, res.Profit, res.ROI)
			return nil
		},
	}
}
