package analytics

// conversionRate is the share of engaged users assumed to convert into
// revenue units
const conversionRate = 0.05

// Campaign describes a marketing campaign. Engagement is a percentage.
type Campaign struct {
	Reach      float64 `json:"reach"`
	Engagement float64 `json:"engagement"`
	Budget     float64 `json:"budget"`
}

type ROIResult struct {
	Revenue float64 `json:"revenue"`
	Profit  float64 `json:"profit"`
	// ROI is the profit as a percentage of the budget
	ROI float64 `json:"roi"`
}

func CalculateCampaignROI(c Campaign) ROIResult {
	revenue := c.Reach * c.Engagement * conversionRate
	profit := revenue - c.Budget

	var roi float64
	if c.Budget != 0 {
		roi = profit / c.Budget * 100
	}
	return ROIResult{Revenue: revenue, Profit: profit, ROI: roi}
}
