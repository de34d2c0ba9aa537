package cli

import (
	"fmt"
	"time"

	"github.com/leadctl/leadctl/pkg/data"
	"github.com/urfave/cli/v2"
)

const topLeadsLimitDefault = 5

var (
	topFlag = &cli.IntFlag{
		Name:  "top",
		Usage: "Number of top leads to include",
		Value: topLeadsLimitDefault,
	}

	reportCmd = &cli.Command{
		Name:    "report",
		Aliases: []string{"r"},
		Usage:   "Aggregate analytics across everything scored and summarized",
		UsageText: `leadctl report
   leadctl report --since 2026-01-01 --top 10`,
		Action: cmdReport,
		Flags: []cli.Flag{
			sinceFlag,
			topFlag,
		},
	}
)

// Report is the full analytics view over the local store.
type Report struct {
	GeneratedAt string              `json:"generated_at" yaml:"generatedAt"`
	Since       string              `json:"since,omitempty" yaml:"since,omitempty"`
	Leads       *data.LeadReport    `json:"leads" yaml:"leads"`
	Trend       []*data.MonthBucket `json:"trend,omitempty" yaml:"trend,omitempty"`
	TopLeads    []*data.Lead        `json:"top_leads,omitempty" yaml:"topLeads,omitempty"`
	Summaries   *data.SummaryReport `json:"summaries" yaml:"summaries"`
}

func cmdReport(c *cli.Context) error {
	cfg := getConfig(c)
	since := optional(c.String(sinceFlag.Name))

	top := c.Int(topFlag.Name)
	if top < 1 {
		top = topLeadsLimitDefault
	}

	res, err := buildReport(cfg, since, top)
	if err != nil {
		return err
	}

	return encode(res)
}

func buildReport(cfg *appConfig, since *string, top int) (*Report, error) {
	leads, err := data.GetLeadReport(cfg.DB, since)
	if err != nil {
		return nil, fmt.Errorf("failed to build lead report: %w", err)
	}

	trend, err := data.GetScoreTrend(cfg.DB, since)
	if err != nil {
		return nil, fmt.Errorf("failed to build score trend: %w", err)
	}

	topLeads, err := data.GetTopLeads(cfg.DB, top)
	if err != nil {
		return nil, fmt.Errorf("failed to get top leads: %w", err)
	}

	summaries, err := data.GetSummaryReport(cfg.DB, since)
	if err != nil {
		return nil, fmt.Errorf("failed to build summary report: %w", err)
	}

	res := &Report{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Leads:       leads,
		Trend:       trend,
		TopLeads:    topLeads,
		Summaries:   summaries,
	}
	if since != nil {
		res.Since = *since
	}
	return res, nil
}
