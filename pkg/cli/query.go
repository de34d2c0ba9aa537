package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/leadctl/leadctl/pkg/data"
	"github.com/urfave/cli/v2"
)

const (
	queryResultLimitDefault = 500
)

var (
	queryLimitFlag = &cli.IntFlag{
		Name:  "limit",
		Usage: "Limits number of results returned",
		Value: queryResultLimitDefault,
	}

	idFlag = &cli.StringFlag{
		Name:     "id",
		Usage:    "Record ID",
		Required: true,
	}

	bandFlag = &cli.StringFlag{
		Name: "band",
		Usage: fmt.Sprintf("Lead band [%s]",
			strings.Join([]string{data.BandHot, data.BandWarm, data.BandCold}, ", ")),
	}

	priorityFlag = &cli.StringFlag{
		Name: "priority",
		Usage: fmt.Sprintf("Lead priority [%s]",
			strings.Join([]string{data.PriorityHigh, data.PriorityMedium, data.PriorityLow}, ", ")),
	}

	statusFlag = &cli.StringFlag{
		Name:  "status",
		Usage: fmt.Sprintf("Record status [%s, %s]", data.StatusSuccess, data.StatusFailed),
	}

	runIDFlag = &cli.StringFlag{
		Name:  "run",
		Usage: "Batch run ID",
	}

	sinceFlag = &cli.StringFlag{
		Name:  "since",
		Usage: "Records on or after date (YYYY-MM-DD)",
	}

	likeFlag = &cli.StringFlag{
		Name:  "like",
		Usage: "Fuzzy text search",
	}

	queryCmd = &cli.Command{
		Name:    "query",
		Aliases: []string{"q"},
		Usage:   "List data query operations",
		Subcommands: []*cli.Command{
			{
				Name:    "lead",
				Usage:   "List lead operations",
				Aliases: []string{"l"},
				Subcommands: []*cli.Command{
					{
						Name:    "list",
						Usage:   "List scored leads, best score first",
						Aliases: []string{"l"},
						Action:  cmdQueryLeads,
						Flags: []cli.Flag{
							bandFlag,
							priorityFlag,
							statusFlag,
							runIDFlag,
							sinceFlag,
							likeFlag,
							queryLimitFlag,
						},
					},
					{
						Name:    "detail",
						Usage:   "Get a specific lead with full model output",
						Aliases: []string{"d"},
						Action:  cmdQueryLead,
						Flags: []cli.Flag{
							idFlag,
						},
					},
				},
			},
			{
				Name:    "summary",
				Usage:   "List email summary operations",
				Aliases: []string{"s"},
				Subcommands: []*cli.Command{
					{
						Name:    "list",
						Usage:   "List email summaries, newest first",
						Aliases: []string{"l"},
						Action:  cmdQuerySummaries,
						Flags: []cli.Flag{
							statusFlag,
							runIDFlag,
							sinceFlag,
							likeFlag,
							queryLimitFlag,
						},
					},
					{
						Name:    "detail",
						Usage:   "Get a specific email summary",
						Aliases: []string{"d"},
						Action:  cmdQuerySummary,
						Flags: []cli.Flag{
							idFlag,
						},
					},
				},
			},
			{
				Name:    "runs",
				Usage:   "List batch runs, newest first",
				Aliases: []string{"r"},
				Action:  cmdQueryRuns,
				Flags: []cli.Flag{
					queryLimitFlag,
				},
			},
		},
	}
)

func queryLimit(c *cli.Context) int {
	limit := c.Int(queryLimitFlag.Name)
	if limit < 1 || limit > queryResultLimitDefault {
		limit = queryResultLimitDefault
	}
	return limit
}

func cmdQueryLeads(c *cli.Context) error {
	q := &data.LeadSearchCriteria{
		Band:     optional(strings.ToLower(c.String(bandFlag.Name))),
		Priority: optional(strings.ToUpper(c.String(priorityFlag.Name))),
		Status:   optional(c.String(statusFlag.Name)),
		RunID:    optional(c.String(runIDFlag.Name)),
		Since:    optional(c.String(sinceFlag.Name)),
		Like:     optional(c.String(likeFlag.Name)),
		PageSize: queryLimit(c),
	}

	slog.Debug("query leads",
		"band", c.String(bandFlag.Name),
		"priority", c.String(priorityFlag.Name),
		"status", c.String(statusFlag.Name),
		"limit", q.PageSize,
	)

	cfg := getConfig(c)

	list, err := data.SearchLeads(cfg.DB, q)
	if err != nil {
		return fmt.Errorf("failed to query leads: %w", err)
	}

	return encode(list)
}

func cmdQueryLead(c *cli.Context) error {
	cfg := getConfig(c)

	lead, err := data.GetLead(cfg.DB, c.String(idFlag.Name))
	if err != nil {
		return fmt.Errorf("failed to query lead: %w", err)
	}

	if lead == nil {
		fmt.Fprint(os.Stdout, "{}")
		return nil
	}

	return encode(lead)
}

func cmdQuerySummaries(c *cli.Context) error {
	q := &data.SummarySearchCriteria{
		Status:   optional(c.String(statusFlag.Name)),
		RunID:    optional(c.String(runIDFlag.Name)),
		Since:    optional(c.String(sinceFlag.Name)),
		Like:     optional(c.String(likeFlag.Name)),
		PageSize: queryLimit(c),
	}

	cfg := getConfig(c)

	list, err := data.SearchSummaries(cfg.DB, q)
	if err != nil {
		return fmt.Errorf("failed to query summaries: %w", err)
	}

	return encode(list)
}

func cmdQuerySummary(c *cli.Context) error {
	cfg := getConfig(c)

	s, err := data.GetSummary(cfg.DB, c.String(idFlag.Name))
	if err != nil {
		return fmt.Errorf("failed to query summary: %w", err)
	}

	if s == nil {
		fmt.Fprint(os.Stdout, "{}")
		return nil
	}

	return encode(s)
}

func cmdQueryRuns(c *cli.Context) error {
	cfg := getConfig(c)

	list, err := data.ListRuns(cfg.DB, queryLimit(c))
	if err != nil {
		return fmt.Errorf("failed to query runs: %w", err)
	}

	return encode(list)
}
