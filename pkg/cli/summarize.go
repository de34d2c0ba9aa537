package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/leadctl/leadctl/pkg/data"
	"github.com/leadctl/leadctl/pkg/summarize"
	"github.com/urfave/cli/v2"
)

var (
	summarizeCmd = &cli.Command{
		Name:    "summarize",
		Aliases: []string{"sum"},
		Usage:   "Summarize emails into two-sentence summaries",
		UsageText: `leadctl summarize --file email.txt
   leadctl summarize --dir ./inbox --save
   leadctl summarize --input emails.jsonl --out summaries.json`,
		Action: cmdSummarize,
		Flags: []cli.Flag{
			textFlag,
			fileFlag,
			dirFlag,
			inputFlag,
			modelFlag,
			maxTokensFlag,
			concurrencyFlag,
			saveFlag,
			outFlag,
		},
	}
)

func cmdSummarize(c *cli.Context) error {
	start := time.Now()

	items, err := loadInput(c)
	if err != nil {
		return err
	}

	llm, modelName, err := newModelClient(c)
	if err != nil {
		return err
	}

	cfg := getConfig(c)
	summarizer := summarize.NewSummarizer(llm, modelName, c.Int(maxTokensFlag.Name))

	run := &data.Run{
		ID:        uuid.NewString(),
		Kind:      data.RunKindSummarize,
		Model:     modelName,
		StartedAt: start.UTC().Format(time.RFC3339),
	}
	if err := data.SaveRun(cfg.DB, run); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	slog.Info("summarizing emails", "count", len(items), "model", modelName)

	res, err := summarizer.SummarizeAll(context.Background(), run.ID, items, c.Int(concurrencyFlag.Name))
	if err != nil {
		return fmt.Errorf("failed to summarize emails: %w", err)
	}

	for _, s := range res.AllResults {
		if saveErr := data.SaveSummary(cfg.DB, s); saveErr != nil {
			slog.Error("failed to save summary", "id", s.ID, "error", saveErr)
		}
	}

	run.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	run.Total = res.Analytics.Total
	run.Succeeded = res.Analytics.Succeeded
	run.Failed = res.Analytics.Failed
	if err := data.CompleteRun(cfg.DB, run); err != nil {
		slog.Error("failed to complete run", "id", run.ID, "error", err)
	}

	res.Duration = time.Since(start).String()

	if err := saveResultFile(c, "email_summaries", res); err != nil {
		return err
	}

	if len(res.AllResults) == 1 {
		return encode(res.AllResults[0])
	}
	return encode(res)
}
