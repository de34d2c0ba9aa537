package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/leadctl/leadctl/pkg/claude"
	"github.com/leadctl/leadctl/pkg/data"
	"github.com/leadctl/leadctl/pkg/scoring"
	"github.com/leadctl/leadctl/pkg/source"
	"github.com/urfave/cli/v2"
)

const (
	baseURLEnvVar = "ANTHROPIC_BASE_URL"

	concurrencyDefault = 4
)

var (
	textFlag = &cli.StringFlag{
		Name:  "text",
		Usage: "Inline text of a single item",
	}

	fileFlag = &cli.StringFlag{
		Name:  "file",
		Usage: "Path to a single text file",
	}

	dirFlag = &cli.StringFlag{
		Name:  "dir",
		Usage: "Directory of .txt/.eml files to process as a batch",
	}

	inputFlag = &cli.StringFlag{
		Name:  "input",
		Usage: `JSON-lines batch file, one {"id": "...", "text": "..."} per line`,
	}

	modelFlag = &cli.StringFlag{
		Name:  "model",
		Usage: fmt.Sprintf("Model to use (default: %s)", claude.DefaultModel),
	}

	maxTokensFlag = &cli.IntFlag{
		Name:  "max-tokens",
		Usage: "Response token budget (optional, defaults per command)",
	}

	concurrencyFlag = &cli.IntFlag{
		Name:  "concurrency",
		Usage: "Number of parallel model calls for batches",
		Value: concurrencyDefault,
	}

	saveFlag = &cli.BoolFlag{
		Name:  "save",
		Usage: "Also write the results to a timestamped JSON file",
	}

	outFlag = &cli.StringFlag{
		Name:  "out",
		Usage: "Write the results to this JSON file (implies --save)",
	}

	scoreCmd = &cli.Command{
		Name:    "score",
		Aliases: []string{"s"},
		Usage:   "Score customer inquiries on a 1-10 scale",
		UsageText: `leadctl score --text "We have budget approved, need a demo this week"
   leadctl score --file inquiry.txt
   leadctl score --dir ./inbox --concurrency 8 --save
   leadctl score --input leads.jsonl --out scored.json`,
		Action: cmdScore,
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

func cmdScore(c *cli.Context) error {
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
	scorer := scoring.NewScorer(llm, modelName, c.Int(maxTokensFlag.Name))

	run := &data.Run{
		ID:        uuid.NewString(),
		Kind:      data.RunKindScore,
		Model:     modelName,
		StartedAt: start.UTC().Format(time.RFC3339),
	}
	if err := data.SaveRun(cfg.DB, run); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	slog.Info("scoring leads", "count", len(items), "model", modelName)

	res, err := scorer.ScoreAll(context.Background(), run.ID, items, c.Int(concurrencyFlag.Name))
	if err != nil {
		return fmt.Errorf("failed to score leads: %w", err)
	}

	for _, lead := range res.AllResults {
		if saveErr := data.SaveLead(cfg.DB, lead); saveErr != nil {
			slog.Error("failed to save lead", "id", lead.ID, "error", saveErr)
		}
	}

	run.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	run.Total = res.Analytics.TotalLeads
	run.Succeeded = res.Analytics.ScoredSuccessfully
	run.Failed = run.Total - run.Succeeded
	if err := data.CompleteRun(cfg.DB, run); err != nil {
		slog.Error("failed to complete run", "id", run.ID, "error", err)
	}

	res.Duration = time.Since(start).String()

	if err := saveResultFile(c, "lead_scores", res); err != nil {
		return err
	}

	// A single inline or file input reads better as just the one record.
	if len(res.AllResults) == 1 {
		return encode(res.AllResults[0])
	}
	return encode(res)
}

// loadInput resolves exactly one of the input flags into items.
func loadInput(c *cli.Context) ([]source.Item, error) {
	text := c.String(textFlag.Name)
	file := c.String(fileFlag.Name)
	dir := c.String(dirFlag.Name)
	input := c.String(inputFlag.Name)

	set := 0
	for _, v := range []string{text, file, dir, input} {
		if v != "" {
			set++
		}
	}
	if set == 0 {
		return nil, cli.ShowSubcommandHelp(c)
	}
	if set > 1 {
		return nil, fmt.Errorf("only one of --%s, --%s, --%s, --%s can be used",
			textFlag.Name, fileFlag.Name, dirFlag.Name, inputFlag.Name)
	}

	switch {
	case text != "":
		return source.FromText(text)
	case file != "":
		return source.FromFile(file)
	case dir != "":
		return source.FromDir(dir)
	default:
		return source.FromJSONL(input)
	}
}

// newModelClient builds the API client and resolves the effective model name.
func newModelClient(c *cli.Context) (*claude.Client, string, error) {
	key := getAPIKey()
	if key == "" {
		return nil, "", fmt.Errorf("no API key configured: run '%s auth' or set %s", appName, apiKeyEnvVar)
	}

	opts := make([]claude.Option, 0, 1)
	if base := os.Getenv(baseURLEnvVar); base != "" {
		opts = append(opts, claude.WithBaseURL(base))
	}

	modelName := c.String(modelFlag.Name)
	if modelName == "" {
		modelName = claude.DefaultModel
	}

	return claude.New(key, opts...), modelName, nil
}

// saveResultFile writes results to --out, or to a timestamped file when
// --save was used without a path.
func saveResultFile(c *cli.Context, prefix string, v any) error {
	out := c.String(outFlag.Name)
	if out == "" && c.Bool(saveFlag.Name) {
		out = fmt.Sprintf("%s_%s.json", prefix, time.Now().Format("20060102_150405"))
	}
	if out == "" {
		return nil
	}
	return writeResultFile(out, v)
}
