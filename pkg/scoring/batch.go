package scoring

import (
	"context"
	"sort"

	"github.com/leadctl/leadctl/pkg/data"
	"github.com/leadctl/leadctl/pkg/source"
	"golang.org/x/sync/errgroup"
)

const concurrencyDefault = 4

// Result is the full output of a batch scoring run: every result in input
// order, the successes sorted best-first, and the run analytics.
type Result struct {
	RunID            string           `json:"run_id,omitempty" yaml:"runId,omitempty"`
	AllResults       []*data.Lead     `json:"all_results" yaml:"allResults"`
	SortedByPriority []*data.Lead     `json:"sorted_by_priority" yaml:"sortedByPriority"`
	Analytics        *data.LeadReport `json:"analytics" yaml:"analytics"`
	Duration         string           `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// ScoreAll scores every item with bounded concurrency. Individual failures
// are recorded in the results, not returned; the only error case is context
// cancellation before all items were attempted.
func (s *Scorer) ScoreAll(ctx context.Context, runID string, items []source.Item, concurrency int) (*Result, error) {
	if concurrency < 1 {
		concurrency = concurrencyDefault
	}

	results := make([]*data.Lead, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.Score(gctx, runID, item)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Result{
		RunID:            runID,
		AllResults:       results,
		SortedByPriority: sortByScore(results),
		Analytics:        Analyze(results),
	}, nil
}

// sortByScore returns the successful leads ordered highest score first.
func sortByScore(leads []*data.Lead) []*data.Lead {
	sorted := make([]*data.Lead, 0, len(leads))
	for _, l := range leads {
		if l != nil && l.Status == data.StatusSuccess && l.Score != nil {
			sorted = append(sorted, l)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return *sorted[i].Score > *sorted[j].Score
	})
	return sorted
}

// Analyze computes the run analytics block. Average is over successes only,
// zero when there are none.
func Analyze(leads []*data.Lead) *data.LeadReport {
	r := &data.LeadReport{}
	sum := 0
	for _, l := range leads {
		if l == nil {
			continue
		}
		r.TotalLeads++
		if l.Status != data.StatusSuccess || l.Score == nil {
			continue
		}
		r.ScoredSuccessfully++
		sum += *l.Score
		switch l.Band {
		case data.BandHot:
			r.HotLeadsCount++
		case data.BandWarm:
			r.WarmLeadsCount++
		default:
			r.ColdLeadsCount++
		}
	}
	if r.ScoredSuccessfully > 0 {
		r.AverageScore = float64(sum) / float64(r.ScoredSuccessfully)
	}
	return r
}
