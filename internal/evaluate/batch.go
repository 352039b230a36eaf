package evaluate

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// Pair is one reference/hypothesis file pair.
type Pair struct {
	Reference  string `json:"reference"`
	Hypothesis string `json:"hypothesis"`
}

// Result is the outcome of evaluating one Pair. Err is set instead of
// Report when the pair could not be scored.
type Result struct {
	Pair
	Report Report `json:"report"`
	Err    error  `json:"-"`
}

// EvaluateBatch scores pairs concurrently with at most workers pairs in
// flight (GOMAXPROCS when workers <= 0). Results are in input order. A
// failing pair only sets its own Result.Err; the returned error is
// non-nil only when ctx is cancelled, and pairs that never ran then carry
// the context error.
func EvaluateBatch(ctx context.Context, pairs []Pair, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(pairs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, p := range pairs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{Pair: p, Err: err}
				return err
			}
			start := time.Now()
			rep, err := CalculateErrorRates(p.Reference, p.Hypothesis)
			results[i] = Result{Pair: p, Report: rep, Err: err}
			if err != nil {
				slog.Warn("evaluation failed", "reference", p.Reference, "hypothesis", p.Hypothesis, "error", err)
				return nil
			}
			slog.Debug("evaluated pair", "reference", p.Reference, "lines", rep.Lines,
				"elapsed", time.Since(start).Round(time.Millisecond))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
