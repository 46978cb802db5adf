package features

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"factorynet/internal/episode"
)

// Signal is one channel queued for batch extraction.
type Signal struct {
	Name    string
	Samples []float64
	RateHz  float64
}

// BatchResult is the outcome for one Signal. Err is set when that signal
// could not be extracted; the others are unaffected.
type BatchResult struct {
	Name     string
	Features episode.VibrationFeatures
	Err      error
}

// ExtractBatch runs Extract over signals concurrently, bounded by GOMAXPROCS.
// Results keep input order. The only error returned is ctx's.
func (e *Extractor) ExtractBatch(ctx context.Context, signals []Signal, rpm *float64, geom *BearingGeometry) ([]BatchResult, error) {
	results := make([]BatchResult, len(signals))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, sig := range signals {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i].Name = sig.Name
			feat, err := e.Extract(sig.Samples, sig.RateHz, rpm, geom)
			if err != nil {
				results[i].Err = fmt.Errorf("signal %q: %w", sig.Name, err)
				return nil
			}
			results[i].Features = feat
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
