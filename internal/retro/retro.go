// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retro runs retrosynthesis route search for protected variants.
// A failed search never aborts its siblings: it yields an empty bundle.
package retro

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/nnaasynth/internal/metrics"
	"github.com/pdiddy/nnaasynth/pkg/types"
)

// Result is what the search engine returns for one target.
type Result struct {
	Routes []types.Route     `json:"routes"`
	Stats  types.SearchStats `json:"stats"`
}

// Engine runs tree search and route extraction for one target SMILES.
type Engine interface {
	Search(ctx context.Context, smiles string) (Result, error)
}

// Searcher wraps an Engine with failure isolation and progress reporting.
type Searcher struct {
	cfg    types.SearchConfig
	engine Engine
	w      io.Writer
	log    *zap.Logger
}

// New returns a Searcher printing progress to w.
func New(cfg types.SearchConfig, engine Engine, w io.Writer, log *zap.Logger) (*Searcher, error) {
	if engine == nil {
		return nil, &types.ConfigError{Component: "search", Missing: []string{"engine"}}
	}
	if w == nil {
		w = io.Discard
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Searcher{cfg: cfg, engine: engine, w: w, log: log}, nil
}

// Search finds routes for one candidate. It does not return errors: a
// failing search is logged and yields a bundle with no routes, empty stats
// and the candidate's protection groups.
func (s *Searcher) Search(ctx context.Context, c types.RawCandidate) types.VariantRoutes {
	res, err := s.run(ctx, c.SMILES)
	if err != nil {
		metrics.Searches.WithLabelValues(metrics.SearchFailed).Inc()
		s.log.Warn("route search failed",
			zap.String("smiles", c.SMILES),
			zap.Error(&types.SearchError{SMILES: c.SMILES, Err: err}))
		return types.VariantRoutes{
			SMILES:           c.SMILES,
			Routes:           []types.Route{},
			Stats:            types.SearchStats{},
			ProtectionGroups: c.ProtectionGroups,
		}
	}

	metrics.Searches.WithLabelValues(metrics.SearchOK).Inc()
	metrics.RoutesFound.Observe(float64(len(res.Routes)))

	routes := res.Routes
	if routes == nil {
		routes = []types.Route{}
	}
	stats := res.Stats
	if stats == nil {
		stats = types.SearchStats{}
	}
	return types.VariantRoutes{
		SMILES:           c.SMILES,
		Routes:           routes,
		Stats:            stats,
		ProtectionGroups: c.ProtectionGroups,
	}
}

// run calls the engine under the per-search timeout and turns panics and
// malformed output into errors.
func (s *Searcher) run(ctx context.Context, target string) (res Result, err error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine panic: %v", r)
		}
	}()

	res, err = s.engine.Search(ctx, target)
	if err != nil {
		return Result{}, err
	}
	for i, r := range res.Routes {
		if len(r) == 0 {
			return Result{}, fmt.Errorf("malformed output: route %d is empty", i)
		}
	}
	return res, nil
}

// SearchAll searches every candidate and returns one bundle per candidate
// in input order. Up to cfg.Concurrency searches run at once.
func (s *Searcher) SearchAll(ctx context.Context, candidates []types.RawCandidate) []types.VariantRoutes {
	total := len(candidates)
	results := make([]types.VariantRoutes, total)

	fmt.Fprintf(s.w, "Running route search on %d SMILES\n", total)
	start := time.Now()

	limit := s.cfg.Concurrency
	if limit <= 0 {
		limit = 1
	}

	var (
		mu   sync.Mutex
		done int
	)
	var g errgroup.Group
	g.SetLimit(limit)
	for i, c := range candidates {
		g.Go(func() error {
			results[i] = s.Search(ctx, c)

			mu.Lock()
			done++
			fmt.Fprintf(s.w, "[%.1f%%] %d/%d - Processed %s: %d routes found\n",
				float64(done)/float64(total)*100, done, total, c.SMILES, len(results[i].Routes))
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	fmt.Fprintf(s.w, "Completed processing %d SMILES in %.1f seconds\n\n", total, time.Since(start).Seconds())
	return results
}
