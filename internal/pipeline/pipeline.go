// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the synthesizability analysis of a non-natural
// amino acid: protection, route search on the leading protected variants,
// two-model route scoring and best-route selection per variant.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/nnaasynth/internal/metrics"
	"github.com/pdiddy/nnaasynth/pkg/types"
)

// Protector enumerates protected variants of an amino acid.
type Protector interface {
	Protect(ctx context.Context, smiles string) ([]types.RawCandidate, error)
}

// Searcher finds routes for every candidate, one bundle per candidate in
// input order. Search failures yield bundles with no routes.
type Searcher interface {
	SearchAll(ctx context.Context, candidates []types.RawCandidate) []types.VariantRoutes
}

// Scorer scores single routes with the primary and secondary models.
type Scorer interface {
	ScorePrimary(ctx context.Context, route types.Route) (float64, error)
	ScoreSecondary(ctx context.Context, route types.Route, primary float64) (float64, error)
	NoPathScore() float64
}

// Runner drives one analysis end to end.
type Runner struct {
	cfg       types.PipelineConfig
	protector Protector
	searcher  Searcher
	scorer    Scorer
	w         io.Writer
	log       *zap.Logger
}

// New returns a Runner printing progress and selections to w.
func New(cfg types.PipelineConfig, p Protector, s Searcher, sc Scorer, w io.Writer, log *zap.Logger) *Runner {
	if w == nil {
		w = io.Discard
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{cfg: cfg, protector: p, searcher: s, scorer: sc, w: w, log: log}
}

// Run analyzes one amino acid and returns the best route of every
// protected variant that was searched, in protection engine order.
//
// Variants without routes are left out. A variant whose scoring fails is
// logged and left out too, except for configuration errors and
// cancellation of ctx, which abort the run.
func (r *Runner) Run(ctx context.Context, smiles string) ([]types.SelectedResult, error) {
	start := time.Now()
	defer func() { metrics.RunDuration.Observe(time.Since(start).Seconds()) }()

	candidates, err := r.protector.Protect(ctx, smiles)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(r.w, "The number of protected versions for the input NNAA: %d\n", len(candidates))

	candidates = Truncate(candidates, r.cfg.Limit())
	bundles := r.searcher.SearchAll(ctx, candidates)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(bundles) != len(candidates) {
		return nil, fmt.Errorf("route search returned %d bundles for %d candidates", len(bundles), len(candidates))
	}

	selected := make([]*types.SelectedResult, len(bundles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit(r.cfg.Concurrency))
	for i := range bundles {
		g.Go(func() error {
			res, err := r.selectVariant(gctx, &bundles[i])
			if err != nil {
				return err
			}
			selected[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]types.SelectedResult, 0, len(selected))
	for _, res := range selected {
		if res == nil {
			continue
		}
		fmt.Fprintf(r.w, "Protected Amino Acid: %s\n", res.SMILES)
		fmt.Fprintf(r.w, "Best route has Chemformer score: %s and Expert Augmented score: %s\n",
			FormatScore(res.ChemformerScore), FormatScore(res.ExpertAugmentedScore))
		results = append(results, *res)
	}
	return results, nil
}

// selectVariant scores one bundle in place and selects its best route. It
// returns a nil result for a skipped variant and an error only when the
// run must stop.
func (r *Runner) selectVariant(ctx context.Context, v *types.VariantRoutes) (*types.SelectedResult, error) {
	if len(v.Routes) == 0 {
		metrics.Selections.WithLabelValues(metrics.SelectionSkippedEmpty).Inc()
		r.log.Warn("no routes found, skipping variant", zap.String("smiles", v.SMILES))
		return nil, nil
	}

	if err := r.scoreVariant(ctx, v); err != nil {
		if errors.Is(err, types.ErrConfiguration) || ctx.Err() != nil {
			return nil, err
		}
		metrics.Selections.WithLabelValues(metrics.SelectionSkippedError).Inc()
		r.log.Warn("scoring failed, skipping variant", zap.String("smiles", v.SMILES), zap.Error(err))
		return nil, nil
	}

	res, err := SelectBest(*v)
	if err != nil {
		return nil, err
	}
	res.Degenerate = res.ChemformerScore == r.scorer.NoPathScore()
	metrics.Selections.WithLabelValues(metrics.SelectionSelected).Inc()
	r.log.Debug("route selected",
		zap.String("smiles", res.SMILES),
		zap.Int("route_index", res.RouteIndex),
		zap.Int("routes", len(v.Routes)))
	return &res, nil
}

// scoreVariant fills both score slices of v. Scores are written by index,
// so the slices stay aligned with the routes whatever the completion order.
func (r *Runner) scoreVariant(ctx context.Context, v *types.VariantRoutes) error {
	scoreCtx := ctx
	if r.cfg.ScoreTimeout > 0 {
		var cancel context.CancelFunc
		scoreCtx, cancel = context.WithTimeout(ctx, r.cfg.ScoreTimeout)
		defer cancel()
	}

	primary := make([]float64, len(v.Routes))
	secondary := make([]float64, len(v.Routes))

	g, gctx := errgroup.WithContext(scoreCtx)
	g.SetLimit(limit(r.cfg.RouteConcurrency))
	for i, route := range v.Routes {
		g.Go(func() error {
			p, err := r.scorer.ScorePrimary(gctx, route)
			if err != nil {
				return fmt.Errorf("chemformer score of route %d: %w", i, err)
			}
			s, err := r.scorer.ScoreSecondary(gctx, route, p)
			if err != nil {
				return fmt.Errorf("expert-augmented score of route %d: %w", i, err)
			}
			primary[i], secondary[i] = p, s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("scoring %s: %w", v.SMILES, err)
	}

	v.ChemformerScores = primary
	v.ExpertAugmentedScores = secondary
	return nil
}

func limit(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}

// FormatScore renders a score the way it is printed in selection
// summaries: shortest exact form, always with a decimal point.
func FormatScore(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}
