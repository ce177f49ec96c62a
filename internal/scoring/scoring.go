// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scoring computes route feasibility with two independent models:
// the Chemformer reaction feasibility service (primary) and the
// expert-augmented deepset model (secondary). Each model is enabled by
// configuring its location.
package scoring

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/nnaasynth/internal/container"
	"github.com/pdiddy/nnaasynth/internal/metrics"
	"github.com/pdiddy/nnaasynth/pkg/types"
)

// Scorer scores synthesis routes. Lower expert-augmented scores are more
// feasible.
type Scorer struct {
	chemformer *chemformerClient
	expert     ExpertModel
	ranks      map[string]float64
	noPath     float64
	penalty    float64
	log        *zap.Logger

	httpClient *http.Client
	runtime    container.Runtime
}

// Option customizes a Scorer.
type Option func(*Scorer)

// WithHTTPClient sets the client used for Chemformer requests.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Scorer) { s.httpClient = c }
}

// WithRuntime sets the container runtime used for expert inference.
func WithRuntime(rt container.Runtime) Option {
	return func(s *Scorer) { s.runtime = rt }
}

// WithExpertModel replaces the container-backed expert model.
func WithExpertModel(m ExpertModel) Option {
	return func(s *Scorer) { s.expert = m }
}

// WithLogger sets the diagnostic logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Scorer) { s.log = log }
}

// New builds a Scorer. Setting cfg.ChemformerURL enables ScorePrimary;
// setting cfg.ExpertAugmentedDir enables ScoreSecondary, in which case the
// directory must hold all three resource files and a readable ranks table.
func New(cfg types.ScoringConfig, opts ...Option) (*Scorer, error) {
	s := &Scorer{
		noPath:  cfg.NoPath(),
		penalty: cfg.Penalty(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}

	if cfg.ChemformerURL != "" {
		client := s.httpClient
		if client == nil {
			timeout := cfg.Timeout
			if timeout <= 0 {
				timeout = 60 * time.Second
			}
			client = &http.Client{Timeout: timeout}
		}
		s.chemformer = newChemformerClient(cfg, client)
	}

	if cfg.ExpertAugmentedDir == "" {
		// The expert model cannot run without the ranking table.
		s.expert = nil
		return s, nil
	}

	if err := checkExpertDir(cfg.ExpertAugmentedDir); err != nil {
		return nil, err
	}
	ranks, err := LoadRanks(filepath.Join(cfg.ExpertAugmentedDir, RanksFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrConfiguration, err)
	}
	s.ranks = ranks

	if s.expert == nil {
		var missing []string
		if cfg.ExpertImage == "" {
			missing = append(missing, "expert_image")
		}
		if s.runtime == nil {
			missing = append(missing, "container runtime")
		}
		if len(missing) > 0 {
			return nil, &types.ConfigError{Component: "expert-augmented scoring", Missing: missing}
		}
		if err := container.CheckImage(s.runtime, "expert-augmented scoring", cfg.ExpertImage); err != nil {
			return nil, err
		}
		s.expert = NewContainerModel(s.runtime, cfg.ExpertImage, cfg.ExpertAugmentedDir)
	}

	return s, nil
}

// PrimaryEnabled reports whether ScorePrimary is configured.
func (s *Scorer) PrimaryEnabled() bool { return s.chemformer != nil }

// SecondaryEnabled reports whether ScoreSecondary is configured.
func (s *Scorer) SecondaryEnabled() bool { return s.expert != nil }

// NoPathScore is the primary score meaning no feasible reaction path.
func (s *Scorer) NoPathScore() float64 { return s.noPath }

// ScorePrimary returns the Chemformer feasibility of a route: the product of
// its reactions' feasibilities, or 1 for a route with no reactions.
func (s *Scorer) ScorePrimary(ctx context.Context, route types.Route) (float64, error) {
	if s.chemformer == nil {
		return 0, &types.ConfigError{Component: "chemformer scoring", Missing: []string{"chemformer_url"}}
	}

	reactions, err := Reactions(route)
	if err != nil {
		return 0, fmt.Errorf("reading route: %w", err)
	}
	if len(reactions) == 0 {
		return 1, nil
	}

	start := time.Now()
	probs, err := s.chemformer.feasibility(ctx, reactions)
	metrics.ScoreLatency.WithLabelValues(metrics.ModelChemformer).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ScoreErrors.WithLabelValues(metrics.ModelChemformer).Inc()
		rendered := make([]string, len(reactions))
		for i, r := range reactions {
			rendered[i] = r.SMILES()
		}
		s.log.Debug("chemformer scoring failed", zap.Strings("reactions", rendered), zap.Error(err))
		return 0, err
	}

	score := 1.0
	for _, p := range probs {
		score *= p
	}
	return score, nil
}

// ScoreSecondary returns the expert-augmented score of a route. A route
// whose primary score is the no-path sentinel gets the penalty score and
// the model is not run. Model outputs must stay below the penalty so the
// penalty always ranks last.
func (s *Scorer) ScoreSecondary(ctx context.Context, route types.Route, primary float64) (float64, error) {
	if s.expert == nil {
		return 0, &types.ConfigError{Component: "expert-augmented scoring", Missing: []string{"expert_augmented_dir"}}
	}
	if primary == s.noPath {
		metrics.PenaltyScores.Inc()
		return s.penalty, nil
	}

	start := time.Now()
	score, err := s.expert.Score(ctx, route, s.ranks)
	metrics.ScoreLatency.WithLabelValues(metrics.ModelExpertAugmented).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ScoreErrors.WithLabelValues(metrics.ModelExpertAugmented).Inc()
		return 0, fmt.Errorf("expert-augmented scoring: %w", err)
	}
	if math.IsNaN(score) || math.IsInf(score, 0) || score >= s.penalty {
		metrics.ScoreErrors.WithLabelValues(metrics.ModelExpertAugmented).Inc()
		s.log.Error("expert model score outside the valid range",
			zap.Float64("score", score), zap.Float64("penalty", s.penalty))
		return 0, fmt.Errorf("expert-augmented score %v is not below the penalty %v", score, s.penalty)
	}
	return score, nil
}
