// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"io"

	"go.uber.org/zap"

	"github.com/pdiddy/nnaasynth/internal/container"
	"github.com/pdiddy/nnaasynth/internal/pipeline"
	"github.com/pdiddy/nnaasynth/internal/protect"
	"github.com/pdiddy/nnaasynth/internal/retro"
	"github.com/pdiddy/nnaasynth/internal/scoring"
	"github.com/pdiddy/nnaasynth/pkg/types"
)

// newRunner wires the container-backed engines and the Chemformer client
// into a pipeline Runner printing progress to w.
func newRunner(cfg types.Config, w io.Writer) (*pipeline.Runner, error) {
	rt, err := container.DetectRuntime()
	if err != nil {
		return nil, err
	}

	protectEngine, err := protect.NewContainerEngine(rt, cfg.Protection)
	if err != nil {
		return nil, err
	}
	protector, err := protect.New(cfg.Protection, protectEngine)
	if err != nil {
		return nil, err
	}

	searchEngine, err := retro.NewContainerEngine(rt, cfg.Search)
	if err != nil {
		return nil, err
	}
	sel := searchEngine.Selection()
	logger.Debug("route search selection",
		zap.Strings("stocks", sel.Stocks),
		zap.Strings("expansion", sel.Expansion),
		zap.Strings("filter", sel.Filter))
	searcher, err := retro.New(cfg.Search, searchEngine, w, logger)
	if err != nil {
		return nil, err
	}

	scorer, err := scoring.New(cfg.Scoring, scoring.WithRuntime(rt), scoring.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if !scorer.PrimaryEnabled() || !scorer.SecondaryEnabled() {
		var missing []string
		if !scorer.PrimaryEnabled() {
			missing = append(missing, "scoring.chemformer_url")
		}
		if !scorer.SecondaryEnabled() {
			missing = append(missing, "scoring.expert_augmented_dir")
		}
		return nil, &types.ConfigError{Component: "scoring", Missing: missing}
	}

	return pipeline.New(cfg.Pipeline, protector, searcher, scorer, w, logger), nil
}
