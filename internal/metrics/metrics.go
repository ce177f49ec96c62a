// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics defines the prometheus collectors of the pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Search outcomes.
const (
	SearchOK     = "ok"
	SearchFailed = "failed"
)

// Selection outcomes.
const (
	SelectionSelected     = "selected"
	SelectionSkippedEmpty = "skipped_empty"
	SelectionSkippedError = "skipped_error"
)

// Scoring model labels.
const (
	ModelChemformer      = "chemformer"
	ModelExpertAugmented = "expert_augmented"
)

var (
	// Searches counts route searches by outcome.
	Searches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nnaasynth",
		Subsystem: "search",
		Name:      "total",
		Help:      "Route searches by outcome",
	}, []string{"outcome"})

	// RoutesFound observes the number of routes returned per variant.
	RoutesFound = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "nnaasynth",
		Subsystem: "search",
		Name:      "routes_found",
		Help:      "Routes found per protected variant",
		Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
	})

	// ScoreLatency measures single-route scoring time per model.
	ScoreLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nnaasynth",
		Subsystem: "scoring",
		Name:      "latency_seconds",
		Help:      "Route scoring latency in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"model"})

	// ScoreErrors counts scoring failures per model.
	ScoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nnaasynth",
		Subsystem: "scoring",
		Name:      "errors_total",
		Help:      "Route scoring failures",
	}, []string{"model"})

	// PenaltyScores counts routes given the penalty score instead of
	// expert inference.
	PenaltyScores = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nnaasynth",
		Subsystem: "scoring",
		Name:      "penalty_total",
		Help:      "Routes short-circuited to the penalty score",
	})

	// Selections counts per-variant selection outcomes.
	Selections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nnaasynth",
		Subsystem: "pipeline",
		Name:      "selections_total",
		Help:      "Per-variant route selection outcomes",
	}, []string{"outcome"})

	// RunDuration measures end-to-end pipeline runs.
	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "nnaasynth",
		Subsystem: "pipeline",
		Name:      "run_duration_seconds",
		Help:      "Pipeline run wall time in seconds",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})
)
