// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/nnaasynth/internal/retro"
	"github.com/pdiddy/nnaasynth/pkg/types"
)

type stubProtector struct {
	candidates []types.RawCandidate
	err        error
	got        []string
}

func (p *stubProtector) Protect(_ context.Context, smiles string) ([]types.RawCandidate, error) {
	p.got = append(p.got, smiles)
	return p.candidates, p.err
}

// stubSearcher returns prepared bundles and records what it was asked for.
type stubSearcher struct {
	routes map[string][]types.Route
	got    [][]types.RawCandidate
}

func (s *stubSearcher) SearchAll(_ context.Context, cs []types.RawCandidate) []types.VariantRoutes {
	s.got = append(s.got, cs)
	out := make([]types.VariantRoutes, len(cs))
	for i, c := range cs {
		rs := s.routes[c.SMILES]
		if rs == nil {
			rs = []types.Route{}
		}
		out[i] = types.VariantRoutes{
			SMILES:           c.SMILES,
			Routes:           rs,
			Stats:            types.SearchStats{},
			ProtectionGroups: c.ProtectionGroups,
		}
	}
	return out
}

// tableScorer scores routes by their "id" field. Secondary scoring of a
// no-path route returns the penalty without a table lookup.
type tableScorer struct {
	primary   map[string]float64
	secondary map[string]float64
	errs      map[string]error
	delay     map[string]time.Duration
	block     bool

	mu       sync.Mutex
	pairs    map[string]float64
	expertIn []string
}

func routeID(r types.Route) string {
	id, _ := r["id"].(string)
	return id
}

func (s *tableScorer) ScorePrimary(ctx context.Context, r types.Route) (float64, error) {
	id := routeID(r)
	if s.block {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	if d := s.delay[id]; d > 0 {
		time.Sleep(d)
	}
	if err := s.errs[id]; err != nil {
		return 0, err
	}
	return s.primary[id], nil
}

func (s *tableScorer) ScoreSecondary(_ context.Context, r types.Route, primary float64) (float64, error) {
	id := routeID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pairs == nil {
		s.pairs = make(map[string]float64)
	}
	s.pairs[id] = primary
	if primary == s.NoPathScore() {
		return types.DefaultPenaltyScore, nil
	}
	s.expertIn = append(s.expertIn, id)
	return s.secondary[id], nil
}

func (s *tableScorer) NoPathScore() float64 { return types.DefaultNoPathScore }

func candidates(names ...string) []types.RawCandidate {
	out := make([]types.RawCandidate, len(names))
	for i, n := range names {
		out[i] = types.RawCandidate{SMILES: n, ProtectionGroups: []string{"PG-" + n}}
	}
	return out
}

// fixedEngine is a route search engine answering from a table.
type fixedEngine map[string]retro.Result

func (e fixedEngine) Search(_ context.Context, smiles string) (retro.Result, error) {
	res, ok := e[smiles]
	if !ok {
		return retro.Result{}, errors.New("no solution in time limit")
	}
	return res, nil
}

func TestRunAlanine(t *testing.T) {
	const (
		boc   = "CC(NC(=O)OC(C)(C)C)C(=O)O"
		ester = "COC(=O)C(C)N"
		fmoc  = "CC(NC(=O)OCC1c2ccccc2-c2ccccc21)C(=O)O"
	)
	protector := &stubProtector{candidates: []types.RawCandidate{
		{SMILES: boc, ProtectionGroups: []string{"Boc"}},
		{SMILES: ester, ProtectionGroups: []string{"Methyl ester"}},
		{SMILES: fmoc, ProtectionGroups: []string{"Fmoc"}},
	}}
	engine := fixedEngine{
		boc:   {Routes: routes("boc-1", "boc-2"), Stats: types.SearchStats{"is_solved": true}},
		ester: {Routes: []types.Route{}, Stats: types.SearchStats{"is_solved": false}},
		fmoc:  {Routes: routes("fmoc-1")},
	}
	scorer := &tableScorer{
		primary:   map[string]float64{"boc-1": 0.5, "boc-2": 0.2},
		secondary: map[string]float64{"boc-1": 3.0, "boc-2": 1.0},
	}

	var out bytes.Buffer
	searcher, err := retro.New(types.SearchConfig{}, engine, &out, zap.NewNop())
	require.NoError(t, err)
	r := New(types.PipelineConfig{}, protector, searcher, scorer, &out, zap.NewNop())

	got, err := r.Run(context.Background(), "OC(=O)C(N)C")
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, boc, got[0].SMILES)
	assert.Equal(t, []string{"Boc"}, got[0].ProtectionGroups)
	assert.Equal(t, 1, got[0].RouteIndex)
	assert.Equal(t, "boc-2", routeID(got[0].Route))
	assert.Equal(t, 0.2, got[0].ChemformerScore)
	assert.Equal(t, 1.0, got[0].ExpertAugmentedScore)
	assert.False(t, got[0].Degenerate)

	assert.Equal(t, []string{"OC(=O)C(N)C"}, protector.got)
	assert.Equal(t, map[string]float64{"boc-1": 0.5, "boc-2": 0.2}, scorer.pairs)

	text := out.String()
	assert.Contains(t, text, "The number of protected versions for the input NNAA: 3\n")
	assert.Contains(t, text, "Running route search on 2 SMILES\n")
	assert.Contains(t, text, "Protected Amino Acid: "+boc+"\n")
	assert.Contains(t, text, "Best route has Chemformer score: 0.2 and Expert Augmented score: 1.0\n")
	assert.NotContains(t, text, fmoc, "third variant is never searched")
	assert.NotContains(t, text, "Protected Amino Acid: "+ester)
}

func TestRunTruncates(t *testing.T) {
	tests := []struct {
		name        string
		maxVariants int
		want        []string
	}{
		{"default keeps two", 0, []string{"A", "B"}},
		{"configured three", 3, []string{"A", "B", "C"}},
		{"more than available", 9, []string{"A", "B", "C", "D", "E"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			protector := &stubProtector{candidates: candidates("A", "B", "C", "D", "E")}
			searcher := &stubSearcher{}
			r := New(types.PipelineConfig{MaxVariants: tt.maxVariants}, protector, searcher, &tableScorer{}, nil, nil)

			got, err := r.Run(context.Background(), "NC(CC1CC1)C(=O)O")
			require.NoError(t, err)
			assert.Empty(t, got)

			require.Len(t, searcher.got, 1)
			var names []string
			for _, c := range searcher.got[0] {
				names = append(names, c.SMILES)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestRunNoCandidates(t *testing.T) {
	var out bytes.Buffer
	searcher := &stubSearcher{}
	r := New(types.PipelineConfig{}, &stubProtector{}, searcher, &tableScorer{}, &out, nil)

	got, err := r.Run(context.Background(), "C")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Contains(t, out.String(), "The number of protected versions for the input NNAA: 0\n")
}

func TestRunOrderAndAlignment(t *testing.T) {
	searcher := &stubSearcher{routes: map[string][]types.Route{
		"A": routes("a0", "a1", "a2", "a3"),
		"B": routes("b0", "b1", "b2"),
	}}
	scorer := &tableScorer{
		primary: map[string]float64{
			"a0": 0.9, "a1": 0.8, "a2": 0.7, "a3": 0.6,
			"b0": 0.3, "b1": 0.2, "b2": 0.1,
		},
		secondary: map[string]float64{
			"a0": 5, "a1": 4, "a2": 2, "a3": 6,
			"b0": 1, "b1": 3, "b2": 2,
		},
		// Slow early routes so later ones finish first.
		delay: map[string]time.Duration{"a0": 30 * time.Millisecond, "a1": 20 * time.Millisecond, "b0": 25 * time.Millisecond},
	}
	cfg := types.PipelineConfig{Concurrency: 2, RouteConcurrency: 4}
	r := New(cfg, &stubProtector{candidates: candidates("A", "B")}, searcher, scorer, nil, nil)

	got, err := r.Run(context.Background(), "N[C@@H](Cc1ccc(F)cc1)C(=O)O")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "A", got[0].SMILES)
	assert.Equal(t, 2, got[0].RouteIndex)
	assert.Equal(t, "a2", routeID(got[0].Route))
	assert.Equal(t, 0.7, got[0].ChemformerScore)
	assert.Equal(t, 2.0, got[0].ExpertAugmentedScore)

	assert.Equal(t, "B", got[1].SMILES)
	assert.Equal(t, 0, got[1].RouteIndex)
	assert.Equal(t, 0.3, got[1].ChemformerScore)

	// Each secondary score was computed from its own route's primary score.
	for id, p := range scorer.pairs {
		assert.Equal(t, scorer.primary[id], p, id)
	}
}

func TestRunDegenerateSelection(t *testing.T) {
	searcher := &stubSearcher{routes: map[string][]types.Route{"A": routes("x", "y")}}
	scorer := &tableScorer{primary: map[string]float64{"x": 0, "y": 0}}
	var out bytes.Buffer
	r := New(types.PipelineConfig{}, &stubProtector{candidates: candidates("A")}, searcher, scorer, &out, nil)

	got, err := r.Run(context.Background(), "C")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].RouteIndex)
	assert.Equal(t, 20.0, got[0].ExpertAugmentedScore)
	assert.True(t, got[0].Degenerate)
	assert.Empty(t, scorer.expertIn)
	assert.Contains(t, out.String(), "Best route has Chemformer score: 0.0 and Expert Augmented score: 20.0\n")
}

func TestRunSkipsEmptyVariants(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	searcher := &stubSearcher{routes: map[string][]types.Route{"B": routes("b0")}}
	scorer := &tableScorer{primary: map[string]float64{"b0": 0.4}, secondary: map[string]float64{"b0": 2.5}}
	r := New(types.PipelineConfig{}, &stubProtector{candidates: candidates("A", "B")}, searcher, scorer, nil, zap.New(core))

	got, err := r.Run(context.Background(), "C")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0].SMILES)

	entries := logs.FilterMessage("no routes found, skipping variant").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "A", entries[0].ContextMap()["smiles"])
}

func TestRunContainsScoringFailures(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	searcher := &stubSearcher{routes: map[string][]types.Route{
		"A": routes("a0", "a1"),
		"B": routes("b0"),
	}}
	scorer := &tableScorer{
		primary:   map[string]float64{"a0": 0.5, "b0": 0.4},
		secondary: map[string]float64{"a0": 1, "b0": 2},
		errs:      map[string]error{"a1": types.ErrServiceUnavailable},
	}
	r := New(types.PipelineConfig{}, &stubProtector{candidates: candidates("A", "B")}, searcher, scorer, nil, zap.New(core))

	got, err := r.Run(context.Background(), "C")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0].SMILES)

	entries := logs.FilterMessage("scoring failed, skipping variant").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "A", entries[0].ContextMap()["smiles"])
	assert.Contains(t, entries[0].ContextMap()["error"], "route 1")
}

func TestRunFatalErrors(t *testing.T) {
	t.Run("protection error", func(t *testing.T) {
		searcher := &stubSearcher{}
		protector := &stubProtector{err: &types.ConfigError{Component: "protection", Missing: []string{"smartslib_path"}}}
		r := New(types.PipelineConfig{}, protector, searcher, &tableScorer{}, nil, nil)

		_, err := r.Run(context.Background(), "C")
		assert.ErrorIs(t, err, types.ErrConfiguration)
		assert.Empty(t, searcher.got)
	})

	t.Run("scoring configuration error", func(t *testing.T) {
		searcher := &stubSearcher{routes: map[string][]types.Route{"A": routes("a0")}}
		scorer := &tableScorer{errs: map[string]error{
			"a0": &types.ConfigError{Component: "chemformer scoring", Missing: []string{"chemformer_url"}},
		}}
		r := New(types.PipelineConfig{}, &stubProtector{candidates: candidates("A")}, searcher, scorer, nil, nil)

		got, err := r.Run(context.Background(), "C")
		assert.ErrorIs(t, err, types.ErrConfiguration)
		assert.Nil(t, got)
	})

	t.Run("cancelled run", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		searcher := &stubSearcher{routes: map[string][]types.Route{"A": routes("a0")}}
		r := New(types.PipelineConfig{}, &stubProtector{candidates: candidates("A")}, searcher, &tableScorer{}, nil, nil)

		_, err := r.Run(ctx, "C")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRunScoreTimeout(t *testing.T) {
	searcher := &stubSearcher{routes: map[string][]types.Route{"A": routes("a0")}}
	r := New(types.PipelineConfig{ScoreTimeout: 20 * time.Millisecond},
		&stubProtector{candidates: candidates("A")}, searcher, &tableScorer{block: true}, nil, nil)

	got, err := r.Run(context.Background(), "C")
	require.NoError(t, err, "a variant timeout is contained")
	assert.Empty(t, got)
}

func TestRunIdempotent(t *testing.T) {
	run := func() ([]types.SelectedResult, string) {
		searcher := &stubSearcher{routes: map[string][]types.Route{
			"A": routes("a0", "a1"),
			"B": routes("b0", "b1"),
		}}
		scorer := &tableScorer{
			primary:   map[string]float64{"a0": 0.5, "a1": 0.6, "b0": 0, "b1": 0.1},
			secondary: map[string]float64{"a0": 2, "a1": 2, "b1": 7},
		}
		var out bytes.Buffer
		r := New(types.PipelineConfig{}, &stubProtector{candidates: candidates("A", "B", "C")}, searcher, scorer, &out, nil)
		got, err := r.Run(context.Background(), "C")
		require.NoError(t, err)
		return got, out.String()
	}

	first, firstOut := run()
	second, secondOut := run()
	assert.Equal(t, first, second)
	assert.Equal(t, firstOut, secondOut)
	assert.Equal(t, 2, strings.Count(firstOut, "Protected Amino Acid: "))
}
