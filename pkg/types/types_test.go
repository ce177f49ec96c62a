// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckRequired(t *testing.T) {
	names := []string{"smartslib_path", "reaction_rules_path", "protection_groups_path"}

	err := CheckRequired("protection", names, map[string]string{
		"smartslib_path":         "rules/smartslib.json",
		"reaction_rules_path":    "  ",
		"protection_groups_path": "",
	})
	var cfgErr *ConfigError
	assert.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, []string{"reaction_rules_path", "protection_groups_path"}, cfgErr.Missing)
	assert.EqualError(t, err, "protection: missing required configuration: reaction_rules_path, protection_groups_path")
	assert.ErrorIs(t, fmt.Errorf("building pipeline: %w", err), ErrConfiguration)

	assert.NoError(t, CheckRequired("protection", names, map[string]string{
		"smartslib_path": "a", "reaction_rules_path": "b", "protection_groups_path": "c",
	}))
}

func TestSearchError(t *testing.T) {
	cause := errors.New("policy network timeout")
	err := error(&SearchError{SMILES: "CC(N)C(=O)O", Err: cause})

	assert.ErrorIs(t, err, ErrSearchFailed)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrConfiguration)
	assert.Equal(t, "searching routes for CC(N)C(=O)O: policy network timeout", err.Error())
}

func TestVariantRoutesScored(t *testing.T) {
	routes := []Route{{"smiles": "a"}, {"smiles": "b"}}
	tests := []struct {
		name string
		v    VariantRoutes
		want bool
	}{
		{"unscored", VariantRoutes{Routes: routes}, false},
		{"aligned", VariantRoutes{Routes: routes, ChemformerScores: []float64{1, 2}, ExpertAugmentedScores: []float64{3, 4}}, true},
		{"short primary", VariantRoutes{Routes: routes, ChemformerScores: []float64{1}, ExpertAugmentedScores: []float64{3, 4}}, false},
		{"only primary", VariantRoutes{Routes: routes, ChemformerScores: []float64{1, 2}}, false},
		{"empty scored", VariantRoutes{Routes: []Route{}, ChemformerScores: []float64{}, ExpertAugmentedScores: []float64{}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.Scored())
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	assert.Equal(t, 2, PipelineConfig{}.Limit())
	assert.Equal(t, 5, PipelineConfig{MaxVariants: 5}.Limit())

	assert.Equal(t, 0.0, ScoringConfig{}.NoPath())
	assert.Equal(t, 20.0, ScoringConfig{}.Penalty())

	noPath := -1.0
	cfg := ScoringConfig{NoPathScore: &noPath, PenaltyScore: 100}
	assert.Equal(t, -1.0, cfg.NoPath())
	assert.Equal(t, 100.0, cfg.Penalty())
}
