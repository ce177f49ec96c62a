// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"errors"
	"fmt"

	"github.com/pdiddy/nnaasynth/pkg/types"
)

var (
	// ErrNoRoutes is returned by SelectBest for a bundle without routes.
	ErrNoRoutes = errors.New("no routes to select from")

	// ErrScoresMisaligned is returned by SelectBest when the score slices
	// are missing or differ in length from the routes.
	ErrScoresMisaligned = errors.New("scores are not aligned with routes")
)

// Truncate returns the first n candidates, keeping their order.
func Truncate(candidates []types.RawCandidate, n int) []types.RawCandidate {
	if n < 0 {
		n = 0
	}
	if len(candidates) <= n {
		return candidates
	}
	return candidates[:n]
}

// SelectBest picks the route with the lowest expert-augmented score. Ties
// go to the lowest index.
func SelectBest(v types.VariantRoutes) (types.SelectedResult, error) {
	if len(v.Routes) == 0 {
		return types.SelectedResult{}, fmt.Errorf("%s: %w", v.SMILES, ErrNoRoutes)
	}
	if !v.Scored() {
		return types.SelectedResult{}, fmt.Errorf("%s: %w: %d routes, %d chemformer scores, %d expert scores",
			v.SMILES, ErrScoresMisaligned, len(v.Routes), len(v.ChemformerScores), len(v.ExpertAugmentedScores))
	}

	best := 0
	for i, s := range v.ExpertAugmentedScores[1:] {
		if s < v.ExpertAugmentedScores[best] {
			best = i + 1
		}
	}
	return types.SelectedResult{
		SMILES:               v.SMILES,
		ProtectionGroups:     v.ProtectionGroups,
		Route:                v.Routes[best],
		RouteIndex:           best,
		ChemformerScore:      v.ChemformerScores[best],
		ExpertAugmentedScore: v.ExpertAugmentedScores[best],
	}, nil
}
