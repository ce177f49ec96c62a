// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the nnaasynth pipeline.
// Records flow protection -> route search -> scoring -> selection:
//
//	RawCandidate -> VariantRoutes (scores filled in place) -> SelectedResult
package types

// Route is a synthesis route as emitted by the route search engine. The
// pipeline treats it as an opaque tree; only the scoring adapter looks
// inside it.
type Route map[string]any

// SearchStats holds search diagnostics, passed through unmodified.
type SearchStats map[string]any

// RawCandidate is one protected variant of the input amino acid.
type RawCandidate struct {
	// SMILES is the protected variant.
	SMILES string `json:"smiles" yaml:"smiles"`

	// ProtectionGroups lists the protection groups applied, in engine order.
	ProtectionGroups []string `json:"protection_groups" yaml:"protection_groups"`
}

// VariantRoutes bundles the routes found for one protected variant.
// ChemformerScores and ExpertAugmentedScores are nil until the pipeline
// scores the routes; afterwards both have exactly len(Routes) entries,
// aligned by index.
type VariantRoutes struct {
	SMILES                string      `json:"smiles" yaml:"smiles"`
	Routes                []Route     `json:"routes" yaml:"routes"`
	Stats                 SearchStats `json:"stats" yaml:"stats"`
	ProtectionGroups      []string    `json:"protection_groups" yaml:"protection_groups"`
	ChemformerScores      []float64   `json:"chemformer_scores,omitempty" yaml:"chemformer_scores,omitempty"`
	ExpertAugmentedScores []float64   `json:"expert_augmented_scores,omitempty" yaml:"expert_augmented_scores,omitempty"`
}

// Scored reports whether both score slices are populated and aligned with Routes.
func (v *VariantRoutes) Scored() bool {
	return v.ChemformerScores != nil && v.ExpertAugmentedScores != nil &&
		len(v.ChemformerScores) == len(v.Routes) &&
		len(v.ExpertAugmentedScores) == len(v.Routes)
}

// SelectedResult is the best route chosen for one protected variant.
type SelectedResult struct {
	// SMILES is the protected variant.
	SMILES string `json:"smiles" yaml:"smiles"`

	// ProtectionGroups is carried from the candidate unchanged.
	ProtectionGroups []string `json:"protection_groups" yaml:"protection_groups"`

	// Route is the selected route.
	Route Route `json:"route" yaml:"route"`

	// RouteIndex is the position of Route in the variant's route list.
	RouteIndex int `json:"route_index" yaml:"route_index"`

	// ChemformerScore is the primary feasibility score of Route.
	ChemformerScore float64 `json:"chemformer_score" yaml:"chemformer_score"`

	// ExpertAugmentedScore is the secondary feasibility score of Route.
	// Lower is more feasible.
	ExpertAugmentedScore float64 `json:"expert_augmented_score" yaml:"expert_augmented_score"`

	// Degenerate is true when the primary model found no feasible reaction
	// path and ExpertAugmentedScore is the penalty value, not a model output.
	Degenerate bool `json:"degenerate,omitempty" yaml:"degenerate,omitempty"`
}
