// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Analysis records one pipeline run over a query amino acid.
type Analysis struct {
	// ID is a UUID assigned when the run starts.
	ID string `json:"id" yaml:"id"`

	// Query is the input NNAA SMILES as given by the caller.
	Query string `json:"query" yaml:"query"`

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`

	// Results holds one entry per protected variant that produced a route.
	Results []SelectedResult `json:"results" yaml:"results"`
}

// Duration returns the wall time of the run.
func (a Analysis) Duration() time.Duration {
	return a.FinishedAt.Sub(a.StartedAt)
}
