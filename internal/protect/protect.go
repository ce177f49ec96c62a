// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package protect enumerates protected variants of an amino acid through an
// external protection engine.
package protect

import (
	"context"
	"fmt"

	"github.com/pdiddy/nnaasynth/internal/smiles"
	"github.com/pdiddy/nnaasynth/pkg/types"
)

// Engine enumerates protected forms of an uncharged amino acid.
type Engine interface {
	Enumerate(ctx context.Context, smiles string) ([]types.RawCandidate, error)
}

// Protector validates and neutralizes input before asking the engine for
// protected variants.
type Protector struct {
	cfg    types.ProtectionConfig
	engine Engine
}

// Validate reports every missing resource path of cfg in one error.
func Validate(cfg types.ProtectionConfig) error {
	return types.CheckRequired("protection",
		[]string{"smartslib_path", "reaction_rules_path", "protection_groups_path"},
		map[string]string{
			"smartslib_path":         cfg.SmartsLibPath,
			"reaction_rules_path":    cfg.ReactionRulesPath,
			"protection_groups_path": cfg.ProtectionGroupsPath,
		})
}

// New returns a Protector. It fails with types.ErrConfiguration when any
// resource path is missing, before any molecule is processed.
func New(cfg types.ProtectionConfig, engine Engine) (*Protector, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	if engine == nil {
		return nil, &types.ConfigError{Component: "protection", Missing: []string{"engine"}}
	}
	return &Protector{cfg: cfg, engine: engine}, nil
}

// Protect returns the protected variants of an amino acid, in engine order.
// Charged species are neutralized first.
func (p *Protector) Protect(ctx context.Context, aminoAcid string) ([]types.RawCandidate, error) {
	if err := smiles.Validate(aminoAcid); err != nil {
		return nil, err
	}
	uncharged := smiles.Neutralize(aminoAcid)

	candidates, err := p.engine.Enumerate(ctx, uncharged)
	if err != nil {
		return nil, fmt.Errorf("protecting %s: %w", uncharged, err)
	}

	out := make([]types.RawCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.SMILES == "" {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
