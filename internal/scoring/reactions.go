// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scoring

import (
	"fmt"
	"strings"

	"github.com/pdiddy/nnaasynth/pkg/types"
)

// Reaction is one retrosynthetic step of a route: the product node and the
// molecules its reaction node expands into.
type Reaction struct {
	Reactants []string `json:"reactants"`
	Product   string   `json:"product"`
	Class     string   `json:"class,omitempty"`
}

// SMILES renders the reaction as "reactant.reactant>>product".
func (r Reaction) SMILES() string {
	return strings.Join(r.Reactants, ".") + ">>" + r.Product
}

// Reactions walks a route tree depth-first and returns its reactions,
// target reaction first. Molecule nodes carry "smiles" and at most one
// reaction child; reaction nodes carry molecule children and an optional
// "metadata.classification".
func Reactions(route types.Route) ([]Reaction, error) {
	var out []Reaction
	if err := walkMol(map[string]any(route), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func walkMol(node map[string]any, out *[]Reaction) error {
	product, _ := node["smiles"].(string)
	if product == "" {
		return fmt.Errorf("molecule node without smiles")
	}
	for _, child := range children(node) {
		if t, _ := child["type"].(string); t != "reaction" {
			return fmt.Errorf("molecule %s has a %q child, want reaction", product, t)
		}
		rxn := Reaction{Product: product, Class: classification(child)}
		mols := children(child)
		for _, m := range mols {
			s, _ := m["smiles"].(string)
			if s == "" {
				return fmt.Errorf("reaction to %s has a reactant without smiles", product)
			}
			rxn.Reactants = append(rxn.Reactants, s)
		}
		if len(rxn.Reactants) == 0 {
			return fmt.Errorf("reaction to %s has no reactants", product)
		}
		*out = append(*out, rxn)
		for _, m := range mols {
			if err := walkMol(m, out); err != nil {
				return err
			}
		}
	}
	return nil
}

func children(node map[string]any) []map[string]any {
	raw, _ := node["children"].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, c := range raw {
		switch v := c.(type) {
		case map[string]any:
			out = append(out, v)
		case types.Route:
			out = append(out, v)
		}
	}
	return out
}

func classification(rxn map[string]any) string {
	meta, _ := rxn["metadata"].(map[string]any)
	c, _ := meta["classification"].(string)
	return c
}
