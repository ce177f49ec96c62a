// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retro

import (
	"fmt"
	"os"
	"sort"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/nnaasynth/pkg/types"
)

// finderFile mirrors the top-level sections of the search engine config.
// Section bodies belong to the engine; only their keys are read here.
type finderFile struct {
	Stock     map[string]any `yaml:"stock"`
	Expansion map[string]any `yaml:"expansion"`
	Filter    map[string]any `yaml:"filter"`
}

// Selection names the stocks and policies the engine activates. The
// pipeline activates every entry the config declares.
type Selection struct {
	Stocks    []string `json:"stocks" yaml:"stocks"`
	Expansion []string `json:"expansion" yaml:"expansion"`
	Filter    []string `json:"filter" yaml:"filter"`
}

// LoadFinderConfig reads the search engine YAML at path and returns the
// sorted keys of its stock, expansion and filter sections. A config without
// stocks or expansion policies cannot find routes and is rejected; the
// filter section is optional.
func LoadFinderConfig(path string) (Selection, error) {
	if path == "" {
		return Selection{}, &types.ConfigError{Component: "search", Missing: []string{"finder_config_path"}}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Selection{}, fmt.Errorf("%w: reading finder config: %v", types.ErrConfiguration, err)
	}

	var f finderFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Selection{}, fmt.Errorf("%w: parsing finder config %s: %v", types.ErrConfiguration, path, err)
	}

	sel := Selection{
		Stocks:    sortedKeys(f.Stock),
		Expansion: sortedKeys(f.Expansion),
		Filter:    sortedKeys(f.Filter),
	}

	var missing []string
	if len(sel.Stocks) == 0 {
		missing = append(missing, "stock")
	}
	if len(sel.Expansion) == 0 {
		missing = append(missing, "expansion")
	}
	if len(missing) > 0 {
		return Selection{}, &types.ConfigError{Component: "search finder config " + path, Missing: missing}
	}
	return sel, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
