// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retro

import (
	"context"
	"strings"

	"github.com/pdiddy/nnaasynth/internal/container"
	"github.com/pdiddy/nnaasynth/pkg/types"
)

const mountFinderConfig = "/config/finder.yml"

type searchRequest struct {
	SMILES string `json:"smiles"`
}

// ContainerEngine runs the tree search image with the finder config
// mounted and every declared stock and policy selected.
type ContainerEngine struct {
	rt   container.Runtime
	spec container.RunSpec
	sel  Selection
}

// NewContainerEngine loads the finder config and prepares the container
// invocation.
func NewContainerEngine(rt container.Runtime, cfg types.SearchConfig) (*ContainerEngine, error) {
	sel, err := LoadFinderConfig(cfg.FinderConfigPath)
	if err != nil {
		return nil, err
	}
	if cfg.Image == "" {
		return nil, &types.ConfigError{Component: "search", Missing: []string{"image"}}
	}
	if err := container.CheckImage(rt, "search", cfg.Image); err != nil {
		return nil, err
	}

	args := []string{
		"--config", mountFinderConfig,
		"--stocks", strings.Join(sel.Stocks, ","),
		"--expansion", strings.Join(sel.Expansion, ","),
	}
	if len(sel.Filter) > 0 {
		args = append(args, "--filter", strings.Join(sel.Filter, ","))
	}

	return &ContainerEngine{
		rt: rt,
		spec: container.RunSpec{
			Image:  cfg.Image,
			Mounts: []container.Mount{{Source: cfg.FinderConfigPath, Target: mountFinderConfig}},
			Args:   args,
		},
		sel: sel,
	}, nil
}

// Selection returns the stocks and policies the engine activates.
func (e *ContainerEngine) Selection() Selection { return e.sel }

// Search runs tree search and route extraction for smiles.
func (e *ContainerEngine) Search(ctx context.Context, smiles string) (Result, error) {
	var res Result
	if err := container.RunJSON(ctx, e.rt, e.spec, searchRequest{SMILES: smiles}, &res); err != nil {
		return Result{}, err
	}
	return res, nil
}
