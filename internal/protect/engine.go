// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package protect

import (
	"context"
	"os"

	"github.com/pdiddy/nnaasynth/internal/container"
	"github.com/pdiddy/nnaasynth/pkg/types"
)

// Paths the resources are mounted at inside the protection container.
const (
	mountSmartsLib        = "/resources/smartslib.txt"
	mountReactionRules    = "/resources/reaction_rules.csv"
	mountProtectionGroups = "/resources/protection_groups.csv"
)

type enumerateRequest struct {
	SMILES string `json:"smiles"`
}

type enumerateResponse struct {
	Protected []types.RawCandidate `json:"protected"`
}

// ContainerEngine runs the protection engine image with the three
// resources mounted read-only.
type ContainerEngine struct {
	rt   container.Runtime
	spec container.RunSpec
}

// NewContainerEngine checks that the image is named and every resource
// file exists, reporting all problems at once, then that the image is
// present in the runtime.
func NewContainerEngine(rt container.Runtime, cfg types.ProtectionConfig) (*ContainerEngine, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	var missing []string
	if cfg.Image == "" {
		missing = append(missing, "image")
	}
	for _, f := range []struct{ key, path string }{
		{"smartslib_path", cfg.SmartsLibPath},
		{"reaction_rules_path", cfg.ReactionRulesPath},
		{"protection_groups_path", cfg.ProtectionGroupsPath},
	} {
		if _, err := os.Stat(f.path); err != nil {
			missing = append(missing, f.key+" ("+f.path+" not found)")
		}
	}
	if len(missing) > 0 {
		return nil, &types.ConfigError{Component: "protection", Missing: missing}
	}
	if err := container.CheckImage(rt, "protection", cfg.Image); err != nil {
		return nil, err
	}

	return &ContainerEngine{
		rt: rt,
		spec: container.RunSpec{
			Image: cfg.Image,
			Mounts: []container.Mount{
				{Source: cfg.SmartsLibPath, Target: mountSmartsLib},
				{Source: cfg.ReactionRulesPath, Target: mountReactionRules},
				{Source: cfg.ProtectionGroupsPath, Target: mountProtectionGroups},
			},
			Args: []string{
				"--smartslib", mountSmartsLib,
				"--reaction-rules", mountReactionRules,
				"--protection-groups", mountProtectionGroups,
			},
		},
	}, nil
}

// Enumerate sends the SMILES to the container and decodes its variants.
func (e *ContainerEngine) Enumerate(ctx context.Context, smiles string) ([]types.RawCandidate, error) {
	var resp enumerateResponse
	if err := container.RunJSON(ctx, e.rt, e.spec, enumerateRequest{SMILES: smiles}, &resp); err != nil {
		return nil, err
	}
	return resp.Protected, nil
}
