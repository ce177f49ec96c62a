// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scoring

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdiddy/nnaasynth/internal/container"
	"github.com/pdiddy/nnaasynth/pkg/types"
)

// Resource files expected in the expert-augmented directory.
const (
	RanksFile   = "reaction_class_ranks.csv"
	SCScoreFile = "scscore_model_1024_bits.onnx"
	DeepsetFile = "deepset_route_scoring_sdf.onnx"
)

const mountModels = "/models"

// ExpertModel computes the expert-augmented score of a route from the
// SCScore and deepset models and the reaction class ranking.
type ExpertModel interface {
	Score(ctx context.Context, route types.Route, ranks map[string]float64) (float64, error)
}

// checkExpertDir reports every missing resource file of dir at once.
func checkExpertDir(dir string) error {
	var missing []string
	for _, name := range []string{RanksFile, SCScoreFile, DeepsetFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			missing = append(missing, filepath.Join(dir, name))
		}
	}
	if len(missing) > 0 {
		return &types.ConfigError{Component: "expert-augmented scoring", Missing: missing}
	}
	return nil
}

// LoadRanks reads a reaction_class,rank_score CSV with a header row.
func LoadRanks(path string) (map[string]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening ranks table: %w", err)
	}
	defer f.Close()
	return parseRanks(f)
}

func parseRanks(r io.Reader) (map[string]float64, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading ranks header: %w", err)
	}
	classCol, rankCol := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case "reaction_class":
			classCol = i
		case "rank_score":
			rankCol = i
		}
	}
	if classCol < 0 || rankCol < 0 {
		return nil, fmt.Errorf("ranks table needs reaction_class and rank_score columns, got %v", header)
	}

	ranks := make(map[string]float64)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading ranks table: %w", err)
		}
		score, err := strconv.ParseFloat(strings.TrimSpace(rec[rankCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("ranks table line %d: bad rank_score %q", line, rec[rankCol])
		}
		ranks[rec[classCol]] = score
	}
	return ranks, nil
}

type expertRequest struct {
	Route types.Route        `json:"route"`
	Ranks map[string]float64 `json:"reaction_class_ranks"`
}

type expertResponse struct {
	Score *float64 `json:"score"`
}

// ContainerModel runs expert-augmented inference in a container with the
// resource directory mounted at /models.
type ContainerModel struct {
	rt   container.Runtime
	spec container.RunSpec
}

// NewContainerModel prepares inference runs of image over dir.
func NewContainerModel(rt container.Runtime, image, dir string) *ContainerModel {
	return &ContainerModel{
		rt: rt,
		spec: container.RunSpec{
			Image:  image,
			Mounts: []container.Mount{{Source: dir, Target: mountModels}},
			Args: []string{
				"--scscore", mountModels + "/" + SCScoreFile,
				"--deepset", mountModels + "/" + DeepsetFile,
			},
		},
	}
}

// Score runs the deepset route scorer on route.
func (m *ContainerModel) Score(ctx context.Context, route types.Route, ranks map[string]float64) (float64, error) {
	var resp expertResponse
	if err := container.RunJSON(ctx, m.rt, m.spec, expertRequest{Route: route, Ranks: ranks}, &resp); err != nil {
		return 0, err
	}
	if resp.Score == nil {
		return 0, fmt.Errorf("expert model output has no score")
	}
	return *resp.Score, nil
}
