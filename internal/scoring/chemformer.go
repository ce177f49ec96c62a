// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/pdiddy/nnaasynth/internal/httputil"
	"github.com/pdiddy/nnaasynth/pkg/types"
)

type feasibilityRequest struct {
	Reactions []feasibilityReaction `json:"reactions"`
}

type feasibilityReaction struct {
	Reactants string `json:"reactants"`
	Product   string `json:"product"`
	Class     string `json:"class,omitempty"`
}

type feasibilityResponse struct {
	Feasibility []float64 `json:"feasibility"`
}

// chemformerClient asks the Chemformer service for per-reaction
// feasibility probabilities.
type chemformerClient struct {
	url        string
	apiKey     string
	userAgent  string
	maxRetries int
	client     *http.Client
	limiter    *rate.Limiter
}

func newChemformerClient(cfg types.ScoringConfig, client *http.Client) *chemformerClient {
	c := &chemformerClient{
		url:        cfg.ChemformerURL,
		apiKey:     cfg.APIKey,
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
		client:     client,
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c
}

// feasibility returns one probability per reaction, in order.
func (c *chemformerClient) feasibility(ctx context.Context, reactions []Reaction) ([]float64, error) {
	body := feasibilityRequest{Reactions: make([]feasibilityReaction, len(reactions))}
	for i, r := range reactions {
		body.Reactions[i] = feasibilityReaction{
			Reactants: strings.Join(r.Reactants, "."),
			Product:   r.Product,
			Class:     r.Class,
		}
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding chemformer request: %w", err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating chemformer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := httputil.DoWithRetry(ctx, c.client, req, c.maxRetries)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: chemformer at %s: %v", types.ErrServiceUnavailable, c.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: chemformer returned HTTP %d", types.ErrServiceUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("chemformer returned HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var fr feasibilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		return nil, fmt.Errorf("parsing chemformer response: %w", err)
	}
	if len(fr.Feasibility) != len(reactions) {
		return nil, fmt.Errorf("chemformer returned %d feasibilities for %d reactions",
			len(fr.Feasibility), len(reactions))
	}
	return fr.Feasibility, nil
}
