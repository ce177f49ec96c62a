// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package container

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// RunJSON encodes req as the container's stdin and decodes its stdout into
// resp. Engines print exactly one JSON document.
func RunJSON(ctx context.Context, rt Runtime, spec RunSpec, req, resp any) error {
	in, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encoding request for %s: %w", spec.Image, err)
	}

	var out bytes.Buffer
	if err := rt.Run(ctx, spec, bytes.NewReader(in), &out); err != nil {
		return err
	}

	dec := json.NewDecoder(&out)
	if err := dec.Decode(resp); err != nil {
		return fmt.Errorf("decoding %s output: %w", spec.Image, err)
	}
	return nil
}
