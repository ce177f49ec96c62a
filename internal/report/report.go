// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders analyses as YAML, JSON, Markdown or a plain
// text table.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/nnaasynth/internal/pipeline"
	"github.com/pdiddy/nnaasynth/pkg/types"
)

// Format is a report output format.
type Format string

const (
	YAML     Format = "yaml"
	JSON     Format = "json"
	Markdown Format = "markdown"
)

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".json":
		return JSON, nil
	case ".md", ".markdown":
		return Markdown, nil
	}
	return "", fmt.Errorf("unsupported report extension %q (want .yaml, .json or .md)", filepath.Ext(path))
}

// WriteFile writes a to path in the format matching its extension.
func WriteFile(path string, a types.Analysis) error {
	f, err := FormatFor(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	if err := Write(out, f, a); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Write renders a to w.
func Write(w io.Writer, f Format, a types.Analysis) error {
	switch f {
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(&a); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(&a); err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		return nil
	case Markdown:
		_, err := io.WriteString(w, renderMarkdown(a))
		return err
	}
	return fmt.Errorf("unknown report format %q", f)
}

func renderMarkdown(a types.Analysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Synthesizability of %s\n\n", a.Query)
	if a.ID != "" {
		fmt.Fprintf(&b, "- Analysis: `%s`\n", a.ID)
	}
	if !a.StartedAt.IsZero() {
		fmt.Fprintf(&b, "- Started: %s\n", a.StartedAt.UTC().Format("2006-01-02 15:04:05 MST"))
		fmt.Fprintf(&b, "- Duration: %s\n", a.Duration().Round(100*time.Millisecond))
	}
	b.WriteString("\n")

	if len(a.Results) == 0 {
		b.WriteString("No protected variant produced a synthesis route.\n")
		return b.String()
	}

	b.WriteString("| Protection strategy | Protected amino acid | Chemformer score | Expert augmented score |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, r := range a.Results {
		expert := pipeline.FormatScore(r.ExpertAugmentedScore)
		if r.Degenerate {
			expert += " (no path)"
		}
		fmt.Fprintf(&b, "| %s | `%s` | %s | %s |\n",
			Strategy(r.ProtectionGroups), r.SMILES, pipeline.FormatScore(r.ChemformerScore), expert)
	}
	return b.String()
}

// Strategy names the protection groups of a variant, e.g. "Boc + Methyl ester".
func Strategy(groups []string) string {
	if len(groups) == 0 {
		return "none"
	}
	return strings.Join(groups, " + ")
}

// WriteTable prints results as an aligned text table.
func WriteTable(w io.Writer, results []types.SelectedResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STRATEGY\tSMILES\tROUTE\tCHEMFORMER\tEXPERT")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			Strategy(r.ProtectionGroups), r.SMILES, r.RouteIndex,
			pipeline.FormatScore(r.ChemformerScore), pipeline.FormatScore(r.ExpertAugmentedScore))
	}
	return tw.Flush()
}
