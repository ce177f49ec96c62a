// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/nnaasynth/internal/report"
	"github.com/pdiddy/nnaasynth/internal/store"
	"github.com/pdiddy/nnaasynth/pkg/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <smiles>",
	Short: "Find and score synthesis routes for a non-natural amino acid",
	Long: `Analyze enumerates protected variants of the amino acid, searches
retrosynthesis routes for the first --max-variants of them, scores every
route and prints the best route per variant.

Variants with no routes, or whose scoring fails, are reported in the log
and left out of the results. The analysis is saved to the results database
unless --no-save is given; --report writes a YAML, JSON or Markdown report
chosen by file extension.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")
	reportPath, _ := cmd.Flags().GetString("report")
	noSave, _ := cmd.Flags().GetBool("no-save")

	// Keep stdout clean for the JSON document.
	var progress io.Writer = os.Stdout
	if jsonOutput {
		progress = os.Stderr
	}

	runner, err := newRunner(cfg, progress)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := types.Analysis{ID: uuid.NewString(), Query: args[0], StartedAt: time.Now()}
	results, err := runner.Run(ctx, a.Query)
	if err != nil {
		return err
	}
	a.FinishedAt = time.Now()
	a.Results = results
	logger.Info("analysis complete",
		zap.String("id", a.ID),
		zap.Int("results", len(results)),
		zap.Duration("duration", a.Duration()))

	if !noSave {
		st, err := store.Open(cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Save(ctx, a); err != nil {
			return err
		}
	}

	if reportPath != "" {
		if err := report.WriteFile(reportPath, a); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Report written to %s\n", reportPath)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	}

	fmt.Println()
	if len(results) == 0 {
		fmt.Println("No protected variant produced a synthesis route.")
	} else if err := report.WriteTable(os.Stdout, results); err != nil {
		return err
	}
	if !noSave {
		fmt.Printf("\nSaved analysis %s\n", a.ID)
	}
	return nil
}

func init() {
	analyzeCmd.Flags().Int("max-variants", types.DefaultMaxVariants, "number of protected variants sent to route search")
	analyzeCmd.Flags().Int("concurrency", 1, "variants scored at once")
	analyzeCmd.Flags().Int("search-concurrency", 1, "route searches run at once")
	analyzeCmd.Flags().Int("route-concurrency", 1, "routes of one variant scored at once")
	analyzeCmd.Flags().Duration("search-timeout", 0, "time limit for one variant's route search (0 = none)")
	analyzeCmd.Flags().String("chemformer-url", "", "Chemformer feasibility endpoint")
	analyzeCmd.Flags().String("expert-dir", "", "directory with the expert-augmented model files")
	analyzeCmd.Flags().String("finder-config", "", "route search config listing stocks and policies")
	analyzeCmd.Flags().Bool("json", false, "print the analysis as JSON")
	analyzeCmd.Flags().String("report", "", "write a report to this path (.yaml, .json or .md)")
	analyzeCmd.Flags().Bool("no-save", false, "do not store the analysis")

	for flag, key := range map[string]string{
		"max-variants":       "pipeline.max_variants",
		"concurrency":        "pipeline.concurrency",
		"search-concurrency": "search.concurrency",
		"route-concurrency":  "pipeline.route_concurrency",
		"search-timeout":     "search.timeout",
		"chemformer-url":     "scoring.chemformer_url",
		"expert-dir":         "scoring.expert_augmented_dir",
		"finder-config":      "search.finder_config_path",
	} {
		bindFlag(analyzeCmd.Flags(), flag, key)
	}

	rootCmd.AddCommand(analyzeCmd)
}
