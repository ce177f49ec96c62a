// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/nnaasynth/internal/report"
	"github.com/pdiddy/nnaasynth/internal/store"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Browse stored analyses",
	Long: `Results reads the analyses saved by analyze and serve from the local
results database.`,
}

// --- list subcommand ---

var resultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored analyses, newest first",
	RunE:  runResultsList,
}

func runResultsList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	query, _ := cmd.Flags().GetString("query")
	limit, _ := cmd.Flags().GetInt("limit")
	list, err := st.List(context.Background(), store.ListOptions{Query: query, Limit: limit})
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}

	if len(list) == 0 {
		fmt.Println("No analyses found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-19s  %-8s  %-7s  %s\n", "ID", "Started", "Duration", "Results", "Query")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	for _, a := range list {
		query := a.Query
		if len(query) > 40 {
			query = query[:37] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-36s  %-19s  %-8s  %-7d  %s\n",
			a.ID, a.StartedAt.Local().Format("2006-01-02 15:04:05"),
			a.Duration().Round(time.Second), len(a.Results), query)
	}
	fmt.Fprintf(os.Stdout, "\n%d analyses\n", len(list))
	return nil
}

// --- show subcommand ---

var resultsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one stored analysis",
	Args:  cobra.ExactArgs(1),
	RunE:  runResultsShow,
}

func runResultsShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	a, err := st.Get(context.Background(), args[0])
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	switch report.Format(format) {
	case report.YAML, report.JSON, report.Markdown:
		return report.Write(os.Stdout, report.Format(format), a)
	case "table":
		fmt.Printf("Analysis %s of %s (%s)\n\n", a.ID, a.Query, a.Duration().Round(time.Second))
		return report.WriteTable(os.Stdout, a.Results)
	}
	return fmt.Errorf("unknown format %q: want table, yaml, json or markdown", format)
}

func init() {
	resultsListCmd.Flags().String("query", "", "only analyses of this input SMILES")
	resultsListCmd.Flags().Int("limit", 20, "maximum number of analyses")
	resultsListCmd.Flags().Bool("json", false, "output as JSON")

	resultsShowCmd.Flags().String("format", "table", "output format: table, yaml, json or markdown")

	resultsCmd.AddCommand(resultsListCmd)
	resultsCmd.AddCommand(resultsShowCmd)
	rootCmd.AddCommand(resultsCmd)
}
