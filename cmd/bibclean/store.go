// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/segmentio/encoding/json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/bibclean/internal/store"
	"github.com/pdiddy/bibclean/pkg/types"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the record store (ingest, query, topics, export)",
	Long: `Store keeps cleaned records in a local SQLite database. Use subcommands
to ingest CSV files, filter records, list the most frequent keywords per
institution, or export records to YAML or JSON.`,
}

// --- ingest subcommand ---

var storeIngestCmd = &cobra.Command{
	Use:   "ingest [files or directories...]",
	Short: "Load cleaned or combined CSV files into the store",
	Long: `Ingest loads each CSV file into the store. Directories are expanded to
the *.csv files they contain. Files unchanged since their last ingest are
skipped; changed files replace the records they contributed before.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStoreIngest,
}

func runStoreIngest(cmd *cobra.Command, args []string) error {
	paths, err := csvPaths(args)
	if err != nil {
		return err
	}

	s, err := store.Open(storeConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	summary, err := s.Ingest(cmd.Context(), paths, logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ingested: %d, updated: %d, skipped: %d, failed: %d (%d records)\n",
		summary.Ingested, summary.Updated, summary.Skipped, summary.Failed, summary.Records)
	if summary.Failed > 0 {
		return fmt.Errorf("%d file(s) failed ingest", summary.Failed)
	}
	return nil
}

// csvPaths expands directories in args to their *.csv files in name order.
func csvPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(arg, "*.csv"))
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", arg, err)
		}
		sort.Strings(matches)
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no .csv files found in %s", strings.Join(args, ", "))
	}
	return paths, nil
}

// --- query subcommand ---

var storeQueryCmd = &cobra.Command{
	Use:   "query [title words]",
	Short: "Filter stored records",
	Long: `Query lists stored records filtered by title substring, institution,
keyword, country, and date prefix. Filters combine with AND semantics.`,
	RunE: runStoreQuery,
}

func runStoreQuery(cmd *cobra.Command, args []string) error {
	s, err := store.Open(storeConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	entries, err := s.Query(cmd.Context(), queryOptsFromFlags(cmd, args))
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatQueryOutput(cmd.OutOrStdout(), entries, jsonOutput)
}

func formatQueryOutput(w io.Writer, entries []store.Entry, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(w, entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "%-50s  %-30s  %-30s  %s\n", "Title", "Institution", "Keywords", "Date")
	fmt.Fprintln(w, strings.Repeat("-", 125))
	for _, e := range entries {
		fmt.Fprintf(w, "%-50s  %-30s  %-30s  %s\n",
			truncate(e.Title, 50),
			truncate(strings.Join(e.Institution, "; "), 30),
			truncate(strings.Join(e.Keywords, "; "), 30),
			e.Date)
	}
	fmt.Fprintf(w, "\n%d results\n", len(entries))
	return nil
}

// --- topics subcommand ---

var storeTopicsCmd = &cobra.Command{
	Use:   "topics [institution]",
	Short: "List the most frequent keywords per institution",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStoreTopics,
}

func runStoreTopics(cmd *cobra.Command, args []string) error {
	institution := ""
	if len(args) > 0 {
		institution = args[0]
	}
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := store.Open(storeConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	topics, err := s.Topics(cmd.Context(), institution, limit)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return writeJSON(w, topics)
	}
	if len(topics) == 0 {
		fmt.Fprintln(w, "No topics found.")
		return nil
	}

	current := ""
	for _, t := range topics {
		if t.Institution != current {
			if current != "" {
				fmt.Fprintln(w)
			}
			fmt.Fprintln(w, t.Institution)
			current = t.Institution
		}
		fmt.Fprintf(w, "  %4d  %s\n", t.Count, t.Keyword)
	}
	return nil
}

// --- runs subcommand ---

var storeRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List the last ingest of every source file",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.Open(storeConfig())
		if err != nil {
			return err
		}
		defer s.Close()

		runs, err := s.Runs(cmd.Context())
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		for _, r := range runs {
			fmt.Fprintf(w, "%s  %6d  %s  %s\n", r.RunID, r.Records, r.IngestedAt, r.Source)
		}
		return nil
	},
}

// --- export subcommand ---

var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored records to YAML or JSON",
	Long: `Export writes every stored record (or a filtered subset) to a YAML or
JSON file. Supports the same filter flags as query.`,
	RunE: runStoreExport,
}

func runStoreExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	s, err := store.Open(storeConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	if output == "" {
		output = filepath.Join(filepath.Dir(storeConfig().DBPath), "export."+format)
	}
	opts := queryOptsFromFlags(cmd, args)

	switch format {
	case "yaml":
		err = s.ExportYAML(cmd.Context(), output, opts)
	case "json":
		err = s.ExportJSON(cmd.Context(), output, opts)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", output)
	return nil
}

// --- shared helpers ---

func storeConfig() types.StoreConfig {
	return types.StoreConfig{
		DBPath:     viper.GetString("store.db_path"),
		MaxResults: viper.GetInt("store.max_results"),
	}
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) store.QueryOptions {
	title, _ := cmd.Flags().GetString("title")
	if title == "" && len(args) > 0 {
		title = strings.Join(args, " ")
	}
	institution, _ := cmd.Flags().GetString("institution")
	keyword, _ := cmd.Flags().GetString("keyword")
	country, _ := cmd.Flags().GetString("country")
	date, _ := cmd.Flags().GetString("date")
	limit, _ := cmd.Flags().GetInt("limit")

	return store.QueryOptions{
		Title:       title,
		Institution: institution,
		Keyword:     keyword,
		Country:     country,
		DatePrefix:  date,
		MaxResults:  limit,
	}
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "filter by title substring")
	cmd.Flags().String("institution", "", "filter by institution")
	cmd.Flags().String("keyword", "", "filter by keyword")
	cmd.Flags().String("country", "", "filter by country")
	cmd.Flags().String("date", "", "filter by date prefix (e.g. 2018 or 2018-03)")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	storeCmd.PersistentFlags().String("db", "data/index/records.db", "SQLite database file")
	storeCmd.PersistentFlags().Int("max-results", 20, "default maximum number of query results")
	viper.BindPFlag("store.db_path", storeCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("store.max_results", storeCmd.PersistentFlags().Lookup("max-results"))

	// Query flags.
	addFilterFlags(storeQueryCmd)
	storeQueryCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	storeQueryCmd.Flags().Bool("json", false, "output results as JSON")

	// Topics flags.
	storeTopicsCmd.Flags().Int("limit", 10, "keywords per institution (0 = all)")
	storeTopicsCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	addFilterFlags(storeExportCmd)
	storeExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	storeExportCmd.Flags().String("output", "", "export file (default: export.<format> next to the database)")

	// Wire subcommands.
	storeCmd.AddCommand(storeIngestCmd)
	storeCmd.AddCommand(storeQueryCmd)
	storeCmd.AddCommand(storeTopicsCmd)
	storeCmd.AddCommand(storeRunsCmd)
	storeCmd.AddCommand(storeExportCmd)

	rootCmd.AddCommand(storeCmd)
}
