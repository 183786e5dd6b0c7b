// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/bibclean/internal/batch"
	"github.com/pdiddy/bibclean/internal/impute"
	"github.com/pdiddy/bibclean/pkg/types"
)

var imputeCmd = &cobra.Command{
	Use:   "impute",
	Short: "Clean per-year JSON exports and fill missing fields",
	Long: `Impute reads every *.json and *.json.gz export in the input directory,
removes placeholder values, fills missing institutions from co-authors,
keywords from the most similar titles, dates from the most common date,
and cities and countries from institutions, then writes
<name>_cleaned.csv per input file.

A file that cannot be read is logged and skipped; the command exits non-zero
if any file failed.`,
	RunE: runImpute,
}

func init() {
	f := imputeCmd.Flags()
	f.String("input-dir", "data/raw", "directory of JSON exports")
	f.String("output-dir", "data/cleaned", "directory for cleaned CSV files")
	f.Int("max-features", impute.DefaultMaxFeatures, "title vocabulary size for keyword donors (0 = unlimited)")
	f.Float64("min-similarity", 0, "lowest title similarity a keyword donor may have")
	f.Bool("fold-case", false, "lowercase and trim institutions and keywords")
	f.Bool("impute-locations", true, "fill missing cities and countries from institutions")
	f.String("date-layout", "", "rewrite parseable dates in this Go time layout (e.g. 2006-01-02)")
	f.Bool("xlsx", false, "also write <name>_cleaned.xlsx")
	f.Bool("report", false, "write <name>_report.yaml with per-pass counts")

	for key, flag := range map[string]string{
		"impute.input_dir":              "input-dir",
		"impute.output_dir":             "output-dir",
		"impute.max_features":           "max-features",
		"impute.keyword_min_similarity": "min-similarity",
		"impute.fold_case":              "fold-case",
		"impute.impute_locations":       "impute-locations",
		"impute.date_layout":            "date-layout",
		"impute.xlsx":                   "xlsx",
		"impute.report":                 "report",
	} {
		viper.BindPFlag(key, f.Lookup(flag))
	}

	rootCmd.AddCommand(imputeCmd)
}

func imputeConfig() types.ImputeConfig {
	return types.ImputeConfig{
		InputDir:             viper.GetString("impute.input_dir"),
		OutputDir:            viper.GetString("impute.output_dir"),
		MaxFeatures:          viper.GetInt("impute.max_features"),
		KeywordMinSimilarity: viper.GetFloat64("impute.keyword_min_similarity"),
		FoldCase:             viper.GetBool("impute.fold_case"),
		ImputeLocations:      viper.GetBool("impute.impute_locations"),
		DateLayout:           viper.GetString("impute.date_layout"),
		WriteXLSX:            viper.GetBool("impute.xlsx"),
		WriteReport:          viper.GetBool("impute.report"),
	}
}

func runImpute(cmd *cobra.Command, args []string) error {
	cfg := imputeConfig()

	result, err := batch.Run(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, f := range result.Files {
		if f.Err != nil {
			fmt.Fprintf(out, "failed  %s: %v\n", f.Input, f.Err)
			continue
		}
		fmt.Fprintf(out, "cleaned %s -> %s\n", f.Input, f.Output)
	}
	fmt.Fprintf(out, "\nprocessed: %d, failed: %d\n", result.Processed, result.Failed)

	if result.HasFailures() {
		return fmt.Errorf("%d file(s) failed imputation", result.Failed)
	}
	return nil
}
