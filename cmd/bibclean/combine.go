// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/bibclean/internal/combine"
	"github.com/pdiddy/bibclean/pkg/types"
)

var combineCmd = &cobra.Command{
	Use:   "combine",
	Short: "Concatenate cleaned CSV files and drop duplicate titles",
	Long: `Combine reads every *.csv in the input directory in name order, keeps the
first record for each title, and writes one combined CSV in the same format.
Records without a title are always kept.`,
	RunE: runCombine,
}

func init() {
	f := combineCmd.Flags()
	f.String("input-dir", "data/cleaned", "directory of cleaned CSV files")
	f.String("output", "data/combined/no_dupes.csv", "combined CSV file")
	f.Bool("normalize-titles", false, "compare titles lowercased with punctuation removed")

	viper.BindPFlag("combine.input_dir", f.Lookup("input-dir"))
	viper.BindPFlag("combine.output_file", f.Lookup("output"))
	viper.BindPFlag("combine.normalize_titles", f.Lookup("normalize-titles"))

	rootCmd.AddCommand(combineCmd)
}

func combineConfig() types.CombineConfig {
	return types.CombineConfig{
		InputDir:        viper.GetString("combine.input_dir"),
		OutputFile:      viper.GetString("combine.output_file"),
		NormalizeTitles: viper.GetBool("combine.normalize_titles"),
	}
}

func runCombine(cmd *cobra.Command, args []string) error {
	cfg := combineConfig()

	summary, err := combine.Combine(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "files: %d, records: %d, duplicates: %d, written: %d -> %s\n",
		summary.Files, summary.Records, summary.Duplicates, summary.Written, cfg.OutputFile)
	if summary.HasFailures() {
		return fmt.Errorf("%d file(s) could not be read", summary.Failed)
	}
	return nil
}
