// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// LogConfig holds logger settings shared by every subcommand.
type LogConfig struct {
	// Level is a logrus level name (debug, info, warn, error).
	Level string `json:"level" yaml:"level"`

	// Format selects the log formatter: text or json.
	Format string `json:"format" yaml:"format"`
}

// ImputeConfig holds settings for the imputation stage.
type ImputeConfig struct {
	// InputDir holds the per-year JSON exports (*.json, *.json.gz).
	InputDir string `json:"input_dir" yaml:"input_dir"`

	// OutputDir receives one <name>_cleaned.csv per input file.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// MaxFeatures limits the title vocabulary to the most frequent terms
	// (default 100, 0 = unlimited).
	MaxFeatures int `json:"max_features" yaml:"max_features"`

	// KeywordMinSimilarity is the lowest title similarity a keyword donor
	// may have. Zero accepts any donor.
	KeywordMinSimilarity float64 `json:"keyword_min_similarity" yaml:"keyword_min_similarity"`

	// FoldCase lowercases and trims institutions and keywords.
	FoldCase bool `json:"fold_case" yaml:"fold_case"`

	// ImputeLocations enables the City and Country passes (default true).
	ImputeLocations bool `json:"impute_locations" yaml:"impute_locations"`

	// DateLayout, when set, rewrites every parseable date in this Go time layout.
	DateLayout string `json:"date_layout,omitempty" yaml:"date_layout,omitempty"`

	// WriteXLSX also writes <name>_cleaned.xlsx next to the CSV.
	WriteXLSX bool `json:"xlsx" yaml:"xlsx"`

	// WriteReport writes <name>_report.yaml with per-pass counts.
	WriteReport bool `json:"report" yaml:"report"`
}

// CombineConfig holds settings for concatenating cleaned CSV files.
type CombineConfig struct {
	// InputDir holds the cleaned per-year CSV files.
	InputDir string `json:"input_dir" yaml:"input_dir"`

	// OutputFile is the combined, deduplicated CSV.
	OutputFile string `json:"output_file" yaml:"output_file"`

	// NormalizeTitles compares titles lowercased and stripped of punctuation
	// instead of verbatim.
	NormalizeTitles bool `json:"normalize_titles" yaml:"normalize_titles"`
}

// StoreConfig holds settings for the SQLite record store.
type StoreConfig struct {
	// DBPath is the SQLite database file (e.g. "data/index/records.db").
	DBPath string `json:"db_path" yaml:"db_path"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Log     LogConfig     `json:"log" yaml:"log"`
	Impute  ImputeConfig  `json:"impute" yaml:"impute"`
	Combine CombineConfig `json:"combine" yaml:"combine"`
	Store   StoreConfig   `json:"store" yaml:"store"`
}
