// pkg/config/types.go
package config

import "time"

// Config is the root configuration structure for formsense.
// It aggregates all other specific configuration structs.
type Config struct {
	Log        LogConfig        `description:"Logging configuration" koanf:"log"`
	Matching   MatchingConfig   `description:"Matching engine configuration" koanf:"matching"`
	Classify   ClassifyConfig   `description:"Batch classification configuration" koanf:"classify"`
	Validation ValidationConfig `description:"Validation runner configuration" koanf:"validation"`
	Watch      WatchConfig      `description:"Rule file watcher configuration" koanf:"watch"`
}

// LogConfig holds logging related configuration.
type LogConfig struct {
	Level  string `description:"Log level set to formsense logs." koanf:"level" validate:"oneof=trace debug info warn warning error fatal panic disabled"`
	Format string `description:"formsense log format: json | text" koanf:"format" validate:"oneof=json text"`
	File   string `description:"Log file path" koanf:"file"` // optional
}

// MatchingConfig selects the rule data and the options passed to every inference.
type MatchingConfig struct {
	RulesFile string `description:"Matching rules file (JSON or YAML); empty uses the built-in rules" koanf:"rules_file"`
	Login     bool   `description:"Treat forms as login forms (email fields become usernames)" koanf:"login"`
	// TextCutoff bounds the related text kept for an input, in runes.
	TextCutoff int `description:"Maximum length of related container text" koanf:"text_cutoff" validate:"gte=1"`
}

// ClassifyConfig holds batch classification settings.
type ClassifyConfig struct {
	Workers int    `description:"Number of documents classified concurrently" koanf:"workers" validate:"min=1"`
	Output  string `description:"Output format: json | table" koanf:"output" validate:"oneof=json table"`
}

// ValidationConfig holds settings for the labelled-corpus validation runner.
type ValidationConfig struct {
	MinAccuracy   float64 `description:"Minimum accuracy (0..1) required for validate to succeed" koanf:"min_accuracy" validate:"gte=0,lte=1"`
	TelemetryFile string  `description:"JSONL file receiving one record per classified field" koanf:"telemetry_file"`
}

// WatchConfig holds the rule file watcher settings.
type WatchConfig struct {
	Debounce time.Duration `description:"Delay before reloading rules after a file change" koanf:"debounce" validate:"gte=0"`
}
