// Package config loads peredisc settings from an optional file, PEREDISC_*
// environment variables and built-in defaults.
package config

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Lexicon  LexiconConfig  `mapstructure:"lexicon"`
	Search   SearchConfig   `mapstructure:"search"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LexiconConfig selects the connective lexicon. An empty File means the
// stored lexicon for the language pair, or the built-in one when the store
// holds none.
type LexiconConfig struct {
	File       string `mapstructure:"file"`
	SourceLang string `mapstructure:"source_lang"`
	TargetLang string `mapstructure:"target_lang"`
	Mode       string `mapstructure:"mode"`
	Watch      bool   `mapstructure:"watch"`
}

// SearchConfig tunes the hill-climbing host search
type SearchConfig struct {
	MaxSteps   int   `mapstructure:"max_steps"`
	Candidates int   `mapstructure:"candidates"`
	Workers    int   `mapstructure:"workers"`
	Patience   int   `mapstructure:"patience"`
	Seed       int64 `mapstructure:"seed"`
}

// LoggingConfig contains slog settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig controls the Prometheus text file written after a run.
// Nothing is written when Textfile is empty.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: "~/.peredisc/peredisc.db",
		},
		Lexicon: LexiconConfig{
			SourceLang: "en",
			TargetLang: "de",
			Mode:       "token",
		},
		Search: SearchConfig{
			MaxSteps:   200,
			Candidates: 8,
			Workers:    4,
			Patience:   20,
			Seed:       1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
