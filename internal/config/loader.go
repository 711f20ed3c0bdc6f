package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "PEREDISC"

// Load reads the configuration. path may be empty, in which case only
// defaults and environment overrides apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		expandedPath, err := expandPath(path)
		if err != nil {
			return nil, fmt.Errorf("failed to expand config path: %w", err)
		}
		v.SetConfigFile(expandedPath)
		if err := v.ReadInConfig(); err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("config file not found: %s", expandedPath)
			}
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("failed to expand paths: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("lexicon.file", d.Lexicon.File)
	v.SetDefault("lexicon.source_lang", d.Lexicon.SourceLang)
	v.SetDefault("lexicon.target_lang", d.Lexicon.TargetLang)
	v.SetDefault("lexicon.mode", d.Lexicon.Mode)
	v.SetDefault("lexicon.watch", d.Lexicon.Watch)
	v.SetDefault("search.max_steps", d.Search.MaxSteps)
	v.SetDefault("search.candidates", d.Search.Candidates)
	v.SetDefault("search.workers", d.Search.Workers)
	v.SetDefault("search.patience", d.Search.Patience)
	v.SetDefault("search.seed", d.Search.Seed)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("metrics.textfile", d.Metrics.Textfile)
}

// expandPath expands ~ to home directory
func expandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, path[1:]), nil
}

func (c *Config) expandPaths() error {
	var err error

	c.Database.Path, err = expandPath(c.Database.Path)
	if err != nil {
		return err
	}

	c.Lexicon.File, err = expandPath(c.Lexicon.File)
	if err != nil {
		return err
	}

	c.Metrics.Textfile, err = expandPath(c.Metrics.Textfile)
	return err
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}

	if c.Lexicon.SourceLang == "" || c.Lexicon.TargetLang == "" {
		errs = append(errs, errors.New("lexicon.source_lang and lexicon.target_lang are required"))
	}
	if c.Lexicon.Mode != "token" && c.Lexicon.Mode != "phrase" {
		errs = append(errs, fmt.Errorf("lexicon.mode must be 'token' or 'phrase', got '%s'", c.Lexicon.Mode))
	}
	if c.Lexicon.Watch && c.Lexicon.File == "" {
		errs = append(errs, errors.New("lexicon.watch requires lexicon.file"))
	}

	if c.Search.MaxSteps < 1 {
		errs = append(errs, errors.New("search.max_steps must be at least 1"))
	}
	if c.Search.Candidates < 1 {
		errs = append(errs, errors.New("search.candidates must be at least 1"))
	}
	if c.Search.Workers < 1 {
		errs = append(errs, errors.New("search.workers must be at least 1"))
	}
	if c.Search.Patience < 0 {
		errs = append(errs, errors.New("search.patience must not be negative"))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level must be debug, info, warn or error, got '%s'", c.Logging.Level))
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		errs = append(errs, fmt.Errorf("logging.format must be 'text' or 'json', got '%s'", c.Logging.Format))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// EnsureDirectories creates the database directory
func (c *Config) EnsureDirectories() error {
	dir := filepath.Dir(c.Database.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
