/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/valpere/peredisc/internal/config"
	"github.com/valpere/peredisc/internal/connective"
	"github.com/valpere/peredisc/internal/lexicon"
	"github.com/valpere/peredisc/internal/logger"
	"github.com/valpere/peredisc/internal/metrics"
	"github.com/valpere/peredisc/internal/store"
)

var (
	cfgFile         string
	dbPathFlag      string
	lexiconFileFlag string
	logLevelFlag    string

	cfg *config.Config
)

// loadConfig reads the configuration, applies global flag overrides and
// sets up logging. It runs before every command.
func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if dbPathFlag != "" {
		c.Database.Path = dbPathFlag
	}
	if lexiconFileFlag != "" {
		c.Lexicon.File = lexiconFileFlag
	}
	if logLevelFlag != "" {
		c.Logging.Level = logLevelFlag
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	cfg = c

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	return nil
}

func openStore() (*store.Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// resolveLexicon picks the lexicon file if one is configured, else the
// stored lexicon of the configured language pair, else the built-in one.
func resolveLexicon(ctx context.Context, db *store.Store) (lexicon.Lexicon, string, error) {
	if cfg.Lexicon.File != "" {
		lex, err := lexicon.Load(cfg.Lexicon.File)
		return lex, cfg.Lexicon.File, err
	}

	lex, err := db.LoadLexicon(ctx, cfg.Lexicon.SourceLang, cfg.Lexicon.TargetLang, lexicon.Mode(cfg.Lexicon.Mode))
	if err != nil {
		return lexicon.Lexicon{}, "", fmt.Errorf("failed to load stored lexicon: %w", err)
	}
	if len(lex.Connectives) > 0 {
		return lex, "store", nil
	}

	lex, err = lexicon.Default()
	return lex, "built-in", err
}

// tableSource compiles the active lexicon. With lexicon.watch set the file
// is followed and edits apply to documents initialised afterwards.
func tableSource(ctx context.Context, db *store.Store) (connective.TableSource, error) {
	log := logger.WithComponent("cli")

	if cfg.Lexicon.Watch {
		w, err := lexicon.NewWatcher(cfg.Lexicon.File, nil)
		if err != nil {
			return nil, err
		}
		w.Start()
		log.Info("watching lexicon", "path", cfg.Lexicon.File, "rules", w.Table().Len())
		return w, nil
	}

	lex, origin, err := resolveLexicon(ctx, db)
	if err != nil {
		return nil, err
	}
	t, err := lexicon.Compile(lex)
	if err != nil {
		return nil, fmt.Errorf("failed to compile lexicon (%s): %w", origin, err)
	}
	log.Debug("lexicon loaded", "origin", origin, "rules", t.Len(), "mode", t.Mode())
	return connective.Static(t), nil
}

// newModel builds the connective feature, seeding every document's ledger
// from the stored phrase-pair counts of the configured language pair.
func newModel(ctx context.Context, db *store.Store, tables connective.TableSource, m *metrics.Metrics) (*connective.Model, error) {
	counts, err := db.PhraseCounts(ctx, cfg.Lexicon.SourceLang, cfg.Lexicon.TargetLang)
	if err != nil {
		return nil, fmt.Errorf("failed to load phrase counts: %w", err)
	}

	opts := []connective.Option{
		connective.WithMetrics(m),
		connective.WithLogger(logger.WithComponent("connective")),
	}
	if len(counts) > 0 {
		opts = append(opts, connective.WithSeed(store.Seeder(counts)))
	}
	return connective.NewModel(tables, opts...), nil
}

// newMetrics returns collectors on a fresh registry.
func newMetrics() (*metrics.Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return metrics.New(reg), reg
}

// writeMetrics dumps reg to the configured textfile, if any.
func writeMetrics(reg *prometheus.Registry) error {
	if cfg.Metrics.Textfile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(cfg.Metrics.Textfile, reg); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
