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
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "peredisc",
	Short: "Discourse connective scoring for document-level translation search",
	Long: `Scores candidate translations of a document by how they render source
discourse connectives ("while", "however", ...) and runs a hill-climbing
search over alternative phrase translations to improve that score.

Connective renderings found in the lexicon are rewarded (-1), others are
penalised (+1). Lower scores are better.

Use "peredisc score --help" and "peredisc search --help" to get started.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (yaml, toml or json)")
	rootCmd.PersistentFlags().StringVar(&dbPathFlag, "db", "", "Database path (overrides database.path)")
	rootCmd.PersistentFlags().StringVar(&lexiconFileFlag, "lexicon", "", "Lexicon file (overrides lexicon.file)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")
}
