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
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/valpere/peredisc/internal/lexicon"
	"github.com/valpere/peredisc/internal/translator"
)

var lexiconCmd = &cobra.Command{
	Use:   "lexicon",
	Short: "Manage the connective lexicon",
	Long: `Add, list, import and export connective lexicon entries.

Each entry maps a source connective to one accepted target rendering.
Stored entries are used when no lexicon file is configured; without stored
entries the built-in English → German lexicon applies.`,
}

var (
	lexiconListSource string
	lexiconListTarget string
)

var lexiconListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored lexicon entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		// Pass empty strings to list everything; flags narrow the filter.
		entries, err := db.ListLexiconTerms(context.Background(), lexiconListSource, lexiconListTarget)
		if err != nil {
			return fmt.Errorf("failed to list lexicon: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("Lexicon is empty.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSOURCE LANG\tTARGET LANG\tCONNECTIVE\tACCEPTED")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				e.ID, e.SourceLang, e.TargetLang, e.Connective, e.Accepted)
		}
		return w.Flush()
	},
}

var lexiconAddCmd = &cobra.Command{
	Use:   "add <connective> <accepted>",
	Short: "Add an accepted rendering of a connective",
	Long: `Add an accepted target rendering for a source connective, for the
language pair in lexicon.source_lang / lexicon.target_lang.

Wrap the rendering in slashes to store a regular expression fragment.

Example:
  peredisc lexicon add "however" "indessen"
  peredisc lexicon add "while" "/[Ww]ähren(d|ddessen)/"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Reject renderings that would not compile before storing them.
		if _, err := lexicon.Compile(lexicon.Lexicon{Connectives: []lexicon.Entry{
			{Connective: args[0], Accepted: []string{args[1]}},
		}}); err != nil {
			return err
		}

		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		sl, tl := cfg.Lexicon.SourceLang, cfg.Lexicon.TargetLang
		if err := db.AddLexiconTerm(context.Background(), sl, tl, args[0], args[1]); err != nil {
			return fmt.Errorf("failed to add lexicon entry: %w", err)
		}
		fmt.Printf("Added: [%s→%s] %q → %q\n", sl, tl, args[0], args[1])
		return nil
	},
}

var lexiconDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a lexicon entry by ID",
	Long: `Delete a lexicon entry by its ID (shown in "peredisc lexicon list").

Example:
  peredisc lexicon delete lx_1234567890123456789`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.DeleteLexiconTerm(context.Background(), args[0]); err != nil {
			return fmt.Errorf("failed to delete lexicon entry: %w", err)
		}
		fmt.Printf("Deleted lexicon entry: %s\n", args[0])
		return nil
	},
}

var lexiconImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a lexicon file into the database",
	Long: `Validate a YAML, TOML or JSON lexicon file and store its entries.
Entries already stored are skipped. Pass "builtin" to import the built-in
lexicon.

Example:
  peredisc lexicon import connectives.toml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var lex lexicon.Lexicon
		var err error
		if args[0] == "builtin" {
			lex, err = lexicon.Default()
		} else {
			lex, err = lexicon.Load(args[0])
		}
		if err != nil {
			return err
		}
		if _, err := lexicon.Compile(lex); err != nil {
			return fmt.Errorf("lexicon does not compile: %w", err)
		}
		if lex.SourceLang == "" || lex.TargetLang == "" {
			return fmt.Errorf("lexicon file must set source_lang and target_lang")
		}

		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.ImportLexicon(context.Background(), lex)
		if err != nil {
			return fmt.Errorf("failed to import lexicon: %w", err)
		}
		fmt.Printf("Imported %d entries for %s→%s.\n", n, lex.SourceLang, lex.TargetLang)
		return nil
	},
}

var lexiconExportFile string

var lexiconExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the active lexicon as YAML or TOML",
	Long: `Write the lexicon that scoring would use (file, stored or built-in) to
stdout or to --output. The format follows the output file extension and
defaults to YAML.

Example:
  peredisc lexicon export -o connectives.toml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		lex, _, err := resolveLexicon(ctx, db)
		if err != nil {
			return err
		}

		data, err := encodeLexicon(lex, filepath.Ext(lexiconExportFile))
		if err != nil {
			return err
		}

		if lexiconExportFile == "" {
			_, err = os.Stdout.Write(data)
			return err
		}
		if err := os.WriteFile(lexiconExportFile, data, 0644); err != nil {
			return fmt.Errorf("failed to write lexicon: %w", err)
		}
		fmt.Printf("Lexicon written to: %s\n", lexiconExportFile)
		return nil
	},
}

func encodeLexicon(lex lexicon.Lexicon, ext string) ([]byte, error) {
	switch strings.ToLower(ext) {
	case ".toml":
		return toml.Marshal(lex)
	case "", ".yaml", ".yml":
		return yaml.Marshal(lex)
	default:
		return nil, fmt.Errorf("unsupported lexicon format: %s", ext)
	}
}

var (
	suggestServices    []string
	suggestCredentials string
	suggestEmail       string
	suggestAdd         bool
)

var lexiconSuggestCmd = &cobra.Command{
	Use:   "suggest <connective>...",
	Short: "Ask translation services for renderings missing from the lexicon",
	Long: `Translate each connective with the selected services and list the
renderings the active lexicon does not accept yet. With --add the
suggestions are stored.

Supported services: google, mymemory

Example:
  peredisc lexicon suggest however while -s google,mymemory`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		var services []translator.TranslationService
		for _, name := range suggestServices {
			switch name {
			case "google":
				services = append(services, translator.NewGoogleService())
			case "mymemory":
				services = append(services, translator.NewMyMemoryService(suggestEmail))
			default:
				fmt.Fprintf(os.Stderr, "Unknown service: %s, skipping\n", name)
			}
		}
		if len(services) == 0 {
			return fmt.Errorf("no valid services configured")
		}

		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		lex, _, err := resolveLexicon(ctx, db)
		if err != nil {
			return err
		}
		if lex.SourceLang == "" {
			lex.SourceLang = cfg.Lexicon.SourceLang
		}
		if lex.TargetLang == "" {
			lex.TargetLang = cfg.Lexicon.TargetLang
		}

		suggestions, errs := translator.Suggest(ctx, services, translator.ServiceConfig{
			Credentials: suggestCredentials,
		}, lex, args)
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", e)
		}

		if len(suggestions) == 0 {
			fmt.Println("No new renderings suggested.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CONNECTIVE\tSUGGESTED\tSERVICES\tCONFIDENCE")
		for _, s := range suggestions {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\n", s.Connective, s.Accepted, strings.Join(s.Services, ","), s.Confidence)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		if suggestAdd {
			for _, s := range suggestions {
				if err := db.AddLexiconTerm(ctx, lex.SourceLang, lex.TargetLang, s.Connective, s.Accepted); err != nil {
					return fmt.Errorf("failed to add %q: %w", s.Accepted, err)
				}
			}
			fmt.Printf("Added %d suggestions to the lexicon.\n", len(suggestions))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lexiconCmd)

	lexiconListCmd.Flags().StringVarP(&lexiconListSource, "source", "s", "", "Filter by source language code (e.g. en)")
	lexiconListCmd.Flags().StringVarP(&lexiconListTarget, "target", "t", "", "Filter by target language code (e.g. de)")

	lexiconExportCmd.Flags().StringVarP(&lexiconExportFile, "output", "o", "", "Output file (.yaml, .yml or .toml)")

	lexiconSuggestCmd.Flags().StringSliceVarP(&suggestServices, "services", "s", []string{"mymemory"}, "Services to query (google, mymemory)")
	lexiconSuggestCmd.Flags().StringVar(&suggestCredentials, "google-credentials", "", "Google Cloud credentials file")
	lexiconSuggestCmd.Flags().StringVar(&suggestEmail, "mymemory-email", "", "Email for a higher MyMemory quota")
	lexiconSuggestCmd.Flags().BoolVar(&suggestAdd, "add", false, "Store the suggestions in the lexicon")

	lexiconCmd.AddCommand(lexiconListCmd)
	lexiconCmd.AddCommand(lexiconAddCmd)
	lexiconCmd.AddCommand(lexiconDeleteCmd)
	lexiconCmd.AddCommand(lexiconImportCmd)
	lexiconCmd.AddCommand(lexiconExportCmd)
	lexiconCmd.AddCommand(lexiconSuggestCmd)
}
