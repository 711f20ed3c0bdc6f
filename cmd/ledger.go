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
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/peredisc/internal/ledger"
	"github.com/valpere/peredisc/internal/store"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Manage the phrase-pair counts that seed occurrence ledgers",
	Long: `Every scored document starts with an occurrence ledger pre-filled from
the stored phrase-pair counts of the configured language pair. A rendering
that the lexicon confirms drains one occurrence of its pair.`,
}

var ledgerSeedCount int

var ledgerSeedCmd = &cobra.Command{
	Use:   "seed <source-phrase> <target-phrase>",
	Short: "Add occurrences of a phrase pair",
	Long: `Add occurrences of a source/target phrase pair for the language pair in
lexicon.source_lang / lexicon.target_lang.

Example:
  peredisc ledger seed "while" "während" --count 3`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		sl, tl := cfg.Lexicon.SourceLang, cfg.Lexicon.TargetLang
		if err := db.AddPhraseCount(context.Background(), sl, tl, args[0], args[1], ledgerSeedCount); err != nil {
			return fmt.Errorf("failed to seed phrase pair: %w", err)
		}
		fmt.Printf("Seeded: [%s→%s] %q → %q ×%d\n", sl, tl, args[0], args[1], ledgerSeedCount)
		return nil
	},
}

var ledgerImportCmd = &cobra.Command{
	Use:   "import <pairs.csv>",
	Short: "Import phrase-pair counts from a CSV file",
	Long: `Import rows of source_phrase,target_phrase[,count] from a CSV file. A
missing count means 1. A header row whose third column is not a number is
skipped.

Example:
  peredisc ledger import pairs.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open input CSV: %w", err)
		}
		defer f.Close()

		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := importPairs(context.Background(), db, f)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d phrase pairs.\n", n)
		return nil
	},
}

func importPairs(ctx context.Context, db *store.Store, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	sl, tl := cfg.Lexicon.SourceLang, cfg.Lexicon.TargetLang
	imported := 0
	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("failed to read CSV: %w", err)
		}
		if len(record) < 2 {
			return imported, fmt.Errorf("line %d: expected at least 2 columns, got %d", line, len(record))
		}

		count := 1
		if len(record) > 2 {
			count, err = strconv.Atoi(record[2])
			if err != nil {
				if line == 1 {
					continue
				}
				return imported, fmt.Errorf("line %d: invalid count %q", line, record[2])
			}
		}
		if err := db.AddPhraseCount(ctx, sl, tl, record[0], record[1], count); err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		imported++
	}
	return imported, nil
}

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored phrase-pair counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		counts, err := db.PhraseCounts(context.Background(), cfg.Lexicon.SourceLang, cfg.Lexicon.TargetLang)
		if err != nil {
			return fmt.Errorf("failed to list phrase counts: %w", err)
		}

		if len(counts) == 0 {
			fmt.Println("No phrase pairs stored.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SOURCE\tTARGET\tCOUNT\tUPDATED")
		for _, c := range counts {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
				c.SourcePhrase, c.TargetPhrase, c.Count, c.UpdatedAt.Format("2006-01-02 15:04"))
		}
		if err := w.Flush(); err != nil {
			return err
		}

		// The seeded ledger is what every document starts from.
		l := ledger.New()
		store.Seeder(counts)(l)
		if err := l.Verify(); err != nil {
			return fmt.Errorf("seeded ledger is inconsistent: %w", err)
		}
		fmt.Printf("\n%d distinct pairs, %d occurrences.\n", l.Len(), l.Total())
		return nil
	},
}

var ledgerClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all phrase-pair counts of the language pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.ClearPhraseCounts(context.Background(), cfg.Lexicon.SourceLang, cfg.Lexicon.TargetLang)
		if err != nil {
			return fmt.Errorf("failed to clear phrase counts: %w", err)
		}
		fmt.Printf("Cleared %d phrase pairs.\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ledgerCmd)

	ledgerSeedCmd.Flags().IntVarP(&ledgerSeedCount, "count", "n", 1, "Occurrences to add")

	ledgerCmd.AddCommand(ledgerSeedCmd)
	ledgerCmd.AddCommand(ledgerImportCmd)
	ledgerCmd.AddCommand(ledgerListCmd)
	ledgerCmd.AddCommand(ledgerClearCmd)
}
