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
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/peredisc/internal/connective"
	"github.com/valpere/peredisc/internal/decoder"
	"github.com/valpere/peredisc/internal/detector"
	"github.com/valpere/peredisc/internal/feature"
	"github.com/valpere/peredisc/internal/lexicon"
)

var (
	scoreCheckLang bool
	scoreDetails   bool
)

var scoreCmd = &cobra.Command{
	Use:   "score <document.yaml>",
	Short: "Score the current translation of a document",
	Long: `Print the connective score of every sentence of a document as it stands.

With --details every connective found in the source is listed with the
accepted renderings it was checked against.

Example:
  peredisc score doc.yaml --check-lang`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		doc, err := decoder.Load(args[0])
		if err != nil {
			return err
		}

		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		tables, err := tableSource(ctx, db)
		if err != nil {
			return err
		}
		model, err := newModel(ctx, db, tables, nil)
		if err != nil {
			return err
		}
		session := feature.NewSession[*connective.State](model, doc, feature.WithDocumentID(doc.ID()))

		scores := session.SentenceScores()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SENTENCE\tSCORE\tTRANSLATION")
		for i, s := range scores {
			fmt.Fprintf(w, "%d\t%+g\t%s\n", i, s, doc.TargetText(i))
		}
		if err := w.Flush(); err != nil {
			return err
		}

		var underflows int
		session.Inspect(func(s *connective.State) { underflows = s.Underflows() })
		fmt.Printf("\nTotal score: %+g (ledger underflows: %d)\n", session.Score(), underflows)

		if scoreDetails {
			var t *lexicon.Table
			session.Inspect(func(s *connective.State) { t = s.Table() })
			printDetails(doc, t)
		}
		if scoreCheckLang {
			checkLanguage(doc)
		}
		return nil
	},
}

func printDetails(doc *decoder.Document, t *lexicon.Table) {
	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SENTENCE\tPOS\tSOURCE\tTARGET\tCONNECTIVE\tDELTA")
	for i := 0; i < doc.NumSentences(); i++ {
		for _, pair := range doc.Segmentation(i) {
			res := connective.Classify(t, pair)
			for _, c := range res.Checks {
				fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%+d\n",
					i, pair.Anchor.Start+c.Position, pair.Source, pair.Target, c.Connective, checkDelta(c))
			}
		}
	}
	w.Flush()
}

func checkDelta(c connective.Check) int {
	if c.Accepted {
		return -1
	}
	return 1
}

func checkLanguage(doc *decoder.Document) {
	det, err := detector.NewFor(doc.SourceLang(), doc.TargetLang())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Language check skipped: %v\n", err)
		return
	}
	mismatches := det.CheckDocument(doc)
	if len(mismatches) == 0 {
		fmt.Println("Language check: all sentences look like", doc.TargetLang())
		return
	}
	for _, m := range mismatches {
		fmt.Fprintf(os.Stderr, "Warning: sentence %d looks like %s: %q\n", m.Sentence, m.Detected, m.Text)
	}
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().BoolVar(&scoreCheckLang, "check-lang", false, "Warn about sentences not in the document's target language")
	scoreCmd.Flags().BoolVar(&scoreDetails, "details", false, "List every connective check")
}
