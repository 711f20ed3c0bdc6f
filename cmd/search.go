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
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/valpere/peredisc/internal/connective"
	"github.com/valpere/peredisc/internal/decoder"
	"github.com/valpere/peredisc/internal/feature"
	"github.com/valpere/peredisc/internal/orchestrator"
	"github.com/valpere/peredisc/internal/store"
)

var (
	searchOutputFile string
	searchMaxSteps   int
	searchCandidates int
	searchWorkers    int
	searchSeed       int64
	searchPatience   int
	searchTimeout    time.Duration
	searchNoSave     bool
)

var searchCmd = &cobra.Command{
	Use:   "search <document.yaml>",
	Short: "Improve a document's connective translations by local search",
	Long: `Run a hill-climbing search over the phrase options of a document.

Each round a batch of single-phrase switches is scored in parallel and the
best one is accepted if it lowers the document score. The search stops
after --max-steps rounds, after --patience rounds without improvement, or
when --timeout expires.

The run summary is stored in the database unless --no-save is given; use
"peredisc runs list" to see past runs.

Example:
  peredisc search doc.yaml -o improved.yaml --candidates 16 --workers 4`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		applySearchFlags(cmd)

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
		m, reg := newMetrics()
		model, err := newModel(ctx, db, tables, m)
		if err != nil {
			return err
		}

		session := feature.NewSession[*connective.State](model, doc,
			feature.WithWorkers(cfg.Search.Workers),
			feature.WithMetrics(m),
			feature.WithDocumentID(doc.ID()),
		)

		o := orchestrator.New(session, doc, decoder.NewGenerator(cfg.Search.Seed), orchestrator.OrchestratorConfig{
			Timeout:    searchTimeout,
			MaxSteps:   cfg.Search.MaxSteps,
			Candidates: cfg.Search.Candidates,
			Patience:   cfg.Search.Patience,
		})

		result, err := o.Execute(ctx)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		var underflows int
		session.Inspect(func(s *connective.State) { underflows = s.Underflows() })

		fmt.Printf("Score: %+g → %+g (%d rounds, %d/%d steps accepted, %s)\n",
			result.InitialScore, result.FinalScore, result.Rounds,
			result.Accepted, result.Evaluated, result.Elapsed.Round(time.Millisecond))
		for i := 0; i < doc.NumSentences(); i++ {
			fmt.Printf("  [%d] %+g  %s\n", i, result.Sentences[i], doc.TargetText(i))
		}

		if !searchNoSave {
			id, err := db.SaveRun(ctx, store.Run{
				DocumentID:   doc.ID(),
				SourceLang:   doc.SourceLang(),
				TargetLang:   doc.TargetLang(),
				InitialScore: result.InitialScore,
				FinalScore:   result.FinalScore,
				Steps:        result.Rounds,
				Accepted:     result.Accepted,
				Underflows:   underflows,
				Sentences:    result.Sentences,
			})
			if err != nil {
				return fmt.Errorf("failed to save run: %w", err)
			}
			fmt.Printf("Run ID: %s\n", id)
		}

		if searchOutputFile != "" {
			if err := writeDocument(doc, searchOutputFile); err != nil {
				return err
			}
			fmt.Printf("Output written to: %s\n", searchOutputFile)
		}

		return writeMetrics(reg)
	},
}

// applySearchFlags lets explicitly set flags override the config file.
func applySearchFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("max-steps") {
		cfg.Search.MaxSteps = searchMaxSteps
	}
	if flags.Changed("candidates") {
		cfg.Search.Candidates = searchCandidates
	}
	if flags.Changed("workers") {
		cfg.Search.Workers = searchWorkers
	}
	if flags.Changed("seed") {
		cfg.Search.Seed = searchSeed
	}
	if flags.Changed("patience") {
		cfg.Search.Patience = searchPatience
	}
}

func writeDocument(doc *decoder.Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := doc.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVarP(&searchOutputFile, "output", "o", "", "Write the improved document to this file")
	searchCmd.Flags().IntVar(&searchMaxSteps, "max-steps", 200, "Maximum search rounds")
	searchCmd.Flags().IntVar(&searchCandidates, "candidates", 8, "Steps evaluated per round")
	searchCmd.Flags().IntVar(&searchWorkers, "workers", 4, "Parallel candidate evaluations")
	searchCmd.Flags().Int64Var(&searchSeed, "seed", 1, "Random seed for step generation")
	searchCmd.Flags().IntVar(&searchPatience, "patience", 20, "Rounds without improvement before stopping")
	searchCmd.Flags().DurationVar(&searchTimeout, "timeout", 0, "Stop searching after this long (0 = no limit)")
	searchCmd.Flags().BoolVar(&searchNoSave, "no-save", false, "Do not store the run summary")
}
