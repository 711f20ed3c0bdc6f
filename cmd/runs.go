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
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect stored search runs",
}

var runsListDocument string

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List search runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.ListRuns(context.Background(), runsListDocument)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}

		if len(runs) == 0 {
			fmt.Println("No runs stored.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDOCUMENT\tLANGS\tINITIAL\tFINAL\tROUNDS\tACCEPTED\tUNDERFLOWS\tCREATED")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s→%s\t%+g\t%+g\t%d\t%d\t%d\t%s\n",
				r.ID, r.DocumentID, r.SourceLang, r.TargetLang,
				r.InitialScore, r.FinalScore, r.Steps, r.Accepted, r.Underflows,
				r.CreatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a run with its per-sentence scores",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		r, err := db.GetRun(context.Background(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Run:        %s\n", r.ID)
		fmt.Printf("Document:   %s (%s→%s)\n", r.DocumentID, r.SourceLang, r.TargetLang)
		fmt.Printf("Score:      %+g → %+g\n", r.InitialScore, r.FinalScore)
		fmt.Printf("Rounds:     %d (%d accepted)\n", r.Steps, r.Accepted)
		fmt.Printf("Underflows: %d\n", r.Underflows)
		fmt.Printf("Created:    %s\n", r.CreatedAt.Format("2006-01-02 15:04:05"))
		for i, s := range r.Sentences {
			fmt.Printf("  [%d] %+g\n", i, s)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsListCmd.Flags().StringVarP(&runsListDocument, "document", "d", "", "Filter by document ID")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
}
