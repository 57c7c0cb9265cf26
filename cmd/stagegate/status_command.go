package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show store health and per-stage loan counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureService()
			if err != nil {
				return err
			}
			defer ctx.close()

			health, err := svc.Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("store health: %w", err)
			}
			counts, err := svc.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("stage counts: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Loans:    %d total, %d active, %d archived\n",
				health.Total, health.Active, health.Archived)
			fmt.Fprintf(out, "Database: %s\n", ctx.store.Path())
			if len(counts) == 0 {
				return nil
			}
			fmt.Fprintln(out)

			cat, err := ctx.ensureCatalog()
			if err != nil {
				return err
			}
			var rows [][]string
			for _, stage := range cat.All() {
				if counts[stage.ID] == 0 {
					continue
				}
				rows = append(rows, []string{stage.ID, fmt.Sprintf("%d", counts[stage.ID])})
			}
			// Stages removed from the catalog can still hold loans.
			var orphans []string
			for stageID := range counts {
				if _, err := cat.Stage(stageID); err != nil {
					orphans = append(orphans, stageID)
				}
			}
			sort.Strings(orphans)
			for _, stageID := range orphans {
				rows = append(rows, []string{stageID + " (unknown)", fmt.Sprintf("%d", counts[stageID])})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Stage", "Loans"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}
}
