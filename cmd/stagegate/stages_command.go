package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStagesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stages",
		Short: "Show the stage catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := ctx.ensureCatalog()
			if err != nil {
				return err
			}
			defer ctx.close()

			var rows [][]string
			for _, stage := range cat.All() {
				rows = append(rows, []string{
					fmt.Sprintf("%d", stage.Ordinal+1),
					stage.ID,
					stage.Title,
					"",
					"",
				})
				for _, task := range stage.SubTasks {
					rows = append(rows, []string{
						"",
						"  " + task.ID,
						task.Title,
						yesNo(task.Required),
						joinSources(task.Sources),
					})
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"#", "ID", "Title", "Required", "Sources"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func joinSources(sources []string) string {
	if len(sources) == 0 {
		return "-"
	}
	out := sources[0]
	for _, source := range sources[1:] {
		out += ", " + source
	}
	return out
}
