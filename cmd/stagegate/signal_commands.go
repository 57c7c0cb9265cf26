package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stagegate/internal/api"
)

func newSignalCommand(ctx *commandContext) *cobra.Command {
	signalCmd := &cobra.Command{
		Use:   "signal",
		Short: "Record and inspect upstream sub-task signals",
	}

	signalCmd.AddCommand(newSignalSetCommand(ctx))
	signalCmd.AddCommand(newSignalListCommand(ctx))

	return signalCmd
}

func newSignalSetCommand(ctx *commandContext) *cobra.Command {
	var detail string

	cmd := &cobra.Command{
		Use:   "set <loan-id> <subtask-id> <source> <state>",
		Short: "Record a collaborator signal for a sub-task",
		Long: "Record a collaborator signal for a sub-task. State is one of " +
			"pending, received, verified, or rejected.",
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureService()
			if err != nil {
				return err
			}
			defer ctx.close()

			req := api.SignalRequest{
				SubtaskID: args[1],
				Source:    args[2],
				State:     args[3],
				Detail:    detail,
			}
			if err := svc.RecordSignal(cmd.Context(), args[0], ctx.actor(), req); err != nil {
				return fmt.Errorf("record signal: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s from %s for %s on loan %s\n",
				args[3], args[2], args[1], args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&detail, "detail", "", "Free-form detail attached to the signal")
	return cmd
}

func newSignalListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list <loan-id>",
		Short: "List the signals recorded for a loan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureService()
			if err != nil {
				return err
			}
			defer ctx.close()

			signals, err := svc.Signals(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("list signals: %w", err)
			}
			if len(signals) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No signals recorded.")
				return nil
			}

			rows := make([][]string, 0, len(signals))
			for _, signal := range signals {
				rows = append(rows, []string{
					signal.SubtaskID,
					signal.Source,
					signal.State,
					dashIfEmpty(signal.Detail),
					signal.UpdatedAt,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Sub-task", "Source", "State", "Detail", "Updated"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}
