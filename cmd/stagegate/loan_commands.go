package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"stagegate/internal/api"
)

func newLoanCommand(ctx *commandContext) *cobra.Command {
	loanCmd := &cobra.Command{
		Use:   "loan",
		Short: "Inspect and manage loans",
	}

	loanCmd.AddCommand(newLoanListCommand(ctx))
	loanCmd.AddCommand(newLoanShowCommand(ctx))
	loanCmd.AddCommand(newLoanAddCommand(ctx))
	loanCmd.AddCommand(newLoanAdvanceCommand(ctx))
	loanCmd.AddCommand(newLoanHistoryCommand(ctx))

	return loanCmd
}

func newLoanListCommand(ctx *commandContext) *cobra.Command {
	var stageFilters []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List loans",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureService()
			if err != nil {
				return err
			}
			defer ctx.close()

			loans, err := svc.List(cmd.Context(), stageFilters...)
			if err != nil {
				return fmt.Errorf("list loans: %w", err)
			}
			if len(loans) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No loans found.")
				return nil
			}

			rows := make([][]string, 0, len(loans))
			for _, entry := range loans {
				rows = append(rows, []string{
					entry.ID,
					truncate(entry.Applicant, 28),
					entry.LoanType,
					formatAmount(entry.AmountCents),
					entry.CurrentStageID,
					yesNo(entry.Archived),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Applicant", "Type", "Amount", "Stage", "Archived"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&stageFilters, "stage", nil, "Only show loans at this stage (repeatable)")
	return cmd
}

func newLoanShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <loan-id>",
		Short: "Show a loan's stages, sub-tasks, and gate status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureService()
			if err != nil {
				return err
			}
			defer ctx.close()

			view, err := svc.Describe(cmd.Context(), args[0], ctx.actor())
			if err != nil {
				return fmt.Errorf("describe loan: %w", err)
			}
			if view == nil {
				return fmt.Errorf("loan %s not found", args[0])
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Loan:      %s\n", view.Loan.ID)
			fmt.Fprintf(out, "Applicant: %s\n", view.Loan.Applicant)
			fmt.Fprintf(out, "Type:      %s\n", view.Loan.LoanType)
			fmt.Fprintf(out, "Amount:    %s\n", formatAmount(view.Loan.AmountCents))
			fmt.Fprintf(out, "Stage:     %s\n", view.Loan.CurrentStageID)
			fmt.Fprintf(out, "Archived:  %s\n", yesNo(view.Loan.Archived))
			fmt.Fprintf(out, "Advance:   %s\n", advanceSummary(view))
			fmt.Fprintln(out)

			rows := make([][]string, 0, len(view.Stages)*4)
			for _, stage := range view.Stages {
				rows = append(rows, []string{
					fmt.Sprintf("%d", stage.Ordinal+1),
					stage.Title,
					"",
					stage.Status,
					"",
				})
				for _, task := range stage.SubTasks {
					required := ""
					if task.Required {
						required = "required"
					}
					rows = append(rows, []string{
						"",
						"  " + task.Title,
						task.ID,
						task.Status,
						required,
					})
				}
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Stage / Sub-task", "ID", "Status", ""},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func advanceSummary(view *api.LoanView) string {
	if view.CanAdvance {
		return "ready"
	}
	if view.Loan.Archived {
		return "complete"
	}
	if len(view.BlockedBy) > 0 {
		return "blocked by " + strings.Join(view.BlockedBy, ", ")
	}
	return "not permitted"
}

func newLoanAddCommand(ctx *commandContext) *cobra.Command {
	var loanType string
	var amount string

	cmd := &cobra.Command{
		Use:   "add <applicant>",
		Short: "Create a loan at the first catalog stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureService()
			if err != nil {
				return err
			}
			defer ctx.close()

			amountCents, err := parseAmount(amount)
			if err != nil {
				return fmt.Errorf("parse amount %q: %w", amount, err)
			}
			created, err := svc.Create(cmd.Context(), ctx.actor(), api.CreateLoanRequest{
				Applicant:   args[0],
				LoanType:    loanType,
				AmountCents: amountCents,
			})
			if err != nil {
				return fmt.Errorf("create loan: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created loan %s for %s (%s) at stage %s\n",
				created.ID, created.Applicant, formatAmount(created.AmountCents), created.CurrentStageID)
			return nil
		},
	}

	cmd.Flags().StringVar(&loanType, "type", "mortgage", "Loan type")
	cmd.Flags().StringVar(&amount, "amount", "", "Loan amount in dollars (e.g. 425000 or 425,000.50)")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newLoanAdvanceCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "advance <loan-id>",
		Short: "Advance a loan to its next stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureService()
			if err != nil {
				return err
			}
			defer ctx.close()

			updated, err := svc.Advance(cmd.Context(), args[0], ctx.actor())
			if err != nil {
				return fmt.Errorf("advance loan: %w", err)
			}
			out := cmd.OutOrStdout()
			if updated.Archived {
				fmt.Fprintf(out, "Loan %s reached %s; archived.\n", updated.ID, updated.CurrentStageID)
				return nil
			}
			fmt.Fprintf(out, "Loan %s advanced to %s\n", updated.ID, updated.CurrentStageID)
			return nil
		},
	}
}

func newLoanHistoryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "history <loan-id>",
		Short: "Show a loan's stage audit trail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureService()
			if err != nil {
				return err
			}
			defer ctx.close()

			view, err := svc.Describe(cmd.Context(), args[0], ctx.actor())
			if err != nil {
				return fmt.Errorf("describe loan: %w", err)
			}
			if view == nil {
				return fmt.Errorf("loan %s not found", args[0])
			}

			rows := make([][]string, 0, len(view.History))
			for _, entry := range view.History {
				rows = append(rows, []string{
					entry.StageID,
					entry.EnteredAt,
					dashIfEmpty(entry.ExitedAt),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Stage", "Entered", "Exited"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}
