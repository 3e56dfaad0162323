package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"conti/internal/budget"
	"conti/internal/cli"
	"conti/internal/core"
	"conti/internal/report"
	"conti/internal/services"
)

func reportCmd(a *app) *cobra.Command {
	var month, user string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the month summary and spending by category",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := monthFlag(month, a.household().Now())
			if err != nil {
				return err
			}
			filter := report.All
			if user != "" {
				if filter, err = report.ParseUserFilter(a.names(), user); err != nil {
					return err
				}
			}
			rep := a.household().Report(m, filter)
			out := cmd.OutOrStdout()

			var b strings.Builder
			fmt.Fprintf(&b, "Income:        %s\n", cli.SuccessStyle.Render(rep.Summary.Income.String()))
			fmt.Fprintf(&b, "Expense:       %s\n", rep.Summary.Expense)
			fmt.Fprintf(&b, "Balance:       %s\n", cli.FormatMoney(rep.Summary.Balance, core.Expense))
			fmt.Fprintf(&b, "Daily average: %s\n", rep.DailyAverage)
			fmt.Fprintf(&b, "Transactions:  %d", rep.Count)
			fmt.Fprintln(out, cli.RenderBox(fmt.Sprintf("%s (%s)", m, filterLabel(a, filter)), b.String()))

			if len(rep.Categories) > 0 {
				fmt.Fprintln(out)
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				headerRow(w, "Category", "Total", "Share", "Count")
				for _, c := range rep.Categories {
					fmt.Fprintf(w, "%s\t%s\t%.1f%%\t%d\n", c.Name, c.Total, c.Share, c.Count)
				}
				_ = w.Flush()
			}
			for _, an := range rep.Anomalies {
				fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("skipped %s: %s", an.ID, an.Reason)))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&month, "month", "m", "", "month YYYY-MM (default current)")
	cmd.Flags().StringVarP(&user, "user", "u", "", "only transactions involving this member")
	return cmd
}

func filterLabel(a *app, f report.UserFilter) string {
	if f.IsAll() {
		return "everyone"
	}
	return a.names().Name(f.Person())
}

func budgetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Manage monthly category budgets",
	}
	cmd.AddCommand(budgetSetCmd(a))
	cmd.AddCommand(budgetStatusCmd(a))
	return cmd
}

func budgetSetCmd(a *app) *cobra.Command {
	var (
		month, owner string
		alert        int
	)
	cmd := &cobra.Command{
		Use:     "set <category-id> <limit>",
		Short:   "Set the limit for a category",
		Example: `  conti budget set 2 600 --month 2024-03 --alert 90`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := monthFlag(month, a.household().Now())
			if err != nil {
				return err
			}
			p, err := personFlag(a.names(), owner)
			if err != nil {
				return err
			}
			b, err := a.household().SetBudget(cmd.Context(), services.BudgetInput{
				Month:        m,
				CategoryID:   args[0],
				Limit:        args[1],
				Owner:        p,
				AlertPercent: alert,
			})
			if err := a.warnOnly(err); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Budget for %s in %s set to %s (alert at %d%%)",
				a.household().Catalog().CategoryName(b.CategoryID), b.Month, b.Limit, b.Alert())))
			return nil
		},
	}
	cmd.Flags().StringVarP(&month, "month", "m", "", "month YYYY-MM (default current)")
	cmd.Flags().StringVar(&owner, "owner", "", "member the budget belongs to (default household)")
	cmd.Flags().IntVar(&alert, "alert", 0, "near-limit percentage (default 80)")
	return cmd
}

func budgetStatusCmd(a *app) *cobra.Command {
	var (
		month, owner string
		all          bool
	)
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show spending against each category budget",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := monthFlag(month, a.household().Now())
			if err != nil {
				return err
			}
			p, err := personFlag(a.names(), owner)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			headerRow(w, "Category", "Spent", "Limit", "Remaining", "Used", "Level")
			statuses := a.household().BudgetStatus(m, p)
			shown := 0
			for _, st := range statuses {
				if !all && st.Level == budget.LevelNone && st.Spent.IsZero() {
					continue
				}
				shown++
				limit, remaining, used := "-", "-", "-"
				if st.Level != budget.LevelNone {
					limit, remaining = st.Limit.String(), st.Remaining.String()
					used = fmt.Sprintf("%.0f%%", st.Percent)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					st.Category.Name, st.Spent, limit, remaining, used, cli.FormatLevel(st.Level))
			}
			_ = w.Flush()
			if shown == 0 {
				fmt.Fprintln(out, cli.SubtleStyle.Render("No budgets or spending in "+m.String()))
			}
			for _, st := range budget.Alerts(statuses) {
				fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%s is %s budget (%.0f%%)", st.Category.Name, st.Level, st.Percent)))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&month, "month", "m", "", "month YYYY-MM (default current)")
	cmd.Flags().StringVar(&owner, "owner", "", "only budgets of this member")
	cmd.Flags().BoolVar(&all, "all", false, "include categories with no budget and no spending")
	return cmd
}
