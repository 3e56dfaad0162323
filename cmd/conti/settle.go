package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"conti/internal/cli"
	"conti/internal/core"
	"conti/internal/settlement"
)

func settleCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settle",
		Short: "Work out and record who owes whom",
	}
	cmd.AddCommand(settleShowCmd(a))
	cmd.AddCommand(settleConfirmCmd(a))
	cmd.AddCommand(settleHistoryCmd(a))
	return cmd
}

func settleShowCmd(a *app) *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Preview the month's settlement",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := monthFlag(month, a.household().Now())
			if err != nil {
				return err
			}
			v := a.household().PreviewSettlement(m)
			names := a.names()
			out := cmd.OutOrStdout()

			var b strings.Builder
			fmt.Fprintf(&b, "%s owes: %s\n", names.A, v.Result.OwesA)
			fmt.Fprintf(&b, "%s owes: %s\n", names.B, v.Result.OwesB)
			fmt.Fprintf(&b, "Expenses counted: %d\n", v.Result.Counted)
			if !v.Recorded.IsZero() {
				fmt.Fprintf(&b, "Already recorded: %s\n", v.Recorded)
				fmt.Fprintf(&b, "Outstanding: %s\n", v.Outstanding.Describe(names))
			}
			b.WriteString(cli.BoldStyle.Render(v.Summary))
			fmt.Fprintln(out, cli.RenderBox("Settlement "+m.String(), b.String()))
			printAnomalies(out, v.Result.Anomalies)
			return nil
		},
	}
	cmd.Flags().StringVarP(&month, "month", "m", "", "month YYYY-MM (default current)")
	return cmd
}

func printAnomalies(out io.Writer, anomalies []settlement.Anomaly) {
	for _, an := range anomalies {
		fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("excluded %s: %s", an.ID, an.Reason)))
	}
}

func settleConfirmCmd(a *app) *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "confirm",
		Short: "Record the month's settlement as paid",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := monthFlag(month, a.household().Now())
			if err != nil {
				return err
			}
			rec, err := a.household().ConfirmSettlement(cmd.Context(), m)
			if err := a.warnOnly(err); err != nil {
				if errors.Is(err, settlement.ErrAnomalies) {
					printAnomalies(cmd.ErrOrStderr(), a.household().PreviewSettlement(m).Result.Anomalies)
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Recorded: %s pays %s %s for %s [%s]",
				a.names().Name(rec.From), a.names().Name(rec.To), rec.Amount, rec.Month, rec.ID)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&month, "month", "m", "", "month YYYY-MM (default current)")
	return cmd
}

func settleHistoryCmd(a *app) *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded settlements",
		RunE: func(cmd *cobra.Command, _ []string) error {
			recs := a.household().Settlements()
			if month != "" {
				m, err := core.ParseMonth(month)
				if err != nil {
					return err
				}
				recs = settlement.History(recs, m)
			}
			out := cmd.OutOrStdout()
			if len(recs) == 0 {
				fmt.Fprintln(out, cli.SubtleStyle.Render("No settlements recorded"))
				return nil
			}
			names := a.names()
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			headerRow(w, "Month", "From", "To", "Amount", "Recorded on")
			for _, s := range recs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					s.Month, names.Name(s.From), names.Name(s.To), s.Amount, s.Date.UTC().Format(time.DateOnly))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&month, "month", "m", "", "only this month YYYY-MM")
	return cmd
}
