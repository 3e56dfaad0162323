package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"conti/internal/cli"
	"conti/internal/services"
)

func billsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bills",
		Short: "Pending payments and fixed monthly bills",
	}
	cmd.AddCommand(billsPendingCmd(a))
	cmd.AddCommand(billsFixedCmd(a))
	cmd.AddCommand(billsAddFixedCmd(a))
	cmd.AddCommand(billsRemoveFixedCmd(a))
	cmd.AddCommand(billsDueCmd(a))
	return cmd
}

func billsPendingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List unpaid transactions, earliest due first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sum := a.household().PendingBills()
			out := cmd.OutOrStdout()
			if len(sum.Bills) == 0 {
				fmt.Fprintln(out, cli.FormatSuccess("Nothing pending"))
				return nil
			}
			printTransactions(out, a, sum.Bills)
			fmt.Fprintf(out, "\n%s %s\n", cli.BoldStyle.Render("Total pending:"), sum.Total)
			return nil
		},
	}
}

func billsFixedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fixed",
		Short: "List fixed bill templates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			h := a.household()
			bills := h.Store().Snapshot().FixedBills
			out := cmd.OutOrStdout()
			if len(bills) == 0 {
				fmt.Fprintln(out, cli.SubtleStyle.Render("No fixed bills. Use 'conti bills add-fixed' to create one."))
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			headerRow(w, "ID", "Description", "Amount", "Category", "Day", "For", "Active")
			for _, f := range bills {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%t\n",
					f.ID, f.Description, f.Value, h.Catalog().CategoryName(f.CategoryID),
					f.DayOfMonth, a.names().Name(f.AssignedTo), f.Active)
			}
			return w.Flush()
		},
	}
}

func billsAddFixedCmd(a *app) *cobra.Command {
	var (
		category, account, beneficiary string
		day                            int
		inactive                       bool
	)
	cmd := &cobra.Command{
		Use:     "add-fixed <amount> <description...>",
		Short:   "Add a fixed monthly bill",
		Example: `  conti bills add-fixed 89,90 Internet --category 7 --day 10`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			who, err := personFlag(a.names(), beneficiary)
			if err != nil {
				return err
			}
			f, err := a.household().AddFixedBill(cmd.Context(), services.FixedBillInput{
				Description: joinArgs(args[1:]),
				Amount:      args[0],
				CategoryID:  category,
				AccountID:   account,
				AssignedTo:  who,
				DayOfMonth:  day,
				Inactive:    inactive,
			})
			if err := a.warnOnly(err); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Fixed bill %s of %s due on day %d [%s]",
				f.Description, f.Value, f.DayOfMonth, f.ID)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "category id")
	cmd.Flags().StringVar(&account, "account", "", "account id (default a1)")
	cmd.Flags().StringVar(&beneficiary, "for", "", "who benefits (default household)")
	cmd.Flags().IntVarP(&day, "day", "d", 1, "day of month the bill is due (1-31)")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "store the template without reminding")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func billsRemoveFixedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-fixed <id>",
		Short: "Remove a fixed bill template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			found, err := a.household().RemoveFixedBill(cmd.Context(), args[0])
			if err := a.warnOnly(err); err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("fixed bill %s not found", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Removed fixed bill "+args[0]))
			return nil
		},
	}
}

func billsDueCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "due",
		Short: "Show fixed bills and recurring transactions due now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			h := a.household()
			out := cmd.OutOrStdout()
			fixed := h.DueFixedBills()
			recurring := h.DueRecurring()
			if len(fixed) == 0 && len(recurring) == 0 {
				fmt.Fprintln(out, cli.FormatSuccess("Nothing due"))
				return nil
			}
			if len(fixed) > 0 {
				fmt.Fprintln(out, cli.FormatTitle("Fixed bills"))
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				headerRow(w, "ID", "Description", "Amount", "Due", "Recorded")
				for _, d := range fixed {
					recorded := cli.WarningStyle.Render("no")
					if d.Recorded {
						recorded = cli.SuccessStyle.Render("yes")
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
						d.Bill.ID, d.Bill.Description, d.Bill.Value, d.DueDate.Format(time.DateOnly), recorded)
				}
				_ = w.Flush()
			}
			if len(recurring) > 0 {
				if len(fixed) > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintln(out, cli.FormatTitle("Recurring"))
				printTransactions(out, a, recurring)
			}
			return nil
		},
	}
}
