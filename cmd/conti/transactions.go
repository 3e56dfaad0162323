package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"conti/internal/cli"
	"conti/internal/core"
	"conti/internal/services"
)

func addCmd(a *app) *cobra.Command {
	var (
		typ, category, account, payer, beneficiary string
		date, due, recurrence                      string
		pending, recurring                         bool
		tags                                       []string
	)
	cmd := &cobra.Command{
		Use:   "add <amount> <description...>",
		Short: "Record a transaction",
		Example: `  conti add 42,50 Groceries at the market --category 2 --payer rosangela
  conti add 1200 Rent --category 4 --pending --due 2024-03-05`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := a.names()
			in := services.TransactionInput{
				Type:        core.TransactionType(strings.ToLower(typ)),
				Amount:      args[0],
				CategoryID:  category,
				AccountID:   account,
				Description: joinArgs(args[1:]),
				Recurring:   recurring,
				Recurrence:  core.Recurrence(strings.ToLower(recurrence)),
				Tags:        tags,
			}
			if pending {
				in.Status = core.Pending
			}
			var err error
			if in.PaidBy, err = personFlag(names, payer); err != nil {
				return err
			}
			if in.AssignedTo, err = personFlag(names, beneficiary); err != nil {
				return err
			}
			if in.Date, err = dateFlag(date); err != nil {
				return err
			}
			if in.DueDate, err = dateFlag(due); err != nil {
				return err
			}

			t, err := a.household().CreateTransaction(cmd.Context(), in)
			if err := a.warnOnly(err); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Added "+describe(a, t)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&typ, "type", "t", string(core.Expense), "expense or income")
	cmd.Flags().StringVarP(&category, "category", "c", "", "category id")
	cmd.Flags().StringVar(&account, "account", "", "account id (default a1)")
	cmd.Flags().StringVarP(&payer, "payer", "p", "", "who paid (default: current user)")
	cmd.Flags().StringVar(&beneficiary, "for", "", "who benefits: a member or household (default household)")
	cmd.Flags().StringVar(&date, "date", "", "transaction date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&due, "due", "", "due date YYYY-MM-DD")
	cmd.Flags().BoolVar(&pending, "pending", false, "record as not yet paid")
	cmd.Flags().BoolVar(&recurring, "recurring", false, "mark as recurring")
	cmd.Flags().StringVar(&recurrence, "every", "", "recurrence: monthly, weekly, yearly")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag, repeatable")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func quickCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "quick <text...>",
		Short:   "Record a transaction from free text",
		Example: `  conti quick 35 groceries rosangela`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.household().QuickAdd(cmd.Context(), strings.Join(args, " "))
			if err := a.warnOnly(err); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Added "+describe(a, t)))
			return nil
		},
	}
}

func listCmd(a *app) *cobra.Command {
	var (
		month, search string
		all           bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, most recent first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var m core.Month
			if !all {
				var err error
				if m, err = monthFlag(month, a.household().Now()); err != nil {
					return err
				}
			}
			txs := a.household().List(m, search)
			out := cmd.OutOrStdout()
			if len(txs) == 0 {
				fmt.Fprintln(out, cli.SubtleStyle.Render("No transactions found"))
				return nil
			}
			printTransactions(out, a, txs)
			fmt.Fprintf(out, "\n%s\n", cli.SubtleStyle.Render(fmt.Sprintf("%d transactions", len(txs))))
			return nil
		},
	}
	cmd.Flags().StringVarP(&month, "month", "m", "", "month YYYY-MM (default current)")
	cmd.Flags().StringVarP(&search, "search", "s", "", "match description, category or amount")
	cmd.Flags().BoolVar(&all, "all", false, "list every month")
	return cmd
}

func printTransactions(out io.Writer, a *app, txs []core.Transaction) {
	catalog := a.household().Catalog()
	names := a.names()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	headerRow(w, "ID", "Date", "Description", "Category", "Amount", "Status", "Paid by", "For")
	for _, t := range txs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID,
			t.Date.UTC().Format(time.DateOnly),
			t.Description,
			catalog.CategoryName(t.CategoryID),
			cli.FormatMoney(t.Value, t.Type),
			t.Status,
			names.Name(t.PaidBy),
			names.Name(t.AssignedTo),
		)
	}
	_ = w.Flush()
}

// headerRow writes styled column titles to a tabwriter.
func headerRow(w io.Writer, cols ...string) {
	cells := make([]string, len(cols))
	for i, c := range cols {
		cells[i] = cli.HeaderStyle.Render(c)
	}
	fmt.Fprintln(w, strings.Join(cells, "\t"))
}

func describe(a *app, t core.Transaction) string {
	return fmt.Sprintf("%s %s %s (%s, paid by %s) [%s]",
		t.Type, t.Value, t.Description,
		a.household().Catalog().CategoryName(t.CategoryID),
		a.names().Name(t.PaidBy), t.ID)
}

// idCmd builds the single-id commands that report whether the id existed.
func idCmd(a *app, use, short, done string, fn func(*services.Household, *cobra.Command, string) (bool, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			found, err := fn(a.household(), cmd, args[0])
			if err := a.warnOnly(err); err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("transaction %s not found", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(done+" "+args[0]))
			return nil
		},
	}
}

func payCmd(a *app) *cobra.Command {
	return idCmd(a, "pay", "Mark a transaction as paid", "Paid",
		func(h *services.Household, cmd *cobra.Command, id string) (bool, error) {
			return h.Pay(cmd.Context(), id)
		})
}

func unpayCmd(a *app) *cobra.Command {
	return idCmd(a, "unpay", "Mark a transaction as pending again", "Pending",
		func(h *services.Household, cmd *cobra.Command, id string) (bool, error) {
			return h.Unpay(cmd.Context(), id)
		})
}

func deleteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a transaction",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			found, err := a.household().Delete(cmd.Context(), args[0])
			if err := a.warnOnly(err); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !found {
				fmt.Fprintln(out, cli.SubtleStyle.Render("Nothing to delete for "+args[0]))
				return nil
			}
			fmt.Fprintln(out, cli.FormatSuccess("Deleted "+args[0]))
			return nil
		},
	}
	return cmd
}

func duplicateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate <id>",
		Short: "Copy a transaction to today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, found, err := a.household().Duplicate(cmd.Context(), args[0])
			if err := a.warnOnly(err); err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("transaction %s not found", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Added "+describe(a, t)))
			return nil
		},
	}
}
