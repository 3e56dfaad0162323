package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"conti/internal/cli"
	"conti/internal/config"
	"conti/internal/core"
	"conti/internal/ledger"
	applog "conti/internal/log"
	"conti/internal/services"
)

var version = "dev"

// app carries the runtime every subcommand works on. Tests inject rt and
// skip the bootstrap.
type app struct {
	rt     *cli.Runtime
	owned  bool
	stderr io.Writer
}

func (a *app) household() *services.Household { return a.rt.Household }

func (a *app) names() core.Names { return a.rt.Household.Names() }

func (a *app) bootstrap(cmd *cobra.Command, _ []string) error {
	if a.rt != nil || cmd.Annotations["skipRuntime"] == "true" {
		return nil
	}
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	logger := cfg.LoggerTo(a.stderr)
	applog.SetDefault(logger)
	rt, err := cli.Bootstrap(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	a.rt, a.owned = rt, true
	return nil
}

// close releases a runtime opened by bootstrap. Injected runtimes belong to
// the caller.
func (a *app) close() error {
	if a.rt == nil || !a.owned {
		return nil
	}
	a.owned = false
	return a.rt.Close()
}

// warnOnly turns a persistence warning into a notice on stderr. The change
// is live in memory, so the command still succeeds.
func (a *app) warnOnly(err error) error {
	if ledger.IsWarning(err) {
		fmt.Fprintln(a.stderr, cli.FormatWarning("not saved to disk: "+err.Error()))
		return nil
	}
	return err
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "conti",
		Short: "Shared household ledger for two",
		Long: `conti keeps the transactions, budgets, fixed bills and settlements of a
two-person household, and works out who owes whom at the end of the month.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.bootstrap,
	}

	root.AddCommand(addCmd(a))
	root.AddCommand(quickCmd(a))
	root.AddCommand(listCmd(a))
	root.AddCommand(payCmd(a))
	root.AddCommand(unpayCmd(a))
	root.AddCommand(duplicateCmd(a))
	root.AddCommand(deleteCmd(a))
	root.AddCommand(reportCmd(a))
	root.AddCommand(budgetCmd(a))
	root.AddCommand(billsCmd(a))
	root.AddCommand(settleCmd(a))
	root.AddCommand(exportCmd(a))
	root.AddCommand(userCmd(a))
	root.AddCommand(themeCmd(a))
	root.AddCommand(serveCmd(a))
	root.AddCommand(versionCmd())
	return root
}

func main() {
	ctx, cancel := cli.SignalContext(context.Background())
	a := &app{stderr: os.Stderr}
	err := newRootCmd(a).ExecuteContext(ctx)
	cancel()
	if cerr := a.close(); cerr != nil && err == nil {
		err = cerr
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(err.Error()))
		if errors.Is(err, config.ErrInvalidConfig) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// monthFlag parses a YYYY-MM flag value, defaulting to the month of now.
func monthFlag(value string, now time.Time) (core.Month, error) {
	if strings.TrimSpace(value) == "" {
		return core.MonthOf(now), nil
	}
	return core.ParseMonth(value)
}

// dateFlag parses a YYYY-MM-DD flag value as a UTC date.
func dateFlag(value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil, fmt.Errorf("%w: %q, want YYYY-MM-DD", core.ErrInvalidDate, value)
	}
	return &t, nil
}

// personFlag resolves a member name or token; empty means unset.
func personFlag(names core.Names, value string) (core.Person, error) {
	if strings.TrimSpace(value) == "" {
		return 0, nil
	}
	return names.Parse(value)
}

func joinArgs(args []string) string { return strings.Join(args, " ") }
