package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"conti/internal/backup"
	"conti/internal/cli"
	"conti/internal/core"
)

func exportCmd(a *app) *cobra.Command {
	var (
		dir    string
		stdout bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON backup of the whole ledger",
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc := a.household().Export()
			if stdout {
				return doc.Encode(cmd.OutOrStdout())
			}
			if dir == "" && a.rt.Config != nil {
				dir = a.rt.Config.BackupDir
			}
			if dir == "" {
				return fmt.Errorf("no backup directory: pass --dir or set BACKUP_DIR")
			}
			path, err := backup.WriteFile(dir, doc)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Backup written to "+path))
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "output directory (default BACKUP_DIR)")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "print the document instead of writing a file")
	return cmd
}

func userCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "user [name]",
		Short: "Show or switch the current user",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h := a.household()
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				fmt.Fprintf(out, "Current user: %s\n", a.names().Name(h.Store().CurrentUser()))
				return nil
			}
			p, err := a.names().Parse(args[0])
			if err != nil {
				return err
			}
			if err := a.warnOnly(h.SetCurrentUser(cmd.Context(), p)); err != nil {
				return err
			}
			fmt.Fprintln(out, cli.FormatSuccess("Current user is now "+a.names().Name(p)))
			return nil
		},
	}
}

func themeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|dark]",
		Short:     "Show or switch the display theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(core.Light), string(core.Dark)},
		RunE: func(cmd *cobra.Command, args []string) error {
			h := a.household()
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				fmt.Fprintf(out, "Theme: %s\n", h.Store().Theme())
				return nil
			}
			th := core.Theme(strings.ToLower(args[0]))
			if err := a.warnOnly(h.SetTheme(cmd.Context(), th)); err != nil {
				return err
			}
			fmt.Fprintln(out, cli.FormatSuccess("Theme set to "+string(th)))
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the version",
		Annotations: map[string]string{"skipRuntime": "true"},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "conti %s\n", version)
		},
	}
}
