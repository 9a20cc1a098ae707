package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jask/panels/internal/database"
	"github.com/jask/panels/internal/export"
	"github.com/jask/panels/internal/resolver"
	"github.com/jask/panels/internal/tui"
)

var openType string

var openCmd = &cobra.Command{
	Use:   "open [id]",
	Short: "Open a panel in the terminal UI",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := ""
		if len(args) == 1 {
			id = args[0]
		}
		return runOpen(cmd.Context(), id, openType)
	},
}

func runOpen(ctx context.Context, id, newType string) error {
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.Close()
	if id == "" {
		id = e.cfg.UI.Root
	}
	if _, err := e.eng.OpenView(ctx, id, newType); err != nil {
		return err
	}
	app := tui.New(ctx, e.eng, e.log.Named("tui"))
	_, err = tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

var createCmd = &cobra.Command{
	Use:   "create <type> [id]",
	Short: "Create a panel; prints its id",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()
		id := uuid.NewString()
		if len(args) == 2 {
			id = args[1]
		}
		if err := e.store.Create(cmd.Context(), id, args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

var pathsCmd = &cobra.Command{
	Use:   "paths <root> <target>",
	Short: "List every place target appears under root",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()
		r := resolver.New(e.store, e.cfg.Resolver.MaxDepth, e.log.Named("resolver"))
		res, err := r.FindPaths(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		for _, p := range res.Paths {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		if res.Cutoffs > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "%d branch(es) cut by the cycle or depth guard\n", res.Cutoffs)
		}
		return nil
	},
}

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List panel types",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, tag := range e.types.Tags() {
			t, _ := e.types.Lookup(tag)
			creatable := "-"
			if t.UserCreatable {
				creatable = "create"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", tag, creatable, t.Description)
		}
		return w.Flush()
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Print a panel subtree as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()
		tree, err := export.Tree(cmd.Context(), e.store, e.types, args[0], e.cfg.Resolver.MaxDepth)
		if err != nil {
			return err
		}
		return export.YAML(cmd.OutOrStdout(), tree)
	},
}

var generateMonthCmd = &cobra.Command{
	Use:   "generate-month <calendar>",
	Short: "Fill a calendar with one panel per day of its month",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()
		if _, err := e.eng.GenerateMonth(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "generated %s\n", args[0])
		return nil
	},
}

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every panel (keeps the schema)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetYes {
			return fmt.Errorf("refusing to reset without --yes")
		}
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()
		if err := e.store.Reset(cmd.Context()); err != nil {
			return err
		}
		return database.SeedDefaults(cmd.Context(), e.store, e.cfg.UI.Root)
	},
}
