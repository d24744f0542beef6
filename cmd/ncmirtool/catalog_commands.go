package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ncmirtools/internal/catalog"
	"ncmirtools/internal/config"
)

const exitConfigMissing = 3

func newProjectSearchCommand(ctx *commandContext) *cobra.Command {
	var asTable bool

	cmd := &cobra.Command{
		Use:   "projectsearch <keyword>",
		Short: "Search catalog projects by name or description",
		Long: fmt.Sprintf(`Searches the [database] catalog for projects whose name or description
contains <keyword>, ignoring case. Matches are printed one per line as

  <project id>    <project name>

Exit codes:
  0  one or more projects found
  1  no project found ('%s' is written to standard error)
  2  error
  3  configuration missing or lacks a usable [database] section`, catalog.NoProjectsFoundMsg),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCatalog(cmd, ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			projects, err := store.SearchProjects(cmd.Context(), args[0])
			if err != nil {
				return &exitError{code: exitUsage, err: err}
			}
			if len(projects) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), catalog.NoProjectsFoundMsg)
				return exitCode(1)
			}

			out := cmd.OutOrStdout()
			if asTable {
				fmt.Fprintln(out, renderProjectTable(projects))
				return nil
			}
			for _, p := range projects {
				fmt.Fprintln(out, p.String())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asTable, "table", false, "Render matches as a table including descriptions")
	return cmd
}

func newMPIDInfoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "mpidinfo <mpid>",
		Short: "Show catalog details for a microscopy product",
		Long: fmt.Sprintf(`Looks up the microscopy product <mpid> in the [database] catalog and prints
its id, image basename, and notes.

Exit codes:
  0  microscopy product found
  1  not found ('%s' is written to standard error)
  2  error
  3  configuration missing or lacks a usable [database] section`, catalog.NoMicroscopyProductFoundMsg),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 32)
			if err != nil {
				return &exitError{code: exitUsage, err: fmt.Errorf("invalid microscopy product id %q: must be an integer less than 2^31", args[0])}
			}

			store, err := openCatalog(cmd, ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			mp, found, err := store.MicroscopyProduct(cmd.Context(), id)
			if err != nil {
				return &exitError{code: exitUsage, err: err}
			}
			if !found {
				fmt.Fprintln(cmd.ErrOrStderr(), catalog.NoMicroscopyProductFoundMsg)
				return exitCode(1)
			}
			fmt.Fprint(cmd.OutOrStdout(), mp.Format())
			return nil
		},
	}
}

// openCatalog loads configuration and connects to the catalog, mapping
// configuration problems to exit code 3.
func openCatalog(cmd *cobra.Command, ctx *commandContext) (*catalog.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, configExitError(cmd, err)
	}
	store, err := catalog.OpenFromConfig(cmd.Context(), cfg, ctx.logger(cmd))
	if err != nil {
		var missing *config.MissingOptionError
		if errors.As(err, &missing) {
			return nil, configExitError(cmd, err)
		}
		return nil, &exitError{code: exitUsage, err: err}
	}
	return store, nil
}

func configExitError(cmd *cobra.Command, err error) error {
	return &exitError{
		code: exitConfigMissing,
		err:  fmt.Errorf("%w\nRun %s --help for the required [database] settings, or ncmirtool config init to create a configuration file", err, cmd.CommandPath()),
	}
}
