package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ncmirtools/internal/config"
	"ncmirtools/internal/lookup"
)

const dirNotFoundMsg = "Directory not found"

type lookupKind int

const (
	lookupMicroscopyProduct lookupKind = iota
	lookupProject
)

func newMPIDirCommand(ctx *commandContext) *cobra.Command {
	return newLookupCommand(ctx, lookupMicroscopyProduct)
}

func newProjectDirCommand(ctx *commandContext) *cobra.Command {
	return newLookupCommand(ctx, lookupProject)
}

func newLookupCommand(ctx *commandContext, kind lookupKind) *cobra.Command {
	var prefixDir string

	use, short, arg := "mpidir <mpid>", "Print the directory of a microscopy product", "microscopy product"
	if kind == lookupProject {
		use, short, arg = "projectdir <projectid>", "Print the directory of a project", "project"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long: fmt.Sprintf(`Searches the --prefixdir template for the directory of the given %s id
and prints each match on its own line. The template must contain %s,
%s, and %s in that order.

Exit codes:
  0  one or more directories found
  1  no directory found ('%s' is written to standard error)
  2  error`, arg, lookup.VolumeID, lookup.ProjectID, lookup.MPID, dirNotFoundMsg),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			template := prefixDir
			if template == "" {
				template = config.DefaultPrefixDir
				if cfg, err := ctx.ensureConfig(); err == nil {
					template = cfg.Lookup.PrefixDir
				}
			}

			finder, err := lookup.New(template, ctx.logger(cmd))
			if err != nil {
				return &exitError{code: exitUsage, err: err}
			}

			var dirs []string
			if kind == lookupProject {
				dirs, err = finder.ProjectDirs(args[0])
			} else {
				dirs, err = finder.MicroscopyProductDirs(args[0])
			}
			if err != nil {
				return &exitError{code: exitUsage, err: err}
			}
			if len(dirs) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), dirNotFoundMsg)
				return exitCode(1)
			}
			for _, dir := range dirs {
				fmt.Fprintln(cmd.OutOrStdout(), dir)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&prefixDir, "prefixdir", "", "Directory search template (default [lookup] prefixdir or the CCDB layout)")
	return cmd
}
