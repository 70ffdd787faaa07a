package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"vidinterp/internal/workflows"
)

func newWorkflowsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflows",
		Short: "Inspect workflow definitions",
	}
	cmd.AddCommand(newWorkflowsListCommand(ctx))
	cmd.AddCommand(newWorkflowsShowCommand(ctx))
	cmd.AddCommand(newWorkflowsDetectCommand(ctx))
	return cmd
}

func newWorkflowsListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available workflows",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := ctx.catalog(nil)
			if err != nil {
				return err
			}
			defs := catalog.List()
			if jsonOut {
				return writeJSON(cmd, defs)
			}

			rows := make([][]string, 0, len(defs))
			for _, def := range defs {
				settings, err := def.Settings()
				if err != nil {
					rows = append(rows, []string{def.Slug, def.Name, "-", "-", "invalid", def.Source})
					continue
				}
				rows = append(rows, []string{
					def.Slug,
					def.Name,
					strconv.FormatFloat(settings.FPS, 'g', -1, 64),
					strconv.Itoa(settings.Agents),
					settings.Focus,
					def.Source,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]column{
				{header: "Slug"},
				{header: "Name"},
				{header: "FPS", align: alignRight},
				{header: "Agents", align: alignRight},
				{header: "Focus"},
				{header: "Source", maxWidth: 48},
			}, rows))
			invalid := catalog.Invalid()
			for _, slug := range catalog.Slugs() {
				if loadErr, ok := invalid[slug]; ok {
					fmt.Fprintf(out, "warning: %s failed to load: %v\n", slug, loadErr)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newWorkflowsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "show <slug>",
		Short: "Show a workflow definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := ctx.catalog(nil)
			if err != nil {
				return err
			}
			def, err := catalog.Get(args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, def)
			}
			settings, err := def.Settings()
			if err != nil {
				return err
			}
			printWorkflow(cmd, def, settings)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newWorkflowsDetectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "detect <task>",
		Short: "Show which workflow a task description selects",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := ctx.catalog(nil)
			if err != nil {
				return err
			}
			slug := catalog.Detect(strings.Join(args, " "))
			fmt.Fprintln(cmd.OutOrStdout(), slug)
			return nil
		},
	}
}

func printWorkflow(cmd *cobra.Command, def *workflows.Definition, settings workflows.Settings) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n", def.Name, def.Slug)
	if desc := strings.TrimSpace(def.Description); desc != "" {
		fmt.Fprintf(out, "  %s\n", desc)
	}
	fmt.Fprintf(out, "Source:   %s\n", def.Source)
	fmt.Fprintf(out, "FPS:      %g\n", settings.FPS)
	fmt.Fprintf(out, "Agents:   %d\n", settings.Agents)
	fmt.Fprintf(out, "Focus:    %s\n", settings.Focus)
	fmt.Fprintf(out, "Language: %s\n", settings.LanguageOr("(default)"))
	if len(def.Triggers.Keywords) > 0 {
		fmt.Fprintf(out, "Keywords: %s\n", strings.Join(def.Triggers.Keywords, ", "))
	}
	for i, phase := range def.Phases {
		fmt.Fprintf(out, "Phase %d:  %s - %s\n", i+1, phase.Name, strings.TrimSpace(phase.Description))
	}
}
