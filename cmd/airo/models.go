package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/airo/internal/config"
	"github.com/fyrsmithlabs/airo/internal/llm"
)

func newModelsCmd(global *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "Check that the configured models are installed",
		Long: `List the models installed on the ollama server and report any agent
model that is missing. Other backends are not checked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if cfg.Model.Backend != config.BackendOllama {
				fmt.Fprintf(out, "Backend %s: model availability is not checked.\n", cfg.Model.Backend)
				return nil
			}

			installed, err := llm.ListModels(cmd.Context(), nil, cfg.Model.Host)
			if err != nil {
				return fmt.Errorf("listing models on %s: %w", cfg.Model.Host, err)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "MODEL\tSIZE\tMODIFIED")
			for _, m := range installed {
				fmt.Fprintf(tw, "%s\t%.1f GB\t%s\n", m.Name, float64(m.Size)/1e9, m.ModifiedAt.Format("2006-01-02"))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			missing := llm.MissingModels(installed, roleModels(cfg.Agents)...)
			if len(missing) == 0 {
				fmt.Fprintln(out, "\n"+successStyle.Render("✓ All agent models are installed"))
				return nil
			}
			fmt.Fprintln(out, "\n"+warnStyle.Render("Missing models:"))
			for _, m := range missing {
				fmt.Fprintf(out, "  ollama pull %s\n", m)
			}
			return nil
		},
	}
}

func roleModels(a config.AgentsConfig) []string {
	return []string{a.Architect.Model, a.Coder.Model, a.Reviewer.Model, a.TestGenerator.Model}
}
