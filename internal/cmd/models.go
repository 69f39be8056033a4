package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/aiderctl/internal/aider/command"
	"github.com/Iron-Ham/aiderctl/internal/config"
	"github.com/Iron-Ham/aiderctl/internal/tui/styles"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models offered for chat",
	Long: `List the models offered for chat and how each one authenticates.

Models whose name contains "claude" use an Anthropic API key and models
containing "gpt" use an OpenAI key. Every other model is served through
the relay and needs a signed-in access token.`,
	Args: cobra.NoArgs,
	RunE: runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	out := cmd.OutOrStdout()

	for _, model := range command.ListModels() {
		marker := "  "
		if model == cfg.Aider.Model {
			marker = styles.Secondary.Render("* ")
		}
		fmt.Fprintf(out, "%s%-30s %s\n", marker, model, styles.Muted.Render(command.AuthKind(model)))
	}
	return nil
}
