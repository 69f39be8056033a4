package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/aiderctl/internal/aider/command"
	"github.com/Iron-Ham/aiderctl/internal/aider/launch"
	"github.com/Iron-Ham/aiderctl/internal/config"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Find a working aider installation",
	Long: `Resolve the login-shell PATH and try each aider candidate with --version,
the same way chat does before launching aider.

The candidates come from aider.candidates, or the built-in list:
  python -m aider, python3 -m aider, aider`,
	Args: cobra.NoArgs,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(cfg.Logging)
	defer func() { _ = logger.Close() }()

	out := cmd.OutOrStdout()
	runner := command.NewExecRunner()

	path := launch.NewLoginPathResolver(cfg.Aider.Shell, runner, logger.WithComponent("path")).
		ResolvePath(cmd.Context())
	fmt.Fprintln(out, "PATH:")
	for _, dir := range filepath.SplitList(path) {
		if dir != "" {
			fmt.Fprintf(out, "  %s\n", dir)
		}
	}

	candidates := cfg.Aider.Candidates
	if len(candidates) == 0 {
		candidates = command.DefaultCandidates()
	}
	fmt.Fprintf(out, "\nCandidates: %s\n", strings.Join(candidates, ", "))

	tokens, err := command.Probe(cmd.Context(), runner, path, candidates)
	if err != nil {
		return fmt.Errorf("no working aider found: %w", err)
	}
	fmt.Fprintf(out, "Using: %s\n", shellquote.Join(tokens...))
	return nil
}
