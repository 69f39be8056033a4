package command

import (
	"context"
	"fmt"
	"time"

	"github.com/kballard/go-shellquote"
	"golang.org/x/sync/errgroup"

	"github.com/Iron-Ham/aiderctl/internal/errors"
)

// ProbeTimeout bounds a single --version probe.
const ProbeTimeout = 15 * time.Second

// DefaultCandidates are the aider invocations tried, most preferred first.
func DefaultCandidates() []string {
	return []string{
		"python -m aider",
		"python3 -m aider",
		"aider",
	}
}

// Probe runs every candidate with --version under PATH=path and returns the
// tokens of the first candidate, in list order, that succeeds. Candidates
// are probed concurrently. An empty list means DefaultCandidates.
func Probe(ctx context.Context, runner Runner, path string, candidates []string) ([]string, error) {
	if len(candidates) == 0 {
		candidates = DefaultCandidates()
	}

	parsed := make([][]string, len(candidates))
	for i, c := range candidates {
		words, err := shellquote.Split(c)
		if err != nil || len(words) == 0 {
			return nil, errors.NewValidationError(fmt.Sprintf("invalid aider candidate: %v", err)).
				WithField("aider.candidates").
				WithValue(c)
		}
		parsed[i] = words
	}

	var env []string
	if path != "" {
		env = []string{"PATH=" + path}
	}

	ok := make([]bool, len(parsed))
	var g errgroup.Group
	for i, words := range parsed {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
			defer cancel()

			args := append(words[1:len(words):len(words)], "--version")
			if _, err := runner.Run(pctx, "", env, words[0], args...); err == nil {
				ok[i] = true
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i, found := range ok {
		if found {
			return parsed[i], nil
		}
	}
	return nil, errors.NewPreflightError(errors.StageProbe, errors.ErrExecutableNotFound)
}
