package session

import (
	"context"
	"testing"

	"github.com/Iron-Ham/aiderctl/internal/errors"
	"github.com/Iron-Ham/aiderctl/internal/testutil"
)

func TestDefaultGitCheck(t *testing.T) {
	testutil.SkipIfNoGit(t)

	s := New(WithDir(t.TempDir()))

	if err := s.defaultGitCheck(context.Background(), testutil.SetupTestRepo(t)); err != nil {
		t.Errorf("defaultGitCheck(repo) error = %v, want nil", err)
	}
	if err := s.defaultGitCheck(context.Background(), t.TempDir()); !errors.Is(err, errors.ErrNotGitRepository) {
		t.Errorf("defaultGitCheck(plain dir) error = %v, want ErrNotGitRepository", err)
	}
}
