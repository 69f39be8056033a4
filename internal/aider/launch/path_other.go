//go:build !windows

package launch

import "github.com/Iron-Ham/aiderctl/internal/errors"

func registryPath() (string, error) {
	return "", errors.New("registry is only available on windows")
}
