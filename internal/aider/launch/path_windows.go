//go:build windows

package launch

import (
	"strings"

	"golang.org/x/sys/windows/registry"

	"github.com/Iron-Ham/aiderctl/internal/errors"
)

// registryPath joins the user and machine Path values, user first.
func registryPath() (string, error) {
	locations := []struct {
		root registry.Key
		key  string
	}{
		{registry.CURRENT_USER, `Environment`},
		{registry.LOCAL_MACHINE, `SYSTEM\CurrentControlSet\Control\Session Manager\Environment`},
	}

	var parts []string
	for _, loc := range locations {
		k, err := registry.OpenKey(loc.root, loc.key, registry.QUERY_VALUE)
		if err != nil {
			continue
		}
		v, _, err := k.GetStringValue("Path")
		_ = k.Close()
		if err != nil || v == "" {
			continue
		}
		if expanded, err := registry.ExpandString(v); err == nil {
			v = expanded
		}
		parts = append(parts, v)
	}

	if len(parts) == 0 {
		return "", errors.New("no Path value in registry")
	}
	return strings.Join(parts, ";"), nil
}
