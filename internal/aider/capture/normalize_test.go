package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "hello world", "hello world"},
		{"empty", "", ""},
		{"sgr color", "\x1b[1;32mok\x1b[0m", "ok"},
		{"erase line", "progress\x1b[2K\x1b[Kdone", "progressdone"},
		{"cursor save restore", "\x1b[s\x1b[uabc", "abc"},
		{"other csi kept", "\x1b[2Aup", "\x1b[2Aup"},
		{"spinner frames", "⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏ working", " working"},
		{"braille outside spinner set kept", "⠀⠁", "⠀⠁"},
		{"repo map gains ellipsis", "Updating repo map", "Updating repo map..."},
		{"repo map ellipsis not doubled", "Updating repo map...", "Updating repo map..."},
		{"full spinner line", "\x1b[33m⠼ Updating repo map\x1b[0m\n", " Updating repo map...\n"},
		{"prompt untouched", "done\n> ", "done\n> "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize([]byte(tt.input)))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"\x1b[32m⠋ Updating repo map\x1b[0m\nUpdating repo map...\n> ",
		"cost: $0.01 \\ tokens",
		"⠏⠏⠏",
		"",
	}

	for _, in := range inputs {
		once := NormalizeString(in)
		assert.Equal(t, once, NormalizeString(once), "normalizing %q twice changed the result", in)
	}
}
