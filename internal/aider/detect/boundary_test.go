package detect

import (
	"testing"
)

func TestIsBoundary(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"prompt after text", "Some text\n> ", true},
		{"no prompt", "Some text\n", false},
		{"udiff prompt", "udiff> ", true},
		{"no space after arrow", ">noSpace", false},
		{"bare arrow", ">", false},
		{"crlf prompt", "Done.\r\n> ", true},
		{"blank line before prompt", "Done.\n\n> ", true},
		{"trailing newline after prompt", "Done.\n> \n", true},
		{"arrow then text", "a > b", false},
		{"quoted line false positive", "quote:\n> \n", true},
		{"empty", "", false},
		{"startup banner", "Aider v1.0\n> ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBoundary(tt.input); got != tt.want {
				t.Errorf("IsBoundary(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestBoundaryIndex(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"abc\n> ", 4},
		{"a > b\n> ", 6},
		{"no prompt", -1},
	}

	for _, tt := range tests {
		if got := BoundaryIndex(tt.input); got != tt.want {
			t.Errorf("BoundaryIndex(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestReadyFlagAndEndMarker(t *testing.T) {
	tests := []struct {
		udiff bool
		goos  string
		flag  string
		end   string
	}{
		{false, "linux", "> ", "\n> "},
		{true, "darwin", "udiff> ", "\nudiff> "},
		{false, "windows", "> ", "\r\n> "},
		{true, "windows", "udiff> ", "\r\nudiff> "},
	}

	for _, tt := range tests {
		if got := ReadyFlag(tt.udiff); got != tt.flag {
			t.Errorf("ReadyFlag(%v) = %q, want %q", tt.udiff, got, tt.flag)
		}
		if got := EndMarker(tt.udiff, tt.goos); got != tt.end {
			t.Errorf("EndMarker(%v, %q) = %q, want %q", tt.udiff, tt.goos, got, tt.end)
		}
	}
}

func TestTrimBoundary(t *testing.T) {
	tests := []struct {
		name  string
		delta string
		udiff bool
		goos  string
		want  string
	}{
		{"udiff end marker", "--- a/x\n+++ b/x\nudiff> ", true, "linux", "--- a/x\n+++ b/x"},
		{"windows end marker", "done\r\nudiff> ", true, "windows", "done"},
		{"plain end marker", "reply\n> ", false, "linux", "reply"},
		{"marker split across deltas", "> ", true, "linux", ""},
		{"udiff label without newline", "udiff> ", true, "linux", ""},
		{"blank line before prompt", "reply\n\n> ", false, "linux", "reply\n"},
		{"no prompt", "still typing", true, "linux", "still typing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimBoundary(tt.delta, tt.udiff, tt.goos); got != tt.want {
				t.Errorf("TrimBoundary(%q) = %q, want %q", tt.delta, got, tt.want)
			}
		})
	}
}

func TestEscapeDelta(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ResponseOver},
		{"plain", "plain"},
		{"cost $5", `cost \$5`},
		{`C:\path`, `C:\\path`},
		{`\$`, `\\\$`},
		{"${x}", `\${x}`},
	}

	for _, tt := range tests {
		if got := EscapeDelta(tt.input); got != tt.want {
			t.Errorf("EscapeDelta(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestUnescapeDelta(t *testing.T) {
	inputs := []string{"plain", "cost $5", `C:\path`, `\$`, "${x}", `\\$$`}
	for _, in := range inputs {
		if got := UnescapeDelta(EscapeDelta(in)); got != in {
			t.Errorf("UnescapeDelta(EscapeDelta(%q)) = %q", in, got)
		}
	}
	if got := UnescapeDelta(ResponseOver); got != "" {
		t.Errorf("UnescapeDelta(ResponseOver) = %q, want empty", got)
	}
}
