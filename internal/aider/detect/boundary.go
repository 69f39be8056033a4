package detect

import (
	"regexp"
	"strings"
)

// Prompt flags printed by aider when it is waiting for input.
const (
	PlainFlag = "> "
	UdiffFlag = "udiff> "
)

// ResponseOver replaces an empty delta so consumers always receive a
// non-empty string.
const ResponseOver = "Aider response over"

var boundaryPattern = regexp.MustCompile(`>[^\S\r\n]*(?:[\r\n]|\s)*(?:\s+)(?:[\r\n]|\s)*$`)

// IsBoundary reports whether s ends with aider's prompt.
func IsBoundary(s string) bool {
	return boundaryPattern.MatchString(s)
}

// BoundaryIndex returns the offset of the prompt's '>' in s, or -1 when s
// does not end with a prompt.
func BoundaryIndex(s string) int {
	loc := boundaryPattern.FindStringIndex(s)
	if loc == nil {
		return -1
	}
	return loc[0]
}

// ReadyFlag returns the prompt aider prints in the given edit mode.
func ReadyFlag(udiff bool) string {
	if udiff {
		return UdiffFlag
	}
	return PlainFlag
}

// EndMarker returns the literal text that terminates a reply: a line
// break followed by the prompt. Windows builds of aider emit CRLF.
func EndMarker(udiff bool, goos string) string {
	nl := "\n"
	if goos == "windows" {
		nl = "\r\n"
	}
	return nl + ReadyFlag(udiff)
}

// TrimBoundary removes the trailing prompt from the final delta of a turn.
// The exact end marker is stripped when present; otherwise the delta is cut
// where the prompt starts, dropping a "udiff" label and one line break in
// front of it.
func TrimBoundary(delta string, udiff bool, goos string) string {
	if m := EndMarker(udiff, goos); strings.HasSuffix(delta, m) {
		return strings.TrimSuffix(delta, m)
	}

	i := BoundaryIndex(delta)
	if i < 0 {
		return delta
	}
	head := delta[:i]
	if udiff {
		head = strings.TrimSuffix(head, "udiff")
	}
	head = strings.TrimSuffix(head, "\n")
	return strings.TrimSuffix(head, "\r")
}

var (
	deltaEscaper   = strings.NewReplacer(`\`, `\\`, `$`, `\$`)
	deltaUnescaper = strings.NewReplacer(`\\`, `\`, `\$`, `$`)
)

// EscapeDelta escapes backslashes and dollar signs so the text survives
// being used as a template string. An empty delta becomes ResponseOver.
func EscapeDelta(s string) string {
	if s == "" {
		return ResponseOver
	}
	return deltaEscaper.Replace(s)
}

// UnescapeDelta reverses EscapeDelta for display. ResponseOver becomes "".
func UnescapeDelta(s string) string {
	if s == ResponseOver {
		return ""
	}
	return deltaUnescaper.Replace(s)
}
