package capture

import (
	"regexp"
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// SpinnerGlyphs are the braille frames aider cycles through while busy.
const SpinnerGlyphs = "⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏"

// RepoMapPhrase is the progress message aider prints while building its
// repository map. It is normalized to RepoMapPhrase + "...".
const RepoMapPhrase = "Updating repo map"

var (
	// ansiPattern matches CSI sequences ending in erase (J, K), SGR (m)
	// or cursor save/restore (s, u).
	ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[JKmsu]`)

	// repoMapPattern also consumes an existing ellipsis so the rewrite is
	// idempotent.
	repoMapPattern = regexp.MustCompile(regexp.QuoteMeta(RepoMapPhrase) + `(?:\.\.\.)?`)

	spinnerSet = runes.Predicate(func(r rune) bool {
		return strings.ContainsRune(SpinnerGlyphs, r)
	})
)

// Normalize cleans one raw output chunk. The steps run in a fixed order:
// escape sequences are stripped, spinner glyphs removed, and the repo map
// progress phrase rewritten.
func Normalize(chunk []byte) string {
	return NormalizeString(string(chunk))
}

// NormalizeString is Normalize for text that is already a string.
func NormalizeString(s string) string {
	if s == "" {
		return s
	}
	s = ansiPattern.ReplaceAllLiteralString(s, "")
	s = removeSpinners(s)
	return repoMapPattern.ReplaceAllLiteralString(s, RepoMapPhrase+"...")
}

func removeSpinners(s string) string {
	out, _, err := transform.String(runes.Remove(spinnerSet), s)
	if err != nil {
		return s
	}
	return out
}
