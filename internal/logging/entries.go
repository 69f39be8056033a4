package logging

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Entry is one parsed line of a JSON log file.
type Entry struct {
	Time      time.Time
	Level     string
	Message   string
	SessionID string
	Component string
	Attrs     map[string]any
}

// Filter selects entries. Zero-valued fields match everything.
type Filter struct {
	// Level keeps entries at or above this level.
	Level string
	// Since keeps entries at or after this time.
	Since time.Time
	// SessionID keeps entries from one session.
	SessionID string
	// Pattern keeps entries whose message or attributes match.
	Pattern *regexp.Regexp
}

var levelOrder = map[string]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// ReadEntries parses {logDir}/debug.log. Lines that are not valid JSON are
// skipped so a truncated tail does not hide the rest of the file.
func ReadEntries(logDir string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(logDir, LogFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var entries []Entry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		e, err := ParseEntry(line)
		if err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("error reading log file: %w", err)
	}
	return entries, nil
}

// ParseEntry decodes a single JSON log line.
func ParseEntry(line string) (Entry, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{}, fmt.Errorf("invalid JSON: %w", err)
	}

	e := Entry{Attrs: make(map[string]any)}
	for k, v := range raw {
		s, _ := v.(string)
		switch k {
		case "time":
			if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
				e.Time = t
			}
		case "level":
			e.Level = s
		case "msg":
			e.Message = s
		case "session_id":
			e.SessionID = s
		case "component":
			e.Component = s
		default:
			e.Attrs[k] = v
		}
	}
	return e, nil
}

// FilterEntries returns the entries matching f, preserving order.
func FilterEntries(entries []Entry, f Filter) []Entry {
	floor := -1
	if f.Level != "" {
		floor = levelOrder[ParseLevel(f.Level)]
	}

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if floor >= 0 && levelOrder[ParseLevel(e.Level)] < floor {
			continue
		}
		if !f.Since.IsZero() && e.Time.Before(f.Since) {
			continue
		}
		if f.SessionID != "" && e.SessionID != f.SessionID {
			continue
		}
		if f.Pattern != nil && !f.Pattern.MatchString(e.Message) && !matchAttrs(f.Pattern, e.Attrs) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func matchAttrs(re *regexp.Regexp, attrs map[string]any) bool {
	for _, v := range attrs {
		if re.MatchString(fmt.Sprint(v)) {
			return true
		}
	}
	return false
}
