package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/aiderctl/internal/config"
	"github.com/Iron-Ham/aiderctl/internal/logging"
	"github.com/Iron-Ham/aiderctl/internal/tui/styles"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View the debug log",
	Long: `View and filter the aiderctl debug log.

Examples:
  # Show the last 50 entries
  aiderctl logs

  # Show everything from one session
  aiderctl logs -s 3f2c1d9e -n 0

  # Follow new entries
  aiderctl logs -f

  # Only warnings and errors from the last hour
  aiderctl logs --level warn --since 1h

  # Search messages and fields
  aiderctl logs --grep "exit|crash"`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

var (
	logsSessionID string
	logsTail      int
	logsFollow    bool
	logsLevel     string
	logsSince     string
	logsGrep      string
)

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().StringVarP(&logsSessionID, "session", "s", "", "Only entries from this session ID")
	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "Number of entries to show (0 for all)")
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output (like tail -f)")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Filter by minimum level (debug/info/warn/error)")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show logs since duration ago (e.g., 1h, 30m)")
	logsCmd.Flags().StringVar(&logsGrep, "grep", "", "Filter logs matching pattern (regex)")
}

var (
	logTimeStyle  = styles.Muted
	logFieldStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#22D3EE"))
)

// levelStyle returns the style for a log level
func levelStyle(level string) lipgloss.Style {
	switch logging.ParseLevel(level) {
	case logging.LevelDebug:
		return styles.Muted
	case logging.LevelWarn:
		return styles.Warning
	case logging.LevelError:
		return styles.Error
	default:
		return lipgloss.NewStyle().Foreground(styles.BlueColor)
	}
}

// formatEntry renders a log entry for terminal output
func formatEntry(e logging.Entry) string {
	var sb strings.Builder

	sb.WriteString(logTimeStyle.Render("[" + e.Time.Format("15:04:05.000") + "]"))
	sb.WriteString(" ")
	sb.WriteString(levelStyle(e.Level).Render("[" + strings.ToUpper(e.Level) + "]"))
	sb.WriteString(" ")
	sb.WriteString(e.Message)

	if e.Component != "" {
		sb.WriteString(" ")
		sb.WriteString(logFieldStyle.Render("component=" + e.Component))
	}

	keys := make([]string, 0, len(e.Attrs))
	for k := range e.Attrs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		sb.WriteString(" ")
		sb.WriteString(logFieldStyle.Render(k + "="))
		sb.WriteString(fmt.Sprint(e.Attrs[k]))
	}

	return sb.String()
}

func buildLogFilter() (logging.Filter, error) {
	f := logging.Filter{
		Level:     logsLevel,
		SessionID: logsSessionID,
	}

	if logsSince != "" {
		d, err := time.ParseDuration(logsSince)
		if err != nil {
			return f, fmt.Errorf("invalid duration format: %w", err)
		}
		f.Since = time.Now().Add(-d)
	}

	if logsGrep != "" {
		re, err := regexp.Compile(logsGrep)
		if err != nil {
			return f, fmt.Errorf("invalid grep pattern: %w", err)
		}
		f.Pattern = re
	}
	return f, nil
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	logDir := cfg.Logging.LogDir()
	logPath := filepath.Join(logDir, logging.LogFileName)
	out := cmd.OutOrStdout()

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		fmt.Fprintln(out, "No logs found.")
		fmt.Fprintln(out, "Logs are stored at:", logPath)
		return nil
	}

	filter, err := buildLogFilter()
	if err != nil {
		return err
	}

	if logsFollow {
		return followLogs(cmd.Context(), logPath, filter, out)
	}
	return displayLogs(logDir, logsTail, filter, out)
}

// displayLogs prints the last tail entries that pass filter
func displayLogs(logDir string, tail int, filter logging.Filter, out io.Writer) error {
	entries, err := logging.ReadEntries(logDir)
	if err != nil {
		return err
	}

	entries = logging.FilterEntries(entries, filter)
	if tail > 0 && len(entries) > tail {
		entries = entries[len(entries)-tail:]
	}

	for _, e := range entries {
		fmt.Fprintln(out, formatEntry(e))
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No matching log entries found.")
	}
	return nil
}

// followLogs implements tail -f behavior for the log file. The file is read
// again whenever fsnotify reports a write; a rotation reopens it.
func followLogs(ctx context.Context, logPath string, filter logging.Filter, out io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()
	if err := watcher.Add(filepath.Dir(logPath)); err != nil {
		return fmt.Errorf("failed to watch log directory: %w", err)
	}

	file, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end: %w", err)
	}

	fmt.Fprintf(out, "Following logs... (Ctrl+C to stop)\n\n")

	t := &logTail{reader: bufio.NewReader(file), filter: filter, out: out}
	target := filepath.Clean(logPath)
	for {
		if err := t.printNew(); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("log watcher failed: %w", err)
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				// Rotated: continue from the start of the new file.
				next, err := os.Open(logPath)
				if err != nil {
					continue
				}
				_ = file.Close()
				file = next
				t.reader.Reset(file)
				t.partial = ""
			}
		}
	}
}

// logTail prints entries appended to a log file. A line without its
// newline yet is kept in partial until the rest arrives.
type logTail struct {
	reader  *bufio.Reader
	partial string
	filter  logging.Filter
	out     io.Writer
}

// printNew prints every complete line currently available
func (t *logTail) printNew() error {
	for {
		chunk, err := t.reader.ReadString('\n')
		if err == io.EOF {
			t.partial += chunk
			return nil
		}
		if err != nil {
			return fmt.Errorf("error reading log file: %w", err)
		}

		line := strings.TrimSpace(t.partial + chunk)
		t.partial = ""
		if line == "" {
			continue
		}
		e, perr := logging.ParseEntry(line)
		if perr != nil {
			// Not JSON: show the raw line
			fmt.Fprintln(t.out, line)
			continue
		}
		if len(logging.FilterEntries([]logging.Entry{e}, t.filter)) == 0 {
			continue
		}
		fmt.Fprintln(t.out, formatEntry(e))
	}
}
