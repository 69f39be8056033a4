package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/Iron-Ham/aiderctl/internal/aider/detect"
	"github.com/Iron-Ham/aiderctl/internal/errors"
	"github.com/Iron-Ham/aiderctl/internal/tui"
)

// replPrompt is printed before each message is read
const replPrompt = "you> "

// runREPL reads one message per line from in and prints each reply to out.
// A signal on interrupts cancels the reply in progress; between replies it
// ends the loop. A nil interrupts channel never fires.
func runREPL(ctx context.Context, conv tui.Conversation, udiff bool, in io.Reader, out io.Writer, interrupts <-chan os.Signal) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	lines := readLines(ctx, in)

	for {
		fmt.Fprint(out, replPrompt)

		var line string
		select {
		case <-ctx.Done():
			return nil
		case <-interrupts:
			fmt.Fprintln(out)
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				return nil
			}
			line = strings.TrimSpace(l)
		}

		switch line {
		case "":
			continue
		case tui.CommandQuit:
			return nil
		case tui.CommandInterrupt:
			if err := conv.Interrupt(); err != nil {
				printError(out, err)
			}
			continue
		case tui.CommandReset:
			fmt.Fprintln(out, "Restarting aider...")
			if err := conv.Reset(ctx); err != nil {
				printError(out, err)
			}
			continue
		}

		if err := streamReply(ctx, conv, udiff, line, out, interrupts); err != nil {
			printError(out, err)
			if errors.Is(err, errors.ErrNotRunning) {
				return err
			}
		}
	}
}

func streamReply(ctx context.Context, conv tui.Conversation, udiff bool, text string, out io.Writer, interrupts <-chan os.Signal) error {
	seq, err := conv.Send(ctx, text)
	if err != nil {
		return err
	}

	deltas := tui.StreamDeltas(ctx, seq)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-interrupts:
			if err := conv.Interrupt(); err != nil {
				return err
			}
		case d, ok := <-deltas:
			if !ok {
				fmt.Fprintln(out)
				return nil
			}
			fmt.Fprint(out, detect.TrimBoundary(detect.UnescapeDelta(d), udiff, runtime.GOOS))
		}
	}
}

// readLines scans in on a goroutine so the loop can also wait for
// cancellation. The channel is closed at EOF.
func readLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

// printError labels err by severity and prefers the remediation hint for
// user-facing errors.
func printError(out io.Writer, err error) {
	label := "Error"
	if errors.GetSeverity(err) < errors.SeverityError {
		label = "Warning"
	}
	if hint := errors.Hint(err); hint != "" {
		fmt.Fprintf(out, "%s: %s\n", label, hint)
		return
	}
	fmt.Fprintf(out, "%s: %v\n", label, err)
}
