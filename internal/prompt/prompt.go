package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/oshokin/osx-bundler/internal/logger"
)

// Policy decides whether a destructive action may proceed.
type Policy func(ctx context.Context, question string) bool

// Yes approves every question without asking.
func Yes(context.Context, string) bool {
	return true
}

// No declines every question without asking.
func No(context.Context, string) bool {
	return false
}

// Terminal asks on out and reads answers from in. Accepted answers are
// "y", "n" and an empty line, which means yes; anything else repeats the
// question. End of input also means yes.
func Terminal(in io.Reader, out io.Writer) Policy {
	return terminal(in, out, true)
}

// Stdin returns a Terminal policy bound to the process standard streams.
// Piped answers are read like typed ones; the question is only colored
// when stdout is a terminal.
func Stdin() Policy {
	return fromFiles(os.Stdin, os.Stdout)
}

func fromFiles(in, out *os.File) Policy {
	return terminal(in, out, term.IsTerminal(int(out.Fd()))) //nolint:gosec // File descriptors fit into int.
}

func terminal(in io.Reader, out io.Writer, colored bool) Policy {
	reader := bufio.NewReader(in)

	question := color.New(color.FgYellow, color.Bold)
	if !colored {
		question.DisableColor()
	}

	return func(ctx context.Context, q string) bool {
		for {
			_, _ = question.Fprintf(out, "%s ([y]/n): ", q)

			line, err := reader.ReadString('\n')
			answer := strings.ToLower(strings.TrimSpace(line))

			switch {
			case answer == "n":
				return false
			case answer == "y", answer == "":
				if err != nil && !errors.Is(err, io.EOF) {
					logger.WarnKV(ctx, "Could not read answer, assuming yes", "error", err)
				}

				return true
			case err != nil:
				return true
			}

			_, _ = fmt.Fprintln(out)
		}
	}
}
