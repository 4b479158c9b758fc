package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirmer asks a yes/no question and returns the user's answer. It exists
// so that callers requiring confirmation (such as a checkout that would
// remove locally modified files) can be driven by tests without a terminal.
type Confirmer func(question string) (bool, error)

// CommandLine prompts on the command line for a yes/no answer, reading from
// in and writing the prompt (and any re-prompt) to out. A blank response is
// treated as "no".
func CommandLine(in io.Reader, out io.Writer) Confirmer {
	reader := bufio.NewReader(in)
	return func(question string) (bool, error) {
		for {
			fmt.Fprintf(out, "%s [y/N] ", question)

			line, err := reader.ReadString('\n')
			if err != nil && line == "" {
				return false, err
			}

			switch strings.ToLower(strings.TrimSpace(line)) {
			case "y", "yes":
				return true, nil
			case "", "n", "no":
				return false, nil
			default:
				fmt.Fprintln(out, "please answer 'yes' or 'no'")
			}
		}
	}
}

// Always returns a Confirmer that always answers the same way, used when
// the caller has already decided (e.g. a force flag) and no interactive
// confirmation should occur.
func Always(answer bool) Confirmer {
	return func(string) (bool, error) {
		return answer, nil
	}
}
