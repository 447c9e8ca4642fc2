package transactor

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// TerminalConfirmer asks a yes/no question on a terminal.
type TerminalConfirmer struct {
	In  io.Reader
	Out io.Writer
}

// Confirm prints the prompt and returns true only for "y" or "yes".
// End of input counts as a refusal.
func (c *TerminalConfirmer) Confirm(prompt string) (bool, error) {
	fmt.Fprintf(c.Out, "%s %s ", prompt, color.YellowString("[y/N]"))

	line, err := bufio.NewReader(c.In).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		fmt.Fprintln(c.Out, color.RedString("Aborted."))
		return false, nil
	}
}

// ConfirmFunc adapts a function to interfaces.Confirmer.
type ConfirmFunc func(prompt string) (bool, error)

func (f ConfirmFunc) Confirm(prompt string) (bool, error) {
	return f(prompt)
}
