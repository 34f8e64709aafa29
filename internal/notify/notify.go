// Package notify is the transient-notification surface: short, non-blocking
// outcome messages, the terminal analog of a toast.
package notify

import (
	"fmt"
	"io"
)

// Notifier raises one-shot user-visible messages.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Console writes notifications to a terminal.
type Console struct {
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) Success(msg string) {
	fmt.Fprintf(c.out, "[ok] %s\n", msg)
}

func (c *Console) Error(msg string) {
	fmt.Fprintf(c.out, "[error] %s\n", msg)
}
