package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		return fmt.Sprintf(colorString, text)
	}
}

// Console writes user facing messages. Lines from concurrent goroutines are
// never interleaved.
type Console struct {
	mu    sync.Mutex
	out   io.Writer
	color bool
}

// NewConsole creates a console writing to out
func NewConsole(out io.Writer, color bool) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{out: out, color: color}
}

var defaultConsole = NewConsole(os.Stdout, true)

// DefaultConsole returns the stdout console used by the Print functions
func DefaultConsole() *Console {
	return defaultConsole
}

func (c *Console) paint(fn func(string) string, s string) string {
	if !c.color {
		return s
	}
	return fn(s)
}

// Printf writes a formatted message without a color
func (c *Console) Printf(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

// Error prints an error message in red
func (c *Console) Error(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	c.Printf("%s\n", c.paint(Red, msg))
}

// Success prints a success message in green
func (c *Console) Success(msg string) {
	c.Printf("%s\n", c.paint(Green, msg))
}

// Info prints a label and its value
func (c *Console) Info(label, value string) {
	c.Printf("%s: %s\n", c.paint(Cyan, label), c.paint(Yellow, value))
}

// Warning prints a warning message in yellow
func (c *Console) Warning(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	c.Printf("%s\n", c.paint(Yellow, msg))
}

// Highlight prints a message in magenta
func (c *Console) Highlight(msg string) {
	c.Printf("%s\n", c.paint(Magenta, msg))
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) { defaultConsole.Error(msg, args...) }

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) { defaultConsole.Success(msg) }

// PrintInfo prints an info message in cyan
func PrintInfo(label string, value string) { defaultConsole.Info(label, value) }

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) { defaultConsole.Warning(msg, args...) }

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) { defaultConsole.Highlight(msg) }
