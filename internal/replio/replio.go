// Package replio specifies the ANSI-colored log formatter that the spec
// names as an external collaborator by interface only (spec.md §1): the
// CLI REPL depends on a Formatter to render its log lines, but the
// formatter's own implementation carries no engine semantics.
package replio

import "fmt"

// Formatter renders a log line for the REPL. Info lines and Error lines
// are distinguished so an implementation can color them differently.
type Formatter interface {
	Info(msg string) string
	Error(msg string) string
}

// ansiFormatter is the single trivial implementation the spec calls for:
// green for info, red for error, no further behavior.
type ansiFormatter struct{}

// NewANSIFormatter returns the standard ANSI-colored Formatter.
func NewANSIFormatter() Formatter {
	return ansiFormatter{}
}

func (ansiFormatter) Info(msg string) string {
	return fmt.Sprintf("\033[32m%s\033[0m", msg)
}

func (ansiFormatter) Error(msg string) string {
	return fmt.Sprintf("\033[31m%s\033[0m", msg)
}
