// Package logx builds the charm loggers shared by every command.
package logx

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// New returns the root logger writing to w (stderr when nil). verbose
// enables debug output and caller reporting.
func New(w io.Writer, verbose bool) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		ReportCaller:    verbose,
	})
}

// Component derives a logger tagged with a component prefix ("mirror", "docs").
func Component(parent *log.Logger, name string) *log.Logger {
	if parent == nil {
		parent = log.Default()
	}
	return parent.WithPrefix(name)
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
