package hfmodem

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// NewLogger builds the root logger for one rig actor, human-readable by
// default and switchable to JSON for unattended operation, matching the
// teacher's per-subsystem diagnostic conventions (§2 "Logging"). Debug
// carries decode failures, Warn carries protocol violations and
// timeouts, Error is reserved for construction-time table-lookup
// failures.
func NewLogger(rig string, w io.Writer, jsonOutput bool) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	fmt := log.TextFormatter
	if jsonOutput {
		fmt = log.JSONFormatter
	}
	l := log.NewWithOptions(w, log.Options{
		Formatter:       fmt,
		ReportTimestamp: true,
		ReportCaller:    false,
	})
	l.SetLevel(log.InfoLevel)
	return l.With("rig", rig)
}

// ChildLogger derives a component-scoped logger from a rig's root
// logger (e.g. NewLogger("hf1",...).With ale/dte component tags),
// threaded through FSM constructors rather than passed as a package
// global.
func ChildLogger(root *log.Logger, component string) *log.Logger {
	return root.With("component", component)
}
