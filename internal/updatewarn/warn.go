// Package updatewarn prints best-effort self-update warnings.
package updatewarn

import (
	"io"

	"github.com/fatih/color"

	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/messages"
	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/update"
)

// WarnComparison emits a warning to w describing cmp when it needs attention.
// It never fails: update checks must not block an install.
func WarnComparison(w io.Writer, cmp update.Comparison) {
	if w == nil {
		w = io.Discard
	}
	switch {
	case cmp.Status == update.StatusCheckFailed:
		Warnf(w, messages.WarnUpdateCheckFailedFmt, cmp.Reason)
	case cmp.LocalIsDev && cmp.Remote != "":
		Warnf(w, messages.WarnDevBuildFmt, cmp.Remote)
	case cmp.Status == update.StatusUpdateAvailable:
		Warnf(w, messages.WarnUpdateAvailableFmt, cmp.Remote, cmp.Local)
	}
}

// Warnf writes a yellow warning line to w.
func Warnf(w io.Writer, format string, args ...any) {
	if w == nil {
		return
	}
	_, _ = color.New(color.FgYellow).Fprintf(w, format, args...)
}
