package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/install"
	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/messages"
	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/terminal"
)

var terminalWidth = func(f terminal.File) int {
	return terminal.Width(f)
}

// printSummary writes what the run installed and created, framed by rules.
func printSummary(w io.Writer, report install.Report, cols int) {
	rule := terminal.Rule(terminal.BannerWidth(cols))
	success := color.New(color.FgGreen)

	_, _ = fmt.Fprintln(w, rule)
	if report.DryRun {
		_, _ = success.Fprintln(w, messages.SummaryDryRunTitle)
	} else {
		_, _ = success.Fprintln(w, messages.SummaryTitle)
	}
	_, _ = fmt.Fprintf(w, messages.SummaryPlatformFmt, report.Family)
	_, _ = fmt.Fprintf(w, packagesFormat(report.DryRun), joinOrNone(report.InstalledPackages()))
	_, _ = fmt.Fprintf(w, dirsFormat(report.DryRun), joinOrNone(report.CreatedDirs()))
	if report.Preview != nil {
		_, _ = fmt.Fprintf(w, messages.SummaryUpdatePreviewFmt, report.Preview.Target)
		_, _ = fmt.Fprint(w, report.Preview.UnifiedDiff)
	}
	_, _ = fmt.Fprintln(w, rule)
}

func packagesFormat(dryRun bool) string {
	if dryRun {
		return messages.SummaryPackagesPlannedFmt
	}
	return messages.SummaryPackagesInstalledFmt
}

func dirsFormat(dryRun bool) string {
	if dryRun {
		return messages.SummaryDirsPlannedFmt
	}
	return messages.SummaryDirsCreatedFmt
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return messages.SummaryNone
	}
	return strings.Join(items, ", ")
}

func outputWidth(w io.Writer) int {
	if f, ok := w.(terminal.File); ok {
		return terminalWidth(f)
	}
	return terminalWidth(nil)
}
