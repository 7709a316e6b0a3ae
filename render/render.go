// Package render prints job view snapshots for a terminal.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"

	"vidtrack/job"
)

// priorityColors is indexed by job.Priority.Weight.
var priorityColors = map[int]pterm.Color{
	3: pterm.FgRed,
	2: pterm.FgYellow,
	1: pterm.FgBlue,
}

// PriorityColor maps a priority onto its emphasis colour.
func PriorityColor(p job.Priority) pterm.Color {
	if c, ok := priorityColors[p.Weight()]; ok {
		return c
	}
	return pterm.FgBlue
}

// PriorityStyle is PriorityColor, in bold for the heaviest priority.
func PriorityStyle(p job.Priority) *pterm.Style {
	if p.Weight() >= job.PriorityHigh.Weight() {
		return pterm.NewStyle(PriorityColor(p), pterm.Bold)
	}
	return pterm.NewStyle(PriorityColor(p))
}

// StatusColor maps a job status onto its colour.
func StatusColor(s job.Status) pterm.Color {
	switch s {
	case job.StatusCompleted:
		return pterm.FgGreen
	case job.StatusFailed:
		return pterm.FgRed
	case job.StatusProcessing:
		return pterm.FgBlue
	default:
		return pterm.FgGray
	}
}

// StatusLine is the one-line summary printed while a job is tracked.
func StatusLine(s job.ViewState) string {
	switch {
	case s.Job == nil:
		return string(s.Phase)
	case s.Job.ID == 0:
		return fmt.Sprintf("%s %s", s.Phase, s.Job.SourceURL)
	case s.Job.Status == "":
		return fmt.Sprintf("job %d: %s", s.Job.ID, s.Phase)
	}
	return fmt.Sprintf("job %d: %s", s.Job.ID, StatusColor(s.Job.Status).Sprint(s.Job.Status))
}

// State writes the full snapshot: job header, error, then results.
func State(w io.Writer, s job.ViewState) {
	if s.Job != nil && s.Job.ID != 0 {
		pterm.Fprintln(w, fmt.Sprintf("Job ID: %d", s.Job.ID))
		if s.Job.Status != "" {
			pterm.Fprintln(w, "Status: "+StatusColor(s.Job.Status).Sprint(s.Job.Status))
		}
	} else {
		pterm.Fprintln(w, "Phase: "+string(s.Phase))
	}

	if msg := errorMessage(s); msg != "" {
		pterm.Fprintln(w, pterm.FgRed.Sprint("Error: ")+msg)
	}

	if s.Job != nil && s.Job.Result != nil {
		Result(w, s.Job.Result)
	}
}

// Result writes the transcription and the action points in backend order.
// Empty contexts are omitted.
func Result(w io.Writer, r *job.ProcessingResult) {
	pterm.Fprintln(w)
	pterm.Fprintln(w, pterm.Bold.Sprint("Transcription"))
	pterm.Fprintln(w, strings.TrimSpace(r.Transcription))

	pterm.Fprintln(w)
	pterm.Fprintln(w, pterm.Bold.Sprint("Action Points"))
	if len(r.ActionPoints) == 0 {
		pterm.Fprintln(w, pterm.FgGray.Sprint("(none)"))
		return
	}
	for i, ap := range r.ActionPoints {
		style := PriorityStyle(ap.Priority)
		pterm.Fprintln(w, style.Sprintf("%d. Action: %s", i+1, ap.Action))
		if ap.HasContext() {
			pterm.Fprintln(w, pterm.FgGray.Sprintf("   Context: %s", ap.Context))
		}
		pterm.Fprintln(w, style.Sprintf("   Priority: %s", ap.Priority))
	}
}

func errorMessage(s job.ViewState) string {
	if s.UserError != "" {
		return s.UserError
	}
	if s.Phase == job.PhaseFailed && s.Job != nil {
		return s.Job.ErrorDetail
	}
	return ""
}
