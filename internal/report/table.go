package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/ocp4mco/ocp4mco/internal/orchestrator"
)

// maxErrorWidth truncates error cells so the table stays readable.
const maxErrorWidth = 80

// Print writes the run summary to w, colored when w is a terminal.
func Print(w io.Writer, r *orchestrator.Report) {
	Write(w, r, isTerminal(w))
}

// Write writes the run summary to w.
func Write(w io.Writer, r *orchestrator.Report, color bool) {
	_, _ = fmt.Fprintln(w, headline(r, color))

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		header("STAGE", color),
		header("CLUSTER", color),
		header("STATUS", color),
		header("DURATION", color),
		header("ERROR", color),
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, WidthMax: maxErrorWidth},
	})

	for _, res := range r.Results {
		status := string(res.Status)
		if color {
			status = statusStyle(res.Status).Render(status)
		}
		var errText string
		if res.Err != nil {
			errText = firstLine(res.Err.Error())
		}
		t.AppendRow(table.Row{res.Stage, res.Cluster, status, res.Duration.Round(time.Second), errText})
	}
	t.Render()

	if r.AbortedAt != "" {
		msg := fmt.Sprintf("Run aborted at stage %s", r.AbortedAt)
		if color {
			msg = failedStyle.Render(msg)
		}
		_, _ = fmt.Fprintln(w, msg)
	}
}

// Text returns the uncolored summary.
func Text(r *orchestrator.Report) string {
	var b strings.Builder
	Write(&b, r, false)
	return b.String()
}

func headline(r *orchestrator.Report, color bool) string {
	counts := r.Counts()
	line := fmt.Sprintf("Run %s finished in %s: %d succeeded, %d failed, %d skipped",
		r.RunID, r.Duration.Round(time.Second),
		counts[orchestrator.StatusSucceeded],
		counts[orchestrator.StatusFailed],
		counts[orchestrator.StatusSkipped]+counts[orchestrator.StatusNotRun])
	if color {
		return titleStyle.Render(line)
	}
	return line
}

func header(s string, color bool) string {
	if color {
		return text.FgHiCyan.Sprint(s)
	}
	return s
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
