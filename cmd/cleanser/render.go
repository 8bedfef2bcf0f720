package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"cleanser/internal/pipeline"
	"cleanser/internal/store"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderTable lays out rows under headers. Columns listed in numeric are
// right aligned.
func renderTable(headers []string, rows [][]string, numeric ...int) string {
	if len(headers) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(numeric))
	for _, col := range numeric {
		configs = append(configs, table.ColumnConfig{
			Number:      col + 1,
			Align:       text.AlignRight,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func colorState(state string, colorize bool) string {
	if !colorize {
		return state
	}
	switch pipeline.State(state) {
	case pipeline.StateDone:
		return ansiGreen + state + ansiReset
	case pipeline.StateFailed:
		return ansiRed + state + ansiReset
	default:
		return ansiYellow + state + ansiReset
	}
}

func renderSummary(out io.Writer, s pipeline.Summary) {
	colorize := shouldColorize(out)
	rows := [][]string{
		{"Run", s.RunID},
		{"Timestamp", s.Timestamp},
		{"State", colorState(string(s.State), colorize)},
		{"Source", s.SourcePath},
		{"Total Rows", strconv.Itoa(s.TotalRows)},
		{"Clean Rows", strconv.Itoa(s.CleanRows)},
		{"Rejected Rows", strconv.Itoa(s.RejectedRows)},
	}
	if s.InvalidRows > 0 {
		rows = append(rows, []string{"Invalid Rows", strconv.Itoa(s.InvalidRows)})
	}
	rows = append(rows, []string{"Elapsed", formatElapsed(s.Elapsed)})
	if s.Artifacts.JSONPath != "" {
		rows = append(rows,
			[]string{"JSON", s.Artifacts.JSONPath},
			[]string{"Rejects CSV", s.Artifacts.CSVPath},
		)
	}
	if s.Artifacts.InvalidPath != "" {
		rows = append(rows, []string{"Invalid CSV", s.Artifacts.InvalidPath})
	}
	if s.Err != nil {
		rows = append(rows,
			[]string{"Failed Step", string(s.FailedStep)},
			[]string{"Error", s.Error},
		)
	}
	fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows))
}

func renderRuns(out io.Writer, runs []store.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return
	}
	colorize := shouldColorize(out)
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID),
			run.Timestamp,
			colorState(run.State, colorize),
			strconv.Itoa(run.TotalRows),
			strconv.Itoa(run.CleanRows),
			strconv.Itoa(run.RejectedRows),
			strconv.Itoa(run.InvalidRows),
			formatElapsed(run.Elapsed),
			run.FailedStep,
		})
	}
	headers := []string{"Run", "Timestamp", "State", "Total", "Clean", "Rejected", "Invalid", "Elapsed", "Failed Step"}
	fmt.Fprintln(out, renderTable(headers, rows, 3, 4, 5, 6, 7))
}

func renderCounts(out io.Writer, counts store.Counts) {
	rows := [][]string{
		{store.TableClean, strconv.FormatInt(counts.Clean, 10)},
		{store.TableReject, strconv.FormatInt(counts.Rejected, 10)},
	}
	fmt.Fprintln(out, renderTable([]string{"Table", "Rows"}, rows, 1))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatElapsed(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(10 * time.Millisecond).String()
}
