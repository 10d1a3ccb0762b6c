package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// maxCellWidth caps printed cells; CJK characters count as two columns
const maxCellWidth = 60

// Table is a collected dataset ready to print and export
type Table struct {
	Title   string     `json:"title"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// tableJSON is the JSON shape of a printed table
type tableJSON struct {
	Title    string              `json:"title"`
	Columns  []string            `json:"columns"`
	RowCount int                 `json:"row_count"`
	Records  []map[string]string `json:"records"`
}

// WriteOutput writes the table in the specified format. Text output shows at most
// preview rows, split between the head and the tail of the table.
func WriteOutput(w io.Writer, t *Table, format OutputFormat, preview int) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, t)
	case FormatText:
		return writeText(w, t, preview)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs every row as an object keyed by column name
func writeJSON(w io.Writer, t *Table) error {
	out := tableJSON{
		Title:    t.Title,
		Columns:  t.Columns,
		RowCount: len(t.Rows),
		Records:  make([]map[string]string, 0, len(t.Rows)),
	}
	for _, row := range t.Rows {
		rec := make(map[string]string, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		out.Records = append(out.Records, rec)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

// writeText outputs a rounded table preview followed by the table shape
func writeText(w io.Writer, t *Table, preview int) error {
	if len(t.Rows) == 0 {
		_, err := fmt.Fprintf(w, "%s: no rows found.\n", t.Title)
		return err
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(t.Title)

	header := table.Row{"#"}
	for _, col := range t.Columns {
		header = append(header, col)
	}
	tw.AppendHeader(header)

	head, tail := previewRanges(len(t.Rows), preview)
	for _, i := range head {
		tw.AppendRow(tableRow(i, t.Rows[i]))
	}
	if len(tail) > 0 {
		gap := table.Row{"…"}
		for range t.Columns {
			gap = append(gap, "…")
		}
		tw.AppendRow(gap)
		for _, i := range tail {
			tw.AppendRow(tableRow(i, t.Rows[i]))
		}
	}

	if _, err := fmt.Fprintln(w, tw.Render()); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "[%d rows x %d columns]\n", len(t.Rows), len(t.Columns))
	return err
}

func tableRow(i int, cells []string) table.Row {
	row := table.Row{i}
	for _, cell := range cells {
		row = append(row, runewidth.Truncate(cell, maxCellWidth, "…"))
	}
	return row
}

// previewRanges picks the row indexes to print. When n exceeds preview, the first half
// of the preview comes from the head and the rest from the tail.
func previewRanges(n, preview int) (head, tail []int) {
	if preview <= 0 || n <= preview {
		head = make([]int, n)
		for i := range head {
			head[i] = i
		}
		return head, nil
	}

	headCount := (preview + 1) / 2
	tailCount := preview - headCount

	for i := 0; i < headCount; i++ {
		head = append(head, i)
	}
	for i := n - tailCount; i < n; i++ {
		tail = append(tail, i)
	}
	return head, tail
}
