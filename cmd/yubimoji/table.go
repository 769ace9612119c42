package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// tableView collects rows for one rounded go-pretty table.
type tableView struct {
	headers []string
	right   map[int]bool
	rows    []table.Row
}

func newTable(headers ...string) *tableView {
	return &tableView{headers: headers, right: make(map[int]bool)}
}

// alignRight right-aligns the given zero-based columns.
func (t *tableView) alignRight(columns ...int) *tableView {
	for _, c := range columns {
		t.right[c] = true
	}
	return t
}

// row appends cells, padding or truncating to the header width.
func (t *tableView) row(cells ...string) {
	r := make(table.Row, len(t.headers))
	for i := range r {
		r[i] = ""
		if i < len(cells) {
			r[i] = cells[i]
		}
	}
	t.rows = append(t.rows, r)
}

func (t *tableView) render(w io.Writer) {
	if len(t.headers) == 0 {
		return
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(t.headers))
	configs := make([]table.ColumnConfig, len(t.headers))
	for i, h := range t.headers {
		header[i] = h
		align := text.AlignLeft
		if t.right[i] {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft}
	}
	tw.AppendHeader(header)
	tw.AppendRows(t.rows)
	tw.SetColumnConfigs(configs)

	fmt.Fprintln(w, tw.Render())
}
