package gsheets

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Worksheet is one sheet of a Spreadsheet.
type Worksheet struct {
	ss *Spreadsheet

	id       string
	title    string
	rowCount int
	colCount int
	links    linkSet
}

func newWorksheet(ss *Spreadsheet, e *entry) *Worksheet {
	w := &Worksheet{ss: ss}
	w.apply(e)
	return w
}

// apply re-hydrates the worksheet from an authoritative feed entry.
func (w *Worksheet) apply(e *entry) {
	// The worksheet id is the trailing segment of its canonical id URL.
	if i := strings.LastIndex(e.ID, "/"); i >= 0 {
		w.id = e.ID[i+1:]
	} else {
		w.id = e.ID
	}
	w.title = e.Title
	w.rowCount = e.RowCount
	w.colCount = e.ColCount
	w.links = newLinkSet(e.Links)
}

// ID returns the worksheet's id within its spreadsheet.
func (w *Worksheet) ID() string { return w.id }

// Title returns the worksheet's title.
func (w *Worksheet) Title() string { return w.title }

// RowCount returns the worksheet's row dimension.
func (w *Worksheet) RowCount() int { return w.rowCount }

// ColCount returns the worksheet's column dimension.
func (w *Worksheet) ColCount() int { return w.colCount }

func (w *Worksheet) editURL() string { return w.links.get(relEdit) }

// cellsURL returns the worksheet's cells-feed base URL.
func (w *Worksheet) cellsURL() string { return w.links.get(relCellsFeed) }

// bulkCellsURL is always the cells-feed URL plus "/batch"; deriving it on every
// call keeps the invariant across re-hydrations.
func (w *Worksheet) bulkCellsURL() string { return w.cellsURL() + "/batch" }

// EditOpts are the worksheet fields Edit may change. Zero-valued fields keep
// their current value.
type EditOpts struct {
	Title    string
	RowCount int
	ColCount int
}

const worksheetEntryTmpl = `<entry xmlns="http://www.w3.org/2005/Atom" xmlns:gs="http://schemas.google.com/spreadsheets/2006">
<title>%s</title>
<gs:rowCount>%d</gs:rowCount>
<gs:colCount>%d</gs:colCount>
</entry>`

// Edit updates the worksheet's title and/or dimensions with a single PUT. Fields
// left unset in opts default to their current values. The worksheet is
// re-hydrated from the service's response rather than from the local patch.
func (w *Worksheet) Edit(ctx context.Context, opts EditOpts) error {
	title := opts.Title
	if title == "" {
		title = w.title
	}
	rows := opts.RowCount
	if rows == 0 {
		rows = w.rowCount
	}
	cols := opts.ColCount
	if cols == 0 {
		cols = w.colCount
	}
	body := fmt.Sprintf(worksheetEntryTmpl, xmlSafeValue(title), rows, cols)
	_, e, _, err := w.ss.do(ctx, http.MethodPut, w.editURL(), body)
	if err != nil {
		return err
	}
	if e == nil {
		return ErrEmptyResponse
	}
	w.apply(e)
	return nil
}

// Resize changes the worksheet's dimensions.
func (w *Worksheet) Resize(ctx context.Context, rows, cols int) error {
	return w.Edit(ctx, EditOpts{RowCount: rows, ColCount: cols})
}

// SetTitle renames the worksheet.
func (w *Worksheet) SetTitle(ctx context.Context, title string) error {
	return w.Edit(ctx, EditOpts{Title: title})
}

// Delete removes the worksheet from the spreadsheet, and from the parent's
// worksheet list.
func (w *Worksheet) Delete(ctx context.Context) error {
	_, _, _, err := w.ss.do(ctx, http.MethodDelete, w.editURL(), "")
	if err != nil {
		return err
	}
	w.ss.dropWorksheet(w)
	return nil
}

// Clear empties the worksheet: shrink to 1x1, blank the surviving cell, then
// restore the original dimensions. The three round trips run sequentially; if one
// fails the worksheet is left in the state the last successful step produced.
func (w *Worksheet) Clear(ctx context.Context) error {
	rows, cols := w.rowCount, w.colCount
	if err := w.Resize(ctx, 1, 1); err != nil {
		return err
	}
	cells, err := w.Cells(ctx, &CellOptions{ReturnEmpty: true})
	if err != nil {
		return err
	}
	if len(cells) > 0 {
		cells[0].SetValue("")
		if err := cells[0].Save(ctx); err != nil {
			return err
		}
	}
	return w.Resize(ctx, rows, cols)
}

// SetHeaderRow assigns the first row positionally and persists it with one batch
// update. It fails before issuing any request when more headers are supplied than
// the worksheet has columns; resize first.
func (w *Worksheet) SetHeaderRow(ctx context.Context, values []string) error {
	if len(values) > w.colCount {
		return &ValidationError{
			Field:   "headers",
			Message: fmt.Sprintf("%d headers exceed the worksheet's %d columns; resize first", len(values), w.colCount),
		}
	}
	cells, err := w.Cells(ctx, &CellOptions{
		MinRow:      1,
		MaxRow:      1,
		MinCol:      1,
		MaxCol:      w.colCount,
		ReturnEmpty: true,
	})
	if err != nil {
		return err
	}
	for i, c := range cells {
		if i < len(values) {
			c.SetValue(values[i])
		} else {
			c.SetValue("")
		}
	}
	return w.UpdateCells(ctx, cells)
}

// Rows lists the worksheet's rows. See Spreadsheet.Rows.
func (w *Worksheet) Rows(ctx context.Context, opts *RowOptions) ([]*Row, error) {
	return w.ss.Rows(ctx, w.id, opts)
}

// AddRow appends a row to the worksheet. See Spreadsheet.AddRow.
func (w *Worksheet) AddRow(ctx context.Context, data map[string]string) (*Row, error) {
	return w.ss.AddRow(ctx, w.id, data)
}

// Cells lists the worksheet's cells. See Spreadsheet.Cells.
func (w *Worksheet) Cells(ctx context.Context, opts *CellOptions) ([]*Cell, error) {
	return w.ss.Cells(ctx, w.id, opts)
}
