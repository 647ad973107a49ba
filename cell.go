package gsheets

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
)

// PendingValue is returned by Cell.Value while a formula assignment has not been
// saved yet: the evaluated value is computed server-side and unknown until then.
const PendingValue = "*SAVE TO GET NEW VALUE*"

// A cell's content is one of three mutually exclusive variants: empty, a plain
// value (optionally numeric), or a formula. The public accessors and setters are
// all derived from the variant, which keeps the value/formula/numeric facets from
// going stale independently.
type cellKind int

const (
	cellEmpty cellKind = iota
	cellValue
	cellFormula
)

// Cell is one individually addressable cell of a worksheet, identified by its
// 1-based (row, col) coordinates.
type Cell struct {
	ss          *Spreadsheet
	worksheetID string
	cellsFeed   string // cells-feed base URL of the owning worksheet

	row int
	col int

	kind       cellKind
	value      string // display value as last reported by the service
	numeric    float64
	hasNumeric bool
	formula    string

	dirty          bool
	pendingFormula bool

	selfID string
	links  linkSet
}

func newCell(ss *Spreadsheet, worksheetID, cellsFeed string, e *entry) (*Cell, error) {
	if e.Cell == nil {
		return nil, fmt.Errorf("cell entry %s carries no gs:cell element", e.ID)
	}
	c := &Cell{
		ss:          ss,
		worksheetID: worksheetID,
		cellsFeed:   cellsFeed,
		row:         e.Cell.Row,
		col:         e.Cell.Col,
		selfID:      e.ID,
		links:       newLinkSet(e.Links),
	}
	c.applyCell(e.Cell)
	return c, nil
}

// applyCell re-hydrates the content variant from a gs:cell element.
func (c *Cell) applyCell(el *cellElem) {
	c.dirty = false
	c.pendingFormula = false
	c.hasNumeric = false
	c.formula = ""
	c.value = el.Value
	switch {
	case strings.HasPrefix(el.InputValue, "="):
		c.kind = cellFormula
		c.formula = el.InputValue
		if n, err := strconv.ParseFloat(el.NumericValue, 64); err == nil {
			c.numeric = n
			c.hasNumeric = true
		}
	case el.Value == "":
		c.kind = cellEmpty
	default:
		c.kind = cellValue
		if n, err := strconv.ParseFloat(el.NumericValue, 64); err == nil {
			c.numeric = n
			c.hasNumeric = true
		}
	}
}

// Row returns the 1-based row coordinate.
func (c *Cell) Row() int { return c.row }

// Col returns the 1-based column coordinate.
func (c *Cell) Col() int { return c.col }

// ID returns the cell's derived identity, R<row>C<col>. It is both the trailing
// segment of the cell's canonical feed id and its batch correlation id.
func (c *Cell) ID() string {
	return fmt.Sprintf("R%dC%d", c.row, c.col)
}

// Value returns the cell's display value. While a formula assignment is pending
// (set but not saved) it returns PendingValue, since the service computes the
// evaluated value.
func (c *Cell) Value() string {
	if c.pendingFormula {
		return PendingValue
	}
	return c.value
}

// NumericValue returns the cell's numeric interpretation, if it has one.
func (c *Cell) NumericValue() (float64, bool) {
	return c.numeric, c.hasNumeric
}

// Formula returns the cell's formula, if it holds one.
func (c *Cell) Formula() (string, bool) {
	if c.kind != cellFormula {
		return "", false
	}
	return c.formula, true
}

// Dirty reports whether the cell has unsaved local changes.
func (c *Cell) Dirty() bool { return c.dirty }

// SetValue assigns the cell's content. An empty value clears the cell, including
// any formula and numeric interpretation. A value starting with "=" is treated as
// a formula. A value that parses fully as a finite number also gets a numeric
// interpretation; anything else is plain text.
func (c *Cell) SetValue(v string) {
	c.dirty = true
	c.pendingFormula = false
	c.formula = ""
	c.hasNumeric = false
	switch {
	case v == "":
		c.kind = cellEmpty
		c.value = ""
	case strings.HasPrefix(v, "="):
		c.kind = cellFormula
		c.formula = v
		c.value = ""
		c.pendingFormula = true
	default:
		c.kind = cellValue
		c.value = v
		if n, err := strconv.ParseFloat(v, 64); err == nil && !math.IsInf(n, 0) && !math.IsNaN(n) {
			c.numeric = n
			c.hasNumeric = true
		}
	}
}

// SetFormula assigns a formula. The expression must start with "=".
func (c *Cell) SetFormula(expr string) error {
	if !strings.HasPrefix(expr, "=") {
		return &ValidationError{Field: "formula", Message: `must start with "="`}
	}
	c.kind = cellFormula
	c.formula = expr
	c.value = ""
	c.numeric = 0
	c.hasNumeric = false
	c.pendingFormula = true
	c.dirty = true
	return nil
}

// SetNumericValue assigns a numeric content, clearing any formula. NaN and
// infinities are rejected.
func (c *Cell) SetNumericValue(n float64) error {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return &ValidationError{Field: "numericValue", Message: "must be a finite number"}
	}
	c.kind = cellValue
	c.numeric = n
	c.hasNumeric = true
	c.value = strconv.FormatFloat(n, 'g', -1, 64)
	c.formula = ""
	c.pendingFormula = false
	c.dirty = true
	return nil
}

// SetNumericString assigns a numeric content from its string form. The whole
// string must parse as a finite number; a numeric prefix is not enough.
func (c *Cell) SetNumericString(v string) error {
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return &ValidationError{Field: "numericValue", Message: fmt.Sprintf("%q is not a number", v)}
	}
	return c.SetNumericValue(n)
}

// inputValue is the value sent to the service on save.
func (c *Cell) inputValue() string {
	switch c.kind {
	case cellFormula:
		return c.formula
	case cellValue:
		if c.hasNumeric {
			return strconv.FormatFloat(c.numeric, 'g', -1, 64)
		}
		return c.value
	default:
		return ""
	}
}

// editURL returns the cell's edit link, falling back to its canonical id when the
// entry carried none.
func (c *Cell) editURL() string {
	if href := c.links.get(relEdit); href != "" {
		return href
	}
	if c.selfID != "" {
		return c.selfID
	}
	return c.cellsFeed + "/" + c.ID()
}

const cellEntryTmpl = `<entry xmlns="http://www.w3.org/2005/Atom" xmlns:gs="http://schemas.google.com/spreadsheets/2006">
<id>%s</id>
<link rel="edit" type="application/atom+xml" href="%s"/>
<gs:cell row="%d" col="%d" inputValue="%s"/>
</entry>`

// Save persists the cell with a single PUT and immediately re-hydrates it from
// the service's authoritative response.
func (c *Cell) Save(ctx context.Context) error {
	body := fmt.Sprintf(cellEntryTmpl,
		xmlSafeValue(c.selfID),
		xmlSafeValue(c.editURL()),
		c.row, c.col,
		xmlSafeValue(c.inputValue()),
	)
	_, e, _, err := c.ss.do(ctx, http.MethodPut, c.editURL(), body)
	if err != nil {
		return err
	}
	if e == nil {
		return ErrEmptyResponse
	}
	c.selfID = e.ID
	c.links = newLinkSet(e.Links)
	if e.Cell != nil {
		c.applyCell(e.Cell)
	}
	return nil
}
