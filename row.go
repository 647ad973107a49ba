package gsheets

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	"golang.org/x/exp/slices"
)

// Row is one row of a worksheet's list feed: an ordered mapping from normalized
// column key to scalar string value. Rows are fetched independently of the
// Worksheet object and reference their worksheet by id only.
//
// A row retains the verbatim XML fragment it was decoded from. Saving patches the
// changed column elements inside that fragment rather than rebuilding the
// document, so server-managed metadata the client never modeled survives a save
// untouched.
type Row struct {
	ss          *Spreadsheet
	worksheetID string

	id      string
	columns []string
	values  map[string]string
	links   linkSet
	raw     string
}

func newRow(ss *Spreadsheet, worksheetID string, e *entry) *Row {
	r := &Row{
		ss:          ss,
		worksheetID: worksheetID,
		values:      map[string]string{},
	}
	r.apply(e)
	return r
}

func (r *Row) apply(e *entry) {
	r.id = e.ID
	r.links = newLinkSet(e.Links)
	r.raw = e.Raw
	r.columns = r.columns[:0]
	clear(r.values)
	for _, f := range e.gsxFields() {
		key := f.XMLName.Local
		if _, ok := r.values[key]; !ok {
			r.columns = append(r.columns, key)
		}
		// An empty element is a present column with a logical null value,
		// not an absent key.
		r.values[key] = f.Value
	}
}

// ID returns the row's canonical feed id.
func (r *Row) ID() string { return r.id }

// WorksheetID returns the id of the worksheet the row belongs to.
func (r *Row) WorksheetID() string { return r.worksheetID }

// Columns returns the row's column keys in document order.
func (r *Row) Columns() []string {
	return slices.Clone(r.columns)
}

// Get returns the value of the given column. The column name is normalized the
// same way the service normalizes headers, so Get("First Name") and
// Get("firstname") are equivalent.
func (r *Row) Get(column string) string {
	return r.values[xmlSafeColumnName(column)]
}

// Lookup is Get plus a report of whether the column exists on the row at all.
func (r *Row) Lookup(column string) (string, bool) {
	v, ok := r.values[xmlSafeColumnName(column)]
	return v, ok
}

// Set assigns the value of the given column in memory. The change is persisted on
// the next Save.
func (r *Row) Set(column, value string) {
	key := xmlSafeColumnName(column)
	if _, ok := r.values[key]; !ok {
		r.columns = append(r.columns, key)
	}
	r.values[key] = value
}

// Save persists the row by patching the retained source fragment: for each column
// present in the mapping, the first occurrence of its element is replaced with a
// freshly escaped one; every other byte of the fragment is left as the service
// sent it. The patched fragment is PUT to the row's edit link and the row is
// re-hydrated from the response.
func (r *Row) Save(ctx context.Context) error {
	frag := r.raw
	for _, key := range r.columns {
		pattern := regexp.MustCompile(`(?s)<gsx:` + regexp.QuoteMeta(key) + `(?:\s*/>|>.*?</gsx:` + regexp.QuoteMeta(key) + `>)`)
		loc := pattern.FindStringIndex(frag)
		if loc == nil {
			continue
		}
		repl := "<gsx:" + key + ">" + xmlSafeValue(r.values[key]) + "</gsx:" + key + ">"
		frag = frag[:loc[0]] + repl + frag[loc[1]:]
	}
	body := fmt.Sprintf(`<entry xmlns="%s" xmlns:gsx="%s">%s</entry>`, nsAtom, nsGSX, frag)
	_, e, _, err := r.ss.do(ctx, http.MethodPut, r.links.get(relEdit), body)
	if err != nil {
		return err
	}
	if e == nil {
		return ErrEmptyResponse
	}
	r.apply(e)
	return nil
}

// Delete removes the row from its worksheet.
func (r *Row) Delete(ctx context.Context) error {
	_, _, _, err := r.ss.do(ctx, http.MethodDelete, r.links.get(relEdit), "")
	return err
}
