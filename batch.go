package gsheets

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
)

// batchFeed decodes a batch response. The batch and Atom namespaces both carry an
// <id> element per entry, so the fields are matched by explicit namespace.
type batchFeed struct {
	Entries []batchEntry `xml:"entry"`
}

type batchEntry struct {
	BatchID string    `xml:"http://schemas.google.com/gdata/batch id"`
	AtomID  string    `xml:"http://www.w3.org/2005/Atom id"`
	Links   []link    `xml:"link"`
	Cell    *cellElem `xml:"http://schemas.google.com/spreadsheets/2006 cell"`
}

const batchFeedHeaderTmpl = `<feed xmlns="http://www.w3.org/2005/Atom" xmlns:batch="http://schemas.google.com/gdata/batch" xmlns:gs="http://schemas.google.com/spreadsheets/2006">
<id>%s</id>
`

const batchEntryTmpl = `<entry>
<batch:id>%s</batch:id>
<batch:operation type="update"/>
<id>%s/%s</id>
<link rel="edit" type="application/atom+xml" href="%s"/>
<gs:cell row="%d" col="%d" inputValue="%s"/>
</entry>
`

// UpdateCells persists the given cells with a single batch request against the
// worksheet's bulk-cells endpoint. Each response entry is correlated back to its
// cell strictly by batch id, so a response that omits entries or returns them out
// of order still updates the right cells; a response id matching no submitted
// cell is a ProtocolError.
func (w *Worksheet) UpdateCells(ctx context.Context, cells []*Cell) error {
	if len(cells) == 0 {
		return nil
	}
	base := w.cellsURL()

	var b strings.Builder
	fmt.Fprintf(&b, batchFeedHeaderTmpl, xmlSafeValue(base))
	submitted := make(map[string]*Cell, len(cells))
	for _, c := range cells {
		submitted[c.ID()] = c
		fmt.Fprintf(&b, batchEntryTmpl,
			c.ID(),
			xmlSafeValue(base), c.ID(),
			xmlSafeValue(c.editURL()),
			c.Row(), c.Col(),
			xmlSafeValue(c.inputValue()),
		)
	}
	b.WriteString("</feed>")

	_, _, raw, err := w.ss.do(ctx, http.MethodPost, w.bulkCellsURL(), b.String())
	if err != nil {
		return err
	}
	if strings.TrimSpace(raw) == "" {
		return ErrEmptyResponse
	}
	var bf batchFeed
	if err := xml.Unmarshal([]byte(raw), &bf); err != nil {
		return fmt.Errorf("parse batch response: %w", err)
	}

	for i := range bf.Entries {
		e := &bf.Entries[i]
		id := e.BatchID
		if id == "" {
			// Some responses echo the batch id only as the trailing segment
			// of the entry's constructed id.
			if j := strings.LastIndex(e.AtomID, "/"); j >= 0 {
				id = e.AtomID[j+1:]
			}
		}
		c, ok := submitted[id]
		if !ok {
			return &ProtocolError{BatchID: id}
		}
		c.selfID = e.AtomID
		if len(e.Links) > 0 {
			c.links = newLinkSet(e.Links)
		}
		if e.Cell != nil {
			c.applyCell(e.Cell)
		}
	}
	return nil
}
