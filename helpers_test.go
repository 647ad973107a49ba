package gsheets_test

import (
	"context"
	"net/http"
	"testing"

	"go.alis.build/gsheets"
)

// fakeTransport records every outbound request and plays back a scripted list of
// responses.
type fakeTransport struct {
	reqs  []*gsheets.Request
	resps []*gsheets.Response
	err   error
}

func (f *fakeTransport) RoundTrip(_ context.Context, req *gsheets.Request) (*gsheets.Response, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.resps) == 0 {
		return okResponse(""), nil
	}
	resp := f.resps[0]
	f.resps = f.resps[1:]
	if resp.Header == nil {
		resp.Header = http.Header{"Content-Type": {"application/atom+xml; charset=UTF-8"}}
	}
	return resp, nil
}

func okResponse(body string) *gsheets.Response {
	return &gsheets.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": {"application/atom+xml; charset=UTF-8"}},
		Body:       body,
	}
}

func newTestSpreadsheet(t *testing.T, ft *fakeTransport) *gsheets.Spreadsheet {
	t.Helper()
	s, err := gsheets.NewSpreadsheet("key123", gsheets.WithTransport(ft))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// refreshed returns a spreadsheet whose worksheet list is populated from the
// canonical worksheets-feed fixture.
func refreshed(t *testing.T, ft *fakeTransport) *gsheets.Spreadsheet {
	t.Helper()
	ft.resps = append([]*gsheets.Response{okResponse(worksheetsFeedXML)}, ft.resps...)
	s := newTestSpreadsheet(t, ft)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	return s
}

const worksheetsFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:gs="http://schemas.google.com/spreadsheets/2006">
<id>https://spreadsheets.google.com/feeds/worksheets/key123/private/full</id>
<updated>2026-03-01T10:20:30.000Z</updated>
<title>Budget</title>
<author><name>ada</name><email>ada@example.com</email></author>
<entry>
<id>https://spreadsheets.google.com/feeds/worksheets/key123/private/full/od6</id>
<updated>2026-03-01T10:20:30.000Z</updated>
<title>Sheet1</title>
<gs:rowCount>10</gs:rowCount>
<gs:colCount>3</gs:colCount>
<link rel="http://schemas.google.com/spreadsheets/2006#listfeed" type="application/atom+xml" href="https://spreadsheets.google.com/feeds/list/key123/od6/private/full"/>
<link rel="http://schemas.google.com/spreadsheets/2006#cellsfeed" type="application/atom+xml" href="https://spreadsheets.google.com/feeds/cells/key123/od6/private/full"/>
<link rel="edit" type="application/atom+xml" href="https://spreadsheets.google.com/feeds/worksheets/key123/private/full/od6/version1"/>
</entry>
</feed>`

const worksheetEntryXML = `<?xml version="1.0" encoding="UTF-8"?>
<entry xmlns="http://www.w3.org/2005/Atom" xmlns:gs="http://schemas.google.com/spreadsheets/2006">
<id>https://spreadsheets.google.com/feeds/worksheets/key123/private/full/od7</id>
<title>Imported</title>
<gs:rowCount>99</gs:rowCount>
<gs:colCount>7</gs:colCount>
<link rel="http://schemas.google.com/spreadsheets/2006#cellsfeed" type="application/atom+xml" href="https://spreadsheets.google.com/feeds/cells/key123/od7/private/full"/>
<link rel="edit" type="application/atom+xml" href="https://spreadsheets.google.com/feeds/worksheets/key123/private/full/od7/version1"/>
</entry>`

const listFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:gsx="http://schemas.google.com/spreadsheets/2006/extended">
<id>https://spreadsheets.google.com/feeds/list/key123/od6/private/full</id>
<entry>
<id>https://spreadsheets.google.com/feeds/list/key123/od6/private/full/cokwr</id>
<title>alpha</title>
<content>age: 42</content>
<link rel="edit" type="application/atom+xml" href="https://spreadsheets.google.com/feeds/list/key123/od6/private/full/cokwr/version1"/>
<gsx:name>alpha</gsx:name>
<gsx:age>42</gsx:age>
<gsx:notes></gsx:notes>
</entry>
</feed>`

const cellsFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:gs="http://schemas.google.com/spreadsheets/2006">
<id>https://spreadsheets.google.com/feeds/cells/key123/od6/private/full</id>
<entry>
<id>https://spreadsheets.google.com/feeds/cells/key123/od6/private/full/R1C1</id>
<title>A1</title>
<link rel="edit" type="application/atom+xml" href="https://spreadsheets.google.com/feeds/cells/key123/od6/private/full/R1C1/v1"/>
<gs:cell row="1" col="1" inputValue="name">name</gs:cell>
</entry>
<entry>
<id>https://spreadsheets.google.com/feeds/cells/key123/od6/private/full/R1C2</id>
<title>B1</title>
<link rel="edit" type="application/atom+xml" href="https://spreadsheets.google.com/feeds/cells/key123/od6/private/full/R1C2/v1"/>
<gs:cell row="1" col="2" inputValue="42" numericValue="42.0">42</gs:cell>
</entry>
</feed>`
