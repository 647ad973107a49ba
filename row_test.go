package gsheets_test

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"go.alis.build/gsheets"
)

func fetchRow(t *testing.T, ft *fakeTransport) *gsheets.Row {
	t.Helper()
	ft.resps = append(ft.resps, okResponse(listFeedXML))
	s := newTestSpreadsheet(t, ft)
	rows, err := s.Rows(context.Background(), "od6", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("Rows returned %d rows", len(rows))
	}
	return rows[0]
}

func TestRowDecoding(t *testing.T) {
	ft := &fakeTransport{}
	r := fetchRow(t, ft)

	if got := r.Columns(); !reflect.DeepEqual(got, []string{"name", "age", "notes"}) {
		t.Errorf("Columns() = %v", got)
	}
	if r.Get("name") != "alpha" || r.Get("age") != "42" {
		t.Errorf("values = %q, %q", r.Get("name"), r.Get("age"))
	}
	// An empty element is a present column holding a logical null.
	if v, ok := r.Lookup("notes"); !ok || v != "" {
		t.Errorf("Lookup(notes) = %q, %v, want present and empty", v, ok)
	}
	if _, ok := r.Lookup("absent"); ok {
		t.Error("Lookup(absent) = present")
	}
	// Lookup normalizes the column name like the service does.
	if v, ok := r.Lookup("Na Me"); !ok || v != "alpha" {
		t.Errorf("Lookup(\"Na Me\") = %q, %v", v, ok)
	}
	if r.WorksheetID() != "od6" {
		t.Errorf("WorksheetID() = %q", r.WorksheetID())
	}
}

func TestRowSavePatchesOnlyMappedColumns(t *testing.T) {
	ft := &fakeTransport{}
	r := fetchRow(t, ft)

	r.Set("age", "43")
	r.Set("notes", `likes "quotes" & ampersands`)

	saved := `<?xml version="1.0" encoding="UTF-8"?>
<entry xmlns="http://www.w3.org/2005/Atom" xmlns:gsx="http://schemas.google.com/spreadsheets/2006/extended">
<id>https://spreadsheets.google.com/feeds/list/key123/od6/private/full/cokwr</id>
<link rel="edit" type="application/atom+xml" href="https://spreadsheets.google.com/feeds/list/key123/od6/private/full/cokwr/version2"/>
<gsx:name>alpha</gsx:name>
<gsx:age>43</gsx:age>
<gsx:notes>likes &quot;quotes&quot; &amp; ampersands</gsx:notes>
</entry>`
	ft.resps = append(ft.resps, okResponse(saved))

	if err := r.Save(context.Background()); err != nil {
		t.Fatal(err)
	}

	req := ft.reqs[len(ft.reqs)-1]
	if req.Method != http.MethodPut || !strings.HasSuffix(req.URL, "cokwr/version1") {
		t.Errorf("request = %s %s, want PUT to the edit link", req.Method, req.URL)
	}
	// The patched fragment carries the new escaped values...
	if !strings.Contains(req.Body, "<gsx:age>43</gsx:age>") {
		t.Errorf("body missing patched age: %q", req.Body)
	}
	if !strings.Contains(req.Body, "<gsx:notes>likes &quot;quotes&quot; &amp; ampersands</gsx:notes>") {
		t.Errorf("body missing escaped notes: %q", req.Body)
	}
	// ...while elements the mapping does not model stay byte-for-byte intact.
	if !strings.Contains(req.Body, "<title>alpha</title>") || !strings.Contains(req.Body, "<content>age: 42</content>") {
		t.Errorf("unmodeled elements were rewritten: %q", req.Body)
	}
	// The whole fragment is wrapped with the namespace declarations the
	// service expects.
	if !strings.HasPrefix(req.Body, `<entry xmlns="http://www.w3.org/2005/Atom" xmlns:gsx="http://schemas.google.com/spreadsheets/2006/extended">`) {
		t.Errorf("body not wrapped in a namespaced entry: %q", req.Body)
	}

	// Re-hydrated from the response.
	if r.Get("age") != "43" {
		t.Errorf("age after save = %q", r.Get("age"))
	}
	if r.Get("notes") != `likes "quotes" & ampersands` {
		t.Errorf("notes after save = %q", r.Get("notes"))
	}
}

func TestRowDelete(t *testing.T) {
	ft := &fakeTransport{}
	r := fetchRow(t, ft)
	ft.resps = append(ft.resps, okResponse(""))

	if err := r.Delete(context.Background()); err != nil {
		t.Fatal(err)
	}
	req := ft.reqs[len(ft.reqs)-1]
	if req.Method != http.MethodDelete || !strings.HasSuffix(req.URL, "cokwr/version1") {
		t.Errorf("request = %s %s, want DELETE of the edit link", req.Method, req.URL)
	}
}
