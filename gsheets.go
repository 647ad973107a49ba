package gsheets

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/exp/slices"
)

// Spreadsheet is the root client object for one remote spreadsheet, identified by
// its opaque key. Metadata and the worksheet list are populated lazily by
// Refresh.
//
// A Spreadsheet and its entities are not safe for concurrent mutation; callers
// issuing overlapping requests against the same instance must serialize them.
type Spreadsheet struct {
	key       string
	auth      *authManager
	transport Transport
	baseURL   string

	// explicit overrides; empty means derive from the auth state
	visibility Visibility
	projection Projection

	id          string
	title       string
	updated     time.Time
	authorName  string
	authorEmail string
	worksheets  []*Worksheet
}

// Option configures a Spreadsheet at construction.
type Option func(*Spreadsheet)

// WithVisibility overrides the visibility mode. An explicit override always wins
// over the credential-derived default.
func WithVisibility(v Visibility) Option {
	return func(s *Spreadsheet) { s.visibility = v }
}

// WithProjection overrides the projection mode.
func WithProjection(p Projection) Option {
	return func(s *Spreadsheet) { s.projection = p }
}

// WithTransport replaces the HTTP transport.
func WithTransport(t Transport) Option {
	return func(s *Spreadsheet) { s.transport = t }
}

// WithBaseURL replaces the feed root URL.
func WithBaseURL(u string) Option {
	return func(s *Spreadsheet) { s.baseURL = strings.TrimSuffix(u, "/") }
}

// NewSpreadsheet creates a client for the spreadsheet with the given key. The key
// is required; credentials may be installed afterwards via SetAuthToken or the
// UseServiceAccount methods.
func NewSpreadsheet(key string, opts ...Option) (*Spreadsheet, error) {
	if key == "" {
		return nil, &ValidationError{Field: "key", Message: "a spreadsheet key is required"}
	}
	s := &Spreadsheet{
		key:       key,
		auth:      &authManager{},
		transport: &httpTransport{client: http.DefaultClient},
		baseURL:   defaultFeedRoot,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Key returns the spreadsheet's opaque key.
func (s *Spreadsheet) Key() string { return s.key }

// ID returns the spreadsheet's canonical feed id, populated by Refresh.
func (s *Spreadsheet) ID() string { return s.id }

// Title returns the spreadsheet's title, populated by Refresh.
func (s *Spreadsheet) Title() string { return s.title }

// Updated returns the spreadsheet's last-updated time, populated by Refresh.
func (s *Spreadsheet) Updated() time.Time { return s.updated }

// Author returns the spreadsheet author's name and email, populated by Refresh.
func (s *Spreadsheet) Author() (name, email string) {
	return s.authorName, s.authorEmail
}

// EffectiveVisibility returns the visibility used for feed URLs: the explicit
// override when set, otherwise private once any credential is present and public
// before that.
func (s *Spreadsheet) EffectiveVisibility() Visibility {
	if s.visibility != "" {
		return s.visibility
	}
	if s.auth.authenticated() {
		return Private
	}
	return Public
}

// EffectiveProjection returns the projection used for feed URLs, derived the same
// way as EffectiveVisibility (full when authenticated, else values).
func (s *Spreadsheet) EffectiveProjection() Projection {
	if s.projection != "" {
		return s.projection
	}
	if s.auth.authenticated() {
		return Full
	}
	return Values
}

// Refresh fetches the worksheets feed and populates the spreadsheet's metadata
// and worksheet list.
func (s *Spreadsheet) Refresh(ctx context.Context) error {
	f, _, _, err := s.do(ctx, http.MethodGet, s.feedURL("worksheets"), "")
	if err != nil {
		return err
	}
	if f == nil {
		return ErrEmptyResponse
	}
	s.id = f.ID
	s.title = f.Title
	if t, err := time.Parse(time.RFC3339, f.Updated); err == nil {
		s.updated = t
	}
	s.authorName = f.Author.Name
	s.authorEmail = f.Author.Email
	s.worksheets = s.worksheets[:0]
	for i := range f.Entries {
		s.worksheets = append(s.worksheets, newWorksheet(s, &f.Entries[i]))
	}
	return nil
}

// Worksheets returns the worksheet list as of the last Refresh, AddWorksheet or
// Delete.
func (s *Spreadsheet) Worksheets() []*Worksheet {
	return slices.Clone(s.worksheets)
}

// Worksheet returns the worksheet with the given title, or nil.
func (s *Spreadsheet) Worksheet(title string) *Worksheet {
	for _, w := range s.worksheets {
		if w.title == title {
			return w
		}
	}
	return nil
}

// WorksheetByID returns the worksheet with the given id, or nil.
func (s *Spreadsheet) WorksheetByID(id string) *Worksheet {
	for _, w := range s.worksheets {
		if w.id == id {
			return w
		}
	}
	return nil
}

// AddWorksheet creates a worksheet with the given title and dimensions, appends
// it to the worksheet list and returns it. Zero dimensions default to 50 rows and
// 20 columns.
func (s *Spreadsheet) AddWorksheet(ctx context.Context, title string, rows, cols int) (*Worksheet, error) {
	if rows <= 0 {
		rows = 50
	}
	if cols <= 0 {
		cols = 20
	}
	body := fmt.Sprintf(worksheetEntryTmpl, xmlSafeValue(title), rows, cols)
	_, e, _, err := s.do(ctx, http.MethodPost, s.feedURL("worksheets"), body)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrEmptyResponse
	}
	w := newWorksheet(s, e)
	s.worksheets = append(s.worksheets, w)
	return w, nil
}

// RemoveWorksheet deletes the given worksheet.
func (s *Spreadsheet) RemoveWorksheet(ctx context.Context, w *Worksheet) error {
	return w.Delete(ctx)
}

func (s *Spreadsheet) dropWorksheet(w *Worksheet) {
	if i := slices.Index(s.worksheets, w); i >= 0 {
		s.worksheets = slices.Delete(s.worksheets, i, i+1)
	}
}

// RowOptions narrow a row listing. The structured Query string may use the
// literal operators <, > and =; they travel unescaped.
type RowOptions struct {
	Offset  int    // start-index
	Limit   int    // max-results
	OrderBy string // orderby
	Reverse bool   // reverse=true
	Query   string // sq
}

func (o *RowOptions) query() string {
	if o == nil {
		return ""
	}
	v := url.Values{}
	intQuery(v, "start-index", o.Offset)
	intQuery(v, "max-results", o.Limit)
	if o.OrderBy != "" {
		v.Set("orderby", o.OrderBy)
	}
	if o.Reverse {
		v.Set("reverse", "true")
	}
	if o.Query != "" {
		v.Set("sq", o.Query)
	}
	return encodeQuery(v)
}

// Rows lists the rows of the given worksheet.
func (s *Spreadsheet) Rows(ctx context.Context, worksheetID string, opts *RowOptions) ([]*Row, error) {
	u := s.feedURL("list", worksheetID)
	if q := opts.query(); q != "" {
		u += "?" + q
	}
	f, _, _, err := s.do(ctx, http.MethodGet, u, "")
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, ErrEmptyResponse
	}
	rows := make([]*Row, 0, len(f.Entries))
	for i := range f.Entries {
		rows = append(rows, newRow(s, worksheetID, &f.Entries[i]))
	}
	return rows, nil
}

// AddRow appends a row with the given column values to the worksheet and returns
// the created Row, built from the service's response.
func (s *Spreadsheet) AddRow(ctx context.Context, worksheetID string, data map[string]string) (*Row, error) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	fmt.Fprintf(&b, `<entry xmlns="%s" xmlns:gsx="%s">`, nsAtom, nsGSX)
	for _, k := range keys {
		safe := xmlSafeColumnName(k)
		fmt.Fprintf(&b, "<gsx:%s>%s</gsx:%s>", safe, xmlSafeValue(data[k]), safe)
	}
	b.WriteString("</entry>")

	_, e, _, err := s.do(ctx, http.MethodPost, s.feedURL("list", worksheetID), b.String())
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrEmptyResponse
	}
	return newRow(s, worksheetID, e), nil
}

// CellOptions narrow a cell listing to a rectangle and control whether empty
// cells are included.
type CellOptions struct {
	MinRow      int
	MaxRow      int
	MinCol      int
	MaxCol      int
	ReturnEmpty bool
}

func (o *CellOptions) query() string {
	if o == nil {
		return ""
	}
	v := url.Values{}
	intQuery(v, "min-row", o.MinRow)
	intQuery(v, "max-row", o.MaxRow)
	intQuery(v, "min-col", o.MinCol)
	intQuery(v, "max-col", o.MaxCol)
	if o.ReturnEmpty {
		v.Set("return-empty", "true")
	}
	return encodeQuery(v)
}

// Cells lists the cells of the given worksheet.
func (s *Spreadsheet) Cells(ctx context.Context, worksheetID string, opts *CellOptions) ([]*Cell, error) {
	u := s.feedURL("cells", worksheetID)
	if q := opts.query(); q != "" {
		u += "?" + q
	}
	f, _, _, err := s.do(ctx, http.MethodGet, u, "")
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, ErrEmptyResponse
	}
	cells := make([]*Cell, 0, len(f.Entries))
	for i := range f.Entries {
		c, err := newCell(s, worksheetID, f.ID, &f.Entries[i])
		if err != nil {
			return nil, err
		}
		cells = append(cells, c)
	}
	return cells, nil
}
