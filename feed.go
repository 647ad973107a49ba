package gsheets

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.alis.build/alog"
)

const (
	defaultFeedRoot = "https://spreadsheets.google.com/feeds"
	mediaTypeAtom   = "application/atom+xml"

	nsAtom  = "http://www.w3.org/2005/Atom"
	nsGS    = "http://schemas.google.com/spreadsheets/2006"
	nsGSX   = "http://schemas.google.com/spreadsheets/2006/extended"
	nsBatch = "http://schemas.google.com/gdata/batch"

	relEdit      = "edit"
	relCellsFeed = nsGS + "#cellsfeed"
	relListFeed  = nsGS + "#listfeed"
)

// Visibility selects the server-side access mode of feed URLs.
type Visibility string

const (
	Public  Visibility = "public"
	Private Visibility = "private"
)

// Projection selects the server-side response verbosity of feed URLs.
type Projection string

const (
	Full   Projection = "full"
	Values Projection = "values"
)

// Request is a single outbound feed request.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   string
}

// Response is the transport-level result of a Request.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       string
}

// Transport issues a single HTTP round trip. The default implementation uses
// net/http; tests and callers with special transport needs may swap it via
// WithTransport.
type Transport interface {
	RoundTrip(ctx context.Context, req *Request) (*Response, error)
}

type httpTransport struct {
	client *http.Client
}

func (t *httpTransport) RoundTrip(ctx context.Context, req *Request) (*Response, error) {
	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}
	hr, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, err
	}
	hr.Header = req.Header
	resp, err := t.client.Do(hr)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       string(b),
	}, nil
}

// feed is the decoded form of an Atom feed document.
type feed struct {
	ID      string  `xml:"id"`
	Title   string  `xml:"title"`
	Updated string  `xml:"updated"`
	Author  author  `xml:"author"`
	Entries []entry `xml:"entry"`
}

type author struct {
	Name  string `xml:"name"`
	Email string `xml:"email"`
}

// entry is the decoded form of a single Atom entry, covering the worksheet, row
// and cell shapes. Raw retains the verbatim inner XML so that row saves can patch
// individual elements without rebuilding the document (see Row.Save).
type entry struct {
	ID       string          `xml:"id"`
	Title    string          `xml:"title"`
	Updated  string          `xml:"updated"`
	Links    []link          `xml:"link"`
	RowCount int             `xml:"http://schemas.google.com/spreadsheets/2006 rowCount"`
	ColCount int             `xml:"http://schemas.google.com/spreadsheets/2006 colCount"`
	Cell     *cellElem       `xml:"http://schemas.google.com/spreadsheets/2006 cell"`
	Raw      string          `xml:",innerxml"`
	Extended []extendedField `xml:",any"`
}

// extendedField is one gsx:<column> element of a row entry. The decoder strips the
// namespace prefix; XMLName.Space identifies extended fields among the unmatched
// elements collected by the ",any" rule.
type extendedField struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

// gsxFields returns the extended row fields of the entry, in document order.
func (e *entry) gsxFields() []extendedField {
	var fields []extendedField
	for _, f := range e.Extended {
		if f.XMLName.Space == nsGSX {
			fields = append(fields, f)
		}
	}
	return fields
}

// cellElem is the decoded gs:cell element of a cell entry.
type cellElem struct {
	Row          int    `xml:"row,attr"`
	Col          int    `xml:"col,attr"`
	InputValue   string `xml:"inputValue,attr"`
	NumericValue string `xml:"numericValue,attr"`
	Value        string `xml:",chardata"`
}

// parseBody decodes a response body into either a feed or a single entry,
// depending on the document root. An empty body yields no document and no error.
func parseBody(raw string) (*feed, *entry, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil, nil
	}
	dec := xml.NewDecoder(strings.NewReader(trimmed))
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("parse response: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "feed":
			var f feed
			if err := dec.DecodeElement(&f, &se); err != nil {
				return nil, nil, fmt.Errorf("parse response: %w", err)
			}
			return &f, nil, nil
		case "entry":
			var e entry
			if err := dec.DecodeElement(&e, &se); err != nil {
				return nil, nil, fmt.Errorf("parse response: %w", err)
			}
			return nil, &e, nil
		default:
			return nil, nil, fmt.Errorf("parse response: unexpected root element <%s>", se.Name.Local)
		}
	}
}

// queryUnescape restores the structured-query operators inside encoded parameter
// values. The service's sq parameter uses <, > and = as literal operators and
// rejects their percent-encoded forms.
var queryUnescape = strings.NewReplacer("%3C", "<", "%3E", ">", "%3D", "=")

func encodeQuery(v url.Values) string {
	return queryUnescape.Replace(v.Encode())
}

// feedURL builds a structured feed URL: the ordered path segments under the feed
// root, with the effective visibility and projection appended.
func (s *Spreadsheet) feedURL(resource string, extra ...string) string {
	parts := make([]string, 0, len(extra)+5)
	parts = append(parts, s.baseURL, resource, s.key)
	parts = append(parts, extra...)
	parts = append(parts, string(s.EffectiveVisibility()), string(s.EffectiveProjection()))
	return strings.Join(parts, "/")
}

// do issues one feed request and maps the response per the service's observable
// contract. On success it returns the decoded document (feed or entry, possibly
// neither when the body was empty) together with the raw body text.
func (s *Spreadsheet) do(ctx context.Context, method, rawURL, body string) (*feed, *entry, string, error) {
	header := http.Header{}
	header.Set("X-Request-Id", uuid.New().String())
	if err := s.auth.setAuthorization(ctx, header); err != nil {
		return nil, nil, "", err
	}
	if method == http.MethodPost || method == http.MethodPut {
		header.Set("Content-Type", mediaTypeAtom)
	}
	if strings.HasSuffix(rawURL, "/batch") {
		// Bypass the service's optimistic-concurrency check for batch writes.
		header.Set("If-Match", "*")
	}

	alog.Debugf(ctx, "gsheets: %s %s [%s]", method, rawURL, header.Get("X-Request-Id"))
	resp, err := s.transport.RoundTrip(ctx, &Request{
		Method: method,
		URL:    rawURL,
		Header: header,
		Body:   body,
	})
	if err != nil {
		return nil, nil, "", err
	}

	switch {
	case resp.StatusCode == http.StatusOK && strings.Contains(resp.Header.Get("Content-Type"), "text/html"):
		// The service answers reads of unpublished spreadsheets with an HTML
		// page and a 200 status.
		return nil, nil, "", &AccessError{URL: rawURL}
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, nil, "", &CredentialError{Body: resp.Body}
	case resp.StatusCode >= 400:
		return nil, nil, "", newHTTPError(resp.StatusCode, resp.Body)
	}

	f, e, err := parseBody(resp.Body)
	if err != nil {
		return nil, nil, "", err
	}
	return f, e, resp.Body, nil
}

func intQuery(v url.Values, key string, value int) {
	if value > 0 {
		v.Set(key, strconv.Itoa(value))
	}
}
