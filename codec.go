package gsheets

import (
	"regexp"
	"strings"
)

// The service stores cell and row values inside XML text and attribute positions,
// so the five characters below must travel as entity references. Newlines and
// carriage returns use numeric references because the named forms are not part of
// the XML 1.0 built-ins.
var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"\n", "&#10;",
	"\r", "&#13;",
)

var xmlUnescaper = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
	"&#10;", "\n",
	"&#13;", "\r",
)

// xmlSafeValue escapes a scalar value for embedding in XML text or attribute
// positions.
func xmlSafeValue(v string) string {
	return xmlEscaper.Replace(v)
}

// xmlUnescape inverts xmlSafeValue. It is also applied to error response bodies,
// which the service returns entity-escaped.
func xmlUnescape(v string) string {
	return xmlUnescaper.Replace(v)
}

var columnNameStrip = regexp.MustCompile(`[\s_]+`)

// xmlSafeColumnName normalizes a column header to the identifier form the service
// uses for its extended row fields: whitespace and underscores removed, lowercased.
// The normalization is idempotent.
func xmlSafeColumnName(name string) string {
	return strings.ToLower(columnNameStrip.ReplaceAllString(name, ""))
}
