package gsheets

// link is the decoded form of an Atom link descriptor.
type link struct {
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
	Href string `xml:"href,attr"`
}

// linkSet maps a link relation to its href. Every entity keeps one; it holds the
// URLs needed to mutate or delete the entity.
type linkSet map[string]string

// newLinkSet builds the relation to href mapping from the link descriptors of a
// decoded entry. If a relation repeats, the last descriptor wins.
func newLinkSet(links []link) linkSet {
	ls := make(linkSet, len(links))
	for _, l := range links {
		ls[l.Rel] = l.Href
	}
	return ls
}

// get returns the href for the given relation, or "" when the entry carried no
// such link. Callers that can derive a fallback URL must do so themselves.
func (ls linkSet) get(rel string) string {
	return ls[rel]
}
