package insight

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document wraps a parsed HTML page so widgets can locate containers,
// hydrate them in place, and inject the default stylesheet exactly once.
type Document struct {
	doc *goquery.Document
}

// ParseDocument reads an HTML page into a Document.
func ParseDocument(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("insight: parse document: %w", err)
	}
	return &Document{doc: doc}, nil
}

// ParseDocumentString is a convenience wrapper for in-memory markup.
func ParseDocumentString(markup string) (*Document, error) {
	return ParseDocument(strings.NewReader(markup))
}

// ElementByID returns the element with the given id.
func (d *Document) ElementByID(id string) (Element, bool) {
	sel := d.doc.Find("#" + id)
	if sel.Length() == 0 {
		return nil, false
	}
	return &docElement{sel: sel.First()}, true
}

// HasStylesheet reports whether a style tag with the given id exists.
func (d *Document) HasStylesheet(id string) bool {
	return d.doc.Find("style#"+id).Length() > 0
}

// InjectStylesheet appends a style tag to head, falling back to the document
// root when the page has no head element.
func (d *Document) InjectStylesheet(id, css string) {
	tag := fmt.Sprintf("<style id=%q>%s</style>", id, css)
	head := d.doc.Find("head")
	if head.Length() > 0 {
		head.First().AppendHtml(tag)
		return
	}
	d.doc.Selection.Find("html").First().PrependHtml(tag)
}

// Find exposes the underlying selection for callers that scan the page,
// such as declarative embed discovery.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// HTML serializes the hydrated page.
func (d *Document) HTML() (string, error) {
	out, err := d.doc.Html()
	if err != nil {
		return "", fmt.Errorf("insight: serialize document: %w", err)
	}
	return out, nil
}

type docElement struct {
	sel *goquery.Selection
}

func (e *docElement) AddClass(name string) {
	e.sel.AddClass(name)
}

func (e *docElement) SetHTML(markup string) error {
	e.sel.SetHtml(markup)
	return nil
}
