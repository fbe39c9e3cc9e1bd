// Package highlight marks extracted field values inside rendered unit
// documents so a reviewer can check them against the source text.
package highlight

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/Veraticus/serena/internal/model"
)

// FieldAttr marks spans inserted by Apply.
const FieldAttr = "data-field"

// Field pairs a record field with its highlight color. Color is a CSS
// color name; Hex is the same color for terminals.
type Field struct {
	Name  string
	Color string
	Hex   string
}

// Legend lists the highlight color of every field in display order.
var Legend = []Field{
	{model.FieldServiceName, "yellow", "#FFFF00"},
	{model.FieldActionDatetime, "lightgreen", "#90EE90"},
	{model.FieldMessageDatetime, "lightblue", "#ADD8E6"},
	{model.FieldActionKeyword, "pink", "#FFC0CB"},
	{model.FieldAddress1, "silver", "#C0C0C0"},
	{model.FieldAddress2, "plum", "#DDA0DD"},
	{model.FieldAmount, "peachpuff", "#FFDAB9"},
	{model.FieldItem, "lavender", "#E6E6FA"},
	{model.FieldMobileNumber, "magenta", "#FF00FF"},
}

// ColorOf returns the highlight color for a field name.
func ColorOf(field string) string {
	for _, f := range Legend {
		if f.Name == field {
			return f.Color
		}
	}
	return ""
}

type term struct {
	text  string
	field string
}

type segment struct {
	text  string
	field string
}

// terms lists what to look for, in legend order, with item names last.
func terms(rec model.ExtractionRecord) []term {
	var out []term
	for _, f := range Legend {
		if f.Name == model.FieldItem {
			continue
		}
		if v, ok := rec.Value(f.Name); ok && v != "" {
			out = append(out, term{text: v, field: f.Name})
		}
	}
	for _, item := range rec.Item {
		if item.Name != "" {
			out = append(out, term{text: item.Name, field: model.FieldItem})
		}
	}
	return out
}

// Apply parses doc, wraps every occurrence of rec's values found in body
// text nodes in a colored span and returns the re-rendered document along
// with the number of spans added. Text already inside an added span is
// never matched again, and markup is never matched at all. A failed record
// adds a visible notice instead of highlights.
func Apply(doc io.Reader, rec model.ExtractionRecord) ([]byte, int, error) {
	root, err := html.Parse(doc)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse document: %w", err)
	}

	body := findBody(root)
	count := 0
	if body != nil {
		if rec.Failed() {
			addFailureNotice(body, rec.Error)
		} else {
			count = highlightTree(body, terms(rec))
		}
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return nil, 0, fmt.Errorf("failed to render document: %w", err)
	}
	return buf.Bytes(), count, nil
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

func isHighlight(n *html.Node) bool {
	if n.Type != html.ElementNode || n.DataAtom != atom.Span {
		return false
	}
	for _, a := range n.Attr {
		if a.Key == FieldAttr {
			return true
		}
	}
	return false
}

func highlightTree(n *html.Node, ts []term) int {
	if len(ts) == 0 {
		return 0
	}

	count := 0
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch {
		case c.Type == html.TextNode:
			count += highlightText(c, ts)
		case c.Type == html.ElementNode && !isHighlight(c) && c.DataAtom != atom.Script && c.DataAtom != atom.Style:
			count += highlightTree(c, ts)
		}
		c = next
	}
	return count
}

// highlightText replaces one text node with plain text and span nodes.
func highlightText(n *html.Node, ts []term) int {
	segs := []segment{{text: n.Data}}
	count := 0

	for _, t := range ts {
		var out []segment
		for _, s := range segs {
			if s.field != "" || !strings.Contains(s.text, t.text) {
				out = append(out, s)
				continue
			}
			parts := strings.Split(s.text, t.text)
			for i, p := range parts {
				if p != "" {
					out = append(out, segment{text: p})
				}
				if i < len(parts)-1 {
					out = append(out, segment{text: t.text, field: t.field})
					count++
				}
			}
		}
		segs = out
	}

	if count == 0 {
		return 0
	}

	parent := n.Parent
	for _, s := range segs {
		text := &html.Node{Type: html.TextNode, Data: s.text}
		if s.field == "" {
			parent.InsertBefore(text, n)
			continue
		}
		span := &html.Node{
			Type:     html.ElementNode,
			DataAtom: atom.Span,
			Data:     "span",
			Attr: []html.Attribute{
				{Key: "style", Val: fmt.Sprintf("background-color: %s;", ColorOf(s.field))},
				{Key: FieldAttr, Val: s.field},
			},
		}
		span.AppendChild(text)
		parent.InsertBefore(span, n)
	}
	parent.RemoveChild(n)
	return count
}

func addFailureNotice(body *html.Node, message string) {
	p := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.P,
		Data:     "p",
		Attr: []html.Attribute{
			{Key: "class", Val: "extraction-error"},
			{Key: "style", Val: "background-color: tomato;"},
		},
	}
	p.AppendChild(&html.Node{Type: html.TextNode, Data: "Extraction failed: " + message})
	body.InsertBefore(p, body.FirstChild)
}
