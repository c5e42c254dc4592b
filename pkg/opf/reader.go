package opf

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Parse builds the element tree for a package document from raw bytes.
// It is a thin collaborator: it resolves namespaces and collects
// attributes and character data but performs no validation beyond XML
// well-formedness.
func Parse(data []byte) (*Element, error) {
	return ParseReader(bytes.NewReader(data))
}

// ParseReader is like Parse but consumes an io.Reader.
func ParseReader(r io.Reader) (*Element, error) {
	dec := xml.NewDecoder(r)

	var root *Element
	var stack []*Element

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing package document: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{
				Space: t.Name.Space,
				Local: t.Name.Local,
			}
			for _, a := range t.Attr {
				// xmlns declarations are resolved by the decoder;
				// they are not document attributes.
				if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
					continue
				}
				el.Attrs = append(el.Attrs, Attr{
					Space: a.Name.Space,
					Local: a.Name.Local,
					Value: a.Value,
				})
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("parsing package document: multiple root elements")
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("parsing package document: unbalanced end element %s", t.Name.Local)
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) > 0 {
				cur := stack[len(stack)-1]
				cur.Text += string(t)
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("parsing package document: no root element")
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("parsing package document: unclosed element %s", stack[len(stack)-1].Local)
	}

	// Trim surrounding whitespace from collected character data once,
	// so checks compare against the effective text value.
	trimText(root)
	return root, nil
}

func trimText(e *Element) {
	e.Text = strings.TrimSpace(e.Text)
	for _, c := range e.Children {
		trimText(c)
	}
}
