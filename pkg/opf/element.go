package opf

// Namespace URIs used by package documents.
const (
	NSPackage    = "http://www.idpf.org/2007/opf"
	NSDublinCore = "http://purl.org/dc/elements/1.1/"
)

// Attr is a single attribute of an element. Space is empty for
// unprefixed attributes.
type Attr struct {
	Space string
	Local string
	Value string
}

// Element is one node of a parsed package document. The tree is
// loosely typed: validation builds its own models (manifest, refinement
// graph, collections) by walking it.
type Element struct {
	Space    string
	Local    string
	Attrs    []Attr
	Text     string
	Children []*Element
}

// Attr returns the value of the unprefixed attribute with the given
// local name, and whether it was present.
func (e *Element) Attr(local string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Space == "" && a.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// AttrValue returns the value of the unprefixed attribute with the
// given local name, or "" if absent.
func (e *Element) AttrValue(local string) string {
	v, _ := e.Attr(local)
	return v
}

// AttrNS returns the value of the attribute with the given namespace
// and local name, and whether it was present.
func (e *Element) AttrNS(space, local string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Space == space && a.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// First returns the first direct child with the given local name, or nil.
func (e *Element) First(local string) *Element {
	for _, c := range e.Children {
		if c.Local == local {
			return c
		}
	}
	return nil
}

// All returns the direct children with the given local name.
func (e *Element) All(local string) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if c.Local == local {
			out = append(out, c)
		}
	}
	return out
}

// InNS reports whether the element belongs to the given namespace.
func (e *Element) InNS(space string) bool {
	return e.Space == space
}
