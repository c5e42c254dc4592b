package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/epubtools/opfcheck/pkg/opf"
	"github.com/epubtools/opfcheck/pkg/report"
	"github.com/epubtools/opfcheck/pkg/vocab"
)

// buildMetadata assembles the metadata model: dc elements plus the
// meta/link elements that participate in the refinement graph.
// Property and rel tokens are resolved here so shape checks can match
// on vocabulary identity instead of raw strings.
func (v *run) buildMetadata(meta *opf.Element) {
	i := 0
	for _, el := range meta.Children {
		if el.InNS(opf.NSDublinCore) {
			v.dcElems = append(v.dcElems, el)
			continue
		}
		if el.Local != "meta" && el.Local != "link" {
			continue
		}
		i++
		m := &metaElement{
			kind:  el.Local,
			value: el.Text,
			loc:   fmt.Sprintf("package/metadata/%s[%d]", el.Local, i),
		}
		m.id = el.AttrValue("id")
		if raw, ok := el.Attr("refines"); ok {
			m.hasRefines = true
			if strings.HasPrefix(raw, "#") {
				m.refinesRel = true
				m.refines = strings.TrimPrefix(raw, "#")
			} else {
				m.refines = raw
			}
		}
		m.scheme = el.AttrValue("scheme")
		m.href = el.AttrValue("href")
		m.mediaType, m.hasMedia = el.Attr("media-type")

		if !v.v3() {
			// v2 metadata carries name/content metas and no refinement
			// vocabulary; tokens are not resolved.
			v.metas = append(v.metas, m)
			continue
		}

		switch m.kind {
		case "meta":
			if prop, ok := el.Attr("property"); ok {
				if t, ok := v.checker.checkSingle(prop, "property", m.loc, vocab.ContextMeta); ok {
					m.prop = t
				}
			} else if _, legacy := el.Attr("name"); !legacy {
				v.r.AddWithLocation(report.Error, "RSC-005",
					"The meta element is missing required attribute 'property'", m.loc)
			}
			if m.scheme != "" {
				v.checker.checkSingle(m.scheme, "scheme", m.loc, vocab.ContextMetaScheme)
			}
		case "link":
			if rel, ok := el.Attr("rel"); ok {
				m.rawRels = len(strings.Fields(rel))
				m.rels = v.checker.checkMulti(rel, "rel", m.loc, vocab.ContextLinkRel)
			} else {
				v.r.AddWithLocation(report.Error, "RSC-005",
					"The link element is missing required attribute 'rel'", m.loc)
			}
			if m.href == "" {
				v.r.AddWithLocation(report.Error, "RSC-005",
					"The link element is missing required attribute 'href'", m.loc)
			}
			if props, ok := el.Attr("properties"); ok {
				v.checker.checkMulti(props, "properties", m.loc, vocab.ContextLinkProperty)
			}
		}
		v.metas = append(v.metas, m)
	}
}

var (
	modifiedRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z$`)
	w3cdtfRe   = regexp.MustCompile(`^\d{4}(-\d{2}(-\d{2}(T\d{2}:\d{2}(:\d{2}(\.\d+)?)?(Z|[+-]\d{2}:\d{2})?)?)?)?$`)
	uuidRe     = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
)

func (v *run) checkMetadata() {
	v.checkRequiredDC()
	v.checkUniqueIdentifier()
	if v.v3() {
		v.checkModified()
		v.checkRenditionGlobals()
	}
	v.checkDates()
	v.checkUUIDs()
}

func (v *run) dcAll(name string) []*opf.Element {
	var out []*opf.Element
	for _, el := range v.dcElems {
		if el.Local == name {
			out = append(out, el)
		}
	}
	return out
}

func (v *run) checkRequiredDC() {
	for _, name := range []string{"identifier", "title", "language"} {
		elems := v.dcAll(name)
		if len(elems) == 0 {
			v.r.Add(report.Error, "RSC-005",
				fmt.Sprintf("Package metadata is missing required element dc:%s", name))
			continue
		}
		for _, el := range elems {
			if strings.TrimSpace(el.Text) == "" {
				v.r.Add(report.Error, "RSC-005",
					fmt.Sprintf("Element dc:%s must be a string with length at least 1", name))
			}
		}
	}
}

func (v *run) checkUniqueIdentifier() {
	uid, ok := v.root.Attr("unique-identifier")
	if !ok || uid == "" {
		v.r.Add(report.Error, "RSC-005", "Package element is missing required attribute 'unique-identifier'")
		return
	}
	for _, el := range v.dcAll("identifier") {
		if el.AttrValue("id") == uid {
			return
		}
	}
	v.r.Add(report.Error, "RSC-005",
		fmt.Sprintf("The 'unique-identifier' attribute value '%s' does not resolve to a dc:identifier element", uid))
}

// checkModified enforces the version-3 last-modified declaration:
// present, exactly once, fixed syntax.
func (v *run) checkModified() {
	var found []*metaElement
	for _, m := range v.metas {
		if m.kind == "meta" && m.prop.is(vocab.DCTermsIRI, "modified") && !m.hasRefines {
			found = append(found, m)
		}
	}
	if len(found) == 0 {
		v.r.Add(report.Error, "RSC-005", "Package metadata is missing required element dcterms:modified")
		return
	}
	if len(found) > 1 {
		v.r.Add(report.Error, "RSC-005",
			fmt.Sprintf("Element dcterms:modified must occur exactly once, found %d", len(found)))
	}
	for _, m := range found {
		if !modifiedRe.MatchString(m.value) {
			v.r.AddWithLocation(report.Error, "RSC-005",
				fmt.Sprintf("The value of dcterms:modified ('%s') must be of the form CCYY-MM-DDThh:mm:ssZ", m.value), m.loc)
		}
	}
}

func (v *run) checkDates() {
	for _, el := range v.dcAll("date") {
		if el.Text != "" && !w3cdtfRe.MatchString(el.Text) {
			v.r.Add(report.Warning, "OPF-053",
				fmt.Sprintf("Date value '%s' does not follow recommended syntax of W3CDTF", el.Text))
		}
	}
}

func (v *run) checkUUIDs() {
	for _, el := range v.dcAll("identifier") {
		val := strings.TrimSpace(el.Text)
		if !strings.HasPrefix(val, "urn:uuid:") {
			continue
		}
		if !uuidRe.MatchString(strings.TrimPrefix(val, "urn:uuid:")) {
			v.r.Add(report.Warning, "OPF-085",
				fmt.Sprintf("The identifier '%s' is not a valid UUID", val))
		}
	}
}

// renditionGlobalValues fixes the allowed value set per global
// rendition property. viewport is absent: its value is free-form
// dimensions, checked separately.
var renditionGlobalValues = map[string]map[string]bool{
	"flow":        {"auto": true, "paginated": true, "scrolled-continuous": true, "scrolled-doc": true},
	"layout":      {"pre-paginated": true, "reflowable": true},
	"orientation": {"auto": true, "landscape": true, "portrait": true},
	"spread":      {"auto": true, "both": true, "landscape": true, "none": true, "portrait": true},
}

var viewportRe = regexp.MustCompile(`^\s*width=\d+,?\s+height=\d+\s*$`)

// checkRenditionGlobals validates package-wide rendition properties:
// recognized values, no refines, and at most one occurrence each.
func (v *run) checkRenditionGlobals() {
	counts := make(map[string]int)
	for _, m := range v.metas {
		if m.kind != "meta" || m.prop.IRI != vocab.RenditionIRI {
			continue
		}
		name := m.prop.Name
		if m.hasRefines {
			v.r.AddWithLocation(report.Error, "RSC-005",
				fmt.Sprintf("The rendition:%s property must not be set on a refining meta", name), m.loc)
			continue
		}
		counts[name]++
		if counts[name] > 1 {
			v.r.AddWithLocation(report.Error, "RSC-005",
				fmt.Sprintf("The rendition:%s property must not occur more than once", name), m.loc)
		}
		if allowed, known := renditionGlobalValues[name]; known {
			if !allowed[m.value] {
				v.r.AddWithLocation(report.Error, "RSC-005",
					fmt.Sprintf("The value '%s' is not valid for property rendition:%s", m.value, name), m.loc)
			} else if name == "spread" && m.value == "portrait" {
				v.r.AddWithLocation(report.Warning, "RSC-017",
					"The 'portrait' value of rendition:spread is deprecated", m.loc)
			}
		}
		if name == "viewport" && !viewportRe.MatchString(m.value) {
			v.r.AddWithLocation(report.Error, "RSC-005",
				fmt.Sprintf("The value '%s' is not valid for property rendition:viewport", m.value), m.loc)
		}
	}
}
