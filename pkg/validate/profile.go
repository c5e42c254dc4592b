package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/epubtools/opfcheck/pkg/report"
	"github.com/epubtools/opfcheck/pkg/vocab"
)

// profileRule is one additive check layered over the base rule set.
type profileRule func(v *run)

// profileRules maps each profile to its extra rules. A profile absent
// from the table (or mapped to nil) layers nothing; its publications
// are validated by the base rules alone. Index and preview collections
// are already covered by the base collection shapes.
var profileRules = map[Profile][]profileRule{
	ProfileDict: {
		(*run).checkDictType,
		(*run).checkDictLanguages,
		(*run).checkDictKeyMaps,
	},
	ProfileEdupub: {
		(*run).checkEdupubType,
		(*run).checkEdupubAccessibility,
		(*run).checkEdupubTeacherEdition,
	},
	ProfileIdx:     nil,
	ProfilePreview: nil,
}

func (v *run) applyProfile() {
	if !v.v3() {
		return
	}
	for _, rule := range profileRules[v.opts.Profile] {
		rule(v)
	}
}

func (v *run) dcTypeValues() []string {
	var out []string
	for _, el := range v.dcAll("type") {
		out = append(out, strings.TrimSpace(el.Text))
	}
	return out
}

func hasValue(values []string, want string) bool {
	for _, val := range values {
		if val == want {
			return true
		}
	}
	return false
}

func (v *run) checkDictType() {
	if !hasValue(v.dcTypeValues(), "dictionary") {
		v.r.Add(report.Error, "RSC-005",
			"A dictionary publication must declare a dc:type with the value 'dictionary'")
	}
}

var langTagRe = regexp.MustCompile(`^[A-Za-z]{2,8}(-[A-Za-z0-9]{1,8})*$`)

// checkDictLanguages enforces the dictionary language declarations:
// every dc:language value in scope must be a well-formed language tag,
// and each dictionary collection must declare its content language in
// its own metadata. Presence of a package-level dc:language is already
// a base requirement.
func (v *run) checkDictLanguages() {
	for _, el := range v.dcAll("language") {
		if lang := strings.TrimSpace(el.Text); lang != "" && !langTagRe.MatchString(lang) {
			v.r.Add(report.Error, "RSC-005",
				fmt.Sprintf("The dc:language value '%s' is not a well-formed language tag", lang))
		}
	}
	for _, c := range v.collections {
		if !c.hasRole("dictionary") {
			continue
		}
		if len(c.langs) == 0 {
			v.r.AddWithLocation(report.Error, "RSC-005",
				"A dictionary collection must declare its content language with dc:language", c.loc)
			continue
		}
		for _, lang := range c.langs {
			switch {
			case lang == "":
				v.r.AddWithLocation(report.Error, "RSC-005",
					"The dc:language element of a dictionary collection must not be empty", c.loc)
			case !langTagRe.MatchString(lang):
				v.r.AddWithLocation(report.Error, "RSC-005",
					fmt.Sprintf("The dc:language value '%s' is not a well-formed language tag", lang), c.loc)
			}
		}
	}
}

// checkDictKeyMaps enforces the search key map (SKM) cardinality
// rules: every SKM declares the dedicated media type; a single
// dictionary needs one SKM in the package; with multiple dictionary
// collections each one needs exactly one SKM of its own.
func (v *run) checkDictKeyMaps() {
	skmItems := make(map[*manifestItem]bool)
	for _, it := range v.items {
		isSKM := it.hasProperty("search-key-map")
		if isSKM {
			skmItems[it] = true
			if it.hasMediaType && it.mediaType != skmMediaType {
				v.r.AddWithLocation(report.Error, "OPF-012",
					fmt.Sprintf("The search-key-map property is not defined for media type '%s'", it.mediaType), it.loc)
			}
		} else if it.hasMediaType && it.mediaType == skmMediaType {
			v.r.AddWithLocation(report.Error, "RSC-005",
				fmt.Sprintf("The search key map '%s' must declare the 'search-key-map' property", it.href), it.loc)
		}
	}

	var dictCollections []*collectionNode
	for _, c := range v.collections {
		if c.hasRole("dictionary") {
			dictCollections = append(dictCollections, c)
		}
	}

	if len(dictCollections) == 0 {
		if len(skmItems) == 0 {
			v.r.Add(report.Error, "RSC-005",
				"A dictionary publication must contain a search key map")
		}
		return
	}

	// Exclusivity: an SKM belongs to exactly one dictionary collection.
	claimed := make(map[*manifestItem]bool)

	for _, c := range dictCollections {
		var skms []*manifestItem
		for _, link := range c.links {
			it, ok := v.itemHrefs[normalizeHref(link.href)]
			if !ok {
				continue // OPF-081 reported by the base collection check
			}
			if skmItems[it] {
				skms = append(skms, it)
				continue
			}
			if it.hasMediaType && it.mediaType != xhtmlMediaType {
				v.r.AddWithLocation(report.Error, "OPF-084",
					fmt.Sprintf("The dictionary resource '%s' must be an XHTML content document", link.href), link.loc)
			}
		}

		switch {
		case len(skms) == 0:
			v.r.AddWithLocation(report.Error, "OPF-083",
				"A dictionary collection must contain exactly one search key map, found none", c.loc)
		case len(skms) > 1:
			v.r.AddWithLocation(report.Error, "OPF-082",
				fmt.Sprintf("A dictionary collection must contain exactly one search key map, found %d", len(skms)), c.loc)
		}

		for _, skm := range skms {
			if claimed[skm] {
				v.r.AddWithLocation(report.Error, "RSC-005",
					fmt.Sprintf("The search key map '%s' must not be shared across dictionary collections", skm.href), c.loc)
				continue
			}
			claimed[skm] = true
		}
	}
}

func (v *run) checkEdupubType() {
	if len(v.dcTypeValues()) == 0 {
		v.r.Add(report.Error, "RSC-005",
			"An educational publication must declare a dc:type")
	}
}

func (v *run) checkEdupubAccessibility() {
	var features []*metaElement
	for _, m := range v.metas {
		if m.kind == "meta" && m.prop.is(vocab.SchemaIRI, "accessibilityFeature") {
			features = append(features, m)
		}
	}
	if len(features) == 0 {
		v.r.Add(report.Error, "RSC-005",
			"An educational publication must declare schema:accessibilityFeature metadata")
		return
	}
	for _, m := range features {
		if m.value == "none" {
			v.r.AddWithLocation(report.Error, "RSC-005",
				"The schema:accessibilityFeature value must not be 'none'", m.loc)
		}
	}
}

func (v *run) checkEdupubTeacherEdition() {
	if !hasValue(v.dcTypeValues(), "teacher-edition") {
		return
	}
	if len(v.dcAll("source")) == 0 {
		v.r.Add(report.Warning, "RSC-017",
			"A teacher's edition should identify its student edition with dc:source")
	}
}
