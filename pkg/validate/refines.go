package validate

import (
	"fmt"

	"github.com/epubtools/opfcheck/pkg/report"
	"github.com/epubtools/opfcheck/pkg/vocab"
)

// checkRefines validates the metadata refinement graph: reference
// resolution, cycle detection, and the per-relation shape rules. The
// graph is index-addressed: edges are id references resolved through
// the target table, never object pointers, so cycles are representable
// and detection is linear.
func (v *run) checkRefines() {
	v.checkRefinesTargets()
	v.checkRefinesCycles()
	v.checkMetaShapes()
	v.checkLinkShapes()
}

func (v *run) checkRefinesTargets() {
	for _, m := range v.metas {
		if !m.hasRefines {
			continue
		}
		if !m.refinesRel {
			if isRemote(m.refines) {
				v.r.AddWithLocation(report.Error, "RSC-005",
					fmt.Sprintf("The 'refines' value '%s' must be a relative URL", m.refines), m.loc)
			}
			// Relative non-fragment references point outside the
			// package document and contribute no edge.
			continue
		}
		if m.refines == "" {
			v.r.AddWithLocation(report.Error, "RSC-005",
				"The 'refines' attribute must reference an element id", m.loc)
			continue
		}
		if _, ok := v.targets[m.refines]; !ok {
			v.r.AddWithLocation(report.Error, "RSC-005",
				fmt.Sprintf("The 'refines' target id '%s' could not be found", m.refines), m.loc)
		}
	}
}

// checkRefinesCycles runs a three-color depth-first traversal over the
// meta-to-meta edges. Each cycle yields exactly one error regardless
// of its length; elements outside the cycle stay independently
// checkable.
func (v *run) checkRefinesCycles() {
	const (
		unvisited  = 0
		inProgress = 1
		done       = 2
	)

	next := func(m *metaElement) *metaElement {
		if !m.hasRefines || !m.refinesRel {
			return nil
		}
		if t, ok := v.targets[m.refines]; ok {
			return t.meta
		}
		return nil
	}

	state := make(map[*metaElement]int, len(v.metas))
	for _, start := range v.metas {
		if state[start] != unvisited {
			continue
		}
		// Walk the chain iteratively; refinement chains are paths
		// (each element has at most one refines target).
		var chain []*metaElement
		cur := start
		for cur != nil && state[cur] == unvisited {
			state[cur] = inProgress
			chain = append(chain, cur)
			cur = next(cur)
		}
		if cur != nil && state[cur] == inProgress {
			v.r.AddWithLocation(report.Error, "OPF-065",
				"Encountered a cycle in the 'refines' metadata chain", cur.loc)
		}
		for _, m := range chain {
			state[m] = done
		}
	}
}

// checkMetaShapes applies the relation-specific refinement rules for
// meta properties. Rules are not mutually exclusive; one element can
// trigger several.
func (v *run) checkMetaShapes() {
	// Occurrence counts keyed by refines target, for rules with arity
	// constraints on the same target.
	collectionTypes := make(map[string]int)
	authorities := make(map[string]int)
	terms := make(map[string]int)

	for _, m := range v.metas {
		if m.kind != "meta" || m.prop.IRI != vocab.MetaVocabIRI {
			continue
		}
		switch m.prop.Name {
		case "source-of":
			if m.value != "pagination" {
				v.r.AddWithLocation(report.Error, "RSC-005",
					fmt.Sprintf("The value of the source-of property must be 'pagination', found '%s'", m.value), m.loc)
			}
			if !m.hasRefines {
				v.r.AddWithLocation(report.Error, "RSC-005",
					"The source-of property must refine a dc:source element", m.loc)
			} else if t, ok := v.resolveTarget(m); ok && t.dcName != "source" {
				v.r.AddWithLocation(report.Error, "RSC-005",
					"The source-of property must refine a dc:source element", m.loc)
			}

		case "collection-type":
			if !m.hasRefines {
				v.r.AddWithLocation(report.Error, "RSC-005",
					"The collection-type property must refine a belongs-to-collection element", m.loc)
				continue
			}
			if t, ok := v.resolveTarget(m); ok && !isCollectionMeta(t.meta) {
				v.r.AddWithLocation(report.Error, "RSC-005",
					"The collection-type property must refine a belongs-to-collection element", m.loc)
			}
			collectionTypes[m.refines]++
			if collectionTypes[m.refines] > 1 {
				v.r.AddWithLocation(report.Error, "RSC-005",
					"The collection-type property must not occur more than once per collection", m.loc)
			}

		case "belongs-to-collection":
			if m.hasRefines {
				if t, ok := v.resolveTarget(m); ok && !isCollectionMeta(t.meta) {
					v.r.AddWithLocation(report.Error, "RSC-005",
						"A belongs-to-collection property can only refine another belongs-to-collection element", m.loc)
				}
			}

		case "authority", "term":
			if t, ok := v.resolveTarget(m); !m.hasRefines || (ok && t.dcName != "subject") {
				v.r.AddWithLocation(report.Error, "RSC-005",
					fmt.Sprintf("The %s property must refine a dc:subject element", m.prop.Name), m.loc)
				continue
			}
			if m.prop.Name == "authority" {
				authorities[m.refines]++
				if authorities[m.refines] > 1 {
					v.r.AddWithLocation(report.Error, "RSC-005",
						"The authority property must not occur more than once per subject", m.loc)
				}
			} else {
				terms[m.refines]++
				if terms[m.refines] > 1 {
					v.r.AddWithLocation(report.Error, "RSC-005",
						"The term property must not occur more than once per subject", m.loc)
				}
			}
		}
	}

	// authority and term only make sense as a pair on the same subject.
	for target := range authorities {
		if terms[target] == 0 {
			v.r.Add(report.Error, "RSC-005",
				"A subject with an authority property must also have a term property")
		}
	}
	for target := range terms {
		if authorities[target] == 0 {
			v.r.Add(report.Error, "RSC-005",
				"A subject with a term property must also have an authority property")
		}
	}
}

// checkLinkShapes applies the rel-keyword shape rules.
func (v *run) checkLinkShapes() {
	for _, m := range v.metas {
		if m.kind != "link" {
			continue
		}

		if v.linkHasRel(m, "alternate") && m.rawRels > 1 {
			v.r.AddWithLocation(report.Error, "OPF-089",
				"The 'alternate' rel keyword cannot be combined with other keywords", m.loc)
		}

		if v.linkHasRel(m, "record") {
			if m.hasRefines {
				v.r.AddWithLocation(report.Error, "RSC-005",
					"A 'record' link must not refine another element", m.loc)
			}
			if !m.hasMedia {
				v.r.AddWithLocation(report.Error, "RSC-005",
					"A 'record' link must declare a media type", m.loc)
			}
		}

		if v.linkHasRel(m, "voicing") {
			if !m.hasRefines {
				v.r.AddWithLocation(report.Error, "RSC-005",
					"A 'voicing' link must refine the element it voices", m.loc)
			}
			if !m.hasMedia {
				v.r.AddWithLocation(report.Error, "RSC-005",
					"A 'voicing' link must declare a media type", m.loc)
			} else if !isAudioMediaType(m.mediaType) {
				v.r.AddWithLocation(report.Error, "RSC-005",
					fmt.Sprintf("A 'voicing' link must reference an audio resource, found '%s'", m.mediaType), m.loc)
			}
		}

		// Linked resources live outside the publication; a manifest
		// resource must not double as a metadata link target.
		if m.href != "" && !isRemote(m.href) {
			if _, clash := v.itemHrefs[normalizeHref(m.href)]; clash {
				v.r.AddWithLocation(report.Error, "OPF-067",
					fmt.Sprintf("The resource '%s' must not be listed both as a link and as a manifest item", m.href), m.loc)
			}
		}
	}
}

func (v *run) linkHasRel(m *metaElement, keyword string) bool {
	for _, t := range m.rels {
		if t.is(vocab.LinkVocabIRI, keyword) {
			return true
		}
	}
	return false
}

// resolveTarget returns the refines target of m when it resolves.
func (v *run) resolveTarget(m *metaElement) (refTarget, bool) {
	if !m.hasRefines || !m.refinesRel {
		return refTarget{}, false
	}
	t, ok := v.targets[m.refines]
	return t, ok
}

func isCollectionMeta(m *metaElement) bool {
	return m != nil && m.prop.is(vocab.MetaVocabIRI, "belongs-to-collection")
}
