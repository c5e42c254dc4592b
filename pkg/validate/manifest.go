package validate

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/epubtools/opfcheck/pkg/report"
	"github.com/epubtools/opfcheck/pkg/vocab"
)

func (v *run) checkManifest() {
	if v.root.First("manifest") == nil {
		v.r.Add(report.Error, "RSC-005", "Package document is missing required element: manifest")
		return
	}

	v.checkItemAttrs()
	v.checkUniqueIDs()
	v.checkUniqueResources()
	if v.v3() {
		v.checkItemProperties()
		v.checkNav()
		v.checkCoverImage()
		v.checkMediaOverlays()
	}
	v.checkFallbacks()
	v.checkPreferredTypes()
}

func (v *run) checkItemAttrs() {
	for _, it := range v.items {
		if !it.hasID {
			v.r.AddWithLocation(report.Error, "RSC-005",
				"Manifest item is missing required attribute 'id'", it.loc)
		}
		if !it.hasHref {
			v.r.AddWithLocation(report.Error, "RSC-005",
				"Manifest item is missing required attribute 'href'", it.loc)
		} else {
			if strings.Contains(it.href, "#") {
				v.r.AddWithLocation(report.Error, "RSC-005",
					fmt.Sprintf("Manifest item href must not have a fragment identifier: '%s'", it.href), it.loc)
			}
			if strings.Contains(it.href, " ") {
				v.r.AddWithLocation(report.Warning, "PKG-010",
					fmt.Sprintf("Filename contains spaces: '%s'", it.href), it.loc)
			}
		}
		if !it.hasMediaType {
			v.r.AddWithLocation(report.Error, "RSC-005",
				"Manifest item is missing required attribute 'media-type'", it.loc)
		}
	}
}

func (v *run) checkUniqueIDs() {
	seen := make(map[string]bool)
	for _, it := range v.items {
		if !it.hasID || it.id == "" {
			continue
		}
		if seen[it.id] {
			v.r.AddWithLocation(report.Error, "RSC-005",
				fmt.Sprintf("Duplicate id '%s'", it.id), it.loc)
		}
		seen[it.id] = true
	}
}

// normalizeHref reduces an href to the resource path it addresses:
// percent-decoded, fragment dropped, dot segments resolved.
func normalizeHref(href string) string {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		href = href[:i]
	}
	if dec, err := url.PathUnescape(href); err == nil {
		href = dec
	}
	return path.Clean(href)
}

func (v *run) checkUniqueResources() {
	seen := make(map[string]bool)
	for _, it := range v.items {
		if !it.hasHref || it.href == "" || isRemote(it.href) {
			continue
		}
		key := normalizeHref(it.href)
		if seen[key] {
			v.r.AddWithLocation(report.Error, "OPF-074",
				fmt.Sprintf("The resource '%s' is declared in several manifest items", it.href), it.loc)
		}
		seen[key] = true
	}
}

func (v *run) checkItemProperties() {
	for _, it := range v.items {
		if it.hasProps {
			it.props = v.checker.checkMulti(it.rawProps, "properties", it.loc, vocab.ContextItemProperty)
		}
	}
}

func (v *run) checkNav() {
	var navs []*manifestItem
	for _, it := range v.items {
		if it.hasProperty("nav") {
			navs = append(navs, it)
		}
	}
	switch {
	case len(navs) == 0:
		v.r.Add(report.Error, "RSC-005",
			"The manifest must include exactly one item with the 'nav' property")
	case len(navs) > 1:
		for _, it := range navs[1:] {
			v.r.AddWithLocation(report.Error, "RSC-005",
				"The 'nav' property must not occur more than one time", it.loc)
		}
	}
	for _, it := range navs {
		if it.hasMediaType && it.mediaType != xhtmlMediaType {
			v.r.AddWithLocation(report.Error, "OPF-012",
				fmt.Sprintf("The 'nav' property is not defined for media type '%s'", it.mediaType), it.loc)
		}
	}
}

func (v *run) checkCoverImage() {
	count := 0
	for _, it := range v.items {
		if !it.hasProperty("cover-image") {
			continue
		}
		count++
		if count > 1 {
			v.r.AddWithLocation(report.Error, "RSC-005",
				"The 'cover-image' property must not occur more than one time", it.loc)
		}
		if it.hasMediaType && !strings.HasPrefix(it.mediaType, "image/") {
			v.r.AddWithLocation(report.Error, "OPF-012",
				fmt.Sprintf("The 'cover-image' property is not defined for media type '%s'", it.mediaType), it.loc)
		}
	}
}

func (v *run) checkMediaOverlays() {
	for _, it := range v.items {
		if it.overlay == "" {
			continue
		}
		target, ok := v.itemByID[it.overlay]
		if !ok {
			v.r.AddWithLocation(report.Error, "RSC-005",
				fmt.Sprintf("The media overlay '%s' referenced by '%s' could not be found", it.overlay, it.href), it.loc)
			continue
		}
		if target.mediaType != smilMediaType {
			v.r.AddWithLocation(report.Error, "RSC-005",
				fmt.Sprintf("The media-overlay attribute must refer to an item of the '%s' type", smilMediaType), it.loc)
		}
	}
}

// checkFallbacks validates fallback references and reports each
// circular fallback chain exactly once.
func (v *run) checkFallbacks() {
	for _, it := range v.items {
		if !it.hasFallback {
			continue
		}
		if _, ok := v.itemByID[it.fallback]; !ok {
			v.r.AddWithLocation(report.Error, "OPF-040",
				fmt.Sprintf("The fallback item '%s' could not be found", it.fallback), it.loc)
		}
	}

	inCycle := make(map[string]bool)
	for _, start := range v.items {
		if !start.hasID || !start.hasFallback || inCycle[start.id] {
			continue
		}
		visited := make(map[string]bool)
		var chain []string
		cur := start.id
		for {
			if visited[cur] {
				for _, id := range chain {
					inCycle[id] = true
				}
				v.r.AddWithLocation(report.Error, "OPF-045",
					fmt.Sprintf("Encountered circular reference in the fallback chain of item '%s'", start.id), start.loc)
				break
			}
			visited[cur] = true
			chain = append(chain, cur)
			it, ok := v.itemByID[cur]
			if !ok || !it.hasFallback {
				break
			}
			cur = it.fallback
		}
	}
}

func (v *run) checkPreferredTypes() {
	for _, it := range v.items {
		if !it.hasMediaType {
			continue
		}
		if preferred, ok := preferredMediaTypes[it.mediaType]; ok {
			v.r.AddWithLocation(report.Usage, "OPF-090",
				fmt.Sprintf("The media type '%s' is preferred over '%s'", preferred, it.mediaType), it.loc)
		}
	}
}

func (v *run) checkSpine() {
	spine := v.root.First("spine")
	if spine == nil {
		v.r.Add(report.Error, "RSC-005", "Package document is missing required element: spine")
		return
	}
	if toc, ok := spine.Attr("toc"); ok {
		v.checkSpineTOC(toc)
	}
	if len(v.spine) == 0 {
		v.r.Add(report.Error, "RSC-005",
			"The spine is incomplete: it must contain at least one itemref element")
		return
	}

	seen := make(map[string]bool)
	for _, ref := range v.spine {
		if !ref.hasIDRef {
			v.r.AddWithLocation(report.Error, "RSC-005",
				"Spine itemref is missing required attribute 'idref'", ref.loc)
			continue
		}
		it, ok := v.itemByID[ref.idref]
		if !ok {
			v.r.AddWithLocation(report.Error, "OPF-049",
				fmt.Sprintf("Spine itemref '%s' was not found in the manifest", ref.idref), ref.loc)
			continue
		}
		if v.v3() && seen[ref.idref] {
			v.r.AddWithLocation(report.Error, "RSC-005",
				fmt.Sprintf("Itemref '%s' refers to the same manifest entry as a previous itemref", ref.idref), ref.loc)
		}
		seen[ref.idref] = true

		if ref.linear != "" && ref.linear != "yes" && ref.linear != "no" {
			v.r.AddWithLocation(report.Error, "RSC-005",
				fmt.Sprintf("The itemref linear attribute value '%s' must be 'yes' or 'no'", ref.linear), ref.loc)
		}
		if v.v3() && ref.hasProps {
			v.checker.checkMulti(ref.rawProps, "properties", ref.loc, vocab.ContextItemrefProperty)
		}
		v.checkSpineEligible(ref, it)
	}
}

// checkSpineTOC requires the legacy toc attribute to reference an NCX
// document declared in the manifest.
func (v *run) checkSpineTOC(toc string) {
	it, ok := v.itemByID[toc]
	if !ok {
		v.r.Add(report.Error, "RSC-005",
			fmt.Sprintf("The spine toc attribute value '%s' does not resolve to a manifest item", toc))
		return
	}
	if it.hasMediaType && it.mediaType != ncxMediaType {
		v.r.Add(report.Error, "RSC-005",
			fmt.Sprintf("The spine toc item '%s' must have the '%s' media type", toc, ncxMediaType))
	}
}

// checkSpineEligible requires a spine item to be a content document or
// to fall back, through any number of hops, to one.
func (v *run) checkSpineEligible(ref *spineRef, it *manifestItem) {
	if !it.hasMediaType || isContentDocType(it.mediaType) {
		return
	}
	visited := make(map[string]bool)
	cur := it
	for cur.hasFallback && !visited[cur.id] {
		visited[cur.id] = true
		next, ok := v.itemByID[cur.fallback]
		if !ok {
			break
		}
		if next.hasMediaType && isContentDocType(next.mediaType) {
			return
		}
		cur = next
	}
	v.r.AddWithLocation(report.Error, "OPF-043",
		fmt.Sprintf("Spine item '%s' has media type '%s' and no fallback to a content document", it.id, it.mediaType), ref.loc)
}

// checkBindings reports the deprecated bindings element and requires
// every handler to resolve to an XHTML content document.
func (v *run) checkBindings() {
	bindings := v.root.First("bindings")
	if bindings == nil {
		return
	}
	v.r.AddWithLocation(report.Warning, "RSC-017",
		"The bindings element is deprecated", "package/bindings")
	for i, mt := range bindings.All("mediaType") {
		loc := fmt.Sprintf("package/bindings/mediaType[%d]", i+1)
		handler, ok := mt.Attr("handler")
		if !ok {
			v.r.AddWithLocation(report.Error, "RSC-005",
				"The mediaType element is missing required attribute 'handler'", loc)
			continue
		}
		it, found := v.itemByID[handler]
		if !found {
			v.r.AddWithLocation(report.Error, "RSC-005",
				fmt.Sprintf("The binding handler '%s' could not be found in the manifest", handler), loc)
			continue
		}
		if it.hasMediaType && it.mediaType != xhtmlMediaType {
			v.r.AddWithLocation(report.Error, "RSC-005",
				fmt.Sprintf("The binding handler '%s' must be an XHTML content document", handler), loc)
		}
	}
}

// checkGuide warns on duplicate guide references. The guide is a
// legacy structure; only its reference uniqueness is checked here.
func (v *run) checkGuide() {
	guide := v.root.First("guide")
	if guide == nil {
		return
	}
	refs := guide.All("reference")
	if len(refs) == 0 {
		v.r.Add(report.Error, "RSC-005",
			"The guide element must contain at least one reference element")
		return
	}
	seen := make(map[string]bool)
	for i, ref := range refs {
		key := ref.AttrValue("type") + "\x00" + normalizeHref(ref.AttrValue("href"))
		if seen[key] {
			v.r.AddWithLocation(report.Warning, "RSC-017",
				fmt.Sprintf("Duplicate guide reference to '%s'", ref.AttrValue("href")),
				fmt.Sprintf("package/guide/reference[%d]", i+1))
		}
		seen[key] = true
	}
}
