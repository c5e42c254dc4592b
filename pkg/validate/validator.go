// Package validate implements the package-document validation engine:
// prefix resolution, vocabulary membership, the metadata refinement
// graph, manifest/spine consistency, collection shapes, and the
// profile rule layering on top of the version-appropriate base rules.
//
// A run is single-threaded and owns all of its state; the only shared
// state is the immutable vocabulary registry, so documents may be
// validated concurrently with independent runs.
package validate

import (
	"fmt"

	"github.com/epubtools/opfcheck/pkg/opf"
	"github.com/epubtools/opfcheck/pkg/report"
	"github.com/epubtools/opfcheck/pkg/vocab"
)

// Version selects the base rule set.
type Version string

const (
	Version2 Version = "2.0"
	Version3 Version = "3.0"
)

// Profile selects an additive rule set layered on the base rules.
type Profile string

const (
	ProfileDefault Profile = ""
	ProfileDict    Profile = "dict"
	ProfileEdupub  Profile = "edupub"
	ProfileIdx     Profile = "idx"
	ProfilePreview Profile = "preview"
)

// Options configures a validation run.
type Options struct {
	// Version of the publication format. Defaults to Version3.
	Version Version

	// Profile is the conformance profile. The zero value applies no
	// profile-specific rules.
	Profile Profile

	// Threshold is the minimum severity included in the report. The
	// zero value keeps everything down to USAGE.
	Threshold report.Severity
}

// Validate runs all package-document checks over an already-parsed
// element tree and returns the accumulated report.
func Validate(root *opf.Element, opts Options) *report.Report {
	r := newReport(opts)
	if root == nil {
		r.Add(report.Fatal, "RSC-016", "No package document to validate")
		return r
	}
	newRun(root, opts, r).validate()
	return r
}

// ValidateSource parses raw bytes and validates the result. A parse
// failure is recorded as a fatal diagnostic, not returned as an error.
func ValidateSource(data []byte, opts Options) *report.Report {
	root, err := opf.Parse(data)
	if err != nil {
		r := newReport(opts)
		r.Add(report.Fatal, "RSC-016", fmt.Sprintf("Could not parse package document: %v", err))
		return r
	}
	return Validate(root, opts)
}

func newReport(opts Options) *report.Report {
	if opts.Threshold != "" {
		return report.NewReportWithThreshold(opts.Threshold)
	}
	return report.NewReport()
}

// metaElement is one metadata-section element (meta or link) in the
// refinement graph.
type metaElement struct {
	kind       string // "meta" or "link"
	id         string
	refines    string // refines attribute with any leading '#' stripped
	hasRefines bool
	refinesRel bool // refines was a relative fragment reference

	prop    token   // resolved meta property; zero when absent or invalid
	rels    []token // resolved link rel keywords
	rawRels int     // rel tokens before resolution, for combination checks

	scheme    string
	href      string
	mediaType string
	hasMedia  bool
	value     string
	loc       string
}

// refTarget is what a refines id resolves to.
type refTarget struct {
	meta   *metaElement
	dcName string // local name when the target is a dc:* element
	item   *manifestItem
}

// manifestItem is one manifest entry.
type manifestItem struct {
	id        string
	href      string
	mediaType string
	fallback  string
	overlay   string

	hasID        bool
	hasHref      bool
	hasMediaType bool
	hasFallback  bool

	rawProps string
	hasProps bool
	props    []token // filled during manifest checks

	loc string
}

func (it *manifestItem) hasProperty(name string) bool {
	for _, p := range it.props {
		if p.IRI == vocab.ItemVocabIRI && p.Name == name {
			return true
		}
	}
	return false
}

// spineRef is one spine itemref.
type spineRef struct {
	idref    string
	hasIDRef bool
	linear   string
	rawProps string
	hasProps bool
	loc      string
}

// run holds the per-document state of one validation pass.
type run struct {
	r       *report.Report
	opts    Options
	root    *opf.Element
	checker *propertyChecker

	metas       []*metaElement
	dcElems     []*opf.Element
	items       []*manifestItem
	itemByID    map[string]*manifestItem
	itemHrefs   map[string]*manifestItem
	spine       []*spineRef
	collections []*collectionNode
	targets     map[string]refTarget
}

func newRun(root *opf.Element, opts Options, r *report.Report) *run {
	if opts.Version == "" {
		opts.Version = Version3
	}
	return &run{
		r:         r,
		opts:      opts,
		root:      root,
		itemByID:  make(map[string]*manifestItem),
		itemHrefs: make(map[string]*manifestItem),
		targets:   make(map[string]refTarget),
	}
}

func (v *run) v3() bool { return v.opts.Version == Version3 }

func (v *run) validate() {
	if v.root.Local != "package" || !v.root.InNS(opf.NSPackage) {
		v.r.Add(report.Error, "RSC-005",
			fmt.Sprintf("The root element must be 'package' in the '%s' namespace", opf.NSPackage))
	}
	v.checkVersionAttr()

	// Prefix overlay: built once, used by every token lookup below.
	prefixes := vocab.PrefixMap{}
	if v.v3() {
		if decl, ok := v.root.Attr("prefix"); ok {
			prefixes = vocab.ParsePrefixes(decl, v.r)
		}
	}
	v.checker = &propertyChecker{prefixes: prefixes, r: v.r}

	meta := v.root.First("metadata")
	if meta == nil {
		// Without the metadata container no further structural checks
		// are meaningful; diagnostics produced so far are preserved.
		v.r.Add(report.Error, "RSC-005", "Package document is missing required element: metadata")
		v.r.Add(report.Fatal, "RSC-016", "Validation stopped: no metadata element")
		return
	}

	// Models are assembled before rule evaluation so cross-component
	// references (refines into the manifest, collection member links)
	// resolve through them.
	v.buildManifest()
	v.buildMetadata(meta)
	v.buildSpine()
	v.buildCollections()
	v.indexTargets()

	v.checkMetadata()
	if v.v3() {
		v.checkRefines()
	}
	v.checkManifest()
	v.checkSpine()
	if v.v3() {
		v.checkCollections()
		v.checkBindings()
	}
	v.checkGuide()
	v.applyProfile()
}

func (v *run) checkVersionAttr() {
	ver, ok := v.root.Attr("version")
	if !ok {
		v.r.Add(report.Error, "RSC-005", "Package element is missing required attribute 'version'")
		return
	}
	if ver != "2.0" && ver != "3.0" {
		v.r.Add(report.Error, "RSC-005", fmt.Sprintf("Unsupported package version '%s'", ver))
	}
}

// buildManifest assembles the manifest model without emitting
// diagnostics; checkManifest validates it.
func (v *run) buildManifest() {
	manifest := v.root.First("manifest")
	if manifest == nil {
		return
	}
	for i, el := range manifest.All("item") {
		it := &manifestItem{loc: fmt.Sprintf("package/manifest/item[%d]", i+1)}
		it.id, it.hasID = el.Attr("id")
		it.href, it.hasHref = el.Attr("href")
		it.mediaType, it.hasMediaType = el.Attr("media-type")
		it.fallback, it.hasFallback = el.Attr("fallback")
		it.overlay = el.AttrValue("media-overlay")
		it.rawProps, it.hasProps = el.Attr("properties")
		v.items = append(v.items, it)
		if it.hasID {
			if _, dup := v.itemByID[it.id]; !dup {
				v.itemByID[it.id] = it
			}
		}
		if it.hasHref && !isRemote(it.href) {
			key := normalizeHref(it.href)
			if _, dup := v.itemHrefs[key]; !dup {
				v.itemHrefs[key] = it
			}
		}
	}
}

func (v *run) buildSpine() {
	spine := v.root.First("spine")
	if spine == nil {
		return
	}
	for i, el := range spine.All("itemref") {
		ref := &spineRef{loc: fmt.Sprintf("package/spine/itemref[%d]", i+1)}
		ref.idref, ref.hasIDRef = el.Attr("idref")
		ref.linear = el.AttrValue("linear")
		ref.rawProps, ref.hasProps = el.Attr("properties")
		v.spine = append(v.spine, ref)
	}
}

// indexTargets builds the id lookup used to resolve refines references
// and collection-type shapes. Manifest items, dc elements, and
// metadata elements all contribute ids.
func (v *run) indexTargets() {
	for _, it := range v.items {
		if it.hasID && it.id != "" {
			v.targets[it.id] = refTarget{item: it}
		}
	}
	for _, el := range v.dcElems {
		if id, ok := el.Attr("id"); ok && id != "" {
			v.targets[id] = refTarget{dcName: el.Local}
		}
	}
	for _, m := range v.metas {
		if m.id != "" {
			v.targets[m.id] = refTarget{meta: m}
		}
	}
}
