// Package vocab holds the process-wide vocabulary tables for package
// documents: the default vocabularies for each attribute context, the
// reserved prefix table, and per-vocabulary property membership and
// deprecation flags. All tables are built at init and never mutated;
// per-document prefix declarations are a separate overlay (PrefixMap).
package vocab

// Context identifies which attribute a token appears in. Each context
// resolves unprefixed tokens against its own default vocabulary.
type Context int

const (
	ContextMeta Context = iota
	ContextMetaScheme
	ContextLinkRel
	ContextLinkProperty
	ContextItemProperty
	ContextItemrefProperty
)

// Vocabulary is an immutable set of recognized property tokens for one
// vocabulary IRI. Open vocabularies accept any token (external
// authority, membership not checkable here).
type Vocabulary struct {
	IRI        string
	open       bool
	properties map[string]bool
	deprecated map[string]bool
}

// Knows reports whether token is a recognized property of the vocabulary.
func (v *Vocabulary) Knows(token string) bool {
	if v.open {
		return true
	}
	return v.properties[token]
}

// Deprecated reports whether token is recognized but deprecated.
func (v *Vocabulary) Deprecated(token string) bool {
	return v.deprecated[token]
}

func closed(iri string, props []string, deprecated ...string) *Vocabulary {
	v := &Vocabulary{
		IRI:        iri,
		properties: make(map[string]bool, len(props)+len(deprecated)),
		deprecated: make(map[string]bool, len(deprecated)),
	}
	for _, p := range props {
		v.properties[p] = true
	}
	for _, p := range deprecated {
		v.properties[p] = true
		v.deprecated[p] = true
	}
	return v
}

func open(iri string) *Vocabulary {
	return &Vocabulary{IRI: iri, open: true}
}

// Default vocabulary IRIs, one per attribute context. Declaring a new
// prefix for any of these is legal but discouraged.
const (
	MetaVocabIRI    = "http://idpf.org/epub/vocab/package/meta/#"
	LinkVocabIRI    = "http://idpf.org/epub/vocab/package/link/#"
	ItemVocabIRI    = "http://idpf.org/epub/vocab/package/item/#"
	ItemrefVocabIRI = "http://idpf.org/epub/vocab/package/itemref/#"
)

// Reserved vocabulary IRIs, usable without declaration via their
// reserved prefixes.
const (
	A11yIRI      = "http://www.idpf.org/epub/vocab/package/a11y/#"
	DCTermsIRI   = "http://purl.org/dc/terms/"
	MarcIRI      = "http://id.loc.gov/vocabulary/"
	MediaIRI     = "http://www.idpf.org/epub/vocab/overlays/#"
	OnixIRI      = "http://www.editeur.org/ONIX/book/codelists/current.html#"
	RenditionIRI = "http://www.idpf.org/vocab/rendition/#"
	SchemaIRI    = "http://schema.org/"
	XSDIRI       = "http://www.w3.org/2001/XMLSchema#"
	MSVIRI       = "http://www.idpf.org/epub/vocab/structure/magazine/#"
	PrismIRI     = "http://www.prismstandard.org/specifications/3.0/PRISM_CV_Spec_3.0.htm#"
)

// ReservedPrefixes maps the always-available prefixes to their
// vocabulary IRIs.
var ReservedPrefixes = map[string]string{
	"a11y":      A11yIRI,
	"dcterms":   DCTermsIRI,
	"marc":      MarcIRI,
	"media":     MediaIRI,
	"onix":      OnixIRI,
	"rendition": RenditionIRI,
	"schema":    SchemaIRI,
	"xsd":       XSDIRI,
	"msv":       MSVIRI,
	"prism":     PrismIRI,
}

// defaultVocabs holds the default (unprefixed) vocabulary per context.
var defaultVocabs = map[Context]*Vocabulary{
	ContextMeta: closed(MetaVocabIRI, []string{
		"alternate-script",
		"authority",
		"belongs-to-collection",
		"collection-type",
		"display-seq",
		"file-as",
		"group-position",
		"identifier-type",
		"role",
		"source-of",
		"term",
		"title-type",
	}, "meta-auth"),

	// The scheme attribute has no unprefixed tokens of its own; values
	// must come from a declared or reserved vocabulary.
	ContextMetaScheme: closed(MetaVocabIRI, nil),

	ContextLinkRel: closed(LinkVocabIRI, []string{
		"acquire",
		"alternate",
		"record",
		"voicing",
	},
		"marc21xml-record",
		"mods-record",
		"onix-record",
		"xml-signature",
		"xmp-record",
	),

	ContextLinkProperty: closed(LinkVocabIRI, []string{
		"onix",
		"xmp",
	}),

	ContextItemProperty: closed(ItemVocabIRI, []string{
		"cover-image",
		"data-nav",
		"dictionary",
		"glossary",
		"index",
		"mathml",
		"nav",
		"remote-resources",
		"scripted",
		"search-key-map",
		"svg",
	}, "switch"),

	ContextItemrefProperty: closed(ItemrefVocabIRI, []string{
		"page-spread-left",
		"page-spread-right",
	}),
}

// reservedVocabs holds, per context, the vocabularies addressable by
// IRI. A vocabulary may be recognized in one context and absent in
// another (rendition metadata properties are not itemref properties).
var reservedVocabs = map[Context]map[string]*Vocabulary{
	ContextMeta: {
		A11yIRI:    closed(A11yIRI, []string{"certifierCredential", "certifierReport"}),
		DCTermsIRI: open(DCTermsIRI),
		MarcIRI:    open(MarcIRI),
		MediaIRI: closed(MediaIRI, []string{
			"active-class",
			"duration",
			"narrator",
			"playback-active-class",
		}),
		OnixIRI: open(OnixIRI),
		RenditionIRI: closed(RenditionIRI, []string{
			"flow",
			"layout",
			"orientation",
			"spread",
		}, "viewport"),
		SchemaIRI: open(SchemaIRI),
		XSDIRI:    open(XSDIRI),
		MSVIRI:    open(MSVIRI),
		PrismIRI:  open(PrismIRI),
	},
	ContextMetaScheme: {
		A11yIRI:    open(A11yIRI),
		DCTermsIRI: open(DCTermsIRI),
		MarcIRI:    open(MarcIRI),
		OnixIRI:    open(OnixIRI),
		SchemaIRI:  open(SchemaIRI),
		XSDIRI:     open(XSDIRI),
		PrismIRI:   open(PrismIRI),
	},
	ContextLinkRel: {
		A11yIRI: closed(A11yIRI, []string{"certifierCredential", "certifierReport"}),
	},
	ContextLinkProperty: {
		A11yIRI: closed(A11yIRI, nil),
	},
	ContextItemProperty: {
		MSVIRI: open(MSVIRI),
	},
	ContextItemrefProperty: {
		RenditionIRI: closed(RenditionIRI, []string{
			"align-x-center",
			"flow-auto",
			"flow-paginated",
			"flow-scrolled-continuous",
			"flow-scrolled-doc",
			"layout-pre-paginated",
			"layout-reflowable",
			"orientation-auto",
			"orientation-landscape",
			"orientation-portrait",
			"page-spread-center",
			"page-spread-left",
			"page-spread-right",
			"spread-auto",
			"spread-both",
			"spread-landscape",
			"spread-none",
		}, "spread-portrait"),
	},
}

// DefaultVocab returns the default vocabulary for the context.
func DefaultVocab(ctx Context) *Vocabulary {
	return defaultVocabs[ctx]
}

// ForIRI returns the vocabulary registered under iri for the context.
// The second result is false when the IRI is not a known vocabulary in
// that context; callers treat such tokens as belonging to an open
// foreign vocabulary.
func ForIRI(ctx Context, iri string) (*Vocabulary, bool) {
	v, ok := reservedVocabs[ctx][iri]
	return v, ok
}

// IsDefaultVocabIRI reports whether iri is one of the default
// (always-available, unprefixed) vocabulary IRIs.
func IsDefaultVocabIRI(iri string) bool {
	switch iri {
	case MetaVocabIRI, LinkVocabIRI, ItemVocabIRI, ItemrefVocabIRI:
		return true
	}
	return false
}
