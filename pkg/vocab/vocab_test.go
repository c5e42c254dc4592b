package vocab

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultVocabMembership(t *testing.T) {
	meta := DefaultVocab(ContextMeta)
	require.Equal(t, MetaVocabIRI, meta.IRI)
	require.True(t, meta.Knows("display-seq"))
	require.True(t, meta.Knows("belongs-to-collection"))
	require.False(t, meta.Knows("nav"), "item properties are not meta properties")

	item := DefaultVocab(ContextItemProperty)
	require.True(t, item.Knows("nav"))
	require.True(t, item.Knows("search-key-map"))
	require.False(t, item.Knows("display-seq"))
}

func TestDeprecatedTokensAreStillKnown(t *testing.T) {
	meta := DefaultVocab(ContextMeta)
	require.True(t, meta.Knows("meta-auth"))
	require.True(t, meta.Deprecated("meta-auth"))
	require.False(t, meta.Deprecated("display-seq"))

	rel := DefaultVocab(ContextLinkRel)
	for _, kw := range []string{"marc21xml-record", "mods-record", "onix-record", "xml-signature", "xmp-record"} {
		require.True(t, rel.Knows(kw), "%s is deprecated but recognized", kw)
		require.True(t, rel.Deprecated(kw))
	}
	require.False(t, rel.Deprecated("record"))
}

func TestForIRIPerContext(t *testing.T) {
	_, ok := ForIRI(ContextMeta, RenditionIRI)
	require.True(t, ok)

	// The rendition display vocabulary exists for metas and itemrefs
	// but not for link rel keywords.
	_, ok = ForIRI(ContextLinkRel, RenditionIRI)
	require.False(t, ok)

	v, ok := ForIRI(ContextMeta, DCTermsIRI)
	require.True(t, ok)
	require.True(t, v.Knows("modified"), "dcterms is an open vocabulary")
	require.True(t, v.Knows("anything-at-all"))
}

func TestRenditionItemrefProperties(t *testing.T) {
	v, ok := ForIRI(ContextItemrefProperty, RenditionIRI)
	require.True(t, ok)
	require.True(t, v.Knows("page-spread-center"))
	require.True(t, v.Knows("spread-portrait"))
	require.True(t, v.Deprecated("spread-portrait"))
	require.False(t, v.Knows("flow"), "package-level rendition properties are not itemref properties")
}

func TestReservedPrefixes(t *testing.T) {
	for prefix, iri := range map[string]string{
		"rendition": RenditionIRI,
		"schema":    SchemaIRI,
		"dcterms":   DCTermsIRI,
		"a11y":      A11yIRI,
	} {
		require.Equal(t, iri, ReservedPrefixes[prefix])
	}
	_, reserved := ReservedPrefixes["custom"]
	require.False(t, reserved)
}

func TestIsDefaultVocabIRI(t *testing.T) {
	for _, iri := range []string{MetaVocabIRI, LinkVocabIRI, ItemVocabIRI, ItemrefVocabIRI} {
		require.True(t, IsDefaultVocabIRI(iri))
	}
	require.False(t, IsDefaultVocabIRI(RenditionIRI))
	require.False(t, IsDefaultVocabIRI("https://example.org/vocab#"))
}
