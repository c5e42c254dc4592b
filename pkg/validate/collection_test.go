package validate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/epubtools/opfcheck/pkg/report"
)

func TestCollectionMissingRole(t *testing.T) {
	r := checkDoc(t, doc(docParts{
		trailer: `<collection><link href="content.xhtml"/></collection>`,
	}))
	require.Equal(t, 1, r.Count("RSC-005", report.Error))
}

func TestCollectionUnknownRole(t *testing.T) {
	r := checkDoc(t, doc(docParts{
		trailer: `<collection role="scrapbook"><link href="content.xhtml"/></collection>`,
	}))
	require.Equal(t, 1, r.Count("OPF-068", report.Error))
}

func TestCollectionCustomRoleURI(t *testing.T) {
	t.Run("valid custom role", func(t *testing.T) {
		r := checkDoc(t, doc(docParts{
			trailer: `<collection role="https://example.org/roles/scrapbook"><link href="content.xhtml"/></collection>`,
		}))
		require.Empty(t, r.Messages)
	})

	t.Run("reserved domain", func(t *testing.T) {
		r := checkDoc(t, doc(docParts{
			trailer: `<collection role="https://idpf.org/roles/custom"><link href="content.xhtml"/></collection>`,
		}))
		require.Equal(t, 1, r.Count("OPF-069", report.Error))
	})

	t.Run("not a URI", func(t *testing.T) {
		r := checkDoc(t, doc(docParts{
			trailer: `<collection role="roles/scrapbook"><link href="content.xhtml"/></collection>`,
		}))
		require.Equal(t, 1, r.Count("OPF-070", report.Warning))
	})
}

func TestCollectionMemberNotInManifest(t *testing.T) {
	r := checkDoc(t, doc(docParts{
		trailer: `<collection role="preview"><link href="ghost.xhtml"/></collection>`,
	}))
	require.Equal(t, 1, r.Count("OPF-081", report.Error))
}

func TestCollectionRemoteMemberSkipped(t *testing.T) {
	r := checkDoc(t, doc(docParts{
		trailer: `<collection role="preview"><link href="https://example.org/preview.xhtml"/></collection>`,
	}))
	require.Zero(t, r.Count("OPF-081", report.Error))
}

func TestIndexCollection(t *testing.T) {
	t.Run("valid flat index", func(t *testing.T) {
		r := checkDoc(t, doc(docParts{
			manifest: `<item id="idx" href="index.xhtml" media-type="application/xhtml+xml"/>`,
			trailer:  `<collection role="index"><link href="index.xhtml"/></collection>`,
		}))
		require.Empty(t, r.Messages)
	})

	t.Run("valid grouped index", func(t *testing.T) {
		r := checkDoc(t, doc(docParts{
			manifest: `<item id="ia" href="index-a.xhtml" media-type="application/xhtml+xml"/>
				<item id="ib" href="index-b.xhtml" media-type="application/xhtml+xml"/>`,
			trailer: `<collection role="index">
				<collection role="index-group">
					<link href="index-a.xhtml"/>
					<link href="index-b.xhtml"/>
				</collection>
			</collection>`,
		}))
		require.Empty(t, r.Messages)
	})

	t.Run("member must be XHTML", func(t *testing.T) {
		r := checkDoc(t, doc(docParts{
			manifest: `<item id="idx" href="index.png" media-type="image/png"/>`,
			trailer:  `<collection role="index"><link href="index.png"/></collection>`,
		}))
		require.Equal(t, 1, r.Count("OPF-071", report.Error))
	})

	t.Run("index cannot contain a preview", func(t *testing.T) {
		r := checkDoc(t, doc(docParts{
			trailer: `<collection role="index">
				<collection role="preview"><link href="content.xhtml"/></collection>
			</collection>`,
		}))
		require.Equal(t, 1, r.Count("RSC-005", report.Error))
	})
}

func TestIndexGroupAtTopLevel(t *testing.T) {
	r := checkDoc(t, doc(docParts{
		trailer: `<collection role="index-group"><link href="content.xhtml"/></collection>`,
	}))
	require.Equal(t, 1, r.Count("RSC-005", report.Error))
}

func TestDictionaryCollectionNoChildren(t *testing.T) {
	r := checkDoc(t, doc(docParts{
		trailer: `<collection role="dictionary">
			<collection role="preview"><link href="content.xhtml"/></collection>
		</collection>`,
	}))
	require.Equal(t, 1, r.Count("RSC-005", report.Error))
}

func TestCollectionsSkippedForEPUB2(t *testing.T) {
	src := `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="uid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:identifier id="uid">urn:isbn:9780000000001</dc:identifier>
    <dc:title>Old Publication</dc:title>
    <dc:language>en</dc:language>
  </metadata>
  <manifest>
    <item id="content" href="content.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine>
    <itemref idref="content"/>
  </spine>
  <collection role="scrapbook"><link href="ghost.xhtml"/></collection>
</package>`
	r := ValidateSource([]byte(src), Options{Version: Version2})
	require.Zero(t, r.Count("OPF-068", report.Error))
	require.Zero(t, r.Count("OPF-081", report.Error))
}
