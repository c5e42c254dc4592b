package validate

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/epubtools/opfcheck/pkg/report"
)

// docParts overrides sections of the baseline document. Empty fields
// keep the baseline content; the baseline alone validates clean.
type docParts struct {
	pkgAttrs   string // extra attributes on the package element
	metadata   string // extra metadata children
	manifest   string // extra manifest items
	spineAttrs string // extra attributes on the spine element
	spine      string // extra itemrefs
	trailer    string // collections, guide, bindings
}

const (
	baseMetadata = `<dc:identifier id="uid">urn:isbn:9780000000001</dc:identifier>
    <dc:title>Test Publication</dc:title>
    <dc:language>en</dc:language>
    <meta property="dcterms:modified">2020-01-01T00:00:00Z</meta>`

	baseManifest = `<item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>
    <item id="content" href="content.xhtml" media-type="application/xhtml+xml"/>`

	baseSpine = `<itemref idref="content"/>`
)

func doc(d docParts) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="uid"%s>
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    %s
    %s
  </metadata>
  <manifest>
    %s
    %s
  </manifest>
  <spine%s>
    %s
    %s
  </spine>
  %s
</package>`, d.pkgAttrs, baseMetadata, d.metadata, baseManifest, d.manifest, d.spineAttrs, baseSpine, d.spine, d.trailer)
}

func checkDoc(t *testing.T, src string) *report.Report {
	t.Helper()
	return ValidateSource([]byte(src), Options{})
}

func TestValidateNilRoot(t *testing.T) {
	r := Validate(nil, Options{})
	require.Equal(t, 1, r.Count("RSC-016", report.Fatal))
	require.True(t, r.HasFatal())
}

func TestValidateSourceParseError(t *testing.T) {
	r := ValidateSource([]byte("<package><unclosed></package>"), Options{})
	require.Equal(t, 1, r.Count("RSC-016", report.Fatal))
}

func TestMinimalDocumentIsClean(t *testing.T) {
	r := checkDoc(t, doc(docParts{}))
	require.Empty(t, r.Messages, "baseline document must produce no diagnostics")
	require.True(t, r.IsValid())
}

func TestMissingMetadataStopsValidation(t *testing.T) {
	src := `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="uid">
  <manifest/>
  <spine/>
</package>`
	r := checkDoc(t, src)
	require.Equal(t, 1, r.Count("RSC-005", report.Error))
	require.Equal(t, 1, r.Count("RSC-016", report.Fatal))
}

func TestUnsupportedVersion(t *testing.T) {
	src := `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="4.0" unique-identifier="uid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    ` + baseMetadata + `
  </metadata>
  <manifest>` + baseManifest + `</manifest>
  <spine>` + baseSpine + `</spine>
</package>`
	r := checkDoc(t, src)
	require.Equal(t, 1, r.Count("RSC-005", report.Error))
}

func TestMissingVersionAttribute(t *testing.T) {
	src := `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" unique-identifier="uid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    ` + baseMetadata + `
  </metadata>
  <manifest>` + baseManifest + `</manifest>
  <spine>` + baseSpine + `</spine>
</package>`
	r := checkDoc(t, src)
	require.Equal(t, 1, r.Count("RSC-005", report.Error))
}

func TestWrongRootNamespace(t *testing.T) {
	src := `<?xml version="1.0"?>
<package xmlns="http://example.org/not-opf" version="3.0" unique-identifier="uid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    ` + baseMetadata + `
  </metadata>
  <manifest>` + baseManifest + `</manifest>
  <spine>` + baseSpine + `</spine>
</package>`
	r := checkDoc(t, src)
	require.GreaterOrEqual(t, r.Count("RSC-005", report.Error), 1)
}

func TestThresholdDropsLowerSeverities(t *testing.T) {
	src := doc(docParts{
		metadata: `<dc:date>not-a-date</dc:date>`,
	})
	r := ValidateSource([]byte(src), Options{Threshold: report.Error})
	require.Equal(t, 0, r.Count("OPF-053", report.Warning), "warnings below the threshold must be dropped")

	r = ValidateSource([]byte(src), Options{})
	require.Equal(t, 1, r.Count("OPF-053", report.Warning))
}

// Repeated runs over the same input must produce the same diagnostics
// in the same order, whatever the input.
func TestValidateDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOf(rapid.Byte()).Draw(t, "data")
		first := ValidateSource(data, Options{})
		second := ValidateSource(data, Options{})
		require.Equal(t, len(first.Messages), len(second.Messages))
		for i := range first.Messages {
			require.Equal(t, first.Messages[i], second.Messages[i])
		}
	})
}

func TestValidateDeterministicOnRealDocument(t *testing.T) {
	src := doc(docParts{
		metadata: `<meta id="m1" refines="#m2" property="display-seq">1</meta>
			<meta id="m2" refines="#m1" property="display-seq">2</meta>`,
		manifest: `<item id="js" href="app.js" media-type="text/javascript"/>`,
	})
	first := checkDoc(t, src)
	second := checkDoc(t, src)
	require.Equal(t, first.Messages, second.Messages)
	require.Equal(t, first.Multiset(), second.Multiset())
}
