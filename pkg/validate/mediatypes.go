package validate

import "strings"

// preferredMediaTypes maps supported-but-replaceable media types to
// their preferred equivalents. Declaring the key type is conforming
// but reported as a USAGE observation.
var preferredMediaTypes = map[string]string{
	"application/font-sfnt":       "font/sfnt",
	"application/font-woff":       "font/woff",
	"application/vnd.ms-opentype": "font/otf",
	"text/javascript":             "application/javascript",
}

// contentDocTypes are the media types eligible to appear in the spine
// without a fallback.
var contentDocTypes = map[string]bool{
	"application/xhtml+xml": true,
	"image/svg+xml":         true,
}

const (
	xhtmlMediaType = "application/xhtml+xml"
	smilMediaType  = "application/smil+xml"
	ncxMediaType   = "application/x-dtbncx+xml"
	skmMediaType   = "application/vnd.epub.search-key-map+xml"
)

func isContentDocType(mt string) bool { return contentDocTypes[mt] }
func isAudioMediaType(mt string) bool { return strings.HasPrefix(mt, "audio/") }

// isRemote classifies a resource reference as remote. This is a pure
// classification; no fetch policy is applied.
func isRemote(href string) bool {
	return strings.HasPrefix(href, "http://") ||
		strings.HasPrefix(href, "https://") ||
		strings.Contains(href, "://")
}
