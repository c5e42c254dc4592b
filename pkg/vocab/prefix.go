package vocab

import (
	"fmt"
	"strings"

	"github.com/epubtools/opfcheck/pkg/report"
)

// PrefixMap is the per-document prefix overlay built from the package
// element's prefix attribute. It never contains reserved prefixes
// unless the document redeclares them.
type PrefixMap map[string]string

// Resolve maps a prefix to a vocabulary IRI. Document declarations win
// over the reserved table.
func (p PrefixMap) Resolve(prefix string) (string, bool) {
	if iri, ok := p[prefix]; ok {
		return iri, true
	}
	iri, ok := ReservedPrefixes[prefix]
	return iri, ok
}

// ParsePrefixes parses a prefix declaration attribute (whitespace
// separated "prefix: IRI" pairs) into a PrefixMap. Malformed pairs are
// reported and skipped; well-formed pairs from the same declaration are
// still accepted. Redeclaring a reserved prefix and remapping a default
// vocabulary IRI under a new name are legal but each raises a warning.
func ParsePrefixes(decl string, r report.Sink) PrefixMap {
	out := make(PrefixMap)
	fields := strings.Fields(decl)

	i := 0
	for i < len(fields) {
		name := fields[i]
		if !strings.HasSuffix(name, ":") || len(name) == 1 {
			r.Emit(report.Message{
				Severity: report.Error,
				CheckID:  "OPF-004c",
				Message:  fmt.Sprintf("Invalid prefix declaration: expected a prefix followed by ':' but found '%s'", name),
			})
			i++
			continue
		}
		prefix := strings.TrimSuffix(name, ":")
		i++
		if i >= len(fields) {
			r.Emit(report.Message{
				Severity: report.Error,
				CheckID:  "OPF-004c",
				Message:  fmt.Sprintf("Invalid prefix declaration: prefix '%s' is not followed by a URI", prefix),
			})
			break
		}
		iri := fields[i]
		i++
		if strings.HasSuffix(iri, ":") || (!strings.Contains(iri, ":") && !strings.Contains(iri, "/")) {
			r.Emit(report.Message{
				Severity: report.Error,
				CheckID:  "OPF-004c",
				Message:  fmt.Sprintf("Invalid prefix declaration: '%s' is not a valid URI", iri),
			})
			continue
		}

		if _, reserved := ReservedPrefixes[prefix]; reserved {
			r.Emit(report.Message{
				Severity: report.Warning,
				CheckID:  "OPF-007",
				Message:  fmt.Sprintf("Re-declaration of reserved prefix '%s'", prefix),
			})
		}
		if IsDefaultVocabIRI(iri) {
			r.Emit(report.Message{
				Severity: report.Warning,
				CheckID:  "OPF-007b",
				Message:  fmt.Sprintf("The prefix '%s' maps to the default vocabulary '%s', which must not be assigned a prefix", prefix, iri),
			})
		}

		// Later declarations of the same prefix win, without a
		// dedicated diagnostic.
		out[prefix] = iri
	}

	return out
}
