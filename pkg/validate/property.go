package validate

import (
	"fmt"
	"strings"

	"github.com/epubtools/opfcheck/pkg/report"
	"github.com/epubtools/opfcheck/pkg/vocab"
)

// token is a vocabulary-resolved property value. IRI is empty when the
// token resolved into a foreign (unregistered) vocabulary.
type token struct {
	Raw  string
	IRI  string
	Name string
}

// propertyChecker validates property/rel/scheme tokens against the
// vocabulary registry through the document's prefix overlay.
type propertyChecker struct {
	prefixes vocab.PrefixMap
	r        report.Sink
}

// checkSingle validates an attribute declared single-valued. A value
// with multiple space-separated tokens yields one grammar error and one
// cardinality error, and the tokens are not membership-checked.
func (c *propertyChecker) checkSingle(value, attr, loc string, ctx vocab.Context) (token, bool) {
	fields := strings.Fields(value)
	switch len(fields) {
	case 0:
		c.r.Emit(report.Message{
			Severity: report.Error,
			CheckID:  "RSC-005",
			Message:  fmt.Sprintf("The '%s' attribute must not be empty", attr),
			Location: loc,
		})
		return token{}, false
	case 1:
		return c.checkToken(fields[0], loc, ctx)
	default:
		c.r.Emit(report.Message{
			Severity: report.Error,
			CheckID:  "RSC-005",
			Message:  fmt.Sprintf("The value of the '%s' attribute must be a single token", attr),
			Location: loc,
		})
		c.r.Emit(report.Message{
			Severity: report.Error,
			CheckID:  "OPF-025",
			Message:  fmt.Sprintf("The '%s' attribute takes only one value, found %d", attr, len(fields)),
			Location: loc,
		})
		return token{}, false
	}
}

// checkMulti validates a space-separated multi-valued attribute and
// returns the tokens that resolved.
func (c *propertyChecker) checkMulti(value, attr, loc string, ctx vocab.Context) []token {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		c.r.Emit(report.Message{
			Severity: report.Error,
			CheckID:  "RSC-005",
			Message:  fmt.Sprintf("The '%s' attribute must not be empty", attr),
			Location: loc,
		})
		return nil
	}
	var out []token
	for _, f := range fields {
		if t, ok := c.checkToken(f, loc, ctx); ok {
			out = append(out, t)
		}
	}
	return out
}

// checkToken resolves one token against the prefix overlay and the
// registry. Unknown prefix and unknown property are distinct errors; a
// recognized deprecated token warns independently.
func (c *propertyChecker) checkToken(raw, loc string, ctx vocab.Context) (token, bool) {
	prefix, name, prefixed := strings.Cut(raw, ":")
	if prefixed {
		if prefix == "" || name == "" {
			c.r.Emit(report.Message{
				Severity: report.Error,
				CheckID:  "OPF-026",
				Message:  fmt.Sprintf("Malformed property value '%s'", raw),
				Location: loc,
			})
			return token{}, false
		}
		iri, declared := c.prefixes.Resolve(prefix)
		if !declared {
			c.r.Emit(report.Message{
				Severity: report.Error,
				CheckID:  "OPF-028",
				Message:  fmt.Sprintf("Undeclared prefix '%s' in property '%s'", prefix, raw),
				Location: loc,
			})
			return token{}, false
		}
		v, known := vocab.ForIRI(ctx, iri)
		if !known {
			// Foreign vocabulary: membership is not checkable here.
			return token{Raw: raw, IRI: iri, Name: name}, true
		}
		if !v.Knows(name) {
			c.r.Emit(report.Message{
				Severity: report.Error,
				CheckID:  "OPF-027",
				Message:  fmt.Sprintf("Undefined property '%s'", raw),
				Location: loc,
			})
			return token{}, false
		}
		if v.Deprecated(name) {
			c.emitDeprecated(raw, loc, ctx)
		}
		return token{Raw: raw, IRI: iri, Name: name}, true
	}

	v := vocab.DefaultVocab(ctx)
	if !v.Knows(raw) {
		c.r.Emit(report.Message{
			Severity: report.Error,
			CheckID:  "OPF-027",
			Message:  fmt.Sprintf("Undefined property '%s'", raw),
			Location: loc,
		})
		return token{}, false
	}
	if v.Deprecated(raw) {
		c.emitDeprecated(raw, loc, ctx)
	}
	return token{Raw: raw, IRI: v.IRI, Name: raw}, true
}

// emitDeprecated reports a deprecated-but-legal token. Link rel
// keywords have a dedicated identifier; everything else uses the
// generic deprecation warning.
func (c *propertyChecker) emitDeprecated(raw, loc string, ctx vocab.Context) {
	if ctx == vocab.ContextLinkRel {
		c.r.Emit(report.Message{
			Severity: report.Warning,
			CheckID:  "OPF-086",
			Message:  fmt.Sprintf("The '%s' link rel keyword is deprecated", raw),
			Location: loc,
		})
		return
	}
	c.r.Emit(report.Message{
		Severity: report.Warning,
		CheckID:  "RSC-017",
		Message:  fmt.Sprintf("The property '%s' is deprecated", raw),
		Location: loc,
	})
}

// is reports whether the token resolved to name in the vocabulary iri.
func (t token) is(iri, name string) bool {
	return t.IRI == iri && t.Name == name
}
