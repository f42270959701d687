package resource

import "github.com/trellis-ldp/trellis-core/domain/rdf"

// StripServerOwned removes the triples reserved to the server: any
// `rdf:type` assertion into the `ldp:` namespace,
// and `ldp:contains` regardless of object. Handlers run every inbound
// user graph through this before it reaches persistence, so a client
// can never forge its own interaction model or containment edge.
func StripServerOwned(triples []rdf.Triple) []rdf.Triple {
	out := make([]rdf.Triple, 0, len(triples))
	for _, t := range triples {
		if t.Predicate == LDPContains {
			continue
		}
		if t.Predicate == TypeRDF {
			if iri, ok := t.Object.(rdf.IRI); ok && isLDPNamespace(iri) {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

const ldpNamespace = "http://www.w3.org/ns/ldp#"

func isLDPNamespace(iri rdf.IRI) bool {
	return len(iri) > len(ldpNamespace) && string(iri)[:len(ldpNamespace)] == ldpNamespace
}
