package handlers

import (
	"strings"

	"github.com/trellis-ldp/trellis-core/application/ports"
	"github.com/trellis-ldp/trellis-core/domain/rdf"
	"github.com/trellis-ldp/trellis-core/domain/resource"
)

// containerMembershipFields pulls a DirectContainer/IndirectContainer's
// own membership configuration (ldp:membershipResource,
// ldp:hasMemberRelation, ldp:isMemberOfRelation,
// ldp:insertedContentRelation) out of its freshly-parsed user graph.
// The triples themselves
// stay in the user graph untouched — a client that PUT them expects to
// read them back — but the resource service also needs them as
// Metadata so the read-side membership derivation can find them.
// Callers pass the container's internal identifier as self; the
// triples have already been internalized by parseAndValidate.
func containerMembershipFields(triples []rdf.Triple, self rdf.IRI) resource.Metadata {
	var meta resource.Metadata
	for _, t := range triples {
		subj, ok := t.Subject.(rdf.IRI)
		if !ok || subj != self {
			continue
		}
		obj, ok := t.Object.(rdf.IRI)
		if !ok {
			continue
		}
		switch t.Predicate {
		case resource.LDPMembershipRes:
			meta.MembershipResource = obj
		case resource.LDPHasMemberRel:
			meta.HasMemberRelation = obj
		case resource.LDPIsMemberOfRel:
			meta.IsMemberOfRelation = obj
		case resource.LDPInsertedCRel:
			meta.InsertedContentRelation = obj
		}
	}
	return meta
}

// detectInteractionModel resolves the interaction model for a new
// resource: an
// explicit `Link rel="type"` naming an ldp: type other than
// ldp:Resource wins; otherwise a content-type with no matching RDF
// syntax means NonRDFSource; otherwise RDFSource.
func detectInteractionModel(linkType, contentType string, supported []ports.RDFSyntax) resource.InteractionModel {
	if linkType != "" {
		return resource.InteractionModel(linkType)
	}
	if contentType != "" {
		if _, ok := matchRDFSyntax(contentType, supported); !ok {
			return resource.NonRDFSource
		}
	}
	return resource.RDFSource
}

// matchRDFSyntax matches a Content-Type header (ignoring parameters
// like charset) against the I/O service's supported syntaxes.
func matchRDFSyntax(contentType string, supported []ports.RDFSyntax) (ports.RDFSyntax, bool) {
	base := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	for _, s := range supported {
		if string(s) == base {
			return s, true
		}
	}
	return "", false
}

// supportsModel reports whether model is in the service's supported
// interaction model list.
func supportsModel(supported []resource.InteractionModel, model resource.InteractionModel) bool {
	for _, m := range supported {
		if m == model {
			return true
		}
	}
	return false
}
