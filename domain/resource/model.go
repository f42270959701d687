package resource

import "github.com/trellis-ldp/trellis-core/domain/rdf"

// InteractionModel is the LDP type controlling allowed methods and
// containment/membership semantics.
type InteractionModel rdf.IRI

const (
	Resource         = InteractionModel("http://www.w3.org/ns/ldp#Resource")
	RDFSource        = InteractionModel("http://www.w3.org/ns/ldp#RDFSource")
	NonRDFSource     = InteractionModel("http://www.w3.org/ns/ldp#NonRDFSource")
	Container        = InteractionModel("http://www.w3.org/ns/ldp#Container")
	BasicContainer   = InteractionModel("http://www.w3.org/ns/ldp#BasicContainer")
	DirectContainer  = InteractionModel("http://www.w3.org/ns/ldp#DirectContainer")
	IndirectCont     = InteractionModel("http://www.w3.org/ns/ldp#IndirectContainer")
	MemberSubject    = rdf.IRI("http://www.w3.org/ns/ldp#MemberSubject")
	TypeRDF          = rdf.IRI("http://www.w3.org/1999/02/22-rdf-syntax-ns#type")
	LDPContains      = rdf.IRI("http://www.w3.org/ns/ldp#contains")
	LDPMembershipRes = rdf.IRI("http://www.w3.org/ns/ldp#membershipResource")
	LDPHasMemberRel  = rdf.IRI("http://www.w3.org/ns/ldp#hasMemberRelation")
	LDPIsMemberOfRel = rdf.IRI("http://www.w3.org/ns/ldp#isMemberOfRelation")
	LDPInsertedCRel  = rdf.IRI("http://www.w3.org/ns/ldp#insertedContentRelation")

	DCIsPartOf = rdf.IRI("http://purl.org/dc/terms/isPartOf")
	DCModified = rdf.IRI("http://purl.org/dc/terms/modified")
	DCFormat   = rdf.IRI("http://purl.org/dc/terms/format")
	DCExtent   = rdf.IRI("http://purl.org/dc/terms/extent")
	DCHasPart  = rdf.IRI("http://purl.org/dc/terms/hasPart")
	DCType     = rdf.IRI("http://purl.org/dc/terms/type")

	DeletedResource = rdf.IRI("http://www.trellisldp.org/ns/trellis#DeletedResource")
)

// superChain enumerates each LDP type's ancestors, nearest first:
//	BasicContainer/DirectContainer/IndirectContainer ⊂ Container ⊂ RDFSource ⊂ Resource
//	NonRDFSource ⊂ Resource
var superChain = map[InteractionModel][]InteractionModel{
	BasicContainer:  {BasicContainer, Container, RDFSource, Resource},
	DirectContainer: {DirectContainer, Container, RDFSource, Resource},
	IndirectCont:    {IndirectCont, Container, RDFSource, Resource},
	Container:       {Container, RDFSource, Resource},
	RDFSource:       {RDFSource, Resource},
	NonRDFSource:    {NonRDFSource, Resource},
	Resource:        {Resource},
}

// SupertypeChain returns m and every LDP type it is a subtype of,
// nearest first. Used both for the `Link: rel="type"` response headers
// and for the type-change legality check in
// IsSubtypeChangeAllowed.
func SupertypeChain(m InteractionModel) []InteractionModel {
	chain, ok := superChain[m]
	if !ok {
		return []InteractionModel{m, Resource}
	}
	out := make([]InteractionModel, len(chain))
	copy(out, chain)
	return out
}

// IsContainerType reports whether m is BasicContainer, DirectContainer,
// IndirectContainer, or the bare Container type.
func IsContainerType(m InteractionModel) bool {
	switch m {
	case BasicContainer, DirectContainer, IndirectCont, Container:
		return true
	default:
		return false
	}
}

// IsSubtypeChangeAllowed decides type-change legality: a PUT/replace
// may only move an existing interaction model to one that is a member of
// its own supertype chain (so an RDFSource may become a container type
// moving down the chain, and any container type may become a plain
// RDFSource moving up, but NonRDFSource is never interchangeable with
// anything on the Container/RDFSource branch).
func IsSubtypeChangeAllowed(from, to InteractionModel) bool {
	if from == to {
		return true
	}
	fromChain := SupertypeChain(from)
	toChain := SupertypeChain(to)
	inChain := func(chain []InteractionModel, m InteractionModel) bool {
		for _, c := range chain {
			if c == m {
				return true
			}
		}
		return false
	}
	return inChain(fromChain, to) || inChain(toChain, from)
}
