package rdf

// GraphName identifies one of the named graphs a Quad belongs to.
// The core graph set is fixed; extension graphs are
// additional names resolved through a name→IRI mapping loaded from
// configuration.
type GraphName IRI

const (
	// PreferUserManaged holds user-authored triples.
	PreferUserManaged = GraphName("trellis:PreferUserManaged")
	// PreferServerManaged holds server-controlled assertions: type,
	// container, membership-resource copy, modified time, hasPart.
	PreferServerManaged = GraphName("http://www.w3.org/ns/ldp#PreferServerManaged")
	// PreferAudit holds the immutable audit trail.
	PreferAudit = GraphName("trellis:PreferAudit")
	// PreferAccessControl holds WebAC authorization statements,
	// surfaced to clients as the "acl" extension graph.
	PreferAccessControl = GraphName("http://www.w3.org/ns/auth/acl#PreferAccessControl")
	// PreferContainment and PreferMembership are never stored; they
	// are computed at read time, placed under these graph names in the
	// materialized resource view, and share their IRIs with the LDP
	// Prefer tokens of the same name.
	PreferContainment = GraphName("http://www.w3.org/ns/ldp#PreferContainment")
	PreferMembership  = GraphName("http://www.w3.org/ns/ldp#PreferMembership")
)

// Quad is a Triple scoped to a named graph.
type Quad struct {
	Subject   Term
	Predicate IRI
	Object    Term
	Graph     GraphName
}

// NewQuad attaches a graph name to a triple.
func NewQuad(t Triple, graph GraphName) Quad {
	return Quad{Subject: t.Subject, Predicate: t.Predicate, Object: t.Object, Graph: graph}
}

// Triple drops the graph name.
func (q Quad) Triple() Triple {
	return Triple{Subject: q.Subject, Predicate: q.Predicate, Object: q.Object}
}

// scopedTo resolves one of the per-resource graph-name markers
// (PreferUserManaged, PreferAudit, PreferAccessControl) to the actual
// stored graph name for a given identifier: the user graph is `<id>`
// itself, audit is `<id>?ext=audit`, and access control is
// `<id>?ext=acl`. Any other
// GraphName (PreferServerManaged, an already-scoped name) is returned
// unchanged, since only these three markers are resource-relative.
func (g GraphName) scopedTo(id IRI) GraphName {
	switch g {
	case PreferUserManaged:
		return GraphName(id)
	case PreferAudit:
		return GraphName(id.WithQuery("ext=audit"))
	case PreferAccessControl:
		return GraphName(id.WithQuery("ext=acl"))
	default:
		return g
	}
}

// ScopedTo is scopedTo's exported form, for callers outside package
// rdf that need to resolve a per-resource graph name (e.g. the
// persistence layer building write templates).
func (g GraphName) ScopedTo(id IRI) GraphName { return g.scopedTo(id) }
