package triplestore

import (
	"strconv"
	"time"

	"github.com/trellis-ldp/trellis-core/domain/rdf"
	"github.com/trellis-ldp/trellis-core/domain/resource"
)

// materialize builds the Resource view for id out of ds. It returns
// resource.MISSING if id
// is not the subject of any triple in PreferServerManaged.
func materialize(ds *rdf.Dataset, id rdf.IRI) *resource.Resource {
	core := coreTriples(ds, id)
	if len(core) == 0 {
		return resource.MISSING
	}

	meta := resource.Metadata{Identifier: id}
	var modified time.Time
	var isDeleted bool
	var binaryFormat, binaryExtent string
	var binaryID rdf.IRI

	for _, t := range core {
		obj := t.Object
		switch t.Predicate {
		case resource.TypeRDF:
			if iri, ok := obj.(rdf.IRI); ok {
				candidate := resource.InteractionModel(iri)
				if iri == resource.DeletedResource {
					isDeleted = true
				} else if isMoreSpecificModel(candidate, meta.InteractionModel) {
					meta.InteractionModel = candidate
				}
			}
		case resource.DCIsPartOf:
			if iri, ok := obj.(rdf.IRI); ok {
				meta.Container = iri
			}
		case resource.LDPMembershipRes:
			if iri, ok := obj.(rdf.IRI); ok {
				meta.MembershipResource = iri
			}
		case resource.LDPHasMemberRel:
			if iri, ok := obj.(rdf.IRI); ok {
				meta.HasMemberRelation = iri
			}
		case resource.LDPIsMemberOfRel:
			if iri, ok := obj.(rdf.IRI); ok {
				meta.IsMemberOfRelation = iri
			}
		case resource.LDPInsertedCRel:
			if iri, ok := obj.(rdf.IRI); ok {
				meta.InsertedContentRelation = iri
			}
		case resource.DCModified:
			if lit, ok := obj.(rdf.Literal); ok {
				if parsed, err := time.Parse(time.RFC3339Nano, lit.Lexical); err == nil {
					modified = parsed
				}
			}
		case resource.DCHasPart:
			if iri, ok := obj.(rdf.IRI); ok {
				binaryID = iri
			}
		}
	}

	if binaryID != "" {
		for _, t := range coreTriples(ds, binaryID) {
			if lit, ok := t.Object.(rdf.Literal); ok {
				switch t.Predicate {
				case resource.DCFormat:
					binaryFormat = lit.Lexical
				case resource.DCExtent:
					binaryExtent = lit.Lexical
				}
			}
		}
		size := int64(-1)
		if binaryExtent != "" {
			if parsed, err := strconv.ParseInt(binaryExtent, 10, 64); err == nil {
				size = parsed
			}
		}
		meta.Binary = &resource.BinaryMetadata{Identifier: binaryID, MimeType: binaryFormat, Size: size, Modified: modified}
	}

	meta.HasAcl = len(ds.Graph(rdf.PreferAccessControl.ScopedTo(id))) > 0

	view := rdf.NewDataset()
	for _, t := range ds.Graph(rdf.PreferUserManaged.ScopedTo(id)) {
		view.AddTriple(t, rdf.PreferUserManaged)
	}
	for _, t := range ds.Graph(rdf.PreferAudit.ScopedTo(id)) {
		view.AddTriple(t, rdf.PreferAudit)
	}
	for _, t := range ds.Graph(rdf.PreferAccessControl.ScopedTo(id)) {
		view.AddTriple(t, rdf.PreferAccessControl)
	}
	if resource.IsContainerType(meta.InteractionModel) {
		for _, t := range containment(ds, id) {
			view.AddTriple(t, rdf.PreferContainment)
		}
	}
	for _, t := range membership(ds, id, meta) {
		view.AddTriple(t, rdf.PreferMembership)
	}

	r := resource.NewResource(meta, modified, view)
	r.IsDeleted = isDeleted
	return r
}

// coreTriples returns every PreferServerManaged triple about subject.
func coreTriples(ds *rdf.Dataset, subject rdf.IRI) []rdf.Triple {
	var out []rdf.Triple
	for _, t := range ds.Graph(rdf.PreferServerManaged) {
		if t.Subject == rdf.Term(subject) {
			out = append(out, t)
		}
	}
	return out
}

// isMoreSpecificModel prefers a narrower interaction model over a
// wider one already selected (e.g. BasicContainer over Container),
// since a resource may carry more than one rdf:type assertion.
func isMoreSpecificModel(candidate, current resource.InteractionModel) bool {
	if current == "" {
		return true
	}
	return len(resource.SupertypeChain(candidate)) > len(resource.SupertypeChain(current))
}

// containment derives `?child dc:isPartOf <target>` → `<target>
// ldp:contains ?child`.
func containment(ds *rdf.Dataset, target rdf.IRI) []rdf.Triple {
	var out []rdf.Triple
	for _, t := range ds.Graph(rdf.PreferServerManaged) {
		if t.Predicate == resource.DCIsPartOf && t.Object == rdf.Term(target) {
			if child, ok := t.Subject.(rdf.IRI); ok {
				out = append(out, rdf.NewTriple(target, resource.LDPContains, child))
			}
		}
	}
	return out
}

// membership derives the membership triples visible at id, covering
// DirectContainer forward/inverse and IndirectContainer relations.
// Forward membership triples are visible on the *membership
// resource*, which a DirectContainer/IndirectContainer may point at
// some other identifier entirely, so this scans every container that
// names id as its membership resource rather than only id's own
// container metadata.
func membership(ds *rdf.Dataset, id rdf.IRI, meta resource.Metadata) []rdf.Triple {
	var out []rdf.Triple

	for _, containerID := range containersWithMemberRelation(ds) {
		cmeta := coreMetadata(ds, containerID)
		if cmeta.HasMemberRelation == "" {
			continue
		}
		membershipRes := cmeta.MembershipResource
		if membershipRes == "" {
			membershipRes = containerID
		}
		if membershipRes != id {
			continue
		}
		for _, child := range childrenOf(ds, containerID) {
			if cmeta.InsertedContentRelation != "" && cmeta.InsertedContentRelation != resource.MemberSubject {
				for _, obj := range childPropertyValues(ds, child, cmeta.InsertedContentRelation) {
					out = append(out, rdf.NewTriple(membershipRes, cmeta.HasMemberRelation, obj))
				}
				continue
			}
			out = append(out, rdf.NewTriple(membershipRes, cmeta.HasMemberRelation, child))
		}
	}

	if meta.Container != "" {
		for _, t := range coreTriples(ds, meta.Container) {
			if t.Predicate == resource.LDPIsMemberOfRel {
				if isMemberOfRel, ok := t.Object.(rdf.IRI); ok {
					membershipRes := lookupIRI(ds, meta.Container, resource.LDPMembershipRes)
					if membershipRes != "" {
						out = append(out, rdf.NewTriple(id, isMemberOfRel, membershipRes))
					}
				}
			}
		}
	}

	return out
}

// containersWithMemberRelation lists every subject carrying an
// ldp:hasMemberRelation assertion in PreferServerManaged, i.e. every
// DirectContainer/IndirectContainer that declares a forward membership
// rule.
func containersWithMemberRelation(ds *rdf.Dataset) []rdf.IRI {
	seen := make(map[rdf.IRI]bool)
	var out []rdf.IRI
	for _, t := range ds.Graph(rdf.PreferServerManaged) {
		if t.Predicate != resource.LDPHasMemberRel {
			continue
		}
		if subject, ok := t.Subject.(rdf.IRI); ok && !seen[subject] {
			seen[subject] = true
			out = append(out, subject)
		}
	}
	return out
}

// coreMetadata extracts the small slice of Metadata fields membership
// derivation needs directly from subject's PreferServerManaged triples,
// without the full materialize pass.
func coreMetadata(ds *rdf.Dataset, subject rdf.IRI) resource.Metadata {
	meta := resource.Metadata{Identifier: subject}
	for _, t := range coreTriples(ds, subject) {
		iri, ok := t.Object.(rdf.IRI)
		if !ok {
			continue
		}
		switch t.Predicate {
		case resource.LDPMembershipRes:
			meta.MembershipResource = iri
		case resource.LDPHasMemberRel:
			meta.HasMemberRelation = iri
		case resource.LDPInsertedCRel:
			meta.InsertedContentRelation = iri
		}
	}
	return meta
}

func childrenOf(ds *rdf.Dataset, container rdf.IRI) []rdf.IRI {
	var out []rdf.IRI
	for _, t := range ds.Graph(rdf.PreferServerManaged) {
		if t.Predicate == resource.DCIsPartOf && t.Object == rdf.Term(container) {
			if child, ok := t.Subject.(rdf.IRI); ok {
				out = append(out, child)
			}
		}
	}
	return out
}

func childPropertyValues(ds *rdf.Dataset, child rdf.IRI, predicate rdf.IRI) []rdf.Term {
	var out []rdf.Term
	for _, t := range ds.Graph(rdf.PreferUserManaged.ScopedTo(child)) {
		if t.Subject == rdf.Term(child) && t.Predicate == predicate {
			out = append(out, t.Object)
		}
	}
	return out
}

func lookupIRI(ds *rdf.Dataset, subject rdf.IRI, predicate rdf.IRI) rdf.IRI {
	for _, t := range coreTriples(ds, subject) {
		if t.Predicate == predicate {
			if iri, ok := t.Object.(rdf.IRI); ok {
				return iri
			}
		}
	}
	return ""
}
