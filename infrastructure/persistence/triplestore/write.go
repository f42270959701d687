package triplestore

import (
	"strconv"
	"time"

	"github.com/trellis-ldp/trellis-core/domain/rdf"
	"github.com/trellis-ldp/trellis-core/domain/resource"
)

// writeResource is the create/replace write template: purge the
// user graph, every configured extension
// graph, any stale binary fanout, and the prior server-managed quads
// about id, then insert the new server-managed/user/audit/extension
// quads in one pass against the working copy ds. Both Create and
// Replace funnel through here; the only difference between them lives
// in the existence check each performs before calling it.
func writeResource(ds *rdf.Dataset, metadata resource.Metadata, mutable *rdf.Dataset, now time.Time) {
	id := metadata.Identifier

	purgeBinaryFanout(ds, id)
	clearResourceGraphs(ds, id)

	for _, t := range mutable.Graph(rdf.PreferUserManaged) {
		ds.AddTriple(t, rdf.PreferUserManaged.ScopedTo(id))
	}
	for _, t := range mutable.Graph(rdf.PreferAudit) {
		ds.AddTriple(t, rdf.PreferAudit.ScopedTo(id))
	}
	for _, t := range mutable.Graph(rdf.PreferAccessControl) {
		ds.AddTriple(t, rdf.PreferAccessControl.ScopedTo(id))
	}
	for _, name := range mutable.GraphNames() {
		switch name {
		case rdf.PreferUserManaged, rdf.PreferAudit, rdf.PreferAccessControl, rdf.PreferServerManaged:
			continue
		}
		for _, t := range mutable.Graph(name) {
			ds.AddTriple(t, name.ScopedTo(id))
		}
	}

	writeServerManaged(ds, metadata, now)
}

// writeServerManaged inserts the server-controlled assertions for id
// into PreferServerManaged: interaction model, container, membership
// configuration, modified time, and (for a NonRDFSource) the binary's
// hasPart/format/extent triples.
func writeServerManaged(ds *rdf.Dataset, metadata resource.Metadata, now time.Time) {
	id := metadata.Identifier

	ds.AddTriple(rdf.NewTriple(id, resource.TypeRDF, rdf.IRI(metadata.InteractionModel)), rdf.PreferServerManaged)
	ds.AddTriple(rdf.NewTriple(id, resource.DCModified, nowLiteral(now)), rdf.PreferServerManaged)

	if metadata.Container != "" {
		ds.AddTriple(rdf.NewTriple(id, resource.DCIsPartOf, metadata.Container), rdf.PreferServerManaged)
	}
	if metadata.MembershipResource != "" {
		ds.AddTriple(rdf.NewTriple(id, resource.LDPMembershipRes, metadata.MembershipResource), rdf.PreferServerManaged)
	}
	if metadata.HasMemberRelation != "" {
		ds.AddTriple(rdf.NewTriple(id, resource.LDPHasMemberRel, metadata.HasMemberRelation), rdf.PreferServerManaged)
	}
	if metadata.IsMemberOfRelation != "" {
		ds.AddTriple(rdf.NewTriple(id, resource.LDPIsMemberOfRel, metadata.IsMemberOfRelation), rdf.PreferServerManaged)
	}
	if metadata.InsertedContentRelation != "" {
		ds.AddTriple(rdf.NewTriple(id, resource.LDPInsertedCRel, metadata.InsertedContentRelation), rdf.PreferServerManaged)
	}

	if metadata.Binary != nil {
		ds.AddTriple(rdf.NewTriple(id, resource.DCHasPart, metadata.Binary.Identifier), rdf.PreferServerManaged)
		ds.AddTriple(rdf.NewTriple(metadata.Binary.Identifier, resource.DCFormat, rdf.NewLiteral(metadata.Binary.MimeType)), rdf.PreferServerManaged)
		if metadata.Binary.Size >= 0 {
			ds.AddTriple(rdf.NewTriple(metadata.Binary.Identifier, resource.DCExtent,
				rdf.NewTypedLiteral(formatInt64(metadata.Binary.Size), rdf.IRI("http://www.w3.org/2001/XMLSchema#long"))), rdf.PreferServerManaged)
		}
	}
}

// purgeBinaryFanout removes a prior NonRDFSource's dc:hasPart triple
// and the binary identifier's own format/extent triples, so replacing
// a binary description (or changing a resource away from
// NonRDFSource) never leaves orphaned server-managed quads about the
// old binary identifier.
func purgeBinaryFanout(ds *rdf.Dataset, id rdf.IRI) {
	var binaryID rdf.IRI
	for _, t := range coreTriples(ds, id) {
		if t.Predicate == resource.DCHasPart {
			if iri, ok := t.Object.(rdf.IRI); ok {
				binaryID = iri
			}
		}
	}
	if binaryID == "" {
		return
	}
	remaining := ds.Graph(rdf.PreferServerManaged)
	ds.Clear(rdf.PreferServerManaged)
	for _, t := range remaining {
		if t.Subject == rdf.Term(binaryID) {
			continue
		}
		ds.AddTriple(t, rdf.PreferServerManaged)
	}
}

// clearResourceGraphs empties every per-resource graph about id (user,
// audit, access control, and any extension graph already present) and
// removes id's own PreferServerManaged triples, leaving ds ready for
// writeServerManaged to reinsert a fresh set.
func clearResourceGraphs(ds *rdf.Dataset, id rdf.IRI) {
	ds.Clear(rdf.PreferUserManaged.ScopedTo(id))
	ds.Clear(rdf.PreferAudit.ScopedTo(id))
	ds.Clear(rdf.PreferAccessControl.ScopedTo(id))
	for _, name := range ds.GraphNames() {
		if isExtensionGraphOf(name, id) {
			ds.Clear(name)
		}
	}
	removeCoreTriplesBySubject(ds, id)
}

// isExtensionGraphOf reports whether name is a per-resource extension
// graph for id, i.e. `<id>?ext=<something other than audit/acl>`.
func isExtensionGraphOf(name rdf.GraphName, id rdf.IRI) bool {
	prefix := string(id) + "?ext="
	s := string(name)
	if len(s) <= len(prefix) || s[:len(prefix)] != prefix {
		return false
	}
	ext := s[len(prefix):]
	return ext != "audit" && ext != "acl"
}

// removeCoreTriplesBySubject deletes every PreferServerManaged triple
// whose subject is id (but not triples about other subjects, such as
// a child's dc:isPartOf <id> edge, which belong to the child).
func removeCoreTriplesBySubject(ds *rdf.Dataset, id rdf.IRI) {
	remaining := ds.Graph(rdf.PreferServerManaged)
	ds.Clear(rdf.PreferServerManaged)
	for _, t := range remaining {
		if t.Subject == rdf.Term(id) {
			continue
		}
		ds.AddTriple(t, rdf.PreferServerManaged)
	}
}

// removeCoreTriplesByPredicate deletes every PreferServerManaged
// triple about id with the given predicate, used by Touch to swap out
// dc:modified without disturbing id's other server-managed triples.
func removeCoreTriplesByPredicate(ds *rdf.Dataset, id rdf.IRI, predicate rdf.IRI) {
	remaining := ds.Graph(rdf.PreferServerManaged)
	ds.Clear(rdf.PreferServerManaged)
	for _, t := range remaining {
		if t.Subject == rdf.Term(id) && t.Predicate == predicate {
			continue
		}
		ds.AddTriple(t, rdf.PreferServerManaged)
	}
}

// versionedDataset returns a copy of the live dataset in which id's
// user-managed graph is replaced by the version graph recorded at
// exactly instant, and id's dc:modified is pinned to instant. Id's
// other server-managed triples, its audit and ACL graphs, and the
// containment/membership derived from them stay as they are live.
// Snapshot graphs are written by snapshotVersion on every
// create/replace touching id.
func versionedDataset(ds *rdf.Dataset, id rdf.IRI, instant time.Time) *rdf.Dataset {
	out := rdf.NewDataset()
	for _, q := range ds.Quads() {
		out.Add(q)
	}
	// The live user graph is replaced wholesale by the snapshot, and
	// dc:modified is pinned to the snapshot instant so the memento's
	// modified time never postdates it.
	out.Clear(rdf.PreferUserManaged.ScopedTo(id))
	versionGraph := rdf.GraphName(id.WithQuery("version=" + formatUnix(instant)))
	for _, t := range ds.Graph(versionGraph) {
		out.AddTriple(t, rdf.PreferUserManaged.ScopedTo(id))
	}
	removeCoreTriplesByPredicate(out, id, resource.DCModified)
	out.AddTriple(rdf.NewTriple(id, resource.DCModified, nowLiteral(instant)), rdf.PreferServerManaged)
	return out
}

func formatInt64(v int64) string {
	return strconv.FormatInt(v, 10)
}

func formatUnix(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}

// snapshotVersion records a Memento snapshot of id's user-managed
// graph under a version graph keyed by now's epoch second, so a later
// GetVersion/Mementos call can reconstruct the resource as it stood at
// that instant.
// Versioning can be disabled entirely by a deployment's configuration;
// the toggle is Service.versioningEnabled (set by
// NewServiceWithOptions), and Create/Replace skip this call when it is
// off.
func snapshotVersion(ds *rdf.Dataset, id rdf.IRI, now time.Time) {
	versionGraph := rdf.GraphName(id.WithQuery("version=" + formatUnix(now)))
	for _, t := range ds.Graph(rdf.PreferUserManaged.ScopedTo(id)) {
		ds.AddTriple(t, versionGraph)
	}
}
