package triplestore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trellis-ldp/trellis-core/domain/rdf"
	"github.com/trellis-ldp/trellis-core/domain/resource"
	"github.com/trellis-ldp/trellis-core/infrastructure/persistence/triplestore"
)

const root = rdf.IRI("trellis:data/")

func newService(t *testing.T) *triplestore.Service {
	t.Helper()
	svc := triplestore.NewService(triplestore.NewMemoryConnection())
	require.NoError(t, svc.Initialize(context.Background(), root))
	return svc
}

func userTriple(subject rdf.IRI, lexical string) rdf.Triple {
	return rdf.NewTriple(subject, rdf.IRI("http://purl.org/dc/terms/title"), rdf.NewLiteral(lexical))
}

func createResource(t *testing.T, svc *triplestore.Service, meta resource.Metadata, triples ...rdf.Triple) {
	t.Helper()
	mutable := rdf.NewDataset()
	for _, tr := range triples {
		mutable.AddTriple(tr, rdf.PreferUserManaged)
	}
	require.NoError(t, svc.Create(context.Background(), meta, mutable))
}

func TestInitializeBootstrapsRootOnce(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	// A second Initialize must not disturb the existing root.
	require.NoError(t, svc.Initialize(ctx, root))

	res, err := svc.Get(ctx, root)
	require.NoError(t, err)
	assert.False(t, res.IsMissing())
	assert.Equal(t, resource.BasicContainer, res.InteractionModel)
	assert.True(t, res.HasAcl, "root carries the administrative ACL graph")
}

func TestCreateGetRoundTrip(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	id := rdf.IRI("trellis:data/r1")

	createResource(t, svc, resource.Metadata{
		Identifier:       id,
		InteractionModel: resource.RDFSource,
		Container:        root,
	}, userTriple(id, "hello"))

	res, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, resource.RDFSource, res.InteractionModel)
	assert.Equal(t, root, res.Container)
	assert.False(t, res.Modified.IsZero())
	assert.Equal(t, []rdf.Triple{userTriple(id, "hello")}, res.StreamGraphs(rdf.PreferUserManaged))
}

func TestCreateExistingResourceConflicts(t *testing.T) {
	svc := newService(t)
	id := rdf.IRI("trellis:data/r1")
	meta := resource.Metadata{Identifier: id, InteractionModel: resource.RDFSource, Container: root}

	createResource(t, svc, meta)

	err := svc.Create(context.Background(), meta, rdf.NewDataset())
	assert.Error(t, err)
}

func TestCreateOverTombstoneSucceeds(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	id := rdf.IRI("trellis:data/r1")
	meta := resource.Metadata{Identifier: id, InteractionModel: resource.RDFSource, Container: root}

	createResource(t, svc, meta)
	require.NoError(t, svc.Delete(ctx, meta))

	err := svc.Create(ctx, meta, rdf.NewDataset())
	require.NoError(t, err)

	res, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, res.IsSentinelDeleted())
}

func TestReplaceKeepsModelWithinSupertypeChain(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	id := rdf.IRI("trellis:data/r1")

	createResource(t, svc, resource.Metadata{Identifier: id, InteractionModel: resource.RDFSource, Container: root})

	// RDFSource -> BasicContainer moves down the chain and is allowed.
	err := svc.Replace(ctx, resource.Metadata{Identifier: id, InteractionModel: resource.BasicContainer, Container: root}, rdf.NewDataset())
	require.NoError(t, err)

	res, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, resource.BasicContainer, res.InteractionModel)
}

func TestReplaceRejectsIllegalTypeChange(t *testing.T) {
	svc := newService(t)
	id := rdf.IRI("trellis:data/r1")

	createResource(t, svc, resource.Metadata{Identifier: id, InteractionModel: resource.RDFSource, Container: root})

	err := svc.Replace(context.Background(), resource.Metadata{Identifier: id, InteractionModel: resource.NonRDFSource, Container: root}, rdf.NewDataset())
	assert.Error(t, err)
}

func TestReplaceMissingResourceIsNotFound(t *testing.T) {
	svc := newService(t)

	err := svc.Replace(context.Background(), resource.Metadata{
		Identifier:       rdf.IRI("trellis:data/never"),
		InteractionModel: resource.RDFSource,
	}, rdf.NewDataset())
	assert.Error(t, err)
}

func TestDeleteIsIdempotentAndLeavesTombstone(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	id := rdf.IRI("trellis:data/r1")
	meta := resource.Metadata{Identifier: id, InteractionModel: resource.RDFSource, Container: root}

	createResource(t, svc, meta, userTriple(id, "v"))

	require.NoError(t, svc.Delete(ctx, meta))
	require.NoError(t, svc.Delete(ctx, meta))

	res, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, res.IsSentinelDeleted())
}

func TestDeleteRemovesContainmentEdge(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	child := rdf.IRI("trellis:data/r1")
	meta := resource.Metadata{Identifier: child, InteractionModel: resource.RDFSource, Container: root}

	createResource(t, svc, meta)
	require.NoError(t, svc.Delete(ctx, meta))

	parent, err := svc.Get(ctx, root)
	require.NoError(t, err)
	assert.Empty(t, parent.StreamGraphs(rdf.PreferContainment))
}

func TestContainmentIsDerivedFromIsPartOf(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	child := rdf.IRI("trellis:data/r1")

	createResource(t, svc, resource.Metadata{Identifier: child, InteractionModel: resource.RDFSource, Container: root})

	parent, err := svc.Get(ctx, root)
	require.NoError(t, err)
	contains := parent.StreamGraphs(rdf.PreferContainment)
	require.Len(t, contains, 1)
	assert.Equal(t, rdf.NewTriple(root, resource.LDPContains, child), contains[0])
}

func TestTouchAdvancesModifiedTime(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	id := rdf.IRI("trellis:data/r1")

	createResource(t, svc, resource.Metadata{Identifier: id, InteractionModel: resource.RDFSource, Container: root})
	before, err := svc.Get(ctx, id)
	require.NoError(t, err)

	require.NoError(t, svc.Touch(ctx, id))

	after, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, after.Modified.Before(before.Modified))
	// Touch must not disturb the rest of the server-managed state.
	assert.Equal(t, before.InteractionModel, after.InteractionModel)
	assert.Equal(t, before.Container, after.Container)
}

func TestAddAppendsAuditQuads(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	id := rdf.IRI("trellis:data/r1")

	createResource(t, svc, resource.Metadata{Identifier: id, InteractionModel: resource.RDFSource, Container: root})

	immutable := rdf.NewDataset()
	immutable.AddTriple(rdf.NewTriple(rdf.IRI("trellis:data/r1#event"), rdf.IRI("http://www.w3.org/ns/prov#type"), rdf.NewLiteral("Create")), rdf.PreferAudit)
	require.NoError(t, svc.Add(ctx, id, immutable))

	res, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Len(t, res.StreamGraphs(rdf.PreferAudit), 1)
}

func TestGetContainer(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	id := rdf.IRI("trellis:data/r1")

	createResource(t, svc, resource.Metadata{Identifier: id, InteractionModel: resource.RDFSource, Container: root})

	container, ok, err := svc.GetContainer(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, root, container)

	_, ok, err = svc.GetContainer(ctx, root)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDirectContainerForwardMembership(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	member := rdf.IRI("trellis:data/m")
	dc := rdf.IRI("trellis:data/dc/")
	child := rdf.IRI("trellis:data/dc/x")
	relation := rdf.IRI("http://purl.org/dc/terms/relation")

	createResource(t, svc, resource.Metadata{Identifier: member, InteractionModel: resource.RDFSource, Container: root})
	createResource(t, svc, resource.Metadata{
		Identifier:         dc,
		InteractionModel:   resource.DirectContainer,
		Container:          root,
		MembershipResource: member,
		HasMemberRelation:  relation,
	})
	createResource(t, svc, resource.Metadata{Identifier: child, InteractionModel: resource.RDFSource, Container: dc})

	res, err := svc.Get(ctx, member)
	require.NoError(t, err)
	membership := res.StreamGraphs(rdf.PreferMembership)
	require.Len(t, membership, 1)
	assert.Equal(t, rdf.NewTriple(member, relation, child), membership[0])

	// Deleting the child withdraws the derived membership triple.
	require.NoError(t, svc.Delete(ctx, resource.Metadata{Identifier: child, InteractionModel: resource.RDFSource}))
	res, err = svc.Get(ctx, member)
	require.NoError(t, err)
	assert.Empty(t, res.StreamGraphs(rdf.PreferMembership))
}

func TestDirectContainerInverseMembership(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	member := rdf.IRI("trellis:data/m")
	dc := rdf.IRI("trellis:data/dc/")
	child := rdf.IRI("trellis:data/dc/x")
	isMemberOf := rdf.IRI("http://purl.org/dc/terms/isPartOf")

	createResource(t, svc, resource.Metadata{Identifier: member, InteractionModel: resource.RDFSource, Container: root})
	createResource(t, svc, resource.Metadata{
		Identifier:         dc,
		InteractionModel:   resource.DirectContainer,
		Container:          root,
		MembershipResource: member,
		IsMemberOfRelation: isMemberOf,
	})
	createResource(t, svc, resource.Metadata{Identifier: child, InteractionModel: resource.RDFSource, Container: dc})

	res, err := svc.Get(ctx, child)
	require.NoError(t, err)
	membership := res.StreamGraphs(rdf.PreferMembership)
	require.Len(t, membership, 1)
	assert.Equal(t, rdf.NewTriple(child, isMemberOf, member), membership[0])
}

func TestIndirectContainerInsertedContentMembership(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	member := rdf.IRI("trellis:data/m")
	ic := rdf.IRI("trellis:data/ic/")
	child := rdf.IRI("trellis:data/ic/y")
	topic := rdf.IRI("trellis:data/ic/y#it")
	relation := rdf.IRI("http://purl.org/dc/terms/relation")
	primaryTopic := rdf.IRI("http://xmlns.com/foaf/0.1/primaryTopic")

	createResource(t, svc, resource.Metadata{Identifier: member, InteractionModel: resource.RDFSource, Container: root})
	createResource(t, svc, resource.Metadata{
		Identifier:              ic,
		InteractionModel:        resource.IndirectCont,
		Container:               root,
		MembershipResource:      member,
		HasMemberRelation:       relation,
		InsertedContentRelation: primaryTopic,
	})
	createResource(t, svc, resource.Metadata{Identifier: child, InteractionModel: resource.RDFSource, Container: ic},
		rdf.NewTriple(child, primaryTopic, topic))

	res, err := svc.Get(ctx, member)
	require.NoError(t, err)
	membership := res.StreamGraphs(rdf.PreferMembership)
	require.Len(t, membership, 1)
	assert.Equal(t, rdf.NewTriple(member, relation, topic), membership[0])
}

func TestIndirectContainerMemberSubjectDegeneratesToDirect(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	member := rdf.IRI("trellis:data/m")
	ic := rdf.IRI("trellis:data/ic/")
	child := rdf.IRI("trellis:data/ic/y")
	relation := rdf.IRI("http://purl.org/dc/terms/relation")

	createResource(t, svc, resource.Metadata{Identifier: member, InteractionModel: resource.RDFSource, Container: root})
	createResource(t, svc, resource.Metadata{
		Identifier:              ic,
		InteractionModel:        resource.IndirectCont,
		Container:               root,
		MembershipResource:      member,
		HasMemberRelation:       relation,
		InsertedContentRelation: resource.MemberSubject,
	})
	createResource(t, svc, resource.Metadata{Identifier: child, InteractionModel: resource.RDFSource, Container: ic})

	res, err := svc.Get(ctx, member)
	require.NoError(t, err)
	membership := res.StreamGraphs(rdf.PreferMembership)
	require.Len(t, membership, 1)
	assert.Equal(t, rdf.NewTriple(member, relation, child), membership[0])
}

func TestMementosAndGetVersion(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	id := rdf.IRI("trellis:data/r1")
	meta := resource.Metadata{Identifier: id, InteractionModel: resource.RDFSource, Container: root}

	createResource(t, svc, meta, userTriple(id, "v1"))

	// Version snapshots are keyed by epoch second, so the second write
	// must land in a later second to record a distinct memento.
	time.Sleep(1100 * time.Millisecond)

	mutable := rdf.NewDataset()
	mutable.AddTriple(userTriple(id, "v2"), rdf.PreferUserManaged)
	require.NoError(t, svc.Replace(ctx, meta, mutable))

	instants, err := svc.Mementos(ctx, id)
	require.NoError(t, err)
	require.Len(t, instants, 2)
	assert.True(t, instants[0].Before(instants[1]))

	older, err := svc.GetVersion(ctx, id, instants[0])
	require.NoError(t, err)
	assert.Equal(t, []rdf.Triple{userTriple(id, "v1")}, older.StreamGraphs(rdf.PreferUserManaged))
	assert.False(t, older.Modified.After(instants[0]), "a memento's modified time never postdates its instant")

	newer, err := svc.GetVersion(ctx, id, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []rdf.Triple{userTriple(id, "v2")}, newer.StreamGraphs(rdf.PreferUserManaged))
}

func TestGetVersionBeforeFirstMementoIsMissing(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	id := rdf.IRI("trellis:data/r1")

	createResource(t, svc, resource.Metadata{Identifier: id, InteractionModel: resource.RDFSource, Container: root})

	res, err := svc.GetVersion(ctx, id, time.Unix(0, 0))
	require.NoError(t, err)
	assert.True(t, res.IsMissing())
}

func TestVersioningDisabledRecordsNoMementos(t *testing.T) {
	svc := triplestore.NewServiceWithOptions(triplestore.NewMemoryConnection(), false)
	ctx := context.Background()
	require.NoError(t, svc.Initialize(ctx, root))
	id := rdf.IRI("trellis:data/r1")

	createResource(t, svc, resource.Metadata{Identifier: id, InteractionModel: resource.RDFSource, Container: root})

	instants, err := svc.Mementos(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, instants)
}

func TestSkolemizationBijection(t *testing.T) {
	svc := newService(t)
	blank := rdf.BlankNode{ID: "b0"}

	skolem := svc.Skolemize(blank)
	_, isIRI := skolem.(rdf.IRI)
	assert.True(t, isIRI, "skolemizing a blank node yields an IRI")

	// Stable: the same blank node always maps to the same skolem IRI.
	assert.Equal(t, skolem, svc.Skolemize(blank))
	// Invertible.
	assert.Equal(t, rdf.Term(blank), svc.Unskolemize(skolem))

	// Everything else passes through untouched.
	iri := rdf.IRI("http://example.org/x")
	assert.Equal(t, rdf.Term(iri), svc.Skolemize(iri))
	assert.Equal(t, rdf.Term(iri), svc.Unskolemize(iri))
}

func TestToExternalToInternalRoundTrip(t *testing.T) {
	svc := newService(t)
	base := "http://example.org"
	internal := rdf.IRI("trellis:data/c1/r1")

	external := svc.ToExternal(internal, base)
	assert.Equal(t, rdf.IRI("http://example.org/c1/r1"), external)
	assert.Equal(t, internal, svc.ToInternal(external, base))

	// IRIs outside either namespace pass through unchanged.
	other := rdf.IRI("http://elsewhere.org/x")
	assert.Equal(t, other, svc.ToExternal(other, base))
	assert.Equal(t, other, svc.ToInternal(other, base))
}

func TestReplaceClearsPriorBinaryFanout(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	id := rdf.IRI("trellis:data/bin")
	binID := rdf.IRI("trellis:data/bin#binary")

	createResource(t, svc, resource.Metadata{
		Identifier:       id,
		InteractionModel: resource.NonRDFSource,
		Container:        root,
		Binary:           &resource.BinaryMetadata{Identifier: binID, MimeType: "text/plain", Size: 5},
	})

	replacement := rdf.IRI("trellis:data/bin#binary2")
	require.NoError(t, svc.Replace(ctx, resource.Metadata{
		Identifier:       id,
		InteractionModel: resource.NonRDFSource,
		Container:        root,
		Binary:           &resource.BinaryMetadata{Identifier: replacement, MimeType: "text/csv", Size: 9},
	}, rdf.NewDataset()))

	res, err := svc.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, res.Binary)
	assert.Equal(t, replacement, res.Binary.Identifier)
	assert.Equal(t, "text/csv", res.Binary.MimeType)
	assert.Equal(t, int64(9), res.Binary.Size)
}
