package resource

import (
	"time"

	"github.com/trellis-ldp/trellis-core/domain/rdf"
)

// BinaryMetadata describes the binary payload of a NonRDFSource.
type BinaryMetadata struct {
	Identifier rdf.IRI
	MimeType   string
	Size       int64 // -1 when unknown
	Modified   time.Time
}

// Metadata is the server-managed shape of a resource, as built by a
// handler before a create/replace call. It is a
// plain value object, deliberately smaller than Resource: handlers only
// ever construct the fields they are allowed to set.
type Metadata struct {
	Identifier             rdf.IRI
	InteractionModel       InteractionModel
	Container              rdf.IRI // empty if root
	MembershipResource     rdf.IRI
	HasMemberRelation      rdf.IRI
	IsMemberOfRelation     rdf.IRI
	InsertedContentRelation rdf.IRI
	Binary                 *BinaryMetadata
	HasAcl                 bool
}

// Resource is the materialized view of a stored resource, as produced
// by a resource-service reader.
type Resource struct {
	Identifier              rdf.IRI
	InteractionModel        InteractionModel
	Modified                time.Time
	Container               rdf.IRI
	MembershipResource      rdf.IRI
	HasMemberRelation       rdf.IRI
	IsMemberOfRelation      rdf.IRI
	InsertedContentRelation rdf.IRI
	Binary                  *BinaryMetadata
	HasAcl                  bool
	IsDeleted               bool

	dataset *rdf.Dataset
	kind    sentinelKind
}

// NewResource wraps a populated dataset into a Resource view. The
// dataset is expected to already carry user/server-managed/audit/
// extension/containment/membership quads, as assembled by a reader.
func NewResource(meta Metadata, modified time.Time, dataset *rdf.Dataset) *Resource {
	return &Resource{
		Identifier:              meta.Identifier,
		InteractionModel:        meta.InteractionModel,
		Modified:                modified,
		Container:               meta.Container,
		MembershipResource:      meta.MembershipResource,
		HasMemberRelation:       meta.HasMemberRelation,
		IsMemberOfRelation:      meta.IsMemberOfRelation,
		InsertedContentRelation: meta.InsertedContentRelation,
		Binary:                  meta.Binary,
		HasAcl:                  meta.HasAcl,
		dataset:                 dataset,
	}
}

// Stream yields every quad of the resource.
func (r *Resource) Stream() []rdf.Quad {
	if r.dataset == nil {
		return nil
	}
	return r.dataset.Quads()
}

// StreamGraphs yields triples from the selected graphs only.
func (r *Resource) StreamGraphs(graphNames...rdf.GraphName) []rdf.Triple {
	if r.dataset == nil {
		return nil
	}
	return r.dataset.Stream(graphNames...)
}

// Dataset exposes the backing dataset for callers that need direct
// graph manipulation (e.g. PATCH re-collecting a single graph).
func (r *Resource) Dataset() *rdf.Dataset {
	return r.dataset
}

// sentinel is a Resource whose presence is meaningful but which carries
// no dataset — used for MISSING and DELETED.
type sentinelKind int

const (
	sentinelNone sentinelKind = iota
	sentinelMissing
	sentinelDeleted
)

var (
	// MISSING is returned by get(id) when no resource with that
	// identifier has ever existed.
	MISSING = &Resource{kind: sentinelMissing}
	// DELETED is returned by get(id) once a tombstone has been
	// written.
	DELETED = &Resource{kind: sentinelDeleted, IsDeleted: true}
)

// IsMissing reports whether r is the MISSING sentinel.
func (r *Resource) IsMissing() bool {
	return r != nil && r.kind == sentinelMissing
}

// IsSentinelDeleted reports whether r is the DELETED sentinel (as
// opposed to a real resource whose IsDeleted flag happens to be set).
func (r *Resource) IsSentinelDeleted() bool {
	return r != nil && r.kind == sentinelDeleted
}
