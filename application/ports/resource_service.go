// Package ports defines the collaborator contracts the handler
// pipeline (application/pipeline) depends on. Every external
// collaborator — persistence, binary storage, RDF I/O, constraint
// rules, Memento lookups, event delivery — is expressed here as an
// interface; infrastructure/* supplies concrete implementations.
package ports

import (
	"context"
	"io"
	"time"

	"github.com/trellis-ldp/trellis-core/domain/activity"
	"github.com/trellis-ldp/trellis-core/domain/rdf"
	"github.com/trellis-ldp/trellis-core/domain/resource"
)

// ResourceService is the contract the handler pipeline consumes.
// Every method that mutates state returns once its write is durable;
// implementations are free to run concurrently with other identifiers
// but must serialize writes to the same identifier.
type ResourceService interface {
	// Get returns the current resource, resource.MISSING if the
	// identifier has never existed, or resource.DELETED if it has a
	// tombstone.
	Get(ctx context.Context, id rdf.IRI) (*resource.Resource, error)

	// GetVersion returns the Memento materialized at or before the
	// given instant. Implementations may delegate to a MementoService.
	GetVersion(ctx context.Context, id rdf.IRI, at time.Time) (*resource.Resource, error)

	// Create persists a brand-new resource. Requires Get(id) to have
	// returned resource.MISSING.
	Create(ctx context.Context, metadata resource.Metadata, mutable *rdf.Dataset) error

	// Replace overwrites an existing resource's user-facing graphs.
	// Requires Get(id) to not have returned resource.MISSING, and the
	// interaction-model change (if any) to satisfy
	// resource.IsSubtypeChangeAllowed.
	Replace(ctx context.Context, metadata resource.Metadata, mutable *rdf.Dataset) error

	// Delete writes a tombstone. Idempotent: deleting an
	// already-deleted resource succeeds without error.
	Delete(ctx context.Context, metadata resource.Metadata) error

	// Add appends immutable quads (typically audit quads) to the
	// resource's `?ext=audit` graph.
	Add(ctx context.Context, id rdf.IRI, immutable *rdf.Dataset) error

	// Touch bumps only the modified time, used for the parent/
	// membership-resource cascade.
	Touch(ctx context.Context, id rdf.IRI) error

	// GenerateIdentifier returns a fresh opaque child identifier for
	// POST requests without a usable Slug.
	GenerateIdentifier() string

	// SupportedInteractionModels lists the LDP types this service can
	// persist.
	SupportedInteractionModels() []resource.InteractionModel

	// GetContainer returns the parent container IRI, if any, derived
	// from dc:isPartOf in PreferServerManaged.
	GetContainer(ctx context.Context, id rdf.IRI) (rdf.IRI, bool, error)

	// ToExternal rewrites an internal identifier to its externally
	// visible URL under baseURL.
	ToExternal(internal rdf.IRI, baseURL string) rdf.IRI
	// ToInternal is the inverse of ToExternal.
	ToInternal(external rdf.IRI, baseURL string) rdf.IRI

	// Skolemize maps a blank node to a stable, internal skolem IRI.
	// Unskolemize is its inverse bijection.
	Skolemize(term rdf.Term) rdf.Term
	Unskolemize(term rdf.Term) rdf.Term
}

// BinaryService stores and serves the opaque bytes behind a
// NonRDFSource.
type BinaryService interface {
	SupportedAlgorithms() []string
	GetContent(ctx context.Context, id rdf.IRI, from, to int64) (io.ReadCloser, error)
	SetContent(ctx context.Context, metadata resource.BinaryMetadata, body io.Reader) error
}

// RDFSyntax names a concrete RDF serialization the IOService can read
// or write.
type RDFSyntax string

const (
	SyntaxTurtle   RDFSyntax = "text/turtle"
	SyntaxNTriples RDFSyntax = "application/n-triples"
	SyntaxJSONLD   RDFSyntax = "application/ld+json"
	SyntaxRDFXML   RDFSyntax = "application/rdf+xml"
	// SyntaxNone is a sentinel meaning "serve the raw binary instead
	// of an RDF representation".
	SyntaxNone RDFSyntax = ""
)

// IOService parses and serializes RDF. Wire syntax is entirely its
// concern, so this contract is intentionally narrow.
type IOService interface {
	SupportedReadSyntaxes() []RDFSyntax
	SupportedWriteSyntaxes() []RDFSyntax
	Parse(ctx context.Context, body io.Reader, syntax RDFSyntax, baseURI rdf.IRI) (*rdf.Dataset, error)
	Write(ctx context.Context, w io.Writer, triples []rdf.Triple, syntax RDFSyntax, profile string) error
	// RunUpdate applies a SPARQL-Update string to a single graph's
	// triples and returns the result.
	RunUpdate(ctx context.Context, current []rdf.Triple, update string) ([]rdf.Triple, error)
}

// ConstraintViolation names the rule an RDF graph failed to satisfy.
type ConstraintViolation struct {
	Rule    rdf.IRI
	Message string
}

// ConstraintService vets a graph for semantic validity before a write
// is allowed to proceed.
type ConstraintService interface {
	Validate(ctx context.Context, id rdf.IRI, model resource.InteractionModel, triples []rdf.Triple) []ConstraintViolation
}

// MementoService returns the sorted set of instants at which an
// identifier has a Memento.
type MementoService interface {
	Mementos(ctx context.Context, id rdf.IRI) ([]time.Time, error)
}

// EventSink is where constructed activities are delivered; delivery
// failures are logged and swallowed by the caller, never surfaced to
// the HTTP response.
type EventSink interface {
	Emit(ctx context.Context, activities...activity.Activity) error
}

// AuditService builds the immutable quads the handler pipeline appends
// to `<id>?ext=audit` on every mutation. Audit-quad *content* is an
// external collaborator concern, so this contract is
// deliberately minimal: a default implementation records only what the
// pipeline itself already knows (who, what, when).
type AuditService interface {
	BuildQuads(ctx context.Context, id rdf.IRI, agent rdf.IRI, activityType activity.Type, at time.Time) *rdf.Dataset
}
