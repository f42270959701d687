package triplestore

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trellis-ldp/trellis-core/domain/rdf"
	"github.com/trellis-ldp/trellis-core/domain/resource"
	apperrors "github.com/trellis-ldp/trellis-core/pkg/errors"
)

// internalBase prefixes every identifier this service mints;
// ToExternal/ToInternal resolve between this storage identifier space
// and public URLs.
const internalBase = "trellis:data/"

// Service is the triplestore-backed ResourceService. Every mutating
// method runs one Connection.Mutate call — one atomic update per
// operation — with the update expressed as a closure over the working
// dataset rather than literal SPARQL text.
type Service struct {
	conn Connection

	// versioningEnabled gates snapshotVersion; disabling it turns
	// create/replace into plain overwrites with no Memento history.
	versioningEnabled bool

	skolemMu      sync.Mutex
	skolemToBlank map[rdf.IRI]string
	blankToSkolem map[string]rdf.IRI
}

// NewService builds a ResourceService over conn with versioning
// enabled.
func NewService(conn Connection) *Service {
	return NewServiceWithOptions(conn, true)
}

// NewServiceWithOptions builds a ResourceService over conn, honoring
// the versioning-enabled configuration toggle.
func NewServiceWithOptions(conn Connection, versioningEnabled bool) *Service {
	return &Service{
		conn:              conn,
		versioningEnabled: versioningEnabled,
		skolemToBlank:     make(map[rdf.IRI]string),
		blankToSkolem:     make(map[string]rdf.IRI),
	}
}

func (s *Service) Get(ctx context.Context, id rdf.IRI) (*resource.Resource, error) {
	ds, err := s.conn.Snapshot(ctx)
	if err != nil {
		return nil, apperrors.NewInternal("reading dataset", err)
	}
	r := materialize(ds, id)
	if r.IsMissing() {
		return r, nil
	}
	if r.IsDeleted {
		return resource.DELETED, nil
	}
	return r, nil
}

// GetVersion materializes the dataset frozen at the latest memento
// instant at or before at. Versioned
// snapshots are kept as extra named graphs alongside the live
// resource, written by snapshotVersion on every create/replace.
func (s *Service) GetVersion(ctx context.Context, id rdf.IRI, at time.Time) (*resource.Resource, error) {
	ds, err := s.conn.Snapshot(ctx)
	if err != nil {
		return nil, apperrors.NewInternal("reading dataset", err)
	}

	instants, err := s.Mementos(ctx, id)
	if err != nil {
		return nil, err
	}
	var chosen *time.Time
	for i := range instants {
		if !instants[i].After(at) {
			chosen = &instants[i]
		}
	}
	if chosen == nil {
		return resource.MISSING, nil
	}

	versioned := versionedDataset(ds, id, *chosen)
	return materialize(versioned, id), nil
}

// Mementos implements ports.MementoService, returning every instant a
// version snapshot was recorded for id, ascending.
func (s *Service) Mementos(ctx context.Context, id rdf.IRI) ([]time.Time, error) {
	ds, err := s.conn.Snapshot(ctx)
	if err != nil {
		return nil, apperrors.NewInternal("reading dataset", err)
	}
	prefix := string(id) + "?version="
	var instants []time.Time
	for _, name := range ds.GraphNames() {
		if strings.HasPrefix(string(name), prefix) {
			sec, err := strconv.ParseInt(strings.TrimPrefix(string(name), prefix), 10, 64)
			if err != nil {
				continue
			}
			instants = append(instants, time.Unix(sec, 0).UTC())
		}
	}
	sort.Slice(instants, func(i, j int) bool { return instants[i].Before(instants[j]) })
	return instants, nil
}

func (s *Service) Create(ctx context.Context, metadata resource.Metadata, mutable *rdf.Dataset) error {
	return s.conn.Mutate(ctx, func(ds *rdf.Dataset) error {
		current := materialize(ds, metadata.Identifier)
		if !current.IsMissing() && !current.IsDeleted {
			return apperrors.NewConflict("resource already exists", "")
		}
		now := time.Now().UTC()
		writeResource(ds, metadata, mutable, now)
		if s.versioningEnabled {
			snapshotVersion(ds, metadata.Identifier, now)
		}
		return nil
	})
}

func (s *Service) Replace(ctx context.Context, metadata resource.Metadata, mutable *rdf.Dataset) error {
	return s.conn.Mutate(ctx, func(ds *rdf.Dataset) error {
		current := materialize(ds, metadata.Identifier)
		if current.IsMissing() {
			return apperrors.NewNotFound("resource does not exist")
		}
		if !resource.IsSubtypeChangeAllowed(current.InteractionModel, metadata.InteractionModel) {
			return apperrors.NewConflict("interaction model change not allowed",
				"http://www.w3.org/ns/ldp#constrainedBy")
		}
		now := time.Now().UTC()
		writeResource(ds, metadata, mutable, now)
		if s.versioningEnabled {
			snapshotVersion(ds, metadata.Identifier, now)
		}
		return nil
	})
}

func (s *Service) Delete(ctx context.Context, metadata resource.Metadata) error {
	return s.conn.Mutate(ctx, func(ds *rdf.Dataset) error {
		id := metadata.Identifier
		clearResourceGraphs(ds, id)
		ds.AddTriple(rdf.NewTriple(id, resource.TypeRDF, resource.DeletedResource), rdf.PreferServerManaged)
		ds.AddTriple(rdf.NewTriple(id, resource.TypeRDF, rdf.IRI(resource.Resource)), rdf.PreferServerManaged)
		ds.AddTriple(rdf.NewTriple(id, resource.DCModified, nowLiteral(time.Now().UTC())), rdf.PreferServerManaged)
		return nil
	})
}

func (s *Service) Add(ctx context.Context, id rdf.IRI, immutable *rdf.Dataset) error {
	return s.conn.Mutate(ctx, func(ds *rdf.Dataset) error {
		audit := rdf.PreferAudit.ScopedTo(id)
		for _, t := range immutable.Graph(rdf.PreferAudit) {
			ds.AddTriple(t, audit)
		}
		return nil
	})
}

func (s *Service) Touch(ctx context.Context, id rdf.IRI) error {
	return s.conn.Mutate(ctx, func(ds *rdf.Dataset) error {
		now := time.Now().UTC()
		removeCoreTriplesByPredicate(ds, id, resource.DCModified)
		ds.AddTriple(rdf.NewTriple(id, resource.DCModified, nowLiteral(now)), rdf.PreferServerManaged)
		return nil
	})
}

// aclAgentClass grants the bootstrap administrative ACL to every
// agent; WebAC authorization enforcement itself is an external
// collaborator, so this quad only needs to exist for a
// real ACL service to read.
const aclAgentClass = rdf.IRI("http://xmlns.com/foaf/0.1/Agent")

var (
	aclMode        = rdf.IRI("http://www.w3.org/ns/auth/acl#mode")
	aclAccessTo    = rdf.IRI("http://www.w3.org/ns/auth/acl#accessTo")
	aclAgentClassP = rdf.IRI("http://www.w3.org/ns/auth/acl#agentClass")
	aclRead        = rdf.IRI("http://www.w3.org/ns/auth/acl#Read")
	aclWrite       = rdf.IRI("http://www.w3.org/ns/auth/acl#Write")
	aclControl     = rdf.IRI("http://www.w3.org/ns/auth/acl#Control")
)

// Initialize is the cold-start bootstrap: if root is not yet the
// subject of any PreferServerManaged triple, insert it as a
// BasicContainer with an administrative ACL extension graph. Safe to
// call on every startup; a no-op once the root already exists.
func (s *Service) Initialize(ctx context.Context, root rdf.IRI) error {
	return s.conn.Mutate(ctx, func(ds *rdf.Dataset) error {
		if len(coreTriples(ds, root)) > 0 {
			return nil
		}
		now := time.Now().UTC()
		ds.AddTriple(rdf.NewTriple(root, resource.TypeRDF, rdf.IRI(resource.BasicContainer)), rdf.PreferServerManaged)
		ds.AddTriple(rdf.NewTriple(root, resource.DCModified, nowLiteral(now)), rdf.PreferServerManaged)

		aclGraph := rdf.PreferAccessControl.ScopedTo(root)
		authBlock := rdf.BlankNode{ID: "admin-auth"}
		ds.AddTriple(rdf.NewTriple(authBlock, aclAccessTo, root), aclGraph)
		ds.AddTriple(rdf.NewTriple(authBlock, aclAgentClassP, aclAgentClass), aclGraph)
		ds.AddTriple(rdf.NewTriple(authBlock, aclMode, aclRead), aclGraph)
		ds.AddTriple(rdf.NewTriple(authBlock, aclMode, aclWrite), aclGraph)
		ds.AddTriple(rdf.NewTriple(authBlock, aclMode, aclControl), aclGraph)
		return nil
	})
}

func (s *Service) GenerateIdentifier() string {
	return uuid.New().String()
}

func (s *Service) SupportedInteractionModels() []resource.InteractionModel {
	return []resource.InteractionModel{
		resource.RDFSource, resource.NonRDFSource,
		resource.BasicContainer, resource.DirectContainer, resource.IndirectCont,
	}
}

func (s *Service) GetContainer(ctx context.Context, id rdf.IRI) (rdf.IRI, bool, error) {
	ds, err := s.conn.Snapshot(ctx)
	if err != nil {
		return "", false, apperrors.NewInternal("reading dataset", err)
	}
	container := lookupIRI(ds, id, resource.DCIsPartOf)
	return container, container != "", nil
}

// ToExternal/ToInternal rewrite between the `trellis:data/*` internal
// identifier space and baseURL.
func (s *Service) ToExternal(internal rdf.IRI, baseURL string) rdf.IRI {
	if strings.HasPrefix(string(internal), internalBase) {
		return rdf.IRI(strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(string(internal), internalBase))
	}
	return internal
}

func (s *Service) ToInternal(external rdf.IRI, baseURL string) rdf.IRI {
	base := strings.TrimSuffix(baseURL, "/") + "/"
	if strings.HasPrefix(string(external), base) {
		return rdf.IRI(internalBase + strings.TrimPrefix(string(external), base))
	}
	return external
}

// Skolemize/Unskolemize implement the blank-node ↔ skolem-IRI
// bijection: the same blank node always maps
// to the same skolem IRI within this Service's lifetime, and the
// mapping is invertible.
func (s *Service) Skolemize(term rdf.Term) rdf.Term {
	blank, ok := term.(rdf.BlankNode)
	if !ok {
		return term
	}
	s.skolemMu.Lock()
	defer s.skolemMu.Unlock()
	if iri, ok := s.blankToSkolem[blank.ID]; ok {
		return iri
	}
	iri := rdf.IRI(fmt.Sprintf("trellis:bnode/%s", uuid.New().String()))
	s.blankToSkolem[blank.ID] = iri
	s.skolemToBlank[iri] = blank.ID
	return iri
}

func (s *Service) Unskolemize(term rdf.Term) rdf.Term {
	iri, ok := term.(rdf.IRI)
	if !ok {
		return term
	}
	s.skolemMu.Lock()
	defer s.skolemMu.Unlock()
	if id, ok := s.skolemToBlank[iri]; ok {
		return rdf.BlankNode{ID: id}
	}
	return term
}

func nowLiteral(t time.Time) rdf.Literal {
	return rdf.NewTypedLiteral(t.Format(time.RFC3339Nano), rdf.IRI("http://www.w3.org/2001/XMLSchema#dateTime"))
}
