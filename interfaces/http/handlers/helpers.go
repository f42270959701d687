package handlers

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/trellis-ldp/trellis-core/application/memento"
	"github.com/trellis-ldp/trellis-core/application/ports"
	"github.com/trellis-ldp/trellis-core/domain/rdf"
	"github.com/trellis-ldp/trellis-core/domain/resource"
	apperrors "github.com/trellis-ldp/trellis-core/pkg/errors"
)

// constraintError joins a failed Validate call's violations into a
// single Conflict, with ConstrainedBy carrying every violated rule as
// a comma-separated list so the HTTP layer can emit one
// `Link rel="...#constrainedBy"` header per rule.
func constraintError(violations []ports.ConstraintViolation) *apperrors.AppError {
	rules := make([]string, len(violations))
	messages := make([]string, len(violations))
	for i, v := range violations {
		rules[i] = string(v.Rule)
		messages[i] = v.Message
	}
	return apperrors.NewConflict(strings.Join(messages, "; "), strings.Join(rules, ","))
}

// externalIRI builds the public URL for a request path under BaseURL.
func (h *Handlers) externalIRI(path string) rdf.IRI {
	return rdf.IRI(strings.TrimSuffix(h.BaseURL, "/") + path)
}

// agentIRI resolves the authenticated principal to the agent IRI
// audit/event records carry, defaulting to an anonymous agent when
// the request carries none.
func agentIRI(principal string) rdf.IRI {
	if principal == "" {
		return rdf.IRI("http://xmlns.com/foaf/0.1/Agent")
	}
	return rdf.IRI(principal)
}

// rewriteTerm maps an internal term to the form a client should see:
// internal identifiers become external URLs, and skolem IRIs become
// blank nodes again.
func (h *Handlers) rewriteTerm(term rdf.Term) rdf.Term {
	iri, ok := term.(rdf.IRI)
	if !ok {
		return term
	}
	if bn := h.Resource.Unskolemize(iri); bn != rdf.Term(iri) {
		return bn
	}
	return h.Resource.ToExternal(iri, h.BaseURL)
}

func (h *Handlers) rewriteTriple(t rdf.Triple) rdf.Triple {
	return rdf.Triple{
		Subject:   h.rewriteTerm(t.Subject),
		Predicate: t.Predicate,
		Object:    h.rewriteTerm(t.Object),
	}
}

func (h *Handlers) rewriteTriples(triples []rdf.Triple) []rdf.Triple {
	out := make([]rdf.Triple, len(triples))
	for i, t := range triples {
		out[i] = h.rewriteTriple(t)
	}
	return out
}

// toInternalTriples is rewriteTriples' inverse for ingestion: every
// IRI under BaseURL becomes its trellis:data/* internal identifier
// before the triples reach persistence. The
// store only ever holds internal identifiers, which is what lets the
// read-side membership derivation match a child's user-graph subjects
// against its stored identifier.
func (h *Handlers) toInternalTriples(triples []rdf.Triple) []rdf.Triple {
	out := make([]rdf.Triple, len(triples))
	for i, t := range triples {
		out[i] = rdf.Triple{
			Subject:   h.toInternalTerm(t.Subject),
			Predicate: t.Predicate,
			Object:    h.toInternalTerm(t.Object),
		}
	}
	return out
}

func (h *Handlers) toInternalTerm(term rdf.Term) rdf.Term {
	if iri, ok := term.(rdf.IRI); ok {
		return h.Resource.ToInternal(iri, h.BaseURL)
	}
	return term
}

// skolemizeTriples replaces every blank node in triples with its
// skolem IRI before the triples are handed to persistence, so the
// store never sees a blank node.
func (h *Handlers) skolemizeTriples(triples []rdf.Triple) []rdf.Triple {
	out := make([]rdf.Triple, len(triples))
	for i, t := range triples {
		out[i] = rdf.Triple{
			Subject:   h.skolemizeTerm(t.Subject),
			Predicate: t.Predicate,
			Object:    h.skolemizeTerm(t.Object),
		}
	}
	return out
}

func (h *Handlers) skolemizeTerm(term rdf.Term) rdf.Term {
	if _, ok := term.(rdf.BlankNode); ok {
		return h.Resource.Skolemize(term)
	}
	return term
}

// typeLinkHeaders enumerates m's supertype chain as `Link rel="type"`
// values.
func typeLinkHeaders(m resource.InteractionModel) []string {
	chain := resource.SupertypeChain(m)
	out := make([]string, len(chain))
	for i, t := range chain {
		out[i] = fmt.Sprintf(`<%s>; rel="type"`, string(t))
	}
	return out
}

// allowedMethods computes the Allow header value for a resolved
// resource: a memento is read-only; PATCH is
// only ever valid against an RDFSource, so a
// NonRDFSource never lists it — only its `?ext=description` RDF
// companion, a distinct identifier this function doesn't model, would.
func allowedMethods(model resource.InteractionModel, isMemento bool) []string {
	if isMemento {
		return []string{"GET", "HEAD", "OPTIONS"}
	}
	methods := []string{"GET", "HEAD", "OPTIONS", "PUT", "DELETE"}
	if resource.IsContainerType(model) {
		methods = append(methods, "POST", "PATCH")
	} else if model == resource.RDFSource {
		methods = append(methods, "PATCH")
	}
	return methods
}

// mementos fetches id's sorted Memento instants through whatever
// MementoService the ResourceService happens to also implement; the
// triplestore service implements this directly.
func (h *Handlers) mementos(ctx context.Context, id rdf.IRI) ([]time.Time, error) {
	svc, ok := h.Resource.(ports.MementoService)
	if !ok {
		return nil, nil
	}
	return svc.Mementos(ctx, id)
}

func (h *Handlers) linkSet(external rdf.IRI, instants []time.Time) memento.LinkSet {
	return memento.LinkSet{
		Resource:  external,
		Instants:  instants,
		OmitDates: !h.Config.IncludeMementoDates,
	}
}

// writeTriples serializes triples in syntax/profile into a response
// body; callers set Content-Type themselves. Used by every RDF-producing handler
// path (GET, PATCH return=representation, TimeMap RDF body).
func (h *Handlers) writeTriples(ctx context.Context, triples []rdf.Triple, syntax ports.RDFSyntax, profile string) ([]byte, error) {
	var buf bytes.Buffer
	if err := h.IO.Write(ctx, &buf, triples, syntax, profile); err != nil {
		return nil, apperrors.NewInternal("serializing response body", err)
	}
	return buf.Bytes(), nil
}
