// Package constraint is the default ConstraintService. This
// implementation enforces nothing
// beyond what domain/resource already guarantees structurally — it
// exists so the handler pipeline always has a concrete
// ports.ConstraintService to call, keeping the pattern of
// injecting every collaborator through a constructor even when a
// richer rule set is a deployment-time concern.
package constraint

import (
	"context"

	"github.com/trellis-ldp/trellis-core/application/ports"
	"github.com/trellis-ldp/trellis-core/domain/rdf"
	"github.com/trellis-ldp/trellis-core/domain/resource"
)

// NoneService accepts every graph. Real deployments wire in a richer
// ports.ConstraintService (e.g. SHACL shapes, a domain-specific rule
// set); this is the "always valid" identity element.
type NoneService struct{}

// New returns a ConstraintService that never reports a violation.
func New() *NoneService { return &NoneService{} }

func (s *NoneService) Validate(ctx context.Context, id rdf.IRI, model resource.InteractionModel, triples []rdf.Triple) []ports.ConstraintViolation {
	return nil
}
