// Package handlers implements the per-method handler pipeline:
// GET/HEAD, OPTIONS, POST, PUT, PATCH, and DELETE compose
// initialize → check-cache → read-entity → constraint-check →
// persist → audit → memento → event. One struct carries every
// constructor-injected collaborator, with a method per HTTP verb and
// a single straight-line operation per request.
package handlers

import (
	"go.uber.org/zap"

	"github.com/trellis-ldp/trellis-core/application/eventing"
	"github.com/trellis-ldp/trellis-core/application/ports"
	"github.com/trellis-ldp/trellis-core/infrastructure/config"
)

// Deps collects every collaborator a handler needs. Handlers never
// construct their own collaborators; main wires concrete
// implementations in exactly one place.
type Deps struct {
	Resource   ports.ResourceService
	Binary     ports.BinaryService
	IO         ports.IOService
	Constraint ports.ConstraintService
	Audit      ports.AuditService
	Events     *eventing.Emitter

	Config  *config.Config
	Logger  *zap.Logger
	BaseURL string
}

// Handlers implements every per-method operation.
type Handlers struct {
	Deps
}

// New builds a Handlers over d.
func New(d Deps) *Handlers {
	return &Handlers{Deps: d}
}
