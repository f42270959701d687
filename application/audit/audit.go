// Package audit is the default AuditService (ports.AuditService):
// audit-quad content is ultimately a deployment concern, but the
// handler pipeline's data flow always has a "compute immutable audit
// quads" step before persistence, so this package supplies the minimal
// PROV-style record the pipeline can build from what it already
// knows: who made the change, what kind of change it was, and when.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/trellis-ldp/trellis-core/domain/activity"
	"github.com/trellis-ldp/trellis-core/domain/rdf"
)

const (
	provNS = "http://www.w3.org/ns/prov#"

	predActivityType = rdf.IRI(provNS + "type")
	predAgent        = rdf.IRI(provNS + "wasAssociatedWith")
	predGeneratedAt  = rdf.IRI(provNS + "generatedAtTime")
)

// Service is the default AuditService: one blank-node-free event
// record per mutation, keyed by a fragment of the resource's own
// identifier so repeated mutations never collide.
type Service struct{}

func New() *Service { return &Service{} }

// BuildQuads returns a dataset with one audit event resource in
// PreferAudit, linking id's mutation to agent, activityType, and at.
func (s *Service) BuildQuads(ctx context.Context, id rdf.IRI, agent rdf.IRI, activityType activity.Type, at time.Time) *rdf.Dataset {
	ds := rdf.NewDataset()
	event := rdf.IRI(fmt.Sprintf("%s#event-%d", id, at.UnixNano()))

	ds.AddTriple(rdf.NewTriple(event, predActivityType, rdf.NewLiteral(string(activityType))), rdf.PreferAudit)
	if agent != "" {
		ds.AddTriple(rdf.NewTriple(event, predAgent, agent), rdf.PreferAudit)
	}
	ds.AddTriple(rdf.NewTriple(event, predGeneratedAt, rdf.NewLiteral(at.UTC().Format(time.RFC3339Nano))), rdf.PreferAudit)

	return ds
}
