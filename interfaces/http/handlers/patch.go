package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/trellis-ldp/trellis-core/application/eventing"
	"github.com/trellis-ldp/trellis-core/application/pipeline"
	"github.com/trellis-ldp/trellis-core/domain/activity"
	"github.com/trellis-ldp/trellis-core/domain/rdf"
	"github.com/trellis-ldp/trellis-core/domain/resource"
	"github.com/trellis-ldp/trellis-core/interfaces/http/httpreq"
	apperrors "github.com/trellis-ldp/trellis-core/pkg/errors"
)

const sparqlUpdateMediaType = "application/sparql-update"

// Patch implements the PATCH handler: apply a
// SPARQL-Update body to the user graph, or to the access-control graph
// under ext=acl.
func (h *Handlers) Patch(ctx context.Context, req *httpreq.Request, body []byte) (*pipeline.Result, error) {
	external := h.externalIRI(req.Path)
	internal := h.Resource.ToInternal(external, h.BaseURL)

	if err := req.RequirePreconditionsIfStrict(h.Config.StrictPreconditions); err != nil {
		return nil, err
	}

	if base := strings.TrimSpace(strings.SplitN(req.ContentType, ";", 2)[0]); base != sparqlUpdateMediaType {
		return nil, apperrors.NewUnsupportedMediaType("PATCH body must be " + sparqlUpdateMediaType)
	}
	if len(body) == 0 {
		return nil, apperrors.NewValidation("PATCH requires a non-empty SPARQL-Update body")
	}

	res, err := h.fetchResource(ctx, req, internal)
	if err != nil {
		return nil, err
	}
	if res.InteractionModel != resource.RDFSource && !resource.IsContainerType(res.InteractionModel) {
		return nil, apperrors.NewValidation("PATCH target must be an RDFSource")
	}

	etag := httpreq.ComputeETag(external, res.Modified, req.Prefer, false, h.Config.WeakETagsAlways)
	if err := req.EvaluatePreconditions(etag, res.Modified); err != nil {
		return nil, err
	}

	targetGraph := rdf.PreferUserManaged
	if req.Ext == "acl" {
		targetGraph = rdf.PreferAccessControl
	}
	// The update is applied against the representation the client
	// sees (external URLs, blank nodes), then rewritten back to the
	// stored form below.
	current := h.rewriteTriples(res.StreamGraphs(targetGraph))

	updated, err := h.IO.RunUpdate(ctx, current, string(body))
	if err != nil {
		return nil, apperrors.NewValidation("invalid SPARQL-Update: " + err.Error())
	}
	if targetGraph == rdf.PreferUserManaged {
		updated = resource.StripServerOwned(updated)
	}
	updated = h.skolemizeTriples(updated)
	updated = h.toInternalTriples(updated)

	if targetGraph == rdf.PreferUserManaged {
		if violations := h.Constraint.Validate(ctx, internal, res.InteractionModel, updated); len(violations) > 0 {
			return nil, constraintError(violations)
		}
	}

	mutable := rdf.NewDataset()
	for _, t := range updated {
		mutable.AddTriple(t, targetGraph)
	}
	// Carry the other per-resource graph forward unchanged.
	other := rdf.PreferAccessControl
	if targetGraph == rdf.PreferAccessControl {
		other = rdf.PreferUserManaged
	}
	for _, t := range res.StreamGraphs(other) {
		mutable.AddTriple(t, other)
	}

	meta := resource.Metadata{
		Identifier:              internal,
		InteractionModel:        res.InteractionModel,
		Container:               res.Container,
		MembershipResource:      res.MembershipResource,
		HasMemberRelation:       res.HasMemberRelation,
		IsMemberOfRelation:      res.IsMemberOfRelation,
		InsertedContentRelation: res.InsertedContentRelation,
		Binary:                  res.Binary,
		HasAcl:                  res.HasAcl || targetGraph == rdf.PreferAccessControl,
	}
	if resource.IsContainerType(res.InteractionModel) && targetGraph == rdf.PreferUserManaged {
		cmeta := containerMembershipFields(updated, internal)
		meta.MembershipResource = cmeta.MembershipResource
		meta.HasMemberRelation = cmeta.HasMemberRelation
		meta.IsMemberOfRelation = cmeta.IsMemberOfRelation
		meta.InsertedContentRelation = cmeta.InsertedContentRelation
	}

	agent := agentIRI(req.Principal)
	now := time.Now().UTC()

	if err := h.Resource.Replace(ctx, meta, mutable); err != nil {
		return nil, err
	}
	if immutable := h.Audit.BuildQuads(ctx, internal, agent, activity.Update, now); immutable != nil {
		if err := h.Resource.Add(ctx, internal, immutable); err != nil {
			h.Logger.Warn("audit append failed", zap.Error(err))
		}
	}

	if req.Ext != "acl" {
		var parentModel resource.InteractionModel
		var membershipRes rdf.IRI
		if res.Container != "" {
			if parentRes, perr := h.Resource.Get(ctx, res.Container); perr == nil && !parentRes.IsMissing() {
				parentModel = parentRes.InteractionModel
				membershipRes = parentRes.MembershipResource
			}
		}
		h.Events.Emit(ctx, h.toExternalFunc(), eventing.Mutation{
			ActivityType:           activity.Update,
			Target:                 internal,
			ResourceType:           res.InteractionModel,
			Agent:                  agent,
			Occurred:               now,
			Parent:                 res.Container,
			ParentInteractionModel: parentModel,
			MembershipResource:     membershipRes,
		})
	}

	header := http.Header{}
	if req.Prefer.ReturnExplicit && req.Prefer.Return == httpreq.ReturnRepresentation {
		syntax, profile, ok := httpreq.NegotiateSyntax(req.Accept, h.IO.SupportedWriteSyntaxes())
		if !ok {
			return nil, apperrors.NewNotAcceptable("no acceptable media type")
		}
		responseBody, err := h.writeTriples(ctx, h.rewriteTriples(updated), syntax, profile)
		if err != nil {
			return nil, err
		}
		header.Set("Content-Type", string(syntax))
		return &pipeline.Result{Status: http.StatusOK, Header: header, Body: responseBody}, nil
	}

	header.Set("Preference-Applied", "return=minimal")
	return &pipeline.Result{Status: http.StatusNoContent, Header: header}, nil
}
