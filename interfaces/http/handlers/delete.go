package handlers

import (
	"context"
	"net/http"
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

// Delete implements the DELETE handler: a plain DELETE writes a
// tombstone, idempotently; an ext=acl DELETE instead replaces the
// resource clearing only its access-control graph.
func (h *Handlers) Delete(ctx context.Context, req *httpreq.Request) (*pipeline.Result, error) {
	external := h.externalIRI(req.Path)
	internal := h.Resource.ToInternal(external, h.BaseURL)

	if err := req.RequirePreconditionsIfStrict(h.Config.StrictPreconditions); err != nil {
		return nil, err
	}

	res, err := h.Resource.Get(ctx, internal)
	if err != nil {
		return nil, err
	}
	if res.IsMissing() {
		return nil, apperrors.NewNotFound("resource not found")
	}
	alreadyDeleted := res.IsSentinelDeleted()

	if !alreadyDeleted {
		etag := httpreq.ComputeETag(external, res.Modified, req.Prefer, res.Binary != nil, h.Config.WeakETagsAlways)
		if err := req.EvaluatePreconditions(etag, res.Modified); err != nil {
			return nil, err
		}
	}

	agent := agentIRI(req.Principal)
	now := time.Now().UTC()

	if req.Ext == "acl" {
		if alreadyDeleted {
			return nil, apperrors.NewGone("resource deleted")
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
			HasAcl:                  false,
		}
		mutable := rdf.NewDataset()
		for _, t := range res.StreamGraphs(rdf.PreferUserManaged) {
			mutable.AddTriple(t, rdf.PreferUserManaged)
		}
		if err := h.Resource.Replace(ctx, meta, mutable); err != nil {
			return nil, err
		}
		if immutable := h.Audit.BuildQuads(ctx, internal, agent, activity.Update, now); immutable != nil {
			if err := h.Resource.Add(ctx, internal, immutable); err != nil {
				h.Logger.Warn("audit append failed", zap.Error(err))
			}
		}
		return &pipeline.Result{Status: http.StatusNoContent}, nil
	}

	meta := resource.Metadata{Identifier: internal, InteractionModel: res.InteractionModel}
	if err := h.Resource.Delete(ctx, meta); err != nil {
		return nil, err
	}

	if !alreadyDeleted {
		if immutable := h.Audit.BuildQuads(ctx, internal, agent, activity.Delete, now); immutable != nil {
			if err := h.Resource.Add(ctx, internal, immutable); err != nil {
				h.Logger.Warn("audit append failed", zap.Error(err))
			}
		}

		var parentModel resource.InteractionModel
		var membershipRes rdf.IRI
		if res.Container != "" {
			if parentRes, perr := h.Resource.Get(ctx, res.Container); perr == nil && !parentRes.IsMissing() {
				parentModel = parentRes.InteractionModel
				membershipRes = parentRes.MembershipResource
			}
		}
		h.Events.Emit(ctx, h.toExternalFunc(), eventing.Mutation{
			ActivityType:           activity.Delete,
			Target:                 internal,
			ResourceType:           res.InteractionModel,
			Agent:                  agent,
			Occurred:               now,
			Parent:                 res.Container,
			ParentInteractionModel: parentModel,
			MembershipResource:     membershipRes,
		})
	}

	return &pipeline.Result{Status: http.StatusNoContent}, nil
}
