package handlers

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/trellis-ldp/trellis-core/application/eventing"
	"github.com/trellis-ldp/trellis-core/application/pipeline"
	"github.com/trellis-ldp/trellis-core/application/ports"
	"github.com/trellis-ldp/trellis-core/domain/activity"
	"github.com/trellis-ldp/trellis-core/domain/rdf"
	"github.com/trellis-ldp/trellis-core/domain/resource"
	"github.com/trellis-ldp/trellis-core/interfaces/http/httpreq"
	apperrors "github.com/trellis-ldp/trellis-core/pkg/errors"
)

// Put implements the PUT handler: create the addressed
// resource if it does not exist, or replace it otherwise.
func (h *Handlers) Put(ctx context.Context, req *httpreq.Request, body []byte) (*pipeline.Result, error) {
	external := h.externalIRI(req.Path)
	internal := h.Resource.ToInternal(external, h.BaseURL)

	if err := req.RequirePreconditionsIfStrict(h.Config.StrictPreconditions); err != nil {
		return nil, err
	}

	existing, err := h.Resource.Get(ctx, internal)
	if err != nil {
		return nil, err
	}
	isNew := existing.IsMissing() || existing.IsSentinelDeleted()

	if req.Ext == "acl" && isNew {
		return nil, apperrors.NewNotFound("cannot set an access-control graph on a non-existent resource")
	}
	if req.Ext == "acl" {
		if _, ok := matchRDFSyntax(req.ContentType, h.IO.SupportedReadSyntaxes()); !ok {
			return nil, apperrors.NewNotAcceptable("ext=acl only accepts an RDF body")
		}
	}

	if isNew {
		if len(req.IfMatch) > 0 {
			return nil, apperrors.NewPreconditionFailed("If-Match given for a non-existent resource")
		}
	} else {
		etag := httpreq.ComputeETag(external, existing.Modified, req.Prefer, existing.Binary != nil, h.Config.WeakETagsAlways)
		if err := req.EvaluatePreconditions(etag, existing.Modified); err != nil {
			return nil, err
		}
	}

	model, isDescriptionUpdate := putEffectiveModel(req, existing, isNew, h.IO.SupportedReadSyntaxes())
	if !isNew && !resource.IsSubtypeChangeAllowed(existing.InteractionModel, model) {
		return nil, apperrors.NewConflict("interaction model change is not permitted", "")
	}

	container := existing.Container
	if isNew {
		if parent, ok := parentIdentifier(internal); ok {
			container = parent
		}
	}

	meta := resource.Metadata{
		Identifier:       internal,
		InteractionModel: model,
		Container:        container,
	}

	mutable := rdf.NewDataset()

	switch {
	case req.Ext == "acl":
		// "mutate only PreferAccessControl; carry user graph through
		// untouched".
		triples, err := h.parseACL(ctx, req, body, internal, external)
		if err != nil {
			return nil, err
		}
		for _, t := range triples {
			mutable.AddTriple(t, rdf.PreferAccessControl)
		}
		for _, t := range existing.StreamGraphs(rdf.PreferUserManaged) {
			mutable.AddTriple(t, rdf.PreferUserManaged)
		}
		meta.Binary = existing.Binary
		meta.HasAcl = true
		meta.MembershipResource = existing.MembershipResource
		meta.HasMemberRelation = existing.HasMemberRelation
		meta.IsMemberOfRelation = existing.IsMemberOfRelation
		meta.InsertedContentRelation = existing.InsertedContentRelation

	case model == resource.NonRDFSource && !isDescriptionUpdate:
		// Plain binary replacement: the user graph carries nothing.
		var binID rdf.IRI
		if existing.Binary != nil {
			binID = existing.Binary.Identifier
		} else {
			binID = rdf.IRI(string(internal) + "#binary")
		}
		if err := h.writeBinaryAt(ctx, req, body, binID, &meta); err != nil {
			return nil, err
		}
		for _, t := range carryACL(existing) {
			mutable.AddTriple(t, rdf.PreferAccessControl)
		}
		meta.HasAcl = existing.HasAcl

	default:
		// RDF update, either a plain RDFSource/Container or a
		// NonRDFSource's binary description.
		triples, err := h.parseAndValidate(ctx, req, body, internal, external, model)
		if err != nil {
			return nil, err
		}
		if resource.IsContainerType(model) {
			cmeta := containerMembershipFields(triples, internal)
			meta.MembershipResource = cmeta.MembershipResource
			meta.HasMemberRelation = cmeta.HasMemberRelation
			meta.IsMemberOfRelation = cmeta.IsMemberOfRelation
			meta.InsertedContentRelation = cmeta.InsertedContentRelation
		}
		for _, t := range triples {
			mutable.AddTriple(t, rdf.PreferUserManaged)
		}
		if isDescriptionUpdate {
			meta.Binary = existing.Binary
		}
		for _, t := range carryACL(existing) {
			mutable.AddTriple(t, rdf.PreferAccessControl)
		}
		meta.HasAcl = existing.HasAcl
	}

	agent := agentIRI(req.Principal)
	now := time.Now().UTC()

	if isNew {
		err = h.Resource.Create(ctx, meta, mutable)
	} else {
		err = h.Resource.Replace(ctx, meta, mutable)
	}
	if err != nil {
		return nil, err
	}

	activityType := activity.Update
	if isNew {
		activityType = activity.Create
	}
	if immutable := h.Audit.BuildQuads(ctx, internal, agent, activityType, now); immutable != nil {
		if err := h.Resource.Add(ctx, internal, immutable); err != nil {
			h.Logger.Warn("audit append failed", zap.Error(err))
		}
	}

	if req.Ext != "acl" {
		var parentModel resource.InteractionModel
		var membershipRes rdf.IRI
		if container != "" {
			if parentRes, perr := h.Resource.Get(ctx, container); perr == nil && !parentRes.IsMissing() {
				parentModel = parentRes.InteractionModel
				membershipRes = parentRes.MembershipResource
			}
		}
		h.Events.Emit(ctx, h.toExternalFunc(), eventing.Mutation{
			ActivityType:           activityType,
			Target:                 internal,
			ResourceType:           model,
			Agent:                  agent,
			Occurred:               now,
			Parent:                 container,
			ParentInteractionModel: parentModel,
			MembershipResource:     membershipRes,
			IsACL:                  false,
		})
	}

	header := http.Header{}
	for _, link := range typeLinkHeaders(model) {
		header.Add("Link", link)
	}
	if isNew {
		header.Set("Content-Location", string(external))
		return &pipeline.Result{Status: http.StatusCreated, Header: header}, nil
	}
	return &pipeline.Result{Status: http.StatusNoContent, Header: header}, nil
}

// putEffectiveModel resolves the interaction model a PUT takes
// effect under: an existing NonRDFSource receiving an RDF body is a binary
// description update (model stays NonRDFSource); otherwise an explicit
// Link wins, then the existing model, then the same heuristic POST
// uses for a brand-new resource.
func putEffectiveModel(req *httpreq.Request, existing *resource.Resource, isNew bool, supported []ports.RDFSyntax) (resource.InteractionModel, bool) {
	if !isNew && existing.InteractionModel == resource.NonRDFSource {
		if _, ok := matchRDFSyntax(req.ContentType, supported); ok {
			return resource.NonRDFSource, true
		}
	}
	if req.LinkType != "" {
		return resource.InteractionModel(req.LinkType), false
	}
	if !isNew {
		return existing.InteractionModel, false
	}
	return detectInteractionModel(req.LinkType, req.ContentType, supported), false
}

// carryACL re-reads an existing resource's access-control graph so a
// non-ACL write can carry it through unchanged.
func carryACL(existing *resource.Resource) []rdf.Triple {
	return existing.StreamGraphs(rdf.PreferAccessControl)
}

// parentIdentifier derives the container IRI for a brand-new resource
// from its own identifier's path, stripping exactly one trailing
// segment. Returns false for
// the root identifier, which has no parent.
func parentIdentifier(id rdf.IRI) (rdf.IRI, bool) {
	s := strings.TrimSuffix(string(id), "/")
	idx := strings.LastIndex(s, "/")
	if idx < 0 {
		return "", false
	}
	schemeEnd := strings.Index(s, "://")
	if schemeEnd >= 0 && idx <= schemeEnd+2 {
		return "", false
	}
	return rdf.IRI(s[:idx+1]), true
}

// parseACL parses an ext=acl PUT/PATCH body into triples, scoped to
// the target identifier (no server-owned stripping: ACL assertions
// never carry ldp:contains or an ldp: rdf:type).
func (h *Handlers) parseACL(ctx context.Context, req *httpreq.Request, body []byte, internal, external rdf.IRI) ([]rdf.Triple, error) {
	syntax, ok := matchRDFSyntax(req.ContentType, h.IO.SupportedReadSyntaxes())
	if !ok {
		return nil, apperrors.NewUnsupportedMediaType("unsupported RDF content-type: " + req.ContentType)
	}
	ds, err := h.IO.Parse(ctx, bytes.NewReader(body), syntax, external)
	if err != nil {
		return nil, apperrors.NewValidation("malformed RDF body: " + err.Error())
	}
	triples := ds.Graph(rdf.PreferUserManaged)
	return h.toInternalTriples(h.skolemizeTriples(triples)), nil
}
