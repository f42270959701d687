package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/trellis-ldp/trellis-core/application/eventing"
	"github.com/trellis-ldp/trellis-core/application/pipeline"
	"github.com/trellis-ldp/trellis-core/domain/activity"
	"github.com/trellis-ldp/trellis-core/domain/rdf"
	"github.com/trellis-ldp/trellis-core/domain/resource"
	"github.com/trellis-ldp/trellis-core/infrastructure/persistence/binary"
	"github.com/trellis-ldp/trellis-core/interfaces/http/httpreq"
	apperrors "github.com/trellis-ldp/trellis-core/pkg/errors"
)

// Post implements the POST handler: create a new child
// of the addressed container.
func (h *Handlers) Post(ctx context.Context, req *httpreq.Request, body []byte) (*pipeline.Result, error) {
	parentExternal := h.externalIRI(req.Path)
	parentInternal := h.Resource.ToInternal(parentExternal, h.BaseURL)

	parent, err := h.fetchResource(ctx, req, parentInternal)
	if err != nil {
		return nil, err
	}

	if req.Ext != "" {
		return nil, apperrors.NewMethodNotAllowed("cannot POST to an extension graph",
			[]string{"GET", "HEAD", "OPTIONS", "PATCH", "PUT", "DELETE"})
	}
	if !resource.IsContainerType(parent.InteractionModel) {
		return nil, apperrors.NewMethodNotAllowed("parent is not a container",
			allowedMethods(parent.InteractionModel, false))
	}

	model := detectInteractionModel(req.LinkType, req.ContentType, h.IO.SupportedReadSyntaxes())
	if !supportsModel(h.Resource.SupportedInteractionModels(), model) {
		return nil, apperrors.NewValidation("unsupported interaction model: " + string(model))
	}
	if model == resource.NonRDFSource {
		if _, ok := matchRDFSyntax(req.ContentType, h.IO.SupportedReadSyntaxes()); ok {
			return nil, apperrors.NewValidation("RDF content-type not valid for a NonRDFSource")
		}
	}

	slug := sanitizeSlug(req.Slug)
	if slug == "" {
		slug = h.Resource.GenerateIdentifier()
	}
	childExternal := childIdentifier(parentExternal, slug, resource.IsContainerType(model))
	childInternal := h.Resource.ToInternal(childExternal, h.BaseURL)

	existing, err := h.Resource.Get(ctx, childInternal)
	if err != nil {
		return nil, err
	}
	if !existing.IsMissing() && !existing.IsSentinelDeleted() {
		return nil, apperrors.NewConflict("child identifier already in use", "")
	}

	meta := resource.Metadata{
		Identifier:       childInternal,
		InteractionModel: model,
		Container:        parentInternal,
	}

	mutable := rdf.NewDataset()
	if model == resource.NonRDFSource {
		if err := h.writeBinary(ctx, req, body, childInternal, &meta); err != nil {
			return nil, err
		}
	} else {
		triples, err := h.parseAndValidate(ctx, req, body, childInternal, childExternal, model)
		if err != nil {
			return nil, err
		}
		if resource.IsContainerType(model) {
			cmeta := containerMembershipFields(triples, childInternal)
			meta.MembershipResource = cmeta.MembershipResource
			meta.HasMemberRelation = cmeta.HasMemberRelation
			meta.IsMemberOfRelation = cmeta.IsMemberOfRelation
			meta.InsertedContentRelation = cmeta.InsertedContentRelation
		}
		for _, t := range triples {
			mutable.AddTriple(t, rdf.PreferUserManaged)
		}
	}

	agent := agentIRI(req.Principal)
	now := time.Now().UTC()

	if err := h.Resource.Create(ctx, meta, mutable); err != nil {
		return nil, err
	}
	if immutable := h.Audit.BuildQuads(ctx, childInternal, agent, activity.Create, now); immutable != nil {
		if err := h.Resource.Add(ctx, childInternal, immutable); err != nil {
			h.Logger.Warn("audit append failed", zap.Error(err))
		}
	}

	h.Events.Emit(ctx, h.toExternalFunc(), eventing.Mutation{
		ActivityType:           activity.Create,
		Target:                 childInternal,
		ResourceType:           model,
		Agent:                  agent,
		Occurred:               now,
		Parent:                 parentInternal,
		ParentInteractionModel: parent.InteractionModel,
		MembershipResource:     parent.MembershipResource,
	})

	header := http.Header{}
	header.Set("Location", string(childExternal))
	for _, link := range typeLinkHeaders(model) {
		header.Add("Link", link)
	}
	if model == resource.NonRDFSource {
		header.Add("Link", fmt.Sprintf(`<%s?ext=description>; rel="describedby"`, childExternal))
	}
	return &pipeline.Result{Status: http.StatusCreated, Header: header}, nil
}

// sanitizeSlug strips path separators out of a client-supplied Slug
// header so it can never be used to escape the parent container.
func sanitizeSlug(slug string) string {
	slug = strings.Trim(slug, "/")
	return strings.ReplaceAll(slug, "/", "-")
}

// childIdentifier builds the external URL for a new child, with a
// trailing slash for container types.
func childIdentifier(parent rdf.IRI, slug string, isContainer bool) rdf.IRI {
	base := strings.TrimSuffix(string(parent), "/")
	id := base + "/" + slug
	if isContainer {
		id += "/"
	}
	return rdf.IRI(id)
}

func (h *Handlers) writeBinary(ctx context.Context, req *httpreq.Request, body []byte, id rdf.IRI, meta *resource.Metadata) error {
	binID := rdf.IRI(fmt.Sprintf("%s#binary", id))
	return h.writeBinaryAt(ctx, req, body, binID, meta)
}

// writeBinaryAt verifies req's Digest (if any) against body, persists
// it under binID through the binary service, and records the result as
// meta.Binary. Shared by POST (fresh binary identifier) and PUT
// (identifier reused across a binary replacement).
func (h *Handlers) writeBinaryAt(ctx context.Context, req *httpreq.Request, body []byte, binID rdf.IRI, meta *resource.Metadata) error {
	if err := binary.VerifyDigest(body, req.Digest); err != nil {
		return err
	}
	bm := resource.BinaryMetadata{Identifier: binID, MimeType: req.ContentType, Size: int64(len(body))}
	if err := h.Binary.SetContent(ctx, bm, bytes.NewReader(body)); err != nil {
		return err
	}
	meta.Binary = &bm
	return nil
}

// parseAndValidate parses an RDF body into triples scoped to id, strips
// server-owned assertions, skolemizes blank nodes, and runs the
// constraint service.
func (h *Handlers) parseAndValidate(ctx context.Context, req *httpreq.Request, body []byte, internal, external rdf.IRI, model resource.InteractionModel) ([]rdf.Triple, error) {
	syntax, ok := matchRDFSyntax(req.ContentType, h.IO.SupportedReadSyntaxes())
	if !ok {
		return nil, apperrors.NewUnsupportedMediaType("unsupported RDF content-type: " + req.ContentType)
	}
	ds, err := h.IO.Parse(ctx, bytes.NewReader(body), syntax, external)
	if err != nil {
		return nil, apperrors.NewValidation("malformed RDF body: " + err.Error())
	}
	triples := resource.StripServerOwned(ds.Graph(rdf.PreferUserManaged))
	triples = h.skolemizeTriples(triples)
	triples = h.toInternalTriples(triples)

	if violations := h.Constraint.Validate(ctx, internal, model, triples); len(violations) > 0 {
		return nil, constraintError(violations)
	}
	return triples, nil
}

// toExternalFunc adapts ResourceService.ToExternal into the closure
// eventing.Emitter.Emit expects.
func (h *Handlers) toExternalFunc() func(rdf.IRI) rdf.IRI {
	return func(id rdf.IRI) rdf.IRI { return h.Resource.ToExternal(id, h.BaseURL) }
}
