package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/trellis-ldp/trellis-core/application/pipeline"
	"github.com/trellis-ldp/trellis-core/domain/resource"
	"github.com/trellis-ldp/trellis-core/interfaces/http/httpreq"
)

// Options implements the OPTIONS handler: Allow, Accept-Post,
// Accept-Patch, and LDP type Link headers, with no body.
func (h *Handlers) Options(ctx context.Context, req *httpreq.Request) (*pipeline.Result, error) {
	external := h.externalIRI(req.Path)
	internal := h.Resource.ToInternal(external, h.BaseURL)

	res, err := h.fetchResource(ctx, req, internal)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	for _, link := range typeLinkHeaders(res.InteractionModel) {
		header.Add("Link", link)
	}
	header.Set("Allow", strings.Join(allowedMethods(res.InteractionModel, req.HasVersion), ", "))
	if resource.IsContainerType(res.InteractionModel) && !req.HasVersion {
		header.Set("Accept-Post", httpreq.SupportedSyntaxHeader(h.IO.SupportedReadSyntaxes()))
		header.Set("Accept-Patch", "application/sparql-update")
	}

	return &pipeline.Result{Status: http.StatusNoContent, Header: header}, nil
}
