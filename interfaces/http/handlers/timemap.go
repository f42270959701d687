package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/trellis-ldp/trellis-core/application/pipeline"
	"github.com/trellis-ldp/trellis-core/domain/rdf"
	"github.com/trellis-ldp/trellis-core/interfaces/http/httpreq"
	apperrors "github.com/trellis-ldp/trellis-core/pkg/errors"
)

// renderTimeMap serves `?ext=timemap`: content-negotiated between an
// RDF Memento-vocabulary body and application/link-format.
func (h *Handlers) renderTimeMap(ctx context.Context, req *httpreq.Request, external, internal rdf.IRI) (*pipeline.Result, error) {
	res, err := h.Resource.Get(ctx, internal)
	if err != nil {
		return nil, err
	}
	if res.IsMissing() {
		return nil, apperrors.NewNotFound("resource not found")
	}
	if res.IsSentinelDeleted() {
		return nil, apperrors.NewGone("resource deleted")
	}

	instants, err := h.mementos(ctx, internal)
	if err != nil {
		return nil, err
	}

	links := h.linkSet(external, instants)
	header := http.Header{}
	for _, link := range links.TimeMapLinks() {
		header.Add("Link", link)
	}

	if !strings.Contains(req.Accept, "link-format") {
		if syntax, profile, ok := httpreq.NegotiateSyntax(req.Accept, h.IO.SupportedWriteSyntaxes()); ok {
			body, err := h.writeTriples(ctx, links.TimeMapTriples(), syntax, profile)
			if err != nil {
				return nil, err
			}
			header.Set("Content-Type", string(syntax))
			return &pipeline.Result{Status: http.StatusOK, Header: header, Body: body}, nil
		}
	}

	header.Set("Content-Type", "application/link-format")
	return &pipeline.Result{Status: http.StatusOK, Header: header, Body: []byte(links.LinkFormatBody())}, nil
}
