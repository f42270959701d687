package handlers

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/trellis-ldp/trellis-core/application/pipeline"
	"github.com/trellis-ldp/trellis-core/application/ports"
	"github.com/trellis-ldp/trellis-core/domain/rdf"
	"github.com/trellis-ldp/trellis-core/domain/resource"
	"github.com/trellis-ldp/trellis-core/infrastructure/persistence/binary"
	"github.com/trellis-ldp/trellis-core/interfaces/http/httpreq"
	apperrors "github.com/trellis-ldp/trellis-core/pkg/errors"
)

// Get implements the GET handler.
func (h *Handlers) Get(ctx context.Context, req *httpreq.Request) (*pipeline.Result, error) {
	return h.getOrHead(ctx, req, false)
}

// Head is Get with the response body stripped; both run the same
// header and precondition sequence.
func (h *Handlers) Head(ctx context.Context, req *httpreq.Request) (*pipeline.Result, error) {
	return h.getOrHead(ctx, req, true)
}

func (h *Handlers) getOrHead(ctx context.Context, req *httpreq.Request, headOnly bool) (*pipeline.Result, error) {
	external := h.externalIRI(req.Path)
	internal := h.Resource.ToInternal(external, h.BaseURL)

	if req.Ext == "timemap" {
		return h.renderTimeMap(ctx, req, external, internal)
	}

	res, err := h.fetchResource(ctx, req, internal)
	if err != nil {
		return nil, err
	}

	if req.Ext == "acl" && !res.HasAcl {
		return nil, apperrors.NewNotFound("resource has no access-control graph")
	}

	isMemento := req.HasVersion

	// TimeGate: a plain GET carrying Accept-Datetime (and no explicit
	// version) redirects to the nearest memento.
	if !isMemento && req.HasAcceptDatetime && req.Ext == "" {
		if instants, merr := h.mementos(ctx, internal); merr == nil && len(instants) > 0 {
			if url, ok := h.linkSet(external, instants).TimeGateURL(req.AcceptDatetime); ok {
				header := http.Header{}
				header.Set("Location", string(url))
				return &pipeline.Result{Status: http.StatusFound, Header: header}, nil
			}
		}
	}

	isBinary := res.Binary != nil
	var binaryMime string
	if isBinary {
		binaryMime = res.Binary.MimeType
	}
	syntax, profile, serveBinary, ok := httpreq.NegotiateSyntaxOrBinary(req.Accept, h.IO.SupportedWriteSyntaxes(), binaryMime)
	if !ok {
		return nil, apperrors.NewNotAcceptable("no acceptable media type")
	}
	if serveBinary && (!isBinary || req.Ext == "description") {
		// Accept matched the binary fallback but this resource has none,
		// or the client asked for the RDF description of a binary via
		// ext=description; fall back to the first supported RDF syntax.
		serveBinary = false
		syntax = h.IO.SupportedWriteSyntaxes()[0]
	}

	prefer := req.Prefer
	if req.Ext == "acl" {
		prefer.Include = nil
		prefer.Omit = nil
	}
	etag := httpreq.ComputeETag(external, res.Modified, prefer, isBinary && serveBinary, h.Config.WeakETagsAlways)

	header := http.Header{}
	header.Set("Last-Modified", res.Modified.UTC().Format(http.TimeFormat))
	header.Set("ETag", etag.String())
	header.Set("Vary", varyHeader(serveBinary, isMemento))
	header.Set("Cache-Control", h.Config.CacheControlHeader())
	for _, link := range typeLinkHeaders(res.InteractionModel) {
		header.Add("Link", link)
	}
	if resource.IsContainerType(res.InteractionModel) && !isMemento {
		header.Set("Accept-Post", httpreq.SupportedSyntaxHeader(h.IO.SupportedReadSyntaxes()))
		header.Set("Accept-Patch", "application/sparql-update")
	}

	instants, _ := h.mementos(ctx, internal)
	if isMemento {
		header.Set("Memento-Datetime", res.Modified.UTC().Format(http.TimeFormat))
		for _, link := range h.linkSet(external, instants).MementoLinks(req.Version) {
			header.Add("Link", link)
		}
	} else if req.Ext != "acl" {
		for _, link := range h.linkSet(external, instants).OriginalTimeGateLinks() {
			header.Add("Link", link)
		}
	}
	header.Set("Allow", strings.Join(allowedMethods(res.InteractionModel, isMemento), ", "))

	if err := req.EvaluatePreconditions(etag, res.Modified); err != nil {
		if apperrors.IsNotModified(err) {
			return &pipeline.Result{Status: http.StatusNotModified, Header: header}, nil
		}
		return nil, err
	}

	if serveBinary {
		return h.serveBinaryBody(ctx, req, res, header, headOnly)
	}
	return h.serveRDFBody(ctx, req, res, internal, external, syntax, profile, prefer, header, headOnly)
}

func (h *Handlers) fetchResource(ctx context.Context, req *httpreq.Request, internal rdf.IRI) (*resource.Resource, error) {
	var (
		res *resource.Resource
		err error
	)
	if req.HasVersion {
		res, err = h.Resource.GetVersion(ctx, internal, req.Version)
	} else {
		res, err = h.Resource.Get(ctx, internal)
	}
	if err != nil {
		return nil, err
	}
	if res.IsMissing() {
		return nil, apperrors.NewNotFound("resource not found")
	}
	if res.IsSentinelDeleted() {
		return nil, apperrors.NewGone("resource deleted")
	}
	return res, nil
}

func varyHeader(isBinary, isMemento bool) string {
	parts := []string{"Accept"}
	if !isBinary {
		parts = append(parts, "Prefer")
	}
	if !isMemento {
		parts = append(parts, "Accept-Datetime")
	}
	return strings.Join(parts, ", ")
}

func (h *Handlers) serveBinaryBody(ctx context.Context, req *httpreq.Request, res *resource.Resource, header http.Header, headOnly bool) (*pipeline.Result, error) {
	header.Set("Content-Type", res.Binary.MimeType)
	header.Set("Accept-Ranges", "bytes")

	if headOnly {
		return &pipeline.Result{Status: http.StatusOK, Header: header}, nil
	}

	from, to := int64(0), int64(-1)
	if req.HasRange {
		from, to = req.Range.From, req.Range.To
	}
	reader, err := h.Binary.GetContent(ctx, res.Binary.Identifier, from, to)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, apperrors.NewInternal("reading binary content", err)
	}

	if req.WantDigest != "" {
		candidates := wantDigestAlgorithms(req.WantDigest)
		if algo, digest, ok, err := binary.ComputeDigest(bytes.NewReader(body), candidates); err == nil && ok {
			header.Set("Digest", algo+"="+digest)
		}
	}

	return &pipeline.Result{Status: http.StatusOK, Header: header, Body: body}, nil
}

func (h *Handlers) serveRDFBody(ctx context.Context, req *httpreq.Request, res *resource.Resource, internal, external rdf.IRI, syntax ports.RDFSyntax, profile string, prefer httpreq.Prefer, header http.Header, headOnly bool) (*pipeline.Result, error) {
	header.Set("Content-Type", string(syntax))

	if !headOnly && prefer.Return == httpreq.ReturnMinimal {
		header.Set("Preference-Applied", "return=minimal")
		return &pipeline.Result{Status: http.StatusNoContent, Header: header}, nil
	}

	graphFilter := prefer.GraphFilter(req.Ext == "audit")
	if req.Ext == "acl" {
		graphFilter = httpreq.ACLFilter()
	}

	triples := h.rewriteTriples(res.StreamGraphs(graphFilter...))
	if h.Config.IncludeLDPTypeInBody && req.Ext != "acl" {
		typeTriple := rdf.NewTriple(external, resource.TypeRDF, rdf.IRI(res.InteractionModel))
		triples = append([]rdf.Triple{typeTriple}, triples...)
	}
	triples = applyLDFFilter(triples, req)

	if headOnly {
		return &pipeline.Result{Status: http.StatusOK, Header: header}, nil
	}

	body, err := h.writeTriples(ctx, triples, syntax, profile)
	if err != nil {
		return nil, err
	}
	return &pipeline.Result{Status: http.StatusOK, Header: header, Body: body}, nil
}

// applyLDFFilter implements the Linked Data Fragments subject/
// predicate/object query filter, matching on a
// term's external IRI string or literal lexical form.
func applyLDFFilter(triples []rdf.Triple, req *httpreq.Request) []rdf.Triple {
	if req.Subject == "" && req.Predicate == "" && req.Object == "" {
		return triples
	}
	out := make([]rdf.Triple, 0, len(triples))
	for _, t := range triples {
		if req.Subject != "" && termLexical(t.Subject) != req.Subject {
			continue
		}
		if req.Predicate != "" && string(t.Predicate) != req.Predicate {
			continue
		}
		if req.Object != "" && termLexical(t.Object) != req.Object {
			continue
		}
		out = append(out, t)
	}
	return out
}

func termLexical(term rdf.Term) string {
	switch v := term.(type) {
	case rdf.Literal:
		return v.Lexical
	default:
		return term.String()
	}
}

// wantDigestAlgorithms parses a Want-Digest header's algorithm list,
// dropping RFC 3230 q-values: the content is small enough that
// preference ordering among supported algorithms, not weighting,
// is all ComputeDigest needs.
func wantDigestAlgorithms(wantDigest string) []string {
	parts := strings.Split(wantDigest, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(strings.SplitN(p, ";", 2)[0]))
	}
	return out
}
