package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutCreatesNewRDFSource(t *testing.T) {
	h := newTestHandlers(t)
	ctx := context.Background()
	body := []byte(`<http://example.org/r1> <http://purl.org/dc/elements/1.1/title> "hello".`)

	req := newReq(t, http.MethodPut, "/r1", map[string]string{"Content-Type": "application/n-triples"})
	result, err := h.Put(ctx, req, body)

	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, result.Status)
	assert.Equal(t, "http://example.org/r1", result.Header.Get("Content-Location"))
}

func TestPutReplacesExistingResource(t *testing.T) {
	h := newTestHandlers(t)
	ctx := context.Background()

	createReq := newReq(t, http.MethodPut, "/r1", map[string]string{"Content-Type": "application/n-triples"})
	_, err := h.Put(ctx, createReq, []byte(`<http://example.org/r1> <http://purl.org/dc/elements/1.1/title> "v1".`))
	require.NoError(t, err)

	replaceReq := newReq(t, http.MethodPut, "/r1", map[string]string{"Content-Type": "application/n-triples"})
	result, err := h.Put(ctx, replaceReq, []byte(`<http://example.org/r1> <http://purl.org/dc/elements/1.1/title> "v2".`))

	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, result.Status)
}

func TestPutRejectsStaleIfMatch(t *testing.T) {
	h := newTestHandlers(t)
	ctx := context.Background()

	createReq := newReq(t, http.MethodPut, "/r1", map[string]string{"Content-Type": "application/n-triples"})
	_, err := h.Put(ctx, createReq, []byte(`<http://example.org/r1> <http://purl.org/dc/elements/1.1/title> "v1".`))
	require.NoError(t, err)

	staleReq := newReq(t, http.MethodPut, "/r1", map[string]string{
		"Content-Type": "application/n-triples",
		"If-Match":     `"not-the-real-etag"`,
	})
	_, err = h.Put(ctx, staleReq, []byte(`<http://example.org/r1> <http://purl.org/dc/elements/1.1/title> "v2".`))

	assert.Error(t, err)
}

func TestPutRejectsIfMatchOnNewResource(t *testing.T) {
	h := newTestHandlers(t)
	ctx := context.Background()

	req := newReq(t, http.MethodPut, "/never-created", map[string]string{
		"Content-Type": "application/n-triples",
		"If-Match":     `"abc"`,
	})
	_, err := h.Put(ctx, req, []byte(`<http://example.org/never-created> <http://purl.org/dc/elements/1.1/title> "v".`))

	assert.Error(t, err)
}

func TestPutRejectsInteractionModelChangeOutsideSupertypeChain(t *testing.T) {
	h := newTestHandlers(t)
	ctx := context.Background()

	createReq := newReq(t, http.MethodPut, "/bin1", map[string]string{"Content-Type": "application/octet-stream"})
	_, err := h.Put(ctx, createReq, []byte("binary payload"))
	require.NoError(t, err)

	// With a non-RDF body the Link type RDFSource applies, and a
	// NonRDFSource can never become an RDFSource. (An RDF body would
	// instead be a binary-description update that keeps it a
	// NonRDFSource.)
	replaceReq := newReq(t, http.MethodPut, "/bin1", map[string]string{
		"Content-Type": "text/plain",
		"Link":         `<http://www.w3.org/ns/ldp#RDFSource>; rel="type"`,
	})
	_, err = h.Put(ctx, replaceReq, []byte("replacement payload"))

	assert.Error(t, err)
}

func TestPutCreatesDirectContainerWithMembershipFields(t *testing.T) {
	h := newTestHandlers(t)
	ctx := context.Background()

	body := []byte(`<http://example.org/c1/> <http://www.w3.org/ns/ldp#membershipResource> <http://example.org/c1/>.
<http://example.org/c1/> <http://www.w3.org/ns/ldp#hasMemberRelation> <http://purl.org/dc/terms/hasPart>.`)
	req := newReq(t, http.MethodPut, "/c1/", map[string]string{
		"Content-Type": "application/n-triples",
		"Link":         `<http://www.w3.org/ns/ldp#DirectContainer>; rel="type"`,
	})
	result, err := h.Put(ctx, req, body)

	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, result.Status)
}
