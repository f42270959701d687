package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatchAppliesSparqlUpdateToUserGraph(t *testing.T) {
	h := newTestHandlers(t)
	ctx := context.Background()

	createReq := newReq(t, http.MethodPut, "/r1", map[string]string{"Content-Type": "application/n-triples"})
	_, err := h.Put(ctx, createReq, []byte(`<http://example.org/r1> <http://purl.org/dc/elements/1.1/title> "before" .`))
	require.NoError(t, err)

	patchBody := []byte(`DELETE { <http://example.org/r1> <http://purl.org/dc/elements/1.1/title> "before" . } ` +
		`INSERT { <http://example.org/r1> <http://purl.org/dc/elements/1.1/title> "after" . } WHERE {}`)
	patchReq := newReq(t, http.MethodPatch, "/r1", map[string]string{"Content-Type": "application/sparql-update"})
	result, err := h.Patch(ctx, patchReq, patchBody)

	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, result.Status)
}

func TestPatchRejectsWrongContentType(t *testing.T) {
	h := newTestHandlers(t)
	ctx := context.Background()

	createReq := newReq(t, http.MethodPut, "/r1", map[string]string{"Content-Type": "application/n-triples"})
	_, err := h.Put(ctx, createReq, []byte(`<http://example.org/r1> <http://purl.org/dc/elements/1.1/title> "v" .`))
	require.NoError(t, err)

	patchReq := newReq(t, http.MethodPatch, "/r1", map[string]string{"Content-Type": "text/turtle"})
	_, err = h.Patch(ctx, patchReq, []byte("irrelevant"))

	assert.Error(t, err)
}

func TestPatchRejectsEmptyBody(t *testing.T) {
	h := newTestHandlers(t)
	ctx := context.Background()

	createReq := newReq(t, http.MethodPut, "/r1", map[string]string{"Content-Type": "application/n-triples"})
	_, err := h.Put(ctx, createReq, []byte(`<http://example.org/r1> <http://purl.org/dc/elements/1.1/title> "v" .`))
	require.NoError(t, err)

	patchReq := newReq(t, http.MethodPatch, "/r1", map[string]string{"Content-Type": "application/sparql-update"})
	_, err = h.Patch(ctx, patchReq, nil)

	assert.Error(t, err)
}

func TestPatchOnMissingResourceIsNotFound(t *testing.T) {
	h := newTestHandlers(t)
	ctx := context.Background()

	patchReq := newReq(t, http.MethodPatch, "/never-created", map[string]string{"Content-Type": "application/sparql-update"})
	_, err := h.Patch(ctx, patchReq, []byte("INSERT { <http://example.org/never-created> <http://example.org/p> \"v\" . } WHERE {}"))

	assert.Error(t, err)
}

func TestPatchReturnsRepresentationWhenRequested(t *testing.T) {
	h := newTestHandlers(t)
	ctx := context.Background()

	createReq := newReq(t, http.MethodPut, "/r1", map[string]string{"Content-Type": "application/n-triples"})
	_, err := h.Put(ctx, createReq, []byte(`<http://example.org/r1> <http://purl.org/dc/elements/1.1/title> "before" .`))
	require.NoError(t, err)

	patchReq := newReq(t, http.MethodPatch, "/r1", map[string]string{
		"Content-Type": "application/sparql-update",
		"Prefer":       `return=representation`,
		"Accept":       "application/n-triples",
	})
	result, err := h.Patch(ctx, patchReq, []byte(
		`INSERT { <http://example.org/r1> <http://purl.org/dc/elements/1.1/title> "after" . } WHERE {}`))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, result.Status)
	assert.NotEmpty(t, result.Body)
}
