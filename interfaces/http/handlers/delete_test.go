package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteRemovesExistingResource(t *testing.T) {
	h := newTestHandlers(t)
	ctx := context.Background()

	createReq := newReq(t, http.MethodPut, "/r1", map[string]string{"Content-Type": "application/n-triples"})
	_, err := h.Put(ctx, createReq, []byte(`<http://example.org/r1> <http://purl.org/dc/elements/1.1/title> "v" .`))
	require.NoError(t, err)

	delReq := newReq(t, http.MethodDelete, "/r1", nil)
	result, err := h.Delete(ctx, delReq)

	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, result.Status)
}

func TestDeleteIsIdempotent(t *testing.T) {
	h := newTestHandlers(t)
	ctx := context.Background()

	createReq := newReq(t, http.MethodPut, "/r1", map[string]string{"Content-Type": "application/n-triples"})
	_, err := h.Put(ctx, createReq, []byte(`<http://example.org/r1> <http://purl.org/dc/elements/1.1/title> "v" .`))
	require.NoError(t, err)

	first := newReq(t, http.MethodDelete, "/r1", nil)
	_, err = h.Delete(ctx, first)
	require.NoError(t, err)

	second := newReq(t, http.MethodDelete, "/r1", nil)
	result, err := h.Delete(ctx, second)

	require.NoError(t, err, "deleting an already-deleted resource must succeed")
	assert.Equal(t, http.StatusNoContent, result.Status)
}

func TestDeleteOnMissingResourceIsNotFound(t *testing.T) {
	h := newTestHandlers(t)
	ctx := context.Background()

	delReq := newReq(t, http.MethodDelete, "/never-created", nil)
	_, err := h.Delete(ctx, delReq)

	assert.Error(t, err)
}

func TestDeleteRejectsStaleIfMatch(t *testing.T) {
	h := newTestHandlers(t)
	ctx := context.Background()

	createReq := newReq(t, http.MethodPut, "/r1", map[string]string{"Content-Type": "application/n-triples"})
	_, err := h.Put(ctx, createReq, []byte(`<http://example.org/r1> <http://purl.org/dc/elements/1.1/title> "v" .`))
	require.NoError(t, err)

	delReq := newReq(t, http.MethodDelete, "/r1", map[string]string{"If-Match": `"stale-etag"`})
	_, err = h.Delete(ctx, delReq)

	assert.Error(t, err)
}

func TestDeleteExtAclClearsOnlyAccessControlGraph(t *testing.T) {
	h := newTestHandlers(t)
	ctx := context.Background()

	createReq := newReq(t, http.MethodPut, "/r1", map[string]string{"Content-Type": "application/n-triples"})
	_, err := h.Put(ctx, createReq, []byte(`<http://example.org/r1> <http://purl.org/dc/elements/1.1/title> "v" .`))
	require.NoError(t, err)

	aclReq := newReq(t, http.MethodPut, "/r1?ext=acl", map[string]string{"Content-Type": "application/n-triples"})
	_, err = h.Put(ctx, aclReq, []byte(`<http://example.org/r1> <http://www.w3.org/ns/auth/acl#mode> <http://www.w3.org/ns/auth/acl#Read> .`))
	require.NoError(t, err)

	delAclReq := newReq(t, http.MethodDelete, "/r1?ext=acl", nil)
	result, err := h.Delete(ctx, delAclReq)

	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, result.Status)

	// The resource itself must still exist, with its user graph intact.
	getReq := newReq(t, http.MethodGet, "/r1", map[string]string{"Accept": "application/n-triples"})
	getResult, err := h.Get(ctx, getReq)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, getResult.Status)
}

func TestDeleteExtAclOnAlreadyDeletedResourceIsGone(t *testing.T) {
	h := newTestHandlers(t)
	ctx := context.Background()

	createReq := newReq(t, http.MethodPut, "/r1", map[string]string{"Content-Type": "application/n-triples"})
	_, err := h.Put(ctx, createReq, []byte(`<http://example.org/r1> <http://purl.org/dc/elements/1.1/title> "v" .`))
	require.NoError(t, err)

	delReq := newReq(t, http.MethodDelete, "/r1", nil)
	_, err = h.Delete(ctx, delReq)
	require.NoError(t, err)

	delAclReq := newReq(t, http.MethodDelete, "/r1?ext=acl", nil)
	_, err = h.Delete(ctx, delAclReq)

	assert.Error(t, err)
}
