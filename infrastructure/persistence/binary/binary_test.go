package binary_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trellis-ldp/trellis-core/domain/rdf"
	"github.com/trellis-ldp/trellis-core/domain/resource"
	"github.com/trellis-ldp/trellis-core/infrastructure/persistence/binary"
)

// The digest values below are the base64 MD5 and SHA-1 digests of the
// payload "hello" (lower case) that the Want-Digest/Digest round-trip
// must reproduce.
const (
	helloMD5 = "XUFAKrxLKna5cZ2REBfFkg=="
	helloSHA = "qvTGHdzF6KLavt4PO0gs2a6pQ00="
)

func newStore(t *testing.T) *binary.Service {
	t.Helper()
	svc, err := binary.New(t.TempDir())
	require.NoError(t, err)
	return svc
}

func TestSetAndGetContentRoundTrip(t *testing.T) {
	svc := newStore(t)
	ctx := context.Background()
	id := rdf.IRI("trellis:data/bin#binary")

	meta := resource.BinaryMetadata{Identifier: id, MimeType: "text/plain", Size: 5}
	require.NoError(t, svc.SetContent(ctx, meta, strings.NewReader("Hello")))

	r, err := svc.GetContent(ctx, id, 0, -1)
	require.NoError(t, err)
	defer r.Close()

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "Hello", string(got))
}

func TestGetContentHonorsByteRange(t *testing.T) {
	svc := newStore(t)
	ctx := context.Background()
	id := rdf.IRI("trellis:data/bin#binary")

	meta := resource.BinaryMetadata{Identifier: id, MimeType: "text/plain", Size: 5}
	require.NoError(t, svc.SetContent(ctx, meta, strings.NewReader("Hello")))

	r, err := svc.GetContent(ctx, id, 1, 3)
	require.NoError(t, err)
	defer r.Close()

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "ell", string(got))
}

func TestGetContentOpenEndedRange(t *testing.T) {
	svc := newStore(t)
	ctx := context.Background()
	id := rdf.IRI("trellis:data/bin#binary")

	meta := resource.BinaryMetadata{Identifier: id, MimeType: "text/plain", Size: 5}
	require.NoError(t, svc.SetContent(ctx, meta, strings.NewReader("Hello")))

	r, err := svc.GetContent(ctx, id, 2, -1)
	require.NoError(t, err)
	defer r.Close()

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "llo", string(got))
}

func TestGetContentMissingIdentifier(t *testing.T) {
	svc := newStore(t)

	_, err := svc.GetContent(context.Background(), rdf.IRI("trellis:data/never"), 0, -1)
	assert.Error(t, err)
}

func TestComputeDigestPicksFirstSupportedAlgorithm(t *testing.T) {
	algo, digest, ok, err := binary.ComputeDigest(bytes.NewReader([]byte("hello")), []string{"unhandled", "SHA", "MD5"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sha", algo)
	assert.Equal(t, helloSHA, digest)
}

func TestComputeDigestMD5(t *testing.T) {
	algo, digest, ok, err := binary.ComputeDigest(bytes.NewReader([]byte("hello")), []string{"md5"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "md5", algo)
	assert.Equal(t, helloMD5, digest)
}

func TestComputeDigestNoSupportedAlgorithm(t *testing.T) {
	_, _, ok, err := binary.ComputeDigest(bytes.NewReader([]byte("Hello")), []string{"crc32"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyDigest(t *testing.T) {
	assert.NoError(t, binary.VerifyDigest([]byte("Hello"), ""))
	assert.NoError(t, binary.VerifyDigest([]byte("hello"), "md5="+helloMD5))
	assert.NoError(t, binary.VerifyDigest([]byte("hello"), "sha="+helloSHA))

	assert.Error(t, binary.VerifyDigest([]byte("hello"), "md5=bm90LXRoZS1kaWdlc3Q="), "mismatch")
	assert.Error(t, binary.VerifyDigest([]byte("Hello"), "crc32=anything"), "unsupported algorithm")
	assert.Error(t, binary.VerifyDigest([]byte("Hello"), "garbage"), "malformed header")
}
