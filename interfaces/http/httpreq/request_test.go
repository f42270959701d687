package httpreq_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trellis-ldp/trellis-core/interfaces/http/httpreq"
)

func TestParseVersionAndExt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/c1/r1?ext=acl&version=1000", nil)
	parsed, err := httpreq.Parse(r, nil)
	require.NoError(t, err)

	assert.Equal(t, "acl", parsed.Ext)
	assert.True(t, parsed.HasVersion)
	assert.Equal(t, time.Unix(1000, 0).UTC(), parsed.Version)
}

func TestParseUnknownExtIsDropped(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/r?ext=bogus", nil)
	parsed, err := httpreq.Parse(r, map[string]bool{"acl": true})
	require.NoError(t, err)

	assert.Empty(t, parsed.Ext)
}

func TestParseLinkTypeHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.Header.Add("Link", `<http://www.w3.org/ns/ldp#BasicContainer>; rel="type"`)
	parsed, err := httpreq.Parse(r, nil)
	require.NoError(t, err)

	assert.Equal(t, "http://www.w3.org/ns/ldp#BasicContainer", parsed.LinkType)
}

func TestParseLinkTypeResourceIsIgnored(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.Header.Add("Link", `<http://www.w3.org/ns/ldp#Resource>; rel="type"`)
	parsed, err := httpreq.Parse(r, nil)
	require.NoError(t, err)

	assert.Empty(t, parsed.LinkType)
}

func TestParseLinkAclRel(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/r", nil)
	r.Header.Add("Link", `<http://example.org/r?ext=acl>; rel="acl"`)
	parsed, err := httpreq.Parse(r, nil)
	require.NoError(t, err)

	assert.True(t, parsed.LinkIsACL)
}

func TestParseIfMatchList(t *testing.T) {
	r := httptest.NewRequest(http.MethodPut, "/r", nil)
	r.Header.Set("If-Match", `"abc", "def"`)
	parsed, err := httpreq.Parse(r, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{`"abc"`, `"def"`}, parsed.IfMatch)
}

func TestParseRangeHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/bin", nil)
	r.Header.Set("Range", "bytes=0-499")
	parsed, err := httpreq.Parse(r, nil)
	require.NoError(t, err)

	require.True(t, parsed.HasRange)
	assert.Equal(t, int64(0), parsed.Range.From)
	assert.Equal(t, int64(499), parsed.Range.To)
}

func TestParseOpenEndedRange(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/bin", nil)
	r.Header.Set("Range", "bytes=500-")
	parsed, err := httpreq.Parse(r, nil)
	require.NoError(t, err)

	require.True(t, parsed.HasRange)
	assert.Equal(t, int64(-1), parsed.Range.To)
}

func TestParseAcceptDatetimeRFC1123(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/r", nil)
	r.Header.Set("Accept-Datetime", "Tue, 01 Jan 2030 00:00:00 GMT")
	parsed, err := httpreq.Parse(r, nil)
	require.NoError(t, err)

	require.True(t, parsed.HasAcceptDatetime)
	assert.Equal(t, 2030, parsed.AcceptDatetime.Year())
}
