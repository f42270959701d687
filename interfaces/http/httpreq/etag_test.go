package httpreq_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/trellis-ldp/trellis-core/interfaces/http/httpreq"
)

func TestComputeETagIsDeterministic(t *testing.T) {
	modified := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	prefer := httpreq.ParsePrefer("")

	a := httpreq.ComputeETag("http://ex/r", modified, prefer, false, false)
	b := httpreq.ComputeETag("http://ex/r", modified, prefer, false, false)

	assert.Equal(t, a, b)
}

func TestComputeETagDiffersOnPrefer(t *testing.T) {
	modified := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := httpreq.ComputeETag("http://ex/r", modified, httpreq.ParsePrefer(""), false, false)
	b := httpreq.ComputeETag("http://ex/r", modified, httpreq.ParsePrefer(`omit="http://www.w3.org/ns/ldp#PreferUserManaged"`), false, false)

	assert.NotEqual(t, a.Value, b.Value)
}

func TestComputeETagRDFIsWeak(t *testing.T) {
	etag := httpreq.ComputeETag("http://ex/r", time.Now(), httpreq.Prefer{}, false, false)
	assert.True(t, etag.Weak)
	assert.Contains(t, etag.String(), "W/")
}

func TestComputeETagBinaryIsStrongUnlessAlwaysWeak(t *testing.T) {
	strong := httpreq.ComputeETag("http://ex/bin", time.Now(), httpreq.Prefer{}, true, false)
	assert.False(t, strong.Weak)

	weak := httpreq.ComputeETag("http://ex/bin", time.Now(), httpreq.Prefer{}, true, true)
	assert.True(t, weak.Weak)
}
