package httpreq_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trellis-ldp/trellis-core/application/ports"
	"github.com/trellis-ldp/trellis-core/interfaces/http/httpreq"
)

func TestNegotiateSyntaxExactMatch(t *testing.T) {
	supported := []ports.RDFSyntax{ports.SyntaxTurtle, ports.SyntaxJSONLD}
	syntax, _, ok := httpreq.NegotiateSyntax("application/ld+json", supported)

	assert.True(t, ok)
	assert.Equal(t, ports.SyntaxJSONLD, syntax)
}

func TestNegotiateSyntaxPrefersHighestQ(t *testing.T) {
	supported := []ports.RDFSyntax{ports.SyntaxTurtle, ports.SyntaxJSONLD}
	syntax, _, ok := httpreq.NegotiateSyntax("text/turtle;q=0.2, application/ld+json;q=0.9", supported)

	assert.True(t, ok)
	assert.Equal(t, ports.SyntaxJSONLD, syntax)
}

func TestNegotiateSyntaxNoneAcceptable(t *testing.T) {
	supported := []ports.RDFSyntax{ports.SyntaxTurtle}
	_, _, ok := httpreq.NegotiateSyntax("application/xml", supported)

	assert.False(t, ok)
}

func TestNegotiateSyntaxEmptyAcceptUsesFirstSupported(t *testing.T) {
	supported := []ports.RDFSyntax{ports.SyntaxTurtle, ports.SyntaxJSONLD}
	syntax, _, ok := httpreq.NegotiateSyntax("", supported)

	assert.True(t, ok)
	assert.Equal(t, ports.SyntaxTurtle, syntax)
}

func TestSupportedSyntaxHeader(t *testing.T) {
	header := httpreq.SupportedSyntaxHeader([]ports.RDFSyntax{ports.SyntaxTurtle, ports.SyntaxNTriples})
	assert.Equal(t, "text/turtle, application/n-triples", header)
}
