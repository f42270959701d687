package httpreq

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/trellis-ldp/trellis-core/domain/rdf"
)

// ReturnPreference is the RFC 7240 `Prefer: return=` value.
type ReturnPreference string

const (
	ReturnRepresentation ReturnPreference = "representation"
	ReturnMinimal        ReturnPreference = "minimal"
)

// Prefer is the parsed RFC 7240 Prefer header: a return preference
// plus include/omit IRI lists.
type Prefer struct {
	Return ReturnPreference
	// ReturnExplicit is true only when the client's Prefer header
	// actually carried a return= token. PATCH treats
	// "no Prefer header at all" differently from an explicit
	// "return=representation": a GET with no Prefer still defaults to
	// representation, but a PATCH with no Prefer defaults to 204.
	ReturnExplicit bool
	Include []rdf.IRI
	Omit    []rdf.IRI
}

// Well-known Prefer include/omit tokens.
const (
	PreferMinimalContainer rdf.IRI = "http://www.w3.org/ns/ldp#PreferMinimalContainer"
	PreferContainmentToken rdf.IRI = "http://www.w3.org/ns/ldp#PreferContainment"
	PreferMembershipToken  rdf.IRI = "http://www.w3.org/ns/ldp#PreferMembership"
)

// ParsePrefer parses an RFC 7240 Prefer header value. Unknown
// preferences besides return=, include=, and omit= are ignored: this
// server only reacts to the three this spec names.
func ParsePrefer(header string) Prefer {
	p := Prefer{Return: ReturnRepresentation}
	if header == "" {
		return p
	}
	for _, token := range strings.Split(header, ";") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		switch {
		case strings.HasPrefix(token, "return="):
			v := strings.Trim(strings.TrimPrefix(token, "return="), `"`)
			p.ReturnExplicit = true
			if v == string(ReturnMinimal) {
				p.Return = ReturnMinimal
			} else {
				p.Return = ReturnRepresentation
			}
		case strings.HasPrefix(token, "include="):
			p.Include = parseIRIList(strings.TrimPrefix(token, "include="))
		case strings.HasPrefix(token, "omit="):
			p.Omit = parseIRIList(strings.TrimPrefix(token, "omit="))
		}
	}
	return p
}

func parseIRIList(quoted string) []rdf.IRI {
	quoted = strings.Trim(quoted, `"`)
	fields := strings.Fields(quoted)
	out := make([]rdf.IRI, 0, len(fields))
	for _, f := range fields {
		out = append(out, rdf.IRI(f))
	}
	return out
}

// includes reports whether token appears in list.
func includes(list []rdf.IRI, token rdf.IRI) bool {
	for _, v := range list {
		if v == token {
			return true
		}
	}
	return false
}

// GraphFilter resolves the Prefer header into the concrete set of
// named graphs an RDF response should draw from:
// defaults to user, containment, and membership; PreferMinimalContainer
// in include drops containment and membership; listing PreferUserManaged
// in omit drops the user graph.
func (p Prefer) GraphFilter(auditRequested bool) []rdf.GraphName {
	includeContainment := !includes(p.Include, PreferMinimalContainer)
	includeMembership := !includes(p.Include, PreferMinimalContainer)
	includeUser := !includes(p.Omit, rdf.PreferUserManaged)

	var graphs []rdf.GraphName
	if includeUser {
		graphs = append(graphs, rdf.PreferUserManaged)
	}
	if includeContainment {
		graphs = append(graphs, rdf.PreferContainment)
	}
	if includeMembership {
		graphs = append(graphs, rdf.PreferMembership)
	}
	if auditRequested {
		graphs = append(graphs, rdf.PreferAudit)
	}
	return graphs
}

// ACLFilter overrides the graph filter for ext=acl requests: the
// representation includes PreferAccessControl only.
func ACLFilter() []rdf.GraphName {
	return []rdf.GraphName{rdf.PreferAccessControl}
}

// includeHash and omitHash feed the ETag computation:
// sorted, joined, and hashed so that reordering the header's tokens
// never changes the digest.
func (p Prefer) includeHash() string { return hashIRIList(p.Include) }
func (p Prefer) omitHash() string    { return hashIRIList(p.Omit) }

func hashIRIList(list []rdf.IRI) string {
	strs := make([]string, len(list))
	for i, v := range list {
		strs[i] = string(v)
	}
	sort.Strings(strs)
	sum := md5.Sum([]byte(strings.Join(strs, "\x00")))
	return hex.EncodeToString(sum[:])
}
