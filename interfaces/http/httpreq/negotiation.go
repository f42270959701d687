package httpreq

import (
	"sort"
	"strconv"
	"strings"

	"github.com/trellis-ldp/trellis-core/application/ports"
)

// acceptCandidate is one media-range parsed out of an Accept header.
type acceptCandidate struct {
	mediaType string
	q         float64
	profile   string
}

// parseAccept parses an RFC 7231 Accept header into candidates ordered
// by descending quality, stable on ties (first-listed wins).
func parseAccept(header string) []acceptCandidate {
	if header == "" {
		return nil
	}
	parts := strings.Split(header, ",")
	candidates := make([]acceptCandidate, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		segments := strings.Split(part, ";")
		c := acceptCandidate{mediaType: strings.TrimSpace(segments[0]), q: 1.0}
		for _, seg := range segments[1:] {
			seg = strings.TrimSpace(seg)
			switch {
			case strings.HasPrefix(seg, "q="):
				if v, err := strconv.ParseFloat(strings.TrimPrefix(seg, "q="), 64); err == nil {
					c.q = v
				}
			case strings.HasPrefix(seg, "profile="):
				c.profile = strings.Trim(strings.TrimPrefix(seg, "profile="), `"`)
			}
		}
		candidates = append(candidates, c)
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].q > candidates[j].q })
	return candidates
}

// NegotiateSyntax picks the RDF syntax to serve from an Accept header
// against the I/O service's supported write syntaxes. Returns
// ok=false when nothing acceptable is supported,
// which callers surface as NOT_ACCEPTABLE.
func NegotiateSyntax(accept string, supported []ports.RDFSyntax) (syntax ports.RDFSyntax, profile string, ok bool) {
	if len(supported) == 0 {
		return "", "", false
	}
	candidates := parseAccept(accept)
	if len(candidates) == 0 {
		return supported[0], "", true
	}

	supportedSet := make(map[ports.RDFSyntax]bool, len(supported))
	for _, s := range supported {
		supportedSet[s] = true
	}

	for _, c := range candidates {
		if c.q <= 0 {
			continue
		}
		if c.mediaType == "*/*" {
			return supported[0], "", true
		}
		if strings.HasSuffix(c.mediaType, "/*") {
			prefix := strings.TrimSuffix(c.mediaType, "*")
			for _, s := range supported {
				if strings.HasPrefix(string(s), prefix) {
					return s, c.profile, true
				}
			}
			continue
		}
		if syntax := ports.RDFSyntax(c.mediaType); supportedSet[syntax] {
			return syntax, c.profile, true
		}
	}
	return "", "", false
}

// NegotiateSyntaxOrBinary extends NegotiateSyntax with a binary
// fallback media type. binaryMime is empty for
// resources with no binary representation, in which case this behaves
// exactly like NegotiateSyntax.
func NegotiateSyntaxOrBinary(accept string, supported []ports.RDFSyntax, binaryMime string) (syntax ports.RDFSyntax, profile string, binary bool, ok bool) {
	if binaryMime == "" {
		syntax, profile, ok = NegotiateSyntax(accept, supported)
		return syntax, profile, false, ok
	}

	candidates := parseAccept(accept)
	if len(candidates) == 0 {
		return "", "", true, true
	}

	supportedSet := make(map[ports.RDFSyntax]bool, len(supported))
	for _, s := range supported {
		supportedSet[s] = true
	}

	for _, c := range candidates {
		if c.q <= 0 {
			continue
		}
		if c.mediaType == "*/*" || c.mediaType == binaryMime {
			return "", c.profile, true, true
		}
		if strings.HasSuffix(c.mediaType, "/*") {
			prefix := strings.TrimSuffix(c.mediaType, "*")
			if strings.HasPrefix(binaryMime, prefix) {
				return "", c.profile, true, true
			}
			for _, s := range supported {
				if strings.HasPrefix(string(s), prefix) {
					return s, c.profile, false, true
				}
			}
			continue
		}
		if syntax := ports.RDFSyntax(c.mediaType); supportedSet[syntax] {
			return syntax, c.profile, false, true
		}
	}
	return "", "", false, false
}

// SupportedSyntaxHeader joins syntaxes into a comma-separated header
// value, used to build Accept-Post independent of any specific
// request's Accept header.
func SupportedSyntaxHeader(syntaxes []ports.RDFSyntax) string {
	strs := make([]string, len(syntaxes))
	for i, s := range syntaxes {
		strs[i] = string(s)
	}
	return strings.Join(strs, ", ")
}
