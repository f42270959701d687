// Package httpreq parses an inbound HTTP request into the typed value
// object the handler pipeline operates on, and carries the ETag and
// precondition utilities that every GET/PUT/PATCH/DELETE handler
// needs.
package httpreq

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// headerValidator runs the struct-tag validation in validateHeaders.
// A single package-level instance is safe for concurrent use and
// caches struct reflection.
var headerValidator = validator.New()

// Request is the parsed, method-agnostic view of an inbound LDP
// request. Handlers read from it instead of touching *http.Request
// headers directly, so header quirks (multi-value Link, RFC1123
// dates, decimal Slugs) are handled in exactly one place.
type Request struct {
	Method string
	Path   string

	// Ext is the requested extension graph (acl, timemap, audit,
	// description,...), restricted at parse time to a configured set;
	// unknown values are treated as absent.
	Ext string
	// Version is the Memento instant requested via ?version=, zero if
	// absent.
	Version time.Time
	HasVersion bool

	// Linked Data Fragments filter terms (GET only).
	Subject   string
	Predicate string
	Object    string

	Accept         string
	AcceptDatetime time.Time
	HasAcceptDatetime bool
	ContentType    string

	Prefer Prefer

	Slug string

	// LinkType is the ldp: interaction model requested via
	// `Link rel="type"`, empty if none or out of namespace.
	LinkType string
	// LinkIsACL is true when the request carries `Link rel="acl"`.
	LinkIsACL bool

	Range      RangeHeader
	HasRange   bool
	WantDigest string
	Digest     string

	IfMatch           []string
	IfNoneMatch       []string
	IfUnmodifiedSince time.Time
	HasIfUnmodifiedSince bool
	IfModifiedSince   time.Time
	HasIfModifiedSince bool

	// Principal is the authenticated security principal, an opaque
	// collaborator concern; empty for
	// anonymous requests.
	Principal string
}

// RangeHeader is a parsed byte range.
type RangeHeader struct {
	From int64
	To   int64 // -1 means "to end"
}

// defaultExtensions is the ?ext allow-list Parse falls back to when
// given a nil map: just "acl". Callers normally pass
// infrastructure/config's ExtensionNames.
var defaultExtensions = map[string]bool{"acl": true}

// Parse builds a Request from the wire representation. extensions is
// the configured ext=... allow-list; a nil map falls
// back to {"acl"}.
func Parse(r *http.Request, extensions map[string]bool) (*Request, error) {
	if extensions == nil {
		extensions = defaultExtensions
	}

	q := r.URL.Query()
	req := &Request{
		Method:      r.Method,
		Path:        r.URL.Path,
		Accept:      r.Header.Get("Accept"),
		ContentType: r.Header.Get("Content-Type"),
		Slug:        r.Header.Get("Slug"),
		WantDigest:  r.Header.Get("Want-Digest"),
		Digest:      r.Header.Get("Digest"),
	}

	if ext := q.Get("ext"); ext != "" && extensions[ext] {
		req.Ext = ext
	}

	if v := q.Get("version"); v != "" {
		sec, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, err
		}
		req.Version = time.Unix(sec, 0).UTC()
		req.HasVersion = true
	}

	req.Subject = q.Get("subject")
	req.Predicate = q.Get("predicate")
	req.Object = q.Get("object")

	if ad := r.Header.Get("Accept-Datetime"); ad != "" {
		t, err := time.Parse(time.RFC1123, ad)
		if err != nil {
			return nil, err
		}
		req.AcceptDatetime = t
		req.HasAcceptDatetime = true
	}

	req.Prefer = ParsePrefer(r.Header.Get("Prefer"))

	linkType, isACL := parseLinkHeader(r.Header.Values("Link"))
	req.LinkType = linkType
	req.LinkIsACL = isACL

	if rng := r.Header.Get("Range"); rng != "" {
		parsed, ok := parseRange(rng)
		if ok {
			req.Range = parsed
			req.HasRange = true
		}
	}

	req.IfMatch = splitETagList(r.Header.Get("If-Match"))
	req.IfNoneMatch = splitETagList(r.Header.Get("If-None-Match"))

	if v := r.Header.Get("If-Unmodified-Since"); v != "" {
		t, err := time.Parse(http.TimeFormat, v)
		if err == nil {
			req.IfUnmodifiedSince = t
			req.HasIfUnmodifiedSince = true
		}
	}
	if v := r.Header.Get("If-Modified-Since"); v != "" {
		t, err := time.Parse(http.TimeFormat, v)
		if err == nil {
			req.IfModifiedSince = t
			req.HasIfModifiedSince = true
		}
	}

	if err := validateHeaders(req); err != nil {
		return nil, err
	}

	return req, nil
}

// headerFields is the subset of Request worth struct-tag validation:
// values that flow straight into Link/Location response headers or a
// SPARQL identifier and must not carry control characters or absurd
// lengths before a handler ever sees them.
type headerFields struct {
	Slug        string `validate:"omitempty,max=255,excludesall=\x00\n\r"`
	LinkType    string `validate:"omitempty,max=2048,excludesall=\x00\n\r"`
	ContentType string `validate:"omitempty,max=255,excludesall=\x00\n\r"`
	WantDigest  string `validate:"omitempty,max=255,excludesall=\x00\n\r"`
}

// validateHeaders rejects a handful of header values that would
// otherwise propagate as-is into a child identifier or response
// header.
func validateHeaders(req *Request) error {
	fields := headerFields{
		Slug:        req.Slug,
		LinkType:    req.LinkType,
		ContentType: req.ContentType,
		WantDigest:  req.WantDigest,
	}
	if err := headerValidator.Struct(fields); err != nil {
		return fmt.Errorf("invalid header value: %w", err)
	}
	return nil
}

// ldpNamespace is the prefix tested against Link rel="type" values.
const ldpNamespace = "http://www.w3.org/ns/ldp#"

func parseLinkHeader(values []string) (linkType string, isACL bool) {
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			uri, rel, ok := parseLinkValue(part)
			if !ok {
				continue
			}
			switch rel {
			case "type":
				if strings.HasPrefix(uri, ldpNamespace) && uri != ldpNamespace+"Resource" {
					linkType = uri
				}
			case "acl":
				isACL = true
			}
		}
	}
	return linkType, isACL
}

// parseLinkValue extracts the URI and rel parameter from one
// comma-separated segment of an RFC 8288 Link header.
func parseLinkValue(segment string) (uri, rel string, ok bool) {
	segment = strings.TrimSpace(segment)
	start := strings.Index(segment, "<")
	end := strings.Index(segment, ">")
	if start == -1 || end == -1 || end < start {
		return "", "", false
	}
	uri = segment[start+1: end]

	for _, param := range strings.Split(segment[end+1:], ";") {
		param = strings.TrimSpace(param)
		if strings.HasPrefix(param, "rel=") {
			rel = strings.Trim(param[len("rel="):], `"`)
		}
	}
	return uri, rel, rel != ""
}

func splitETagList(header string) []string {
	if header == "" {
		return nil
	}
	if strings.TrimSpace(header) == "*" {
		return []string{"*"}
	}
	parts := strings.Split(header, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseRange parses a single-range "bytes=N-M" or "bytes=N-" header;
// multi-range or malformed headers give ok=false, and Parse then
// ignores the Range header (HasRange stays false).
func parseRange(header string) (RangeHeader, bool) {
	const prefix = "bytes="
	if !strings.HasPrefix(header, prefix) {
		return RangeHeader{}, false
	}
	spec := strings.TrimPrefix(header, prefix)
	if strings.Contains(spec, ",") {
		return RangeHeader{}, false
	}
	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return RangeHeader{}, false
	}
	from, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return RangeHeader{}, false
	}
	if parts[1] == "" {
		return RangeHeader{From: from, To: -1}, true
	}
	to, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return RangeHeader{}, false
	}
	return RangeHeader{From: from, To: to}, true
}
