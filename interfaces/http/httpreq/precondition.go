package httpreq

import (
	"time"

	apperrors "github.com/trellis-ldp/trellis-core/pkg/errors"
)

// EvaluatePreconditions checks the conditional headers against the
// resource's current ETag and modification time, in order: If-Match,
// If-Unmodified-Since, If-None-Match, If-Modified-Since. GET and HEAD
// treat a matched If-None-Match as NOT_MODIFIED; every other method
// treats it (and a failed If-Match or If-Unmodified-Since) as
// PRECONDITION_FAILED.
func (r *Request) EvaluatePreconditions(etag ETag, modified time.Time) error {
	safe := r.Method == "GET" || r.Method == "HEAD"

	if len(r.IfMatch) > 0 && !matchesAny(r.IfMatch, etag) {
		return apperrors.NewPreconditionFailed("If-Match did not match current ETag")
	}

	if r.HasIfUnmodifiedSince && modified.Truncate(time.Second).After(r.IfUnmodifiedSince) {
		return apperrors.NewPreconditionFailed("resource modified since If-Unmodified-Since")
	}

	if len(r.IfNoneMatch) > 0 && matchesAny(r.IfNoneMatch, etag) {
		if safe {
			return apperrors.NewNotModified()
		}
		return apperrors.NewPreconditionFailed("If-None-Match matched current ETag")
	}

	if safe && r.HasIfModifiedSince && !modified.Truncate(time.Second).After(r.IfModifiedSince) {
		return apperrors.NewNotModified()
	}

	return nil
}

// matchesAny compares a list of entity tags (possibly weak-prefixed,
// or the wildcard "*") against a current ETag, ignoring weakness per
// RFC 7232 §2.3's weak-comparison rule — this server always uses weak
// comparison, since strong-only comparisons have no use case here.
func matchesAny(candidates []string, current ETag) bool {
	for _, c := range candidates {
		if c == "*" {
			return true
		}
		if stripWeak(c) == current.Value {
			return true
		}
	}
	return false
}

func stripWeak(tag string) string {
	if len(tag) >= 2 && tag[0] == 'W' && tag[1] == '/' {
		tag = tag[2:]
	}
	if len(tag) >= 2 && tag[0] == '"' && tag[len(tag)-1] == '"' {
		tag = tag[1: len(tag)-1]
	}
	return tag
}

// RequirePreconditionsIfStrict enforces the optional strict mode:
// when enabled, every unsafe method must carry at least one of
// If-Match or If-Unmodified-Since.
func (r *Request) RequirePreconditionsIfStrict(strict bool) error {
	if !strict {
		return nil
	}
	safe := r.Method == "GET" || r.Method == "HEAD" || r.Method == "OPTIONS"
	if safe {
		return nil
	}
	if len(r.IfMatch) == 0 && !r.HasIfUnmodifiedSince {
		return apperrors.NewPreconditionRequired("If-Match or If-Unmodified-Since required")
	}
	return nil
}
