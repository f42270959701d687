package httpreq

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/trellis-ldp/trellis-core/domain/rdf"
)

// ETag is a computed entity tag, weak or strong.
type ETag struct {
	Value string
	Weak  bool
}

// String renders the ETag's wire form, e.g. `W/"abcdef"` or `"abcdef"`.
func (e ETag) String() string {
	if e.Weak {
		return fmt.Sprintf(`W/%q`, e.Value)
	}
	return fmt.Sprintf(`%q`, e.Value)
}

// binarySuffix is appended to the identifier when hashing a binary's
// ETag, and Prefer is omitted from the hash entirely.
const binarySuffix = "BINARY"

// ComputeETag computes the entity tag: a hex MD5 of
// modified.epochMilli, modified.nanos, prefer.include.hash,
// prefer.omit.hash, and identifier. alwaysWeak forces a weak ETag even
// for binaries, per the configurable always-weak policy.
func ComputeETag(identifier rdf.IRI, modified time.Time, prefer Prefer, isBinary, alwaysWeak bool) ETag {
	id := string(identifier)
	includeHash := prefer.includeHash()
	omitHash := prefer.omitHash()
	if isBinary {
		id += binarySuffix
		includeHash = ""
		omitHash = ""
	}

	material := fmt.Sprintf("%d.%d.%s.%s.%s",
		modified.UnixMilli(), modified.Nanosecond(), includeHash, omitHash, id)
	sum := md5.Sum([]byte(material))

	return ETag{
		Value: hex.EncodeToString(sum[:]),
		Weak:  alwaysWeak || !isBinary,
	}
}
