// Package binary is the reference BinaryService (ports.BinaryService):
// durable byte storage for NonRDFSource payloads belongs to whatever
// store a deployment wires in, so this implementation is deliberately
// the simplest thing that satisfies the contract: a filesystem
// directory keyed by identifier.
package binary

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"hash"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/trellis-ldp/trellis-core/domain/rdf"
	"github.com/trellis-ldp/trellis-core/domain/resource"
	apperrors "github.com/trellis-ldp/trellis-core/pkg/errors"
)

// Service is a filesystem-backed BinaryService, one file per binary
// identifier under root.
type Service struct {
	root string
}

// New creates a Service storing binary content under root (created if
// absent).
func New(root string) (*Service, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("binary: creating root %q: %w", root, err)
	}
	return &Service{root: root}, nil
}

// SupportedAlgorithms lists the digest algorithms this service can
// compute for Want-Digest.
func (s *Service) SupportedAlgorithms() []string {
	return []string{"MD5", "SHA", "SHA-256"}
}

func (s *Service) pathFor(id rdf.IRI) string {
	return filepath.Join(s.root, url.QueryEscape(string(id)))
}

// GetContent opens id's stored bytes, honoring an optional byte range
// (from >= 0; to == -1 means "to end", matching httpreq.RangeHeader).
func (s *Service) GetContent(ctx context.Context, id rdf.IRI, from, to int64) (io.ReadCloser, error) {
	f, err := os.Open(s.pathFor(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFound("binary content not found")
		}
		return nil, apperrors.NewInternal("opening binary content", err)
	}
	if from <= 0 && to < 0 {
		return f, nil
	}
	if _, err := f.Seek(from, io.SeekStart); err != nil {
		f.Close()
		return nil, apperrors.NewInternal("seeking binary content", err)
	}
	if to < 0 {
		return f, nil
	}
	return &limitedReadCloser{r: io.LimitReader(f, to-from+1), c: f}, nil
}

type limitedReadCloser struct {
	r io.Reader
	c io.Closer
}

func (l *limitedReadCloser) Read(p []byte) (int, error) { return l.r.Read(p) }
func (l *limitedReadCloser) Close() error                { return l.c.Close() }

// SetContent writes body to id's backing file. Callers are expected to
// have already allocated metadata.Identifier.
func (s *Service) SetContent(ctx context.Context, metadata resource.BinaryMetadata, body io.Reader) error {
	f, err := os.Create(s.pathFor(metadata.Identifier))
	if err != nil {
		return apperrors.NewInternal("creating binary content", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, body); err != nil {
		return apperrors.NewInternal("writing binary content", err)
	}
	return nil
}

// ComputeDigest hashes content with the first of candidateAlgorithms
// (an ordered Want-Digest list) that this service supports, returning
// the algorithm name and its base64-encoded digest.
func ComputeDigest(content io.Reader, candidateAlgorithms []string) (algo string, digest string, ok bool, err error) {
	for _, candidate := range candidateAlgorithms {
		h, name := hasherFor(candidate)
		if h == nil {
			continue
		}
		if _, err := io.Copy(h, content); err != nil {
			return "", "", false, err
		}
		return name, base64.StdEncoding.EncodeToString(h.Sum(nil)), true, nil
	}
	return "", "", false, nil
}

func hasherFor(algorithm string) (hash.Hash, string) {
	switch strings.ToUpper(strings.TrimSpace(algorithm)) {
	case "MD5":
		return md5.New(), "md5"
	case "SHA", "SHA-1":
		return sha1.New(), "sha"
	case "SHA-256":
		return sha256.New(), "sha-256"
	default:
		return nil, ""
	}
}

// VerifyDigest validates an inbound Digest header against content
// already read into memory; POST/PUT handlers buffer the body before
// this check runs.
func VerifyDigest(content []byte, digestHeader string) error {
	if digestHeader == "" {
		return nil
	}
	parts := strings.SplitN(digestHeader, "=", 2)
	if len(parts) != 2 {
		return apperrors.NewValidation("malformed Digest header")
	}
	algo := parts[0]
	expected := parts[1]

	h, _ := hasherFor(algo)
	if h == nil {
		return apperrors.NewValidation("unsupported digest algorithm: " + algo)
	}
	h.Write(content)
	actual := base64.StdEncoding.EncodeToString(h.Sum(nil))
	if actual != expected {
		return apperrors.NewValidation("digest mismatch")
	}
	return nil
}
