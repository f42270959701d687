// Package rdfio is the I/O service (ports.IOService): it delegates
// every RDF parse/serialize concern to github.com/geoknoesis/rdf-go
// rather than hand-rolling Turtle/JSON-LD/RDF-XML codecs.
package rdfio

import (
	"context"
	"fmt"
	"io"

	grdf "github.com/geoknoesis/rdf-go"

	"github.com/trellis-ldp/trellis-core/application/ports"
	"github.com/trellis-ldp/trellis-core/domain/rdf"
)

// Service adapts geoknoesis/rdf-go's streaming decoders/encoders to
// the ports.IOService contract, converting between this module's term
// types and the library's on every call.
type Service struct{}

func New() *Service { return &Service{} }

func (s *Service) SupportedReadSyntaxes() []ports.RDFSyntax {
	return []ports.RDFSyntax{ports.SyntaxTurtle, ports.SyntaxNTriples, ports.SyntaxJSONLD, ports.SyntaxRDFXML}
}

func (s *Service) SupportedWriteSyntaxes() []ports.RDFSyntax {
	return s.SupportedReadSyntaxes()
}

var tripleFormats = map[ports.RDFSyntax]grdf.TripleFormat{
	ports.SyntaxTurtle:   grdf.TripleFormatTurtle,
	ports.SyntaxNTriples: grdf.TripleFormatNTriples,
	ports.SyntaxJSONLD:   grdf.TripleFormatJSONLD,
	ports.SyntaxRDFXML:   grdf.TripleFormatRDFXML,
}

// Parse decodes body in the given syntax into a fresh Dataset, placing
// every triple in PreferUserManaged — the caller (the PUT/POST/PATCH
// handlers) is responsible for moving quads to other graphs as needed.
func (s *Service) Parse(ctx context.Context, body io.Reader, syntax ports.RDFSyntax, baseURI rdf.IRI) (*rdf.Dataset, error) {
	format, ok := tripleFormats[syntax]
	if !ok {
		return nil, fmt.Errorf("rdfio: unsupported read syntax %q", syntax)
	}

	dec, err := grdf.NewTripleDecoder(body, format)
	if err != nil {
		return nil, fmt.Errorf("rdfio: opening decoder: %w", err)
	}
	defer dec.Close()

	ds := rdf.NewDataset()
	for {
		t, err := dec.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("rdfio: decoding triple: %w", err)
		}
		triple, err := fromLibraryTriple(t)
		if err != nil {
			return nil, err
		}
		ds.AddTriple(triple, rdf.PreferUserManaged)
	}
	return ds, nil
}

// Write serializes triples in the given syntax. profile selects the
// JSON-LD representation ("compacted" by default);
// other syntaxes ignore it.
func (s *Service) Write(ctx context.Context, w io.Writer, triples []rdf.Triple, syntax ports.RDFSyntax, profile string) error {
	format, ok := tripleFormats[syntax]
	if !ok {
		return fmt.Errorf("rdfio: unsupported write syntax %q", syntax)
	}

	var opts []grdf.EncoderOption
	if syntax == ports.SyntaxJSONLD {
		if profile == "" {
			profile = "compacted"
		}
		opts = append(opts, grdf.WithJSONLDProfile(profile))
	}

	enc, err := grdf.NewTripleEncoder(w, format, opts...)
	if err != nil {
		return fmt.Errorf("rdfio: opening encoder: %w", err)
	}
	defer enc.Close()

	for _, t := range triples {
		if err := enc.Encode(toLibraryTriple(t)); err != nil {
			return fmt.Errorf("rdfio: encoding triple: %w", err)
		}
	}
	return nil
}

func fromLibraryTriple(t grdf.Triple) (rdf.Triple, error) {
	subject, err := fromLibraryTerm(t.S)
	if err != nil {
		return rdf.Triple{}, err
	}
	object, err := fromLibraryTerm(t.O)
	if err != nil {
		return rdf.Triple{}, err
	}
	predicate, ok := t.P.(grdf.IRI)
	if !ok {
		return rdf.Triple{}, fmt.Errorf("rdfio: predicate %v is not an IRI", t.P)
	}
	return rdf.NewTriple(subject, rdf.IRI(predicate), object), nil
}

func fromLibraryTerm(term grdf.Term) (rdf.Term, error) {
	switch v := term.(type) {
	case grdf.IRI:
		return rdf.IRI(v), nil
	case grdf.BlankNode:
		return rdf.BlankNode{ID: v.ID}, nil
	case grdf.Literal:
		if v.Lang != "" {
			return rdf.NewLangLiteral(v.Lexical, v.Lang), nil
		}
		if v.Datatype != "" {
			return rdf.NewTypedLiteral(v.Lexical, rdf.IRI(v.Datatype)), nil
		}
		return rdf.NewLiteral(v.Lexical), nil
	default:
		return nil, fmt.Errorf("rdfio: unsupported term type %T", term)
	}
}

func toLibraryTriple(t rdf.Triple) grdf.Triple {
	return grdf.Triple{
		S: toLibraryTerm(t.Subject),
		P: grdf.IRI(t.Predicate),
		O: toLibraryTerm(t.Object),
	}
}

func toLibraryTerm(term rdf.Term) grdf.Term {
	switch v := term.(type) {
	case rdf.IRI:
		return grdf.IRI(v)
	case rdf.BlankNode:
		return grdf.BlankNode{ID: v.ID}
	case rdf.Literal:
		return grdf.Literal{Lexical: v.Lexical, Datatype: string(v.Datatype), Lang: v.Lang}
	default:
		return grdf.IRI("")
	}
}
