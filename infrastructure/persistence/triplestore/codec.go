package triplestore

import (
	"bytes"
	"fmt"
	"io"

	grdf "github.com/geoknoesis/rdf-go"

	"github.com/trellis-ldp/trellis-core/domain/rdf"
)

// encodeDataset serializes a full Dataset (every named graph) as
// N-Quads, the durable format for the file and remote Connection
// backends. Unlike infrastructure/rdfio, which only ever speaks one
// graph at a time for HTTP bodies, the store needs a whole-dataset
// wire format, so it talks to geoknoesis/rdf-go's quad codec directly.
func encodeDataset(ds *rdf.Dataset) ([]byte, error) {
	var buf bytes.Buffer
	enc, err := grdf.NewQuadEncoder(&buf, grdf.QuadFormatNQuads)
	if err != nil {
		return nil, fmt.Errorf("triplestore: opening quad encoder: %w", err)
	}
	for _, q := range ds.Quads() {
		if err := enc.Encode(toLibraryQuad(q)); err != nil {
			enc.Close()
			return nil, fmt.Errorf("triplestore: encoding quad: %w", err)
		}
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeDataset is encodeDataset's inverse.
func decodeDataset(data []byte) (*rdf.Dataset, error) {
	ds := rdf.NewDataset()
	if len(data) == 0 {
		return ds, nil
	}

	dec, err := grdf.NewQuadDecoder(bytes.NewReader(data), grdf.QuadFormatNQuads)
	if err != nil {
		return nil, fmt.Errorf("triplestore: opening quad decoder: %w", err)
	}
	defer dec.Close()

	for {
		q, err := dec.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("triplestore: decoding quad: %w", err)
		}
		quad, err := fromLibraryQuad(q)
		if err != nil {
			return nil, err
		}
		ds.Add(quad)
	}
	return ds, nil
}

func toLibraryQuad(q rdf.Quad) grdf.Quad {
	return grdf.Quad{
		S: toTerm(q.Subject),
		P: grdf.IRI(q.Predicate),
		O: toTerm(q.Object),
		G: grdf.IRI(q.Graph),
	}
}

func fromLibraryQuad(q grdf.Quad) (rdf.Quad, error) {
	subject, err := fromTerm(q.S)
	if err != nil {
		return rdf.Quad{}, err
	}
	object, err := fromTerm(q.O)
	if err != nil {
		return rdf.Quad{}, err
	}
	predicate, ok := q.P.(grdf.IRI)
	if !ok {
		return rdf.Quad{}, fmt.Errorf("triplestore: predicate %v is not an IRI", q.P)
	}
	graph, _ := q.G.(grdf.IRI)
	return rdf.NewQuad(rdf.NewTriple(subject, rdf.IRI(predicate), object), rdf.GraphName(graph)), nil
}

func toTerm(t rdf.Term) grdf.Term {
	switch v := t.(type) {
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

func fromTerm(t grdf.Term) (rdf.Term, error) {
	switch v := t.(type) {
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
		return nil, fmt.Errorf("triplestore: unsupported term type %T", t)
	}
}
