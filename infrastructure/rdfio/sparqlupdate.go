package rdfio

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/trellis-ldp/trellis-core/application/ports"
	"github.com/trellis-ldp/trellis-core/domain/rdf"
)

// RunUpdate applies a SPARQL 1.1 Update string to current's triples.
// Only DELETE DATA / INSERT DATA / a single unconditional
// DELETE {...} INSERT {...} WHERE {} block are supported: a full
// algebra/WHERE-clause evaluator is out of scope for a
// request-processing engine whose persistence layer already treats
// "run-update" as an abstract operation rather than literal SPARQL
// text. Triple content inside each block is parsed as N-Triples,
// which is a legal (if verbose) way to write every block's "simple
// triple pattern with no variables" case.
func (s *Service) RunUpdate(ctx context.Context, current []rdf.Triple, update string) ([]rdf.Triple, error) {
	result := append([]rdf.Triple(nil), current...)

	deletes, inserts, err := splitUpdateBlocks(update)
	if err != nil {
		return nil, err
	}

	for _, block := range deletes {
		triples, err := parseBlockTriples(block)
		if err != nil {
			return nil, fmt.Errorf("rdfio: parsing DELETE block: %w", err)
		}
		result = subtractTriples(result, triples)
	}
	for _, block := range inserts {
		triples, err := parseBlockTriples(block)
		if err != nil {
			return nil, fmt.Errorf("rdfio: parsing INSERT block: %w", err)
		}
		result = appendDistinct(result, triples)
	}

	return result, nil
}

var (
	deleteDataRe = regexp.MustCompile(`(?is)DELETE\s+DATA\s*\{(.*?)\}\s*;?`)
	insertDataRe = regexp.MustCompile(`(?is)INSERT\s+DATA\s*\{(.*?)\}\s*;?`)
	deleteRe     = regexp.MustCompile(`(?is)\bDELETE\s*\{(.*?)\}`)
	insertRe     = regexp.MustCompile(`(?is)\bINSERT\s*\{(.*?)\}`)
)

// splitUpdateBlocks extracts every DELETE and INSERT block's raw
// content, treating DELETE DATA/INSERT DATA and a bare DELETE{}/
// INSERT{} (ignoring any WHERE{} clause) identically.
func splitUpdateBlocks(update string) (deletes, inserts []string, err error) {
	for _, m := range deleteDataRe.FindAllStringSubmatch(update, -1) {
		deletes = append(deletes, m[1])
	}
	for _, m := range insertDataRe.FindAllStringSubmatch(update, -1) {
		inserts = append(inserts, m[1])
	}
	if len(deletes) == 0 {
		for _, m := range deleteRe.FindAllStringSubmatch(update, -1) {
			deletes = append(deletes, m[1])
		}
	}
	if len(inserts) == 0 {
		for _, m := range insertRe.FindAllStringSubmatch(update, -1) {
			inserts = append(inserts, m[1])
		}
	}
	return deletes, inserts, nil
}

// parseBlockTriples parses one update block's body as N-Triples:
// SPARQL's ground triple-pattern syntax (dot-terminated statements,
// angle-bracketed IRIs) is N-Triples-compatible for the
// variable-free blocks this subset supports.
func parseBlockTriples(block string) ([]rdf.Triple, error) {
	block = strings.TrimSpace(block)
	if block == "" {
		return nil, nil
	}
	svc := New()
	ds, err := svc.Parse(context.Background(), strings.NewReader(block), ports.SyntaxNTriples, "")
	if err != nil {
		return nil, err
	}
	return ds.Graph(rdf.PreferUserManaged), nil
}

func subtractTriples(from, remove []rdf.Triple) []rdf.Triple {
	out := make([]rdf.Triple, 0, len(from))
	for _, t := range from {
		if !containsTriple(remove, t) {
			out = append(out, t)
		}
	}
	return out
}

func appendDistinct(base, add []rdf.Triple) []rdf.Triple {
	out := append([]rdf.Triple(nil), base...)
	for _, t := range add {
		if !containsTriple(out, t) {
			out = append(out, t)
		}
	}
	return out
}

func containsTriple(list []rdf.Triple, t rdf.Triple) bool {
	for _, c := range list {
		if c.Equal(t) {
			return true
		}
	}
	return false
}
