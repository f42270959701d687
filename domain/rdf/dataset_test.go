package rdf_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trellis-ldp/trellis-core/domain/rdf"
)

func TestDatasetAddIsIdempotent(t *testing.T) {
	ds := rdf.NewDataset()
	triple := rdf.NewTriple(rdf.IRI("http://ex/s"), rdf.IRI("http://ex/p"), rdf.NewLiteral("o"))

	ds.AddTriple(triple, rdf.PreferUserManaged)
	ds.AddTriple(triple, rdf.PreferUserManaged)

	assert.Len(t, ds.Graph(rdf.PreferUserManaged), 1)
}

func TestDatasetStreamSelectsOnlyRequestedGraphs(t *testing.T) {
	ds := rdf.NewDataset()
	user := rdf.NewTriple(rdf.IRI("http://ex/s"), rdf.IRI("http://ex/p"), rdf.NewLiteral("user"))
	server := rdf.NewTriple(rdf.IRI("http://ex/s"), rdf.IRI("http://ex/p"), rdf.NewLiteral("server"))
	ds.AddTriple(user, rdf.PreferUserManaged)
	ds.AddTriple(server, rdf.PreferServerManaged)

	got := ds.Stream(rdf.PreferUserManaged)

	assert.Equal(t, []rdf.Triple{user}, got)
}

func TestDatasetClearEmptiesOneGraphOnly(t *testing.T) {
	ds := rdf.NewDataset()
	ds.AddTriple(rdf.NewTriple(rdf.IRI("s"), rdf.IRI("p"), rdf.NewLiteral("a")), rdf.PreferUserManaged)
	ds.AddTriple(rdf.NewTriple(rdf.IRI("s"), rdf.IRI("p"), rdf.NewLiteral("b")), rdf.PreferAudit)

	ds.Clear(rdf.PreferUserManaged)

	assert.Empty(t, ds.Graph(rdf.PreferUserManaged))
	assert.Len(t, ds.Graph(rdf.PreferAudit), 1)
}

func TestDatasetAddAllMerges(t *testing.T) {
	a := rdf.NewDataset()
	b := rdf.NewDataset()
	a.AddTriple(rdf.NewTriple(rdf.IRI("s"), rdf.IRI("p"), rdf.NewLiteral("a")), rdf.PreferUserManaged)
	b.AddTriple(rdf.NewTriple(rdf.IRI("s"), rdf.IRI("p"), rdf.NewLiteral("b")), rdf.PreferAudit)

	a.AddAll(b)

	assert.Len(t, a.Quads(), 2)
}
