package rdf

// Dataset is a mutable collection of quads partitioned by graph name.
// Handlers build one mutable dataset per request; resource-service
// `add` calls build a small, never-mutated one to append as audit
// quads.
type Dataset struct {
	graphs map[GraphName][]Quad
}

// NewDataset returns an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{graphs: make(map[GraphName][]Quad)}
}

// Add inserts a quad into its graph, ignoring exact duplicates.
func (d *Dataset) Add(q Quad) {
	existing := d.graphs[q.Graph]
	for _, e := range existing {
		if e == q {
			return
		}
	}
	d.graphs[q.Graph] = append(existing, q)
}

// AddTriple inserts a triple into the named graph.
func (d *Dataset) AddTriple(t Triple, graph GraphName) {
	d.Add(NewQuad(t, graph))
}

// AddAll inserts every quad of another dataset.
func (d *Dataset) AddAll(other *Dataset) {
	if other == nil {
		return
	}
	for _, q := range other.Quads() {
		d.Add(q)
	}
}

// Clear empties one graph entirely.
func (d *Dataset) Clear(graph GraphName) {
	delete(d.graphs, graph)
}

// Graph returns the triples in one named graph, in insertion order.
func (d *Dataset) Graph(graph GraphName) []Triple {
	quads := d.graphs[graph]
	out := make([]Triple, 0, len(quads))
	for _, q := range quads {
		out = append(out, q.Triple())
	}
	return out
}

// GraphNames lists every non-empty graph currently in the dataset.
func (d *Dataset) GraphNames() []GraphName {
	names := make([]GraphName, 0, len(d.graphs))
	for name := range d.graphs {
		names = append(names, name)
	}
	return names
}

// Quads returns every quad in the dataset, across all graphs.
func (d *Dataset) Quads() []Quad {
	total := 0
	for _, qs := range d.graphs {
		total += len(qs)
	}
	out := make([]Quad, 0, total)
	for _, qs := range d.graphs {
		out = append(out, qs...)
	}
	return out
}

// Stream yields triples from the selected graphs only, in the order
// the graph names were given. Used by the GET handler's Prefer filter
//: callers pass the resolved include set.
func (d *Dataset) Stream(graphNames...GraphName) []Triple {
	var out []Triple
	for _, name := range graphNames {
		out = append(out, d.Graph(name)...)
	}
	return out
}

// IsEmpty reports whether the dataset has no quads in any graph.
func (d *Dataset) IsEmpty() bool {
	for _, qs := range d.graphs {
		if len(qs) > 0 {
			return false
		}
	}
	return true
}
