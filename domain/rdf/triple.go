package rdf

// Triple is (subject, predicate, object). Subject is an IRI or a
// BlankNode, predicate is always an IRI, object is any Term.
type Triple struct {
	Subject   Term
	Predicate IRI
	Object    Term
}

// NewTriple constructs a Triple, panicking if subject isn't a legal
// subject term — callers at the parsing boundary are expected to have
// already validated term kinds.
func NewTriple(subject Term, predicate IRI, object Term) Triple {
	switch subject.(type) {
	case IRI, BlankNode:
	default:
		panic("rdf: triple subject must be an IRI or blank node")
	}
	return Triple{Subject: subject, Predicate: predicate, Object: object}
}

func (t Triple) String() string {
	return t.Subject.String() + " " + string(t.Predicate) + " " + t.Object.String() + " ."
}

// Equal compares two triples by term equality.
func (t Triple) Equal(other Triple) bool {
	return t.Subject == other.Subject && t.Predicate == other.Predicate && t.Object == other.Object
}
