// Package memento builds the Memento (RFC 7089) surface the GET
// handler (including its ?ext=timemap and Accept-Datetime TimeGate
// branches) attaches to every versioned resource: Link headers for TimeGate/TimeMap/Memento
// relations, and the TimeMap response body in either RDF or
// application/link-format. No framework involved, just plain string
// building compatible with net/http's header list handling.
package memento

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/trellis-ldp/trellis-core/domain/rdf"
)

// LinkSet is the ordered list of memento instants known for an
// identifier, ascending.
type LinkSet struct {
	Resource rdf.IRI
	Instants []time.Time
	// OmitDates strips from/until/datetime parameters entirely.
	OmitDates bool
}

// TimeGateURL returns the `?version=` URL the TimeGate redirects to
// for the instant nearest at-or-before accept.
func (l LinkSet) TimeGateURL(accept time.Time) (rdf.IRI, bool) {
	var chosen *time.Time
	for i := range l.Instants {
		if !l.Instants[i].After(accept) {
			chosen = &l.Instants[i]
		}
	}
	if chosen == nil {
		return "", false
	}
	return versionURL(l.Resource, *chosen), true
}

// OriginalTimeGateLinks builds the `original timegate` and (when at
// least one memento exists) `timemap` Link header values attached to
// every non-memento, non-ACL GET/HEAD response.
func (l LinkSet) OriginalTimeGateLinks() []string {
	links := []string{
		fmt.Sprintf(`<%s>; rel="original timegate"`, l.Resource),
	}
	if len(l.Instants) > 0 {
		links = append(links, fmt.Sprintf(`<%s>; rel="timemap"`, l.TimeMapURL()))
	}
	return links
}

// TimeMapURL is the `?ext=timemap` URL for this resource.
func (l LinkSet) TimeMapURL() rdf.IRI {
	return l.Resource.WithQuery("ext=timemap")
}

// MementoDatetimeHeader formats an instant as RFC 1123 for the
// Memento-Datetime response header.
func MementoDatetimeHeader(instant time.Time) string {
	return instant.UTC().Format(time.RFC1123)
}

// TimeMapLinks builds every Link header the TimeMap body/headers need:
// original, self (the timemap rel), and one `memento` link per
// instant with first/last relations. prev/next only mean something
// relative to a specific memento, so the full TimeMap omits them;
// MementoLinks supplies them for an individual memento response.
func (l LinkSet) TimeMapLinks() []string {
	return l.linksRelativeTo(-1)
}

// MementoLinks builds the Link headers for a response serving the
// memento at current: the TimeMapLinks set plus prev/next relations
// on the mementos adjacent to current.
func (l LinkSet) MementoLinks(current time.Time) []string {
	sorted := l.sortedInstants()
	cur := -1
	for i, instant := range sorted {
		if instant.Unix() == current.Unix() {
			cur = i
			break
		}
	}
	return l.linksRelativeTo(cur)
}

// linksRelativeTo builds the full link set; a negative cur index
// omits the position-relative prev/next relations, used when building
// the TimeMap rather than a single memento response.
func (l LinkSet) linksRelativeTo(cur int) []string {
	if len(l.Instants) == 0 {
		return []string{fmt.Sprintf(`<%s>; rel="original timegate"`, l.Resource)}
	}

	sorted := l.sortedInstants()

	from := sorted[0].UTC().Truncate(time.Second)
	until := sorted[len(sorted)-1].UTC().Truncate(time.Second)

	links := []string{
		fmt.Sprintf(`<%s>; rel="original timegate"`, l.Resource),
	}
	timemapLink := fmt.Sprintf(`<%s>; rel="self"`, l.TimeMapURL())
	if !l.OmitDates {
		timemapLink = fmt.Sprintf(`<%s>; rel="self"; from="%s"; until="%s"`,
			l.TimeMapURL(), from.Format(time.RFC1123), until.Format(time.RFC1123))
	}
	links = append(links, timemapLink)

	for i, instant := range sorted {
		links = append(links, l.mementoLink(instant, i, len(sorted), cur))
	}
	return links
}

func (l LinkSet) sortedInstants() []time.Time {
	sorted := append([]time.Time(nil), l.Instants...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
	return sorted
}

func (l LinkSet) mementoLink(instant time.Time, index, total, cur int) string {
	url := versionURL(l.Resource, instant)
	rel := []string{"memento"}
	if index == 0 {
		rel = append(rel, "first")
	}
	if index == total-1 {
		rel = append(rel, "last")
	}
	if cur >= 0 {
		if index == cur-1 {
			rel = append(rel, "prev")
		}
		if index == cur+1 {
			rel = append(rel, "next")
		}
	}

	link := fmt.Sprintf(`<%s>; rel="%s"`, url, strings.Join(rel, " "))
	if !l.OmitDates {
		link = fmt.Sprintf(`<%s>; rel="%s"; datetime="%s"`, url, strings.Join(rel, " "), instant.UTC().Format(time.RFC1123))
	}
	return link
}

func versionURL(resourceID rdf.IRI, instant time.Time) rdf.IRI {
	return resourceID.WithQuery("version=" + strconv.FormatInt(instant.UTC().Unix(), 10))
}

// TimeMapTriples serializes the TimeMap as RDF using the Memento
// vocabulary, for clients whose Accept negotiates an RDF syntax.
// Non-RDF clients receive application/link-format instead
// (LinkFormatBody).
func (l LinkSet) TimeMapTriples() []rdf.Triple {
	const (
		mementoNS        = "http://mementoweb.org/ns#"
		typeOriginal     = rdf.IRI(mementoNS + "OriginalResource")
		typeTimeMap      = rdf.IRI(mementoNS + "TimeMap")
		typeTimeGate     = rdf.IRI(mementoNS + "TimeGate")
		predHasBeginning = rdf.IRI(mementoNS + "hasBeginning")
		predHasEnd       = rdf.IRI(mementoNS + "hasEnd")
		predDatetime     = rdf.IRI(mementoNS + "mementoDatetime")
		rdfType          = rdf.IRI("http://www.w3.org/1999/02/22-rdf-syntax-ns#type")
	)

	var triples []rdf.Triple
	timemap := l.TimeMapURL()
	triples = append(triples,
		rdf.NewTriple(l.Resource, rdfType, typeOriginal),
		rdf.NewTriple(l.Resource, rdfType, typeTimeGate),
		rdf.NewTriple(timemap, rdfType, typeTimeMap),
	)

	if len(l.Instants) == 0 {
		return triples
	}
	sorted := l.sortedInstants()

	triples = append(triples,
		rdf.NewTriple(timemap, predHasBeginning, rdf.NewLiteral(sorted[0].UTC().Format(time.RFC3339))),
		rdf.NewTriple(timemap, predHasEnd, rdf.NewLiteral(sorted[len(sorted)-1].UTC().Format(time.RFC3339))),
	)
	for _, instant := range sorted {
		triples = append(triples, rdf.NewTriple(versionURL(l.Resource, instant), predDatetime,
			rdf.NewLiteral(instant.UTC().Format(time.RFC3339))))
	}
	return triples
}

// LinkFormatBody renders the TimeMap as application/link-format, the
// non-RDF fallback.
func (l LinkSet) LinkFormatBody() string {
	return strings.Join(l.TimeMapLinks(), ",\n") + "\n"
}
