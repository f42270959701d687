// Package activity models the Activity Streams-shaped notifications
// the engine emits on every non-ACL mutation.
package activity

import (
	"time"

	"github.com/trellis-ldp/trellis-core/domain/rdf"
)

// Type is the activity verb, following the AS2 vocabulary.
type Type string

const (
	Create Type = "Create"
	Update Type = "Update"
	Delete Type = "Delete"
)

// Activity is one notification: an agent did `Type` to `Target`, which
// is of kind `ResourceType`. Target is always the external (public) URL
// of the affected resource; containers carry a trailing slash.
type Activity struct {
	Agent        rdf.IRI
	Target       rdf.IRI
	ActivityType Type
	ResourceType rdf.IRI
	Occurred     time.Time
}

// New builds an Activity stamped with the given time; it never reads
// the clock itself. A mutation's base activity is stamped with the
// resource's modified time; the cascade activities built by
// application/eventing are stamped with the time of the cascade.
func New(agent, target rdf.IRI, activityType Type, resourceType rdf.IRI, occurred time.Time) Activity {
	return Activity{
		Agent:        agent,
		Target:       target,
		ActivityType: activityType,
		ResourceType: resourceType,
		Occurred:     occurred,
	}
}
