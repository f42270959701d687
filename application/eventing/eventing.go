// Package eventing builds activity notifications from a mutation and
// its cascade effects and delivers them to a ports.EventSink: a plain
// value built from request context, handed to a dispatcher that never
// fails the calling operation.
package eventing

import (
	"context"
	"time"

	"github.com/trellis-ldp/trellis-core/application/ports"
	"github.com/trellis-ldp/trellis-core/domain/activity"
	"github.com/trellis-ldp/trellis-core/domain/rdf"
	"github.com/trellis-ldp/trellis-core/domain/resource"
)

// Mutation describes one handler's primary write, enough for Emit to
// build the base activity and evaluate the cascade rules.
type Mutation struct {
	// ActivityType is Create, Update, or Delete.
	ActivityType activity.Type
	// Target is the internal identifier that was created/updated/deleted.
	Target rdf.IRI
	// ResourceType is the target's interaction model.
	ResourceType resource.InteractionModel
	// Agent is the security principal performing the mutation.
	Agent rdf.IRI
	// Occurred is the resource's new modified time.
	Occurred time.Time

	// Parent is the target's container, if any.
	Parent rdf.IRI
	// ParentInteractionModel is Parent's LDP type, used to decide
	// whether a membership-resource cascade also applies.
	ParentInteractionModel resource.InteractionModel
	// MembershipResource is Parent's configured membership resource, if
	// any and if it differs from Parent itself.
	MembershipResource rdf.IRI
	// IsACL marks an ext=acl mutation, excluded from event emission
	// entirely (no base activity, no cascade).
	IsACL bool
}

// Emitter constructs and delivers the activities for one mutation,
// including its parent/membership cascade, and touches the cascaded
// resources' modified time through touch.
type Emitter struct {
	sink  ports.EventSink
	touch func(ctx context.Context, id rdf.IRI) error
}

// NewEmitter builds an Emitter. touch is normally
// ResourceService.Touch; sink is normally the configured EventSink.
func NewEmitter(sink ports.EventSink, touch func(ctx context.Context, id rdf.IRI) error) *Emitter {
	return &Emitter{sink: sink, touch: touch}
}

// Emit builds the base activity for m and, per the cascade rules,
// additional activities for the parent container and
// membership resource — touching each cascaded resource first so its
// own modified time reflects the cascade before the event describing
// it is built. Delivery failures are logged and swallowed by the
// underlying EventSink; Emit itself never returns an
// error to its caller, matching "memento writes and event emissions
// have best-effort semantics".
func (e *Emitter) Emit(ctx context.Context, toExternal func(rdf.IRI) rdf.IRI, m Mutation) {
	if m.IsACL || e.sink == nil {
		return
	}

	activities := []activity.Activity{
		activity.New(m.Agent, toExternal(m.Target), m.ActivityType, rdf.IRI(m.ResourceType), m.Occurred),
	}

	switch m.ActivityType {
	case activity.Update:
		// "Update to a child under IndirectContainer: also emit Update
		// for the membership resource."
		if m.ParentInteractionModel == resource.IndirectCont && m.MembershipResource != "" {
			activities = append(activities, e.cascadeUpdate(ctx, toExternal, m.MembershipResource, m.Agent))
		}
	case activity.Create, activity.Delete:
		// "Create or Delete of a child under any Container: emit Update
		// for the parent; if parent's membershipResource differs from
		// parent, also emit Update for that resource after touch."
		if m.Parent != "" {
			activities = append(activities, e.cascadeUpdate(ctx, toExternal, m.Parent, m.Agent))
			if m.MembershipResource != "" && m.MembershipResource != m.Parent {
				activities = append(activities, e.cascadeUpdate(ctx, toExternal, m.MembershipResource, m.Agent))
			}
		}
	}

	_ = e.sink.Emit(ctx, activities...)
}

func (e *Emitter) cascadeUpdate(ctx context.Context, toExternal func(rdf.IRI) rdf.IRI, id, agent rdf.IRI) activity.Activity {
	now := time.Now().UTC()
	if e.touch != nil {
		_ = e.touch(ctx, id)
	}
	return activity.New(agent, toExternal(id), activity.Update, rdf.IRI(resource.Resource), now)
}
