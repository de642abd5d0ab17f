package as2

import (
	"encoding/json"
	"time"
)

// Activity is the encode side of the activity types we originate:
// Create, Update, Accept, Follow, Undo. Inbound activities decode
// through Object, whose actor/object members stay polymorphic.
type Activity struct {
	ID        string
	Type      string
	Actor     Poly
	Object    Poly
	Target    Poly
	Published *time.Time
	To        Poly
	Cc        Poly
}

func (a *Activity) MarshalJSON() ([]byte, error) {
	m := map[string]any{"type": a.Type}
	if a.ID != "" {
		m["id"] = a.ID
	}
	if a.Published != nil {
		m["published"] = a.Published.UTC().Format(time.RFC3339)
	}
	addPoly(m, "actor", a.Actor)
	addPoly(m, "object", a.Object)
	addPoly(m, "target", a.Target)
	addPolyList(m, "to", a.To)
	addPolyList(m, "cc", a.Cc)
	return json.Marshal(m)
}

// AsObject reshapes the activity for embedding inside a collection
// page, where items travel as polymorphic nodes.
func (a *Activity) AsObject() *Object {
	return &Object{
		ID:        a.ID,
		Type:      a.Type,
		Actor:     a.Actor,
		Object:    a.Object,
		Target:    a.Target,
		Published: a.Published,
		To:        a.To,
		Cc:        a.Cc,
	}
}

// NewAccept wraps a received activity in an Accept addressed to its
// sender.
func NewAccept(id, actorURI string, received *Object) *Activity {
	now := time.Now().UTC()
	accept := &Activity{
		ID:        id,
		Type:      TypeAccept,
		Actor:     FromHref(actorURI),
		Published: &now,
	}
	if received != nil {
		accept.Object = FromObject(received)
		if to := received.Actor.FirstHref(); to != "" {
			accept.To = FromHref(to)
		}
	}
	return accept
}

// NewFollow builds an outgoing Follow of the target actor.
func NewFollow(id, actorURI, targetActorURI string) *Activity {
	now := time.Now().UTC()
	return &Activity{
		ID:        id,
		Type:      TypeFollow,
		Actor:     FromHref(actorURI),
		Object:    FromHref(targetActorURI),
		To:        FromHref(targetActorURI),
		Published: &now,
	}
}

// NewUndoFollow revokes a previously sent Follow by its activity id.
func NewUndoFollow(id, actorURI, followID, targetActorURI string) *Activity {
	now := time.Now().UTC()
	inner := &Object{
		ID:     followID,
		Type:   TypeFollow,
		Actor:  FromHref(actorURI),
		Object: FromHref(targetActorURI),
	}
	return &Activity{
		ID:        id,
		Type:      TypeUndo,
		Actor:     FromHref(actorURI),
		Object:    FromObject(inner),
		To:        FromHref(targetActorURI),
		Published: &now,
	}
}

// NewCreate wraps an object in the Create that announced it. The
// activity id is the object id with the conventional suffix, so the
// pair stays dereferenceable together.
func NewCreate(actorURI string, obj *Object) *Activity {
	c := &Activity{
		ID:        obj.ID + "/activity",
		Type:      TypeCreate,
		Actor:     FromHref(actorURI),
		Object:    FromObject(obj),
		Published: obj.Published,
		To:        obj.To,
		Cc:        obj.Cc,
	}
	return c
}

// NewUpdate wraps an edited object the same way.
func NewUpdate(actorURI string, obj *Object) *Activity {
	now := time.Now().UTC()
	return &Activity{
		ID:        obj.ID + "#updates/" + now.UTC().Format("20060102150405"),
		Type:      TypeUpdate,
		Actor:     FromHref(actorURI),
		Object:    FromObject(obj),
		Published: &now,
		To:        obj.To,
		Cc:        obj.Cc,
	}
}
