package as2

import (
	"encoding/json"
	"time"
)

// Link is a node carrying only a reference. A link holding nothing but
// an href is "bare" and encodes to a plain string.
type Link struct {
	Type      string
	Href      string
	Name      string
	MediaType string
	Rel       []string
	Width     uint
	Height    uint
}

func (l *Link) bare() bool {
	return l.Href != "" &&
		(l.Type == "" || l.Type == TypeLink) &&
		l.Name == "" && l.MediaType == "" &&
		len(l.Rel) == 0 && l.Width == 0 && l.Height == 0
}

func (l *Link) decode(raw map[string]json.RawMessage) {
	l.Type = typeOf(raw)
	l.Href = stringOf(raw, "href")
	l.Name = stringOf(raw, "name")
	l.MediaType = stringOf(raw, "mediaType")
	l.Rel = stringsOf(raw, "rel")
	l.Width = uintOf(raw, "width")
	l.Height = uintOf(raw, "height")
}

func (l *Link) encodeMap() map[string]any {
	m := map[string]any{"type": TypeLink}
	if l.Type != "" {
		m["type"] = l.Type
	}
	if l.Href != "" {
		m["href"] = l.Href
	}
	if l.Name != "" {
		m["name"] = l.Name
	}
	if l.MediaType != "" {
		m["mediaType"] = l.MediaType
	}
	if len(l.Rel) > 0 {
		m["rel"] = l.Rel
	}
	if l.Width > 0 {
		m["width"] = l.Width
	}
	if l.Height > 0 {
		m["height"] = l.Height
	}
	return m
}

// Object is a full AS2 node. It covers both plain objects (Note,
// Article) and activities, whose actor/object/target properties are
// polymorphic themselves.
type Object struct {
	ID        string
	Type      string
	Name      string
	Content   string
	Summary   string
	MediaType string
	Published *time.Time
	Updated   *time.Time

	AttributedTo Poly
	InReplyTo    Poly
	To           Poly
	Cc           Poly
	Audience     Poly
	URL          Poly
	Tag          Poly
	Attachment   Poly

	Actor  Poly
	Object Poly
	Target Poly
}

// UnmarshalJSON tolerates the union-typed shapes of real federation
// traffic. It only errors when the input is not a JSON object at all.
func (o *Object) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	o.decode(raw)
	return nil
}

func (o *Object) decode(raw map[string]json.RawMessage) {
	o.ID = stringOf(raw, "id", "@id")
	o.Type = typeOf(raw)
	o.Name = stringOf(raw, "name")
	o.Content = stringOf(raw, "content")
	o.Summary = stringOf(raw, "summary")
	o.MediaType = stringOf(raw, "mediaType")
	o.Published = timeOf(raw, "published")
	o.Updated = timeOf(raw, "updated")

	o.AttributedTo = decodeValue(raw["attributedTo"])
	o.InReplyTo = decodeValue(raw["inReplyTo"])
	o.To = decodeValue(raw["to"])
	o.Cc = decodeValue(raw["cc"])
	o.Audience = decodeValue(raw["audience"])
	o.URL = decodeValue(raw["url"])
	o.Tag = decodeValue(raw["tag"])
	o.Attachment = decodeValue(raw["attachment"])

	o.Actor = decodeValue(raw["actor"])
	o.Object = decodeValue(raw["object"])
	o.Target = decodeValue(raw["target"])
}

// MarshalJSON emits only the properties that are set, with polymorphic
// members encoded through their Poly rules.
func (o *Object) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.encodeMap())
}

func (o *Object) encodeMap() map[string]any {
	m := map[string]any{"type": TypeObject}
	if o.Type != "" {
		m["type"] = o.Type
	}
	if o.ID != "" {
		m["id"] = o.ID
	}
	if o.Name != "" {
		m["name"] = o.Name
	}
	if o.Content != "" {
		m["content"] = o.Content
	}
	if o.Summary != "" {
		m["summary"] = o.Summary
	}
	if o.MediaType != "" {
		m["mediaType"] = o.MediaType
	}
	if o.Published != nil {
		m["published"] = o.Published.UTC().Format(time.RFC3339)
	}
	if o.Updated != nil {
		m["updated"] = o.Updated.UTC().Format(time.RFC3339)
	}

	addPoly(m, "attributedTo", o.AttributedTo)
	addPoly(m, "inReplyTo", o.InReplyTo)
	addPolyList(m, "to", o.To)
	addPolyList(m, "cc", o.Cc)
	addPoly(m, "audience", o.Audience)
	addPoly(m, "url", o.URL)
	addPolyList(m, "tag", o.Tag)
	addPolyList(m, "attachment", o.Attachment)
	addPoly(m, "actor", o.Actor)
	addPoly(m, "object", o.Object)
	addPoly(m, "target", o.Target)
	return m
}

func (n Node) encode() (json.RawMessage, error) {
	switch {
	case n.Link != nil:
		if n.Link.bare() {
			return json.Marshal(n.Link.Href)
		}
		return json.Marshal(n.Link.encodeMap())
	case n.Object != nil:
		return json.Marshal(n.Object.encodeMap())
	default:
		return []byte("null"), nil
	}
}

func addPoly(m map[string]any, key string, p Poly) {
	if len(p) > 0 {
		m[key] = p
	}
}

// Audience-style properties always encode as arrays, which several
// mainstream servers require regardless of cardinality.
func addPolyList(m map[string]any, key string, p Poly) {
	if len(p) > 0 {
		m[key] = List(p)
	}
}

// List carries Poly semantics but always marshals as a JSON array.
type List Poly

func (l List) MarshalJSON() ([]byte, error) {
	parts := make([]json.RawMessage, 0, len(l))
	for _, n := range l {
		enc, err := n.encode()
		if err != nil {
			return nil, err
		}
		parts = append(parts, enc)
	}
	return json.Marshal(parts)
}

func (l *List) UnmarshalJSON(data []byte) error {
	var p Poly
	_ = p.UnmarshalJSON(data)
	*l = List(p)
	return nil
}

// typeOf resolves the node type through its historical aliases.
func typeOf(raw map[string]json.RawMessage) string {
	for _, key := range []string{"type", "@type", "objectType", "verb"} {
		v, ok := raw[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil && s != "" {
			return s
		}
		var list []string
		if err := json.Unmarshal(v, &list); err == nil && len(list) > 0 {
			return list[0]
		}
	}
	return ""
}

func stringOf(raw map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		if v, ok := raw[key]; ok {
			var s string
			if err := json.Unmarshal(v, &s); err == nil {
				return s
			}
		}
	}
	return ""
}

func stringsOf(raw map[string]json.RawMessage, key string) []string {
	v, ok := raw[key]
	if !ok {
		return nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return []string{s}
	}
	var list []string
	if err := json.Unmarshal(v, &list); err == nil {
		return list
	}
	return nil
}

func uintOf(raw map[string]json.RawMessage, key string) uint {
	v, ok := raw[key]
	if !ok {
		return 0
	}
	var n uint
	if err := json.Unmarshal(v, &n); err == nil {
		return n
	}
	return 0
}

func timeOf(raw map[string]json.RawMessage, key string) *time.Time {
	v, ok := raw[key]
	if !ok {
		return nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return nil
	}
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano, "2006-01-02T15:04:05Z0700"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
