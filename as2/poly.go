package as2

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Node is one member of a polymorphic value: either a Link or a full
// Object, never both.
type Node struct {
	Link   *Link
	Object *Object
}

// Poly is an ordered collection of nodes standing in for any AS2
// property that may hold a bare IRI, an inline object, or an array
// mixing the two. Decoding accepts all three shapes; encoding picks
// the tightest one (see MarshalJSON).
type Poly []Node

// FromHref builds a single-link value.
func FromHref(href string) Poly {
	return Poly{{Link: &Link{Href: href}}}
}

// FromObject builds a single-object value.
func FromObject(o *Object) Poly {
	return Poly{{Object: o}}
}

// FromList builds a multi-node value preserving argument order.
func FromList(nodes ...Node) Poly {
	return Poly(nodes)
}

// LinkNode wraps an href for use with FromList.
func LinkNode(href string) Node {
	return Node{Link: &Link{Href: href}}
}

// ObjectNode wraps an object for use with FromList.
func ObjectNode(o *Object) Node {
	return Node{Object: o}
}

// IsEmpty reports whether the value holds no nodes.
func (p Poly) IsEmpty() bool {
	return len(p) == 0
}

// FirstHref returns the identifying IRI of the first node: a link's
// href, or an object's id. Empty when the value is empty.
func (p Poly) FirstHref() string {
	if len(p) == 0 {
		return ""
	}
	if p[0].Link != nil {
		return p[0].Link.Href
	}
	if p[0].Object != nil {
		return p[0].Object.ID
	}
	return ""
}

// FirstObject returns the first full object node, or nil.
func (p Poly) FirstObject() *Object {
	for _, n := range p {
		if n.Object != nil {
			return n.Object
		}
	}
	return nil
}

// Hrefs flattens the value to identifying IRIs, skipping nodes that
// have none.
func (p Poly) Hrefs() []string {
	out := make([]string, 0, len(p))
	for _, n := range p {
		if n.Link != nil && n.Link.Href != "" {
			out = append(out, n.Link.Href)
		} else if n.Object != nil && n.Object.ID != "" {
			out = append(out, n.Object.ID)
		}
	}
	return out
}

// ContainsIRI reports whether any node identifies the given IRI.
// Hosts and paths on the fediverse differ in case across servers, so
// the comparison is case-insensitive.
func (p Poly) ContainsIRI(iri string) bool {
	for _, h := range p.Hrefs() {
		if strings.EqualFold(h, iri) {
			return true
		}
	}
	return false
}

// MarshalJSON implements the canonical encode rules: one link-only
// node collapses to its href string, one full object is inlined, and
// anything else becomes an array in which link-only nodes still
// degrade to bare strings.
func (p Poly) MarshalJSON() ([]byte, error) {
	switch len(p) {
	case 0:
		return []byte("null"), nil
	case 1:
		return p[0].encode()
	default:
		parts := make([]json.RawMessage, 0, len(p))
		for _, n := range p {
			enc, err := n.encode()
			if err != nil {
				return nil, err
			}
			parts = append(parts, enc)
		}
		return json.Marshal(parts)
	}
}

// UnmarshalJSON accepts a string, an object, an array, or null, and
// never fails on malformed members: they are dropped so a hostile
// payload degrades to an empty value instead of an error.
func (p *Poly) UnmarshalJSON(data []byte) error {
	*p = decodeValue(data)
	return nil
}

func decodeValue(data []byte) Poly {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '"', '{':
		if n := decodeNode(data); n != nil {
			return Poly{*n}
		}
		return nil
	case '[':
		var members []json.RawMessage
		if err := json.Unmarshal(data, &members); err != nil {
			return nil
		}
		out := make(Poly, 0, len(members))
		for _, m := range members {
			if n := decodeNode(bytes.TrimSpace(m)); n != nil {
				out = append(out, *n)
			}
		}
		return out
	default:
		return nil
	}
}

func decodeNode(data []byte) *Node {
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		return &Node{Link: &Link{Href: s}}
	case '{':
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil
		}
		// Links are discriminated by an href property, which also
		// catches Mention tags and other Link subtypes.
		if _, ok := raw["href"]; ok || typeOf(raw) == TypeLink {
			l := &Link{}
			l.decode(raw)
			return &Node{Link: l}
		}
		o := &Object{}
		o.decode(raw)
		return &Node{Object: o}
	default:
		return nil
	}
}
