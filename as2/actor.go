package as2

import (
	"encoding/json"
	"time"
)

// PublicKey is the security vocabulary's key attachment.
type PublicKey struct {
	ID           string `json:"id"`
	Owner        string `json:"owner"`
	PublicKeyPem string `json:"publicKeyPem"`
}

// Endpoints carries the shared inbox discovery map.
type Endpoints struct {
	SharedInbox string `json:"sharedInbox,omitempty"`
}

// Image references an avatar or banner.
type Image struct {
	Type      string `json:"type"`
	MediaType string `json:"mediaType,omitempty"`
	URL       string `json:"url"`
}

// Actor is the outbound document for the local Person and Application
// identities. Fields are fixed at startup, so a plain tagged struct
// beats the polymorphic machinery here.
type Actor struct {
	ID                        string     `json:"id"`
	Type                      string     `json:"type"`
	PreferredUsername         string     `json:"preferredUsername"`
	Name                      string     `json:"name,omitempty"`
	Summary                   string     `json:"summary,omitempty"`
	URL                       string     `json:"url,omitempty"`
	Inbox                     string     `json:"inbox"`
	Outbox                    string     `json:"outbox"`
	Followers                 string     `json:"followers,omitempty"`
	Following                 string     `json:"following,omitempty"`
	Published                 *time.Time `json:"published,omitempty"`
	Discoverable              bool       `json:"discoverable"`
	ManuallyApprovesFollowers bool       `json:"manuallyApprovesFollowers"`
	PublicKey                 *PublicKey `json:"publicKey,omitempty"`
	Endpoints                 *Endpoints `json:"endpoints,omitempty"`
	Icon                      *Image     `json:"icon,omitempty"`
	Image                     *Image     `json:"image,omitempty"`
}

// RemoteActor is the decode-side counterpart: the handful of fields we
// need from a dereferenced remote actor document, read tolerantly.
type RemoteActor struct {
	ID                string
	Type              string
	PreferredUsername string
	Inbox             string
	SharedInbox       string
	PublicKeyID       string
	PublicKeyPEM      string
}

func (a *RemoteActor) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	a.ID = stringOf(raw, "id", "@id")
	a.Type = typeOf(raw)
	a.PreferredUsername = stringOf(raw, "preferredUsername")
	a.Inbox = stringOf(raw, "inbox")

	if v, ok := raw["endpoints"]; ok {
		var ep struct {
			SharedInbox string `json:"sharedInbox"`
		}
		if err := json.Unmarshal(v, &ep); err == nil {
			a.SharedInbox = ep.SharedInbox
		}
	}

	// publicKey may be a single object or an array of them.
	if v, ok := raw["publicKey"]; ok {
		var key PublicKey
		if err := json.Unmarshal(v, &key); err != nil {
			var keys []PublicKey
			if err := json.Unmarshal(v, &keys); err == nil && len(keys) > 0 {
				key = keys[0]
			}
		}
		a.PublicKeyID = key.ID
		a.PublicKeyPEM = key.PublicKeyPem
	}

	return nil
}
