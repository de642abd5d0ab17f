package activitypub

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/avercourt/windlass/as2"
)

// fetchRemoteActor dereferences an actor document over HTTP. Results
// land in the engine's actor cache.
func (e *Engine) fetchRemoteActor(actorURI string) (*cachedActor, error) {
	req, err := http.NewRequest("GET", actorURI, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", as2.ContentType)
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("actor fetch failed with status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var actor as2.RemoteActor
	if err := json.Unmarshal(body, &actor); err != nil {
		return nil, fmt.Errorf("failed to parse actor JSON: %w", err)
	}

	if actor.ID == "" || actor.Inbox == "" {
		return nil, fmt.Errorf("actor document missing required fields")
	}

	cached := &cachedActor{
		ID:           actor.ID,
		Inbox:        actor.Inbox,
		SharedInbox:  actor.SharedInbox,
		DisplayName:  actor.PreferredUsername,
		PublicKeyPEM: actor.PublicKeyPEM,
	}
	e.actors.put(actorURI, cached)

	return cached, nil
}

// getOrFetchActor returns the cached document or fetches a fresh one.
func (e *Engine) getOrFetchActor(actorURI string) (*cachedActor, error) {
	if cached := e.actors.get(actorURI); cached != nil {
		return cached, nil
	}
	return e.fetchRemoteActor(actorURI)
}

// ResolveInbox maps an actor URI to its personal inbox URL.
func (e *Engine) ResolveInbox(actorURI string) (string, error) {
	actor, err := e.getOrFetchActor(actorURI)
	if err != nil {
		return "", err
	}
	return actor.Inbox, nil
}

// ResolveSharedInbox prefers the instance-wide shared inbox when the
// actor advertises one, so a fan-out reaches every follower on a
// domain with a single POST.
func (e *Engine) ResolveSharedInbox(actorURI string) (string, error) {
	actor, err := e.getOrFetchActor(actorURI)
	if err != nil {
		return "", err
	}
	if actor.SharedInbox != "" {
		return actor.SharedInbox, nil
	}
	return actor.Inbox, nil
}

// PublicKeyForKeyID recovers the signing key advertised under keyId by
// dereferencing its actor document. The fragment selects the key; the
// base URI identifies the actor and is the cache key.
func (e *Engine) PublicKeyForKeyID(keyId string) (string, error) {
	actorURI := strings.Split(keyId, "#")[0]
	actor, err := e.getOrFetchActor(actorURI)
	if err != nil {
		return "", err
	}
	if actor.PublicKeyPEM == "" {
		return "", fmt.Errorf("actor %s has no public key", actorURI)
	}
	return actor.PublicKeyPEM, nil
}

// extractDomain extracts the host from an actor or inbox URI.
func extractDomain(uri string) (string, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid URI: %w", err)
	}
	return strings.ToLower(parsed.Host), nil
}
