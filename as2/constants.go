// Package as2 models the ActivityStreams 2.0 subset spoken by the
// fediverse: polymorphic object-or-link values, the handful of object
// and activity types a single-user blog emits, and the collection
// containers used for pagination.
package as2

// Object and activity type tags.
const (
	TypeObject      = "Object"
	TypeLink        = "Link"
	TypePerson      = "Person"
	TypeApplication = "Application"
	TypeNote        = "Note"
	TypeArticle     = "Article"

	TypeCreate   = "Create"
	TypeUpdate   = "Update"
	TypeDelete   = "Delete"
	TypeFollow   = "Follow"
	TypeUndo     = "Undo"
	TypeAccept   = "Accept"
	TypeAnnounce = "Announce"
	TypeLike     = "Like"

	TypeCollection            = "Collection"
	TypeCollectionPage        = "CollectionPage"
	TypeOrderedCollection     = "OrderedCollection"
	TypeOrderedCollectionPage = "OrderedCollectionPage"
)

// Well-known IRIs and media types.
const (
	NamespaceActivityStreams = "https://www.w3.org/ns/activitystreams"
	NamespaceSecurity        = "https://w3id.org/security/v1"

	// PublicAudience in to/cc marks an object as publicly addressed.
	PublicAudience = "https://www.w3.org/ns/activitystreams#Public"

	ContentType    = "application/activity+json"
	ContentTypeLD  = `application/ld+json; profile="https://www.w3.org/ns/activitystreams"`
	ContentTypeJRD = "application/jrd+json"
)

// GlobalContext returns the @context array attached to outgoing
// documents. The term extensions match what Mastodon publishes, which
// keeps its linter from warning about unknown properties.
func GlobalContext() []any {
	return []any{
		NamespaceActivityStreams,
		NamespaceSecurity,
		map[string]any{
			"toot":         "http://joinmastodon.org/ns#",
			"schema":       "http://schema.org#",
			"discoverable": "toot:discoverable",
			"Hashtag":      "as:Hashtag",
			"alsoKnownAs": map[string]any{
				"@id":   "as:alsoKnownAs",
				"@type": "@id",
			},
			"featured": map[string]any{
				"@id":   "toot:featured",
				"@type": "@id",
			},
			"manuallyApprovesFollowers": "as:manuallyApprovesFollowers",
			"PropertyValue":             "schema:PropertyValue",
			"value":                     "schema:value",
		},
	}
}
