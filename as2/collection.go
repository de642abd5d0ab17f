package as2

// Collection is the unordered container, used for the likes/shares/
// replies stubs where only the count matters.
type Collection struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	TotalItems int    `json:"totalItems"`
	First      string `json:"first,omitempty"`
	Last       string `json:"last,omitempty"`
	Items      List   `json:"items,omitempty"`
}

// OrderedCollection is the top-level paginated container. It reports
// the count and entry links without enumerating items itself.
type OrderedCollection struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	TotalItems int    `json:"totalItems"`
	First      string `json:"first,omitempty"`
	Last       string `json:"last,omitempty"`
}

// OrderedCollectionPage is one window of an OrderedCollection.
// OrderedItems always encodes, even when the page is empty.
type OrderedCollectionPage struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	PartOf       string `json:"partOf,omitempty"`
	Next         string `json:"next,omitempty"`
	Prev         string `json:"prev,omitempty"`
	OrderedItems List   `json:"orderedItems"`
}

// CollectionPage mirrors OrderedCollectionPage for the unordered
// container.
type CollectionPage struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	PartOf string `json:"partOf,omitempty"`
	Next   string `json:"next,omitempty"`
	Prev   string `json:"prev,omitempty"`
	Items  List   `json:"items"`
}

func NewOrderedCollection(id string, total int) *OrderedCollection {
	return &OrderedCollection{ID: id, Type: TypeOrderedCollection, TotalItems: total}
}

func NewOrderedCollectionPage(id, partOf string) *OrderedCollectionPage {
	return &OrderedCollectionPage{
		ID:           id,
		Type:         TypeOrderedCollectionPage,
		PartOf:       partOf,
		OrderedItems: List{},
	}
}
