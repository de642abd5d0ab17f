package web

import (
	"fmt"
	"testing"

	"github.com/avercourt/windlass/util"
)

func TestOutboxTopLevelCollection(t *testing.T) {
	s, database := newTestServer(t)
	seedArticles(t, database, "a", "b", "c", "d", "e")

	code, body := getJSON(t, s, "/api/users/alice/outbox")
	if code != 200 {
		t.Fatalf("Expected 200, got %d", code)
	}
	if body["type"] != "OrderedCollection" {
		t.Errorf("Expected OrderedCollection, got %v", body["type"])
	}
	if body["totalItems"] != float64(5) {
		t.Errorf("Expected totalItems 5 (draft excluded), got %v", body["totalItems"])
	}
	first, _ := body["first"].(string)
	if first == "" {
		t.Fatal("Expected a first link")
	}
	if _, ok := body["orderedItems"]; ok {
		t.Error("Top-level collection must not enumerate items")
	}
}

func TestOutboxFirstPage(t *testing.T) {
	s, database := newTestServer(t)
	uids := seedArticles(t, database, "a", "b", "c")

	code, body := getJSON(t, s, "/api/users/alice/outbox?page=true")
	if code != 200 {
		t.Fatalf("Expected 200, got %d", code)
	}
	if body["type"] != "OrderedCollectionPage" {
		t.Errorf("Expected OrderedCollectionPage, got %v", body["type"])
	}

	items, ok := body["orderedItems"].([]any)
	if !ok {
		t.Fatalf("Expected orderedItems, got %v", body["orderedItems"])
	}
	if len(items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(items))
	}

	// Newest first: item 0 is article c.
	newest := items[0].(map[string]any)
	if newest["type"] != "Create" {
		t.Errorf("Expected Create activity, got %v", newest["type"])
	}
	obj, _ := newest["object"].(map[string]any)
	if obj["name"] != "c" {
		t.Errorf("Expected newest article c first, got %v", obj["name"])
	}
	wantID := fmt.Sprintf("https://blog.example.com/api/users/alice/articles/%s/activity", uids[2])
	if newest["id"] != wantID {
		t.Errorf("Expected activity id %s, got %v", wantID, newest["id"])
	}

	if body["partOf"] != "https://blog.example.com/api/users/alice/outbox" {
		t.Errorf("Unexpected partOf: %v", body["partOf"])
	}
}

func TestOutboxOlderThanCursor(t *testing.T) {
	s, database := newTestServer(t)
	uids := seedArticles(t, database, "a", "b", "c", "d", "e")

	// Older than c, exclusive: [b, a] descending.
	code, body := getJSON(t, s, "/api/users/alice/outbox?page=true&max="+uids[2])
	if code != 200 {
		t.Fatalf("Expected 200, got %d", code)
	}

	items, _ := body["orderedItems"].([]any)
	if len(items) != 2 {
		t.Fatalf("Expected 2 items older than c, got %d", len(items))
	}
	names := []string{}
	for _, item := range items {
		obj := item.(map[string]any)["object"].(map[string]any)
		names = append(names, obj["name"].(string))
	}
	if names[0] != "b" || names[1] != "a" {
		t.Errorf("Expected [b a], got %v", names)
	}

	next, _ := body["next"].(string)
	if next != "https://blog.example.com/api/users/alice/outbox?page=true&max="+uids[0] {
		t.Errorf("Unexpected next link: %s", next)
	}
	prev, _ := body["prev"].(string)
	if prev != "https://blog.example.com/api/users/alice/outbox?page=true&min="+uids[1] {
		t.Errorf("Unexpected prev link: %s", prev)
	}
}

func TestOutboxNewerThanCursor(t *testing.T) {
	s, database := newTestServer(t)
	uids := seedArticles(t, database, "a", "b", "c", "d", "e")

	// Newer than c, exclusive: [e, d] presented newest first.
	code, body := getJSON(t, s, "/api/users/alice/outbox?page=true&min="+uids[2])
	if code != 200 {
		t.Fatalf("Expected 200, got %d", code)
	}

	items, _ := body["orderedItems"].([]any)
	if len(items) != 2 {
		t.Fatalf("Expected 2 items newer than c, got %d", len(items))
	}
	first := items[0].(map[string]any)["object"].(map[string]any)
	if first["name"] != "e" {
		t.Errorf("Expected e first, got %v", first["name"])
	}
}

func TestOutboxRejectsBothCursors(t *testing.T) {
	s, database := newTestServer(t)
	uids := seedArticles(t, database, "a", "b")

	code, body := getJSON(t, s,
		"/api/users/alice/outbox?page=true&max="+uids[1]+"&min="+uids[0])
	if code != 400 {
		t.Fatalf("Expected 400 for min+max, got %d", code)
	}
	if body["error"] != "Cannot specify both min and max." {
		t.Errorf("Unexpected error message: %v", body["error"])
	}
}

func TestOutboxEmptyPage(t *testing.T) {
	s, database := newTestServer(t)
	seedArticles(t, database, "a")

	// Nothing older than the minimum cursor.
	code, body := getJSON(t, s, "/api/users/alice/outbox?page=true&max="+util.MinULID)
	if code != 200 {
		t.Fatalf("Expected 200, got %d", code)
	}
	items, ok := body["orderedItems"].([]any)
	if !ok {
		t.Fatalf("Empty page must still carry orderedItems, got %v", body["orderedItems"])
	}
	if len(items) != 0 {
		t.Errorf("Expected empty page, got %d items", len(items))
	}
	if _, ok := body["next"]; ok {
		t.Error("Empty page must omit next")
	}
	if _, ok := body["prev"]; ok {
		t.Error("Empty page must omit prev")
	}
}

func TestFollowersCollection(t *testing.T) {
	s, database := newTestServer(t)
	seedFollower(t, database, "f1", "https://social.example/users/bob")
	seedFollower(t, database, "f2", "https://other.example/users/carol")
	seedFollower(t, database, "f3", "https://social.example/users/dan")

	code, body := getJSON(t, s, "/api/users/alice/followers")
	if code != 200 {
		t.Fatalf("Expected 200, got %d", code)
	}
	if body["totalItems"] != float64(3) {
		t.Errorf("Expected 3 followers, got %v", body["totalItems"])
	}

	code, body = getJSON(t, s, "/api/users/alice/followers?page=true")
	if code != 200 {
		t.Fatalf("Expected 200, got %d", code)
	}
	items, _ := body["orderedItems"].([]any)
	if len(items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(items))
	}
	// Newest first.
	if items[0] != "https://social.example/users/dan" {
		t.Errorf("Expected dan first, got %v", items[0])
	}
}

func TestFollowersDomainFilter(t *testing.T) {
	s, database := newTestServer(t)
	seedFollower(t, database, "f1", "https://social.example/users/bob")
	seedFollower(t, database, "f2", "https://other.example/users/carol")
	seedFollower(t, database, "f3", "https://social.example/users/dan")

	code, body := getJSON(t, s, "/api/users/alice/followers?domain=social.example")
	if code != 200 {
		t.Fatalf("Expected 200, got %d", code)
	}
	if body["totalItems"] != float64(2) {
		t.Errorf("Expected 2 followers on social.example, got %v", body["totalItems"])
	}

	_, body = getJSON(t, s, "/api/users/alice/followers?page=true&domain=social.example")
	items, _ := body["orderedItems"].([]any)
	if len(items) != 2 {
		t.Fatalf("Expected 2 filtered items, got %d", len(items))
	}
	for _, item := range items {
		uri := item.(string)
		if uri == "https://other.example/users/carol" {
			t.Error("Domain filter leaked a foreign follower")
		}
	}
}

func TestFollowingEmptyByDefault(t *testing.T) {
	s, _ := newTestServer(t)

	code, body := getJSON(t, s, "/api/users/alice/following")
	if code != 200 {
		t.Fatalf("Expected 200, got %d", code)
	}
	if body["totalItems"] != float64(0) {
		t.Errorf("Expected empty following, got %v", body["totalItems"])
	}
}

func TestFollowingListsReciprocalFollows(t *testing.T) {
	s, database := newTestServer(t)
	if err := database.PutKv("recip:https://social.example/users/bob", "follow-id-1"); err != nil {
		t.Fatalf("Failed to seed kv: %v", err)
	}

	code, body := getJSON(t, s, "/api/users/alice/following?page=true")
	if code != 200 {
		t.Fatalf("Expected 200, got %d", code)
	}
	items, _ := body["orderedItems"].([]any)
	if len(items) != 1 || items[0] != "https://social.example/users/bob" {
		t.Errorf("Expected bob in following, got %v", items)
	}
}
