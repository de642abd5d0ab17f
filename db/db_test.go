package db

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/avercourt/windlass/domain"
	"github.com/avercourt/windlass/util"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"), zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testArticle(title string, published bool) *domain.Article {
	return &domain.Article{
		UID:         util.NewULID(),
		Slug:        title,
		Title:       title,
		Summary:     "about " + title,
		Body:        "body of " + title,
		Published:   published,
		PublishedAt: time.Now().UTC(),
	}
}

func TestArticleCRUD(t *testing.T) {
	db := setupTestDB(t)

	a := testArticle("first-post", true)
	if err := db.CreateArticle(a); err != nil {
		t.Fatalf("CreateArticle failed: %v", err)
	}

	err, got := db.ReadArticleByUID(a.UID)
	if err != nil {
		t.Fatalf("ReadArticleByUID failed: %v", err)
	}
	if got.Title != "first-post" || !got.Published {
		t.Errorf("Unexpected article: %+v", got)
	}

	err, bySlug := db.ReadArticleBySlug("first-post")
	if err != nil {
		t.Fatalf("ReadArticleBySlug failed: %v", err)
	}
	if bySlug.UID != a.UID {
		t.Errorf("Slug lookup returned wrong article: %s", bySlug.UID)
	}

	a.Title = "first post, edited"
	if err := db.UpdateArticle(a); err != nil {
		t.Fatalf("UpdateArticle failed: %v", err)
	}
	err, got = db.ReadArticleByUID(a.UID)
	if err != nil {
		t.Fatalf("ReadArticleByUID after update failed: %v", err)
	}
	if got.Title != "first post, edited" {
		t.Errorf("Update not persisted: %s", got.Title)
	}
	if got.UpdatedAt == nil {
		t.Error("UpdatedAt should be set after an edit")
	}

	if err := db.DeleteArticle(a.UID); err != nil {
		t.Fatalf("DeleteArticle failed: %v", err)
	}
	err, _ = db.ReadArticleByUID(a.UID)
	if err != sql.ErrNoRows {
		t.Errorf("Expected ErrNoRows after delete, got %v", err)
	}
}

func TestArticleRangeQueries(t *testing.T) {
	db := setupTestDB(t)

	// Five published articles with ascending ULIDs
	var uids []string
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		a := testArticle(name, true)
		if err := db.CreateArticle(a); err != nil {
			t.Fatalf("CreateArticle failed: %v", err)
		}
		uids = append(uids, a.UID)
		time.Sleep(2 * time.Millisecond)
	}
	// One draft that must never appear
	if err := db.CreateArticle(testArticle("draft", false)); err != nil {
		t.Fatalf("CreateArticle failed: %v", err)
	}

	err, count := db.CountPublishedArticles()
	if err != nil {
		t.Fatalf("CountPublishedArticles failed: %v", err)
	}
	if count != 5 {
		t.Errorf("Expected 5 published articles, got %d", count)
	}

	// Older than c, exclusive: b then a
	err, older := db.ReadArticlesOlderThan(uids[2], 10, false)
	if err != nil {
		t.Fatalf("ReadArticlesOlderThan failed: %v", err)
	}
	if len(*older) != 2 || (*older)[0].Title != "b" || (*older)[1].Title != "a" {
		t.Errorf("Expected [b a], got %+v", titles(older))
	}

	// Older than c, inclusive: c, b, a
	err, olderIncl := db.ReadArticlesOlderThan(uids[2], 10, true)
	if err != nil {
		t.Fatalf("ReadArticlesOlderThan inclusive failed: %v", err)
	}
	if len(*olderIncl) != 3 || (*olderIncl)[0].Title != "c" {
		t.Errorf("Expected [c b a], got %+v", titles(olderIncl))
	}

	// Newer than c, exclusive, ascending: d then e
	err, newer := db.ReadArticlesNewerThan(uids[2], 10, false)
	if err != nil {
		t.Fatalf("ReadArticlesNewerThan failed: %v", err)
	}
	if len(*newer) != 2 || (*newer)[0].Title != "d" || (*newer)[1].Title != "e" {
		t.Errorf("Expected [d e], got %+v", titles(newer))
	}

	// Limit is respected
	err, limited := db.ReadArticlesOlderThan(util.MaxULID, 3, false)
	if err != nil {
		t.Fatalf("ReadArticlesOlderThan with limit failed: %v", err)
	}
	if len(*limited) != 3 || (*limited)[0].Title != "e" {
		t.Errorf("Expected [e d c], got %+v", titles(limited))
	}
}

func titles(articles *[]domain.Article) []string {
	var out []string
	for _, a := range *articles {
		out = append(out, a.Title)
	}
	return out
}

func testFollower(actorURI string) *domain.Follower {
	return &domain.Follower{
		UID:        util.NewULID(),
		ActivityID: actorURI + "/follow/1",
		ActorURI:   actorURI,
		CreatedAt:  time.Now().UTC(),
	}
}

func TestCreateFollowerIdempotent(t *testing.T) {
	db := setupTestDB(t)

	f := testFollower("https://a.example/users/bob")
	err, created := db.CreateFollower(f)
	if err != nil {
		t.Fatalf("CreateFollower failed: %v", err)
	}
	if !created {
		t.Error("First insert should report created")
	}

	// Same activity id again
	dup := *f
	dup.UID = util.NewULID()
	err, created = db.CreateFollower(&dup)
	if err != nil {
		t.Fatalf("CreateFollower duplicate failed: %v", err)
	}
	if created {
		t.Error("Duplicate activity id must not create a row")
	}

	// Same actor with a fresh activity id
	again := testFollower("https://a.example/users/bob")
	again.ActivityID = "https://a.example/follow/other"
	err, created = db.CreateFollower(again)
	if err != nil {
		t.Fatalf("CreateFollower same-actor failed: %v", err)
	}
	if created {
		t.Error("Duplicate actor URI must not create a row")
	}

	err, count := db.CountFollowers("")
	if err != nil {
		t.Fatalf("CountFollowers failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected exactly 1 follower, got %d", count)
	}
}

func TestDeleteFollowerByActivityID(t *testing.T) {
	db := setupTestDB(t)

	f := testFollower("https://a.example/users/bob")
	if err, _ := db.CreateFollower(f); err != nil {
		t.Fatalf("CreateFollower failed: %v", err)
	}

	err, deleted := db.DeleteFollowerByActivityID(f.ActivityID)
	if err != nil {
		t.Fatalf("DeleteFollowerByActivityID failed: %v", err)
	}
	if !deleted {
		t.Error("Expected deletion of existing follower")
	}

	// Unknown id is a no-op
	err, deleted = db.DeleteFollowerByActivityID("https://a.example/unknown")
	if err != nil {
		t.Fatalf("DeleteFollowerByActivityID unknown failed: %v", err)
	}
	if deleted {
		t.Error("Unknown activity id must not delete anything")
	}
}

func TestFollowerDomainFilter(t *testing.T) {
	db := setupTestDB(t)

	for _, uri := range []string{
		"https://a.example/users/bob",
		"https://a.example/users/carol",
		"https://b.example/users/dan",
	} {
		if err, _ := db.CreateFollower(testFollower(uri)); err != nil {
			t.Fatalf("CreateFollower failed: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	err, count := db.CountFollowers("a.example")
	if err != nil {
		t.Fatalf("CountFollowers failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 a.example followers, got %d", count)
	}

	err, page := db.ReadFollowersOlderThan(util.MaxULID, 10, "b.example")
	if err != nil {
		t.Fatalf("ReadFollowersOlderThan failed: %v", err)
	}
	if len(*page) != 1 || (*page)[0].ActorURI != "https://b.example/users/dan" {
		t.Errorf("Unexpected filtered page: %+v", *page)
	}
}

func TestFollowerPagination(t *testing.T) {
	db := setupTestDB(t)

	var uids []string
	for i := 0; i < 5; i++ {
		f := testFollower("https://a.example/users/u" + string(rune('a'+i)))
		if err, _ := db.CreateFollower(f); err != nil {
			t.Fatalf("CreateFollower failed: %v", err)
		}
		uids = append(uids, f.UID)
		time.Sleep(2 * time.Millisecond)
	}

	err, page := db.ReadFollowersOlderThan(uids[3], 2, "")
	if err != nil {
		t.Fatalf("ReadFollowersOlderThan failed: %v", err)
	}
	if len(*page) != 2 {
		t.Fatalf("Expected 2 followers, got %d", len(*page))
	}
	if (*page)[0].UID != uids[2] || (*page)[1].UID != uids[1] {
		t.Errorf("Expected descending page [%s %s], got [%s %s]", uids[2], uids[1], (*page)[0].UID, (*page)[1].UID)
	}
}

func TestInboxLogAppend(t *testing.T) {
	db := setupTestDB(t)

	entry := &domain.InboxEntry{
		UID:         util.NewULID(),
		ActivityID:  "https://a.example/activities/1",
		Type:        "Follow",
		ActorURI:    "https://a.example/users/bob",
		Body:        `{"type":"Follow"}`,
		ContentType: "application/activity+json",
		Origin:      "198.51.100.7:4321",
		ReceivedAt:  time.Now().UTC(),
	}
	if err := db.AppendInboxEntry(entry); err != nil {
		t.Fatalf("AppendInboxEntry failed: %v", err)
	}

	// Sentinel ids from malformed payloads are rows like any other
	entry2 := &domain.InboxEntry{
		UID:        util.NewULID(),
		ActivityID: "unknown-" + util.NewULID(),
		Type:       "unknown",
		Body:       "not json",
		ReceivedAt: time.Now().UTC(),
	}
	if err := db.AppendInboxEntry(entry2); err != nil {
		t.Fatalf("AppendInboxEntry sentinel failed: %v", err)
	}
}

func TestInteractionIdempotent(t *testing.T) {
	db := setupTestDB(t)

	article := testArticle("liked-post", true)
	if err := db.CreateArticle(article); err != nil {
		t.Fatalf("CreateArticle failed: %v", err)
	}

	i := &domain.Interaction{
		ID:         "https://a.example/likes/1",
		ArticleUID: article.UID,
		Kind:       domain.InteractionLike,
		ActorURI:   "https://a.example/users/bob",
		CreatedAt:  time.Now().UTC(),
	}

	err, created := db.CreateInteraction(i)
	if err != nil {
		t.Fatalf("CreateInteraction failed: %v", err)
	}
	if !created {
		t.Error("First interaction should be created")
	}

	err, created = db.CreateInteraction(i)
	if err != nil {
		t.Fatalf("CreateInteraction duplicate failed: %v", err)
	}
	if created {
		t.Error("Duplicate interaction id must not create a row")
	}

	err, count := db.CountInteractions(article.UID, domain.InteractionLike)
	if err != nil {
		t.Fatalf("CountInteractions failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected totalItems 1, got %d", count)
	}

	err, announces := db.CountInteractions(article.UID, domain.InteractionAnnounce)
	if err != nil {
		t.Fatalf("CountInteractions failed: %v", err)
	}
	if announces != 0 {
		t.Errorf("Expected 0 announces, got %d", announces)
	}
}

func TestKvRoundTrip(t *testing.T) {
	db := setupTestDB(t)

	err, missing := db.ReadKv("nope")
	if err != nil {
		t.Fatalf("ReadKv missing failed: %v", err)
	}
	if missing != "" {
		t.Errorf("Expected empty value for missing key, got %q", missing)
	}

	if err := db.PutKv("recip:https://a.example/users/bob", "https://home.example/follows/1"); err != nil {
		t.Fatalf("PutKv failed: %v", err)
	}
	err, got := db.ReadKv("recip:https://a.example/users/bob")
	if err != nil {
		t.Fatalf("ReadKv failed: %v", err)
	}
	if got != "https://home.example/follows/1" {
		t.Errorf("Unexpected value: %q", got)
	}

	// Upsert overwrites
	if err := db.PutKv("recip:https://a.example/users/bob", "changed"); err != nil {
		t.Fatalf("PutKv upsert failed: %v", err)
	}
	err, got = db.ReadKv("recip:https://a.example/users/bob")
	if err != nil {
		t.Fatalf("ReadKv after upsert failed: %v", err)
	}
	if got != "changed" {
		t.Errorf("Expected overwritten value, got %q", got)
	}

	if err := db.DeleteKv("recip:https://a.example/users/bob"); err != nil {
		t.Fatalf("DeleteKv failed: %v", err)
	}
	err, got = db.ReadKv("recip:https://a.example/users/bob")
	if err != nil || got != "" {
		t.Errorf("Expected empty after delete, got %q (%v)", got, err)
	}
}

func TestDeliveryQueue(t *testing.T) {
	db := setupTestDB(t)

	item := &domain.DeliveryQueueItem{
		Id:           uuid.New(),
		InboxURI:     "https://a.example/inbox",
		ActivityJSON: `{"type":"Accept"}`,
		Attempts:     0,
		NextRetryAt:  time.Now().Add(-time.Minute),
		CreatedAt:    time.Now(),
	}
	if err := db.EnqueueDelivery(item); err != nil {
		t.Fatalf("EnqueueDelivery failed: %v", err)
	}

	future := &domain.DeliveryQueueItem{
		Id:           uuid.New(),
		InboxURI:     "https://b.example/inbox",
		ActivityJSON: `{"type":"Create"}`,
		NextRetryAt:  time.Now().Add(time.Hour),
		CreatedAt:    time.Now(),
	}
	if err := db.EnqueueDelivery(future); err != nil {
		t.Fatalf("EnqueueDelivery failed: %v", err)
	}

	err, due := db.ReadPendingDeliveries(10)
	if err != nil {
		t.Fatalf("ReadPendingDeliveries failed: %v", err)
	}
	if len(*due) != 1 || (*due)[0].Id != item.Id {
		t.Fatalf("Expected only the due item, got %d items", len(*due))
	}

	if err := db.UpdateDeliveryAttempt(item.Id, 1, time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("UpdateDeliveryAttempt failed: %v", err)
	}
	err, due = db.ReadPendingDeliveries(10)
	if err != nil {
		t.Fatalf("ReadPendingDeliveries failed: %v", err)
	}
	if len(*due) != 0 {
		t.Errorf("Expected no due items after backoff, got %d", len(*due))
	}

	if err := db.DeleteDelivery(item.Id); err != nil {
		t.Fatalf("DeleteDelivery failed: %v", err)
	}
}
