package web

import (
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/avercourt/windlass/activitypub"
	"github.com/avercourt/windlass/db"
	"github.com/avercourt/windlass/domain"
	"github.com/avercourt/windlass/util"
	"go.uber.org/zap"
)

var (
	testKeysOnce sync.Once
	testKeys     *util.Keyring
)

// keyring generation is slow, so all web tests share one.
func testKeyring(t *testing.T) *util.Keyring {
	t.Helper()
	testKeysOnce.Do(func() {
		user, err := util.GenerateKeypair()
		if err != nil {
			t.Fatalf("Failed to generate user keypair: %v", err)
		}
		site, err := util.GenerateKeypair()
		if err != nil {
			t.Fatalf("Failed to generate site keypair: %v", err)
		}
		testKeys = &util.Keyring{User: user, Site: site}
	})
	return testKeys
}

func newTestServer(t *testing.T) (*Server, *db.DB) {
	t.Helper()

	logger := zap.NewNop().Sugar()
	database, err := db.Open(t.TempDir()+"/test.db", logger)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	conf := &util.AppConfig{}
	conf.Conf.PublicHost = "blog.example.com"
	conf.Conf.Username = "alice"
	conf.Conf.DisplayName = "Alice"
	conf.Conf.Bio = "Test blog"
	conf.Conf.Language = "en"
	conf.Conf.SiteTitle = "Alice's Blog"
	conf.Conf.RequireSignatures = false

	keys := testKeyring(t)
	engine := activitypub.NewEngine(conf, logger, database, keys)
	return NewServer(conf, logger, database, engine, keys), database
}

func getJSON(t *testing.T, s *Server, path string) (int, map[string]any) {
	t.Helper()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", path, nil)
	s.Router().ServeHTTP(w, req)

	var body map[string]any
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("GET %s returned invalid JSON: %v\n%s", path, err, w.Body.String())
		}
	}
	return w.Code, body
}

// seedArticles publishes articles in order, oldest first, plus one
// draft that must never federate.
func seedArticles(t *testing.T, database *db.DB, titles ...string) []string {
	t.Helper()

	var uids []string
	for _, title := range titles {
		a := &domain.Article{
			UID:         util.NewULID(),
			Slug:        "slug-" + title,
			Title:       title,
			Body:        "Body of " + title,
			Published:   true,
			PublishedAt: time.Now().UTC(),
		}
		if err := database.CreateArticle(a); err != nil {
			t.Fatalf("Failed to create article %s: %v", title, err)
		}
		uids = append(uids, a.UID)
		time.Sleep(2 * time.Millisecond)
	}

	draft := &domain.Article{
		UID:         util.NewULID(),
		Slug:        "slug-draft",
		Title:       "Draft",
		Body:        "Not yet",
		Published:   false,
		PublishedAt: time.Now().UTC(),
	}
	if err := database.CreateArticle(draft); err != nil {
		t.Fatalf("Failed to create draft: %v", err)
	}
	return uids
}

func seedFollower(t *testing.T, database *db.DB, activityID, actorURI string) {
	t.Helper()
	err, created := database.CreateFollower(&domain.Follower{
		UID:        util.NewULID(),
		ActivityID: activityID,
		ActorURI:   actorURI,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil || !created {
		t.Fatalf("Failed to seed follower %s: %v", actorURI, err)
	}
	time.Sleep(2 * time.Millisecond)
}
