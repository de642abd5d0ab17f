package activitypub

import (
	"sync"
	"time"

	"github.com/avercourt/windlass/domain"
	"github.com/avercourt/windlass/util"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// mockStore is an in-memory Store for exercising the engine without
// SQLite. Error fields inject failures per call site.
type mockStore struct {
	mu sync.RWMutex

	articles     map[string]domain.Article
	followers    map[string]domain.Follower // keyed by activity id
	interactions map[string]domain.Interaction
	inboxLog     []domain.InboxEntry
	kv           map[string]string
	queue        map[uuid.UUID]domain.DeliveryQueueItem

	createFollowerErr error
	appendInboxErr    error
	enqueueErr        error
}

func newMockStore() *mockStore {
	return &mockStore{
		articles:     make(map[string]domain.Article),
		followers:    make(map[string]domain.Follower),
		interactions: make(map[string]domain.Interaction),
		kv:           make(map[string]string),
		queue:        make(map[uuid.UUID]domain.DeliveryQueueItem),
	}
}

func (m *mockStore) ReadArticleByUID(uid string) (error, *domain.Article) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.articles[uid]
	if !ok {
		return nil, nil
	}
	return nil, &a
}

func (m *mockStore) CreateFollower(f *domain.Follower) (error, bool) {
	if m.createFollowerErr != nil {
		return m.createFollowerErr, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.followers[f.ActivityID]; ok {
		return nil, false
	}
	for _, existing := range m.followers {
		if existing.ActorURI == f.ActorURI {
			return nil, false
		}
	}
	m.followers[f.ActivityID] = *f
	return nil, true
}

func (m *mockStore) DeleteFollowerByActivityID(activityID string) (error, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.followers[activityID]; !ok {
		return nil, false
	}
	delete(m.followers, activityID)
	return nil, true
}

func (m *mockStore) ReadAllFollowers() (error, *[]domain.Follower) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Follower
	for _, f := range m.followers {
		out = append(out, f)
	}
	return nil, &out
}

func (m *mockStore) CreateInteraction(i *domain.Interaction) (error, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.interactions[i.ID]; ok {
		return nil, false
	}
	m.interactions[i.ID] = *i
	return nil, true
}

func (m *mockStore) AppendInboxEntry(e *domain.InboxEntry) error {
	if m.appendInboxErr != nil {
		return m.appendInboxErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inboxLog = append(m.inboxLog, *e)
	return nil
}

func (m *mockStore) PutKv(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kv[key] = value
	return nil
}

func (m *mockStore) ReadKv(key string) (error, string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return nil, m.kv[key]
}

func (m *mockStore) DeleteKv(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.kv, key)
	return nil
}

func (m *mockStore) EnqueueDelivery(item *domain.DeliveryQueueItem) error {
	if m.enqueueErr != nil {
		return m.enqueueErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue[item.Id] = *item
	return nil
}

func (m *mockStore) ReadPendingDeliveries(limit int) (error, *[]domain.DeliveryQueueItem) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.DeliveryQueueItem
	now := time.Now()
	for _, item := range m.queue {
		if !item.NextRetryAt.After(now) && len(out) < limit {
			out = append(out, item)
		}
	}
	return nil, &out
}

func (m *mockStore) UpdateDeliveryAttempt(id uuid.UUID, attempts int, nextRetry time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.queue[id]
	if !ok {
		return nil
	}
	item.Attempts = attempts
	item.NextRetryAt = nextRetry
	m.queue[id] = item
	return nil
}

func (m *mockStore) DeleteDelivery(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.queue, id)
	return nil
}

func (m *mockStore) queuedItems() []domain.DeliveryQueueItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.DeliveryQueueItem
	for _, item := range m.queue {
		out = append(out, item)
	}
	return out
}

func testConfig() *util.AppConfig {
	conf := &util.AppConfig{}
	conf.Conf.PublicHost = "blog.example.com"
	conf.Conf.Username = "alice"
	conf.Conf.DisplayName = "Alice"
	conf.Conf.SiteTitle = "Alice's Blog"
	conf.Conf.RequireSignatures = false
	conf.Conf.AutoReciprocate = false
	return conf
}

func testEngine(store Store) *Engine {
	err, keys := testKeyring()
	if err != nil {
		panic(err)
	}
	return NewEngine(testConfig(), zap.NewNop().Sugar(), store, keys)
}

func testKeyring() (error, *util.Keyring) {
	user, err := util.GenerateKeypair()
	if err != nil {
		return err, nil
	}
	site, err := util.GenerateKeypair()
	if err != nil {
		return err, nil
	}
	return nil, &util.Keyring{User: user, Site: site}
}
