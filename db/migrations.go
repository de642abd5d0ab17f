package db

import (
	"database/sql"
)

const (
	// Blog entries, keyed and ordered by ULID
	sqlCreateArticlesTable = `CREATE TABLE IF NOT EXISTS articles (
		uid TEXT NOT NULL PRIMARY KEY,
		slug TEXT UNIQUE NOT NULL,
		title TEXT NOT NULL,
		summary TEXT,
		body TEXT NOT NULL,
		published INTEGER DEFAULT 0,
		published_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP
	)`

	sqlCreateArticlesIndices = `
		CREATE INDEX IF NOT EXISTS idx_articles_slug ON articles(slug);
		CREATE INDEX IF NOT EXISTS idx_articles_published ON articles(published, uid DESC);
	`

	// Accepted remote follows. Both the Follow activity id and the
	// actor URI are unique, so redelivered follows land on a conflict
	// instead of a second row.
	sqlCreateFollowersTable = `CREATE TABLE IF NOT EXISTS followers (
		uid TEXT NOT NULL PRIMARY KEY,
		activity_id TEXT UNIQUE NOT NULL,
		actor_uri TEXT UNIQUE NOT NULL,
		display_name TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	sqlCreateFollowersIndices = `
		CREATE INDEX IF NOT EXISTS idx_followers_activity_id ON followers(activity_id);
		CREATE INDEX IF NOT EXISTS idx_followers_actor_uri ON followers(actor_uri);
	`

	// Append-only audit log of everything the inboxes receive
	sqlCreateInboxLogTable = `CREATE TABLE IF NOT EXISTS inbox_log (
		uid TEXT NOT NULL PRIMARY KEY,
		activity_id TEXT NOT NULL,
		activity_type TEXT NOT NULL,
		actor_uri TEXT,
		body TEXT NOT NULL,
		content_type TEXT,
		origin TEXT,
		received_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	sqlCreateInboxLogIndices = `
		CREATE INDEX IF NOT EXISTS idx_inbox_log_activity_id ON inbox_log(activity_id);
		CREATE INDEX IF NOT EXISTS idx_inbox_log_received_at ON inbox_log(received_at DESC);
	`

	// Remote Likes and Announces, keyed by the remote activity id
	sqlCreateInteractionsTable = `CREATE TABLE IF NOT EXISTS interactions (
		id TEXT NOT NULL PRIMARY KEY,
		article_uid TEXT NOT NULL,
		kind TEXT NOT NULL,
		actor_uri TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	sqlCreateInteractionsIndices = `
		CREATE INDEX IF NOT EXISTS idx_interactions_article ON interactions(article_uid, kind);
	`

	// Small settings/state store (reciprocal follow ids, first-start stamp)
	sqlCreateKvTable = `CREATE TABLE IF NOT EXISTS kv (
		key TEXT NOT NULL PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	// Durable outbound delivery queue
	sqlCreateDeliveryQueueTable = `CREATE TABLE IF NOT EXISTS delivery_queue (
		id TEXT NOT NULL PRIMARY KEY,
		inbox_uri TEXT NOT NULL,
		activity_json TEXT NOT NULL,
		attempts INTEGER DEFAULT 0,
		next_retry_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	sqlCreateDeliveryQueueIndices = `
		CREATE INDEX IF NOT EXISTS idx_delivery_queue_next_retry ON delivery_queue(next_retry_at);
	`
)

// RunMigrations executes all database migrations
func (db *DB) RunMigrations() error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		tables := []struct {
			name string
			sql  string
		}{
			{"articles", sqlCreateArticlesTable},
			{"followers", sqlCreateFollowersTable},
			{"inbox_log", sqlCreateInboxLogTable},
			{"interactions", sqlCreateInteractionsTable},
			{"kv", sqlCreateKvTable},
			{"delivery_queue", sqlCreateDeliveryQueueTable},
		}
		for _, t := range tables {
			if err := db.createTableIfNotExists(tx, t.sql, t.name); err != nil {
				return err
			}
		}

		indices := []string{
			sqlCreateArticlesIndices,
			sqlCreateFollowersIndices,
			sqlCreateInboxLogIndices,
			sqlCreateInteractionsIndices,
			sqlCreateDeliveryQueueIndices,
		}
		for _, idx := range indices {
			if _, err := tx.Exec(idx); err != nil {
				db.log.Warnf("Failed to create indices: %v", err)
			}
		}

		// Columns added after the first release (ignore errors if they exist)
		db.extendExistingTables(tx)

		return nil
	})
}

func (db *DB) createTableIfNotExists(tx *sql.Tx, createSQL string, tableName string) error {
	_, err := tx.Exec(createSQL)
	if err != nil {
		db.log.Errorf("Error creating table %s: %v", tableName, err)
		return err
	}
	return nil
}

func (db *DB) extendExistingTables(tx *sql.Tx) {
	tx.Exec("ALTER TABLE articles ADD COLUMN summary TEXT")
	tx.Exec("ALTER TABLE articles ADD COLUMN updated_at TIMESTAMP")
	tx.Exec("ALTER TABLE followers ADD COLUMN display_name TEXT")
	tx.Exec("ALTER TABLE inbox_log ADD COLUMN content_type TEXT")
	tx.Exec("ALTER TABLE inbox_log ADD COLUMN origin TEXT")
	tx.Exec("ALTER TABLE interactions ADD COLUMN actor_uri TEXT")
}
