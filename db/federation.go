package db

import (
	"database/sql"

	"github.com/avercourt/windlass/domain"
)

// Follower queries. The insert is a single atomic statement so a
// concurrently redelivered Follow cannot produce two rows.
const (
	sqlInsertFollower = `INSERT INTO followers(uid, activity_id, actor_uri, display_name, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`
	sqlDeleteFollowerByActivityID = `DELETE FROM followers WHERE activity_id = ?`

	sqlSelectFollowerByActorURI = `SELECT uid, activity_id, actor_uri, display_name, created_at FROM followers WHERE actor_uri = ?`
	sqlSelectAllFollowers       = `SELECT uid, activity_id, actor_uri, display_name, created_at FROM followers ORDER BY uid DESC`
	sqlCountFollowers           = `SELECT COUNT(*) FROM followers`
	sqlCountFollowersByDomain   = `SELECT COUNT(*) FROM followers WHERE actor_uri LIKE ?`

	sqlSelectFollowersOlderThan         = `SELECT uid, activity_id, actor_uri, display_name, created_at FROM followers WHERE uid < ? ORDER BY uid DESC LIMIT ?`
	sqlSelectFollowersOlderThanByDomain = `SELECT uid, activity_id, actor_uri, display_name, created_at FROM followers WHERE uid < ? AND actor_uri LIKE ? ORDER BY uid DESC LIMIT ?`
)

// CreateFollower stores an accepted follow. It reports false when an
// identical activity id or actor URI is already present, which makes
// redelivery a no-op instead of an error.
func (db *DB) CreateFollower(f *domain.Follower) (error, bool) {
	created := false
	err := db.wrapTransaction(func(tx *sql.Tx) error {
		res, err := tx.Exec(sqlInsertFollower,
			f.UID,
			f.ActivityID,
			f.ActorURI,
			f.DisplayName,
			f.CreatedAt,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		created = n > 0
		return nil
	})
	return err, created
}

// DeleteFollowerByActivityID removes the follower created by the given
// Follow activity. Unknown ids delete nothing and report false.
func (db *DB) DeleteFollowerByActivityID(activityID string) (error, bool) {
	deleted := false
	err := db.wrapTransaction(func(tx *sql.Tx) error {
		res, err := tx.Exec(sqlDeleteFollowerByActivityID, activityID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		deleted = n > 0
		return nil
	})
	return err, deleted
}

func (db *DB) ReadFollowerByActorURI(actorURI string) (error, *domain.Follower) {
	row := db.db.QueryRow(sqlSelectFollowerByActorURI, actorURI)
	var f domain.Follower
	err := row.Scan(&f.UID, &f.ActivityID, &f.ActorURI, &f.DisplayName, &f.CreatedAt)
	if err == sql.ErrNoRows {
		return err, nil
	}
	if err != nil {
		return err, nil
	}
	return nil, &f
}

func (db *DB) ReadAllFollowers() (error, *[]domain.Follower) {
	return db.readFollowerRows(sqlSelectAllFollowers)
}

func (db *DB) CountFollowers(domainFilter string) (error, int) {
	var count int
	var err error
	if domainFilter != "" {
		err = db.db.QueryRow(sqlCountFollowersByDomain, "%"+domainFilter+"%").Scan(&count)
	} else {
		err = db.db.QueryRow(sqlCountFollowers).Scan(&count)
	}
	return err, count
}

// ReadFollowersOlderThan pages the follower list descending from the
// cursor, optionally narrowed to actor URIs containing domainFilter.
func (db *DB) ReadFollowersOlderThan(cursor string, count int, domainFilter string) (error, *[]domain.Follower) {
	if domainFilter != "" {
		return db.readFollowerRows(sqlSelectFollowersOlderThanByDomain, cursor, "%"+domainFilter+"%", count)
	}
	return db.readFollowerRows(sqlSelectFollowersOlderThan, cursor, count)
}

func (db *DB) readFollowerRows(query string, args ...any) (error, *[]domain.Follower) {
	rows, err := db.db.Query(query, args...)
	if err != nil {
		return err, nil
	}
	defer rows.Close()

	var followers []domain.Follower
	for rows.Next() {
		var f domain.Follower
		if err := rows.Scan(&f.UID, &f.ActivityID, &f.ActorURI, &f.DisplayName, &f.CreatedAt); err != nil {
			return err, &followers
		}
		followers = append(followers, f)
	}
	if err = rows.Err(); err != nil {
		return err, &followers
	}

	return nil, &followers
}

// Inbox audit log queries
const (
	sqlInsertInboxEntry = `INSERT INTO inbox_log(uid, activity_id, activity_type, actor_uri, body, content_type, origin, received_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
)

// AppendInboxEntry records one inbound delivery. The log is append
// only; nothing reads it back for business logic.
func (db *DB) AppendInboxEntry(e *domain.InboxEntry) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlInsertInboxEntry,
			e.UID,
			e.ActivityID,
			e.Type,
			e.ActorURI,
			e.Body,
			e.ContentType,
			e.Origin,
			e.ReceivedAt,
		)
		return err
	})
}

// Interaction queries
const (
	sqlInsertInteraction = `INSERT INTO interactions(id, article_uid, kind, actor_uri, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`
	sqlCountInteractions = `SELECT COUNT(*) FROM interactions WHERE article_uid = ? AND kind = ?`
)

// CreateInteraction records a Like or Announce at most once per remote
// activity id. The conflict clause makes check-and-insert atomic.
func (db *DB) CreateInteraction(i *domain.Interaction) (error, bool) {
	created := false
	err := db.wrapTransaction(func(tx *sql.Tx) error {
		res, err := tx.Exec(sqlInsertInteraction,
			i.ID,
			i.ArticleUID,
			i.Kind,
			i.ActorURI,
			i.CreatedAt,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		created = n > 0
		return nil
	})
	return err, created
}

func (db *DB) CountInteractions(articleUID, kind string) (error, int) {
	var count int
	err := db.db.QueryRow(sqlCountInteractions, articleUID, kind).Scan(&count)
	return err, count
}
