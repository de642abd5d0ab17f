package db

import (
	"database/sql"
	"time"
)

// Small key-value store for state that doesn't deserve a table of its
// own: reciprocal follow ids, the first-start stamp.
const (
	sqlUpsertKv = `INSERT INTO kv(key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	sqlSelectKv         = `SELECT value FROM kv WHERE key = ?`
	sqlSelectKvByPrefix = `SELECT key, value FROM kv WHERE key LIKE ? ORDER BY key ASC`
	sqlDeleteKv         = `DELETE FROM kv WHERE key = ?`
)

func (db *DB) PutKv(key, value string) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlUpsertKv, key, value, time.Now().UTC())
		return err
	})
}

// ReadKv returns the stored value, or "" with no error when the key is
// absent.
func (db *DB) ReadKv(key string) (error, string) {
	var value string
	err := db.db.QueryRow(sqlSelectKv, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, ""
	}
	return err, value
}

// ReadKvByPrefix returns all pairs whose key starts with prefix.
func (db *DB) ReadKvByPrefix(prefix string) (error, map[string]string) {
	rows, err := db.db.Query(sqlSelectKvByPrefix, prefix+"%")
	if err != nil {
		return err, nil
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return err, out
		}
		out[key] = value
	}
	if err = rows.Err(); err != nil {
		return err, out
	}
	return nil, out
}

func (db *DB) DeleteKv(key string) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlDeleteKv, key)
		return err
	})
}
