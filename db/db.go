package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

// DB is the database struct.
type DB struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

// Open opens (or creates) the sqlite database at path, tunes it for a
// concurrent federation workload and runs the schema migrations.
// Every caller gets its own handle, which keeps tests on temp files
// independent of each other.
func Open(path string, log *zap.SugaredLogger) (*DB, error) {
	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	sqldb.SetMaxOpenConns(25)
	sqldb.SetMaxIdleConns(5)
	sqldb.SetConnMaxLifetime(time.Hour)

	var journalMode string
	if err := sqldb.QueryRow("PRAGMA journal_mode=WAL").Scan(&journalMode); err != nil {
		log.Warnf("Failed to enable WAL mode: %v", err)
	} else {
		log.Infof("Database journal mode: %s", journalMode)
	}

	sqldb.Exec("PRAGMA synchronous = NORMAL")
	sqldb.Exec("PRAGMA cache_size = -64000")
	sqldb.Exec("PRAGMA temp_store = MEMORY")
	sqldb.Exec("PRAGMA busy_timeout = 5000")
	sqldb.Exec("PRAGMA foreign_keys = ON")

	d := &DB{db: sqldb, log: log}

	if err := d.RunMigrations(); err != nil {
		sqldb.Close()
		return nil, err
	}

	return d, nil
}

// Close closes the underlying handle.
func (db *DB) Close() error {
	return db.db.Close()
}

// wrapTransaction runs the given function within a transaction.
func (db *DB) wrapTransaction(f func(tx *sql.Tx) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		db.log.Errorf("error starting transaction: %s", err)
		return err
	}
	for {
		err = f(tx)
		if err != nil {
			serr, ok := err.(*sqlite.Error)
			if ok && serr.Code() == sqlitelib.SQLITE_BUSY {
				continue
			}
			tx.Rollback()
			db.log.Errorf("error in transaction: %s", err)
			return err
		}
		err = tx.Commit()
		if err != nil {
			db.log.Errorf("error committing transaction: %s", err)
			return err
		}
		break
	}
	return nil
}
