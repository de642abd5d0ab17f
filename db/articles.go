package db

import (
	"database/sql"
	"time"

	"github.com/avercourt/windlass/domain"
)

// Article queries. Ranges are cursor driven: uid is a ULID, so the
// primary key order is also publication order.
const (
	sqlInsertArticle = `INSERT INTO articles(uid, slug, title, summary, body, published, published_at) VALUES (?, ?, ?, ?, ?, ?, ?)`
	sqlUpdateArticle = `UPDATE articles SET slug = ?, title = ?, summary = ?, body = ?, published = ?, updated_at = ? WHERE uid = ?`
	sqlDeleteArticle = `DELETE FROM articles WHERE uid = ?`

	sqlSelectArticleByUID  = `SELECT uid, slug, title, summary, body, published, published_at, updated_at FROM articles WHERE uid = ?`
	sqlSelectArticleBySlug = `SELECT uid, slug, title, summary, body, published, published_at, updated_at FROM articles WHERE slug = ?`

	sqlCountPublishedArticles = `SELECT COUNT(*) FROM articles WHERE published = 1`

	sqlSelectArticlesOlderThan          = `SELECT uid, slug, title, summary, body, published, published_at, updated_at FROM articles WHERE published = 1 AND uid < ? ORDER BY uid DESC LIMIT ?`
	sqlSelectArticlesOlderThanInclusive = `SELECT uid, slug, title, summary, body, published, published_at, updated_at FROM articles WHERE published = 1 AND uid <= ? ORDER BY uid DESC LIMIT ?`
	sqlSelectArticlesNewerThan          = `SELECT uid, slug, title, summary, body, published, published_at, updated_at FROM articles WHERE published = 1 AND uid > ? ORDER BY uid ASC LIMIT ?`
	sqlSelectArticlesNewerThanInclusive = `SELECT uid, slug, title, summary, body, published, published_at, updated_at FROM articles WHERE published = 1 AND uid >= ? ORDER BY uid ASC LIMIT ?`
)

func (db *DB) CreateArticle(a *domain.Article) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlInsertArticle,
			a.UID,
			a.Slug,
			a.Title,
			a.Summary,
			a.Body,
			a.Published,
			a.PublishedAt,
		)
		return err
	})
}

func (db *DB) UpdateArticle(a *domain.Article) error {
	now := time.Now().UTC()
	a.UpdatedAt = &now
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlUpdateArticle,
			a.Slug,
			a.Title,
			a.Summary,
			a.Body,
			a.Published,
			a.UpdatedAt,
			a.UID,
		)
		return err
	})
}

func (db *DB) DeleteArticle(uid string) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlDeleteArticle, uid)
		return err
	})
}

func (db *DB) ReadArticleByUID(uid string) (error, *domain.Article) {
	return db.readArticleRow(db.db.QueryRow(sqlSelectArticleByUID, uid))
}

func (db *DB) ReadArticleBySlug(slug string) (error, *domain.Article) {
	return db.readArticleRow(db.db.QueryRow(sqlSelectArticleBySlug, slug))
}

func (db *DB) readArticleRow(row *sql.Row) (error, *domain.Article) {
	var a domain.Article
	err := row.Scan(&a.UID, &a.Slug, &a.Title, &a.Summary, &a.Body, &a.Published, &a.PublishedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return err, nil
	}
	if err != nil {
		return err, nil
	}
	return nil, &a
}

func (db *DB) CountPublishedArticles() (error, int) {
	var count int
	err := db.db.QueryRow(sqlCountPublishedArticles).Scan(&count)
	return err, count
}

// ReadArticlesOlderThan walks published articles descending from the
// cursor. The cursor itself is excluded unless inclusive is set.
func (db *DB) ReadArticlesOlderThan(cursor string, count int, inclusive bool) (error, *[]domain.Article) {
	query := sqlSelectArticlesOlderThan
	if inclusive {
		query = sqlSelectArticlesOlderThanInclusive
	}
	return db.readArticleRows(query, cursor, count)
}

// ReadArticlesNewerThan walks published articles ascending from the
// cursor.
func (db *DB) ReadArticlesNewerThan(cursor string, count int, inclusive bool) (error, *[]domain.Article) {
	query := sqlSelectArticlesNewerThan
	if inclusive {
		query = sqlSelectArticlesNewerThanInclusive
	}
	return db.readArticleRows(query, cursor, count)
}

func (db *DB) readArticleRows(query, cursor string, count int) (error, *[]domain.Article) {
	rows, err := db.db.Query(query, cursor, count)
	if err != nil {
		return err, nil
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		var a domain.Article
		if err := rows.Scan(&a.UID, &a.Slug, &a.Title, &a.Summary, &a.Body, &a.Published, &a.PublishedAt, &a.UpdatedAt); err != nil {
			return err, &articles
		}
		articles = append(articles, a)
	}
	if err = rows.Err(); err != nil {
		return err, &articles
	}

	return nil, &articles
}
