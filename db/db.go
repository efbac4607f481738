package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"shareanything/models"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
	log "github.com/sirupsen/logrus"
)

// DB wraps the SQLite connection holding every record namespace
type DB struct {
	db *sql.DB
}

// Open connects to the SQLite database at path. Migrations are not applied.
func Open(database string) (*DB, error) {
	db, err := connection(database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return &DB{db: db}, nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

// Namespace returns the record area with the given name
func (db *DB) Namespace(name string) *Namespace {
	return &Namespace{db: db.db, name: name}
}

// Namespace is a persistent key-value area holding serialized posts keyed by
// id. Records are returned in the order they were first written.
type Namespace struct {
	db   *sql.DB
	name string
}

func (ns *Namespace) Name() string {
	return ns.name
}

// FindAll returns every record in the namespace in insertion order
func (ns *Namespace) FindAll(ctx context.Context) ([]models.Post, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("data").From("records").Where(sb.Equal("namespace", ns.name))
	sb.OrderBy("seq").Asc()

	sql, args := sb.Build()
	rows, err := ns.db.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}

		var post models.Post
		if err := json.Unmarshal([]byte(data), &post); err != nil {
			log.WithFields(log.Fields{
				"namespace": ns.name,
				"error":     err,
			}).Warn("Skipping unreadable record")
			continue
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}

	return posts, nil
}

// Put writes the post under its id, replacing any existing record while
// keeping its position
func (ns *Namespace) Put(ctx context.Context, post models.Post) error {
	data, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("encode error: %w", err)
	}

	log.WithFields(log.Fields{
		"namespace": ns.name,
		"id":        post.Id,
	}).Debug("Writing record")

	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("records").Cols("namespace", "id", "data").Values(ns.name, post.Id, string(data))
	ib.SQL("ON CONFLICT (namespace, id) DO UPDATE SET data = excluded.data")

	sql, args := ib.Build()
	if _, err := ns.db.ExecContext(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert error: %w", err)
	}
	return nil
}

// Delete removes the record with the given id. Deleting a missing record is
// not an error.
func (ns *Namespace) Delete(ctx context.Context, id string) error {
	log.WithFields(log.Fields{
		"namespace": ns.name,
		"id":        id,
	}).Debug("Deleting record")

	db := sqlbuilder.SQLite.NewDeleteBuilder()
	db.DeleteFrom("records").Where(db.Equal("namespace", ns.name), db.Equal("id", id))

	sql, args := db.Build()
	if _, err := ns.db.ExecContext(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete error: %w", err)
	}
	return nil
}

// Count returns the number of records in the namespace
func (ns *Namespace) Count(ctx context.Context) (int, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("count(*)").From("records").Where(sb.Equal("namespace", ns.name))

	sql, args := sb.Build()
	var count int
	if err := ns.db.QueryRowContext(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count error: %w", err)
	}
	return count, nil
}
