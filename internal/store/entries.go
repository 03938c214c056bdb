package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lazypower/scrapbook/internal/media"
	"github.com/lazypower/scrapbook/internal/memory"
)

const entryColumns = `id, title, date, location, description, tags, photos, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (memory.Entry, error) {
	var (
		e            memory.Entry
		tags, photos string
	)
	if err := row.Scan(&e.ID, &e.Title, &e.Date, &e.Location, &e.Description, &tags, &photos, &e.CreatedAt); err != nil {
		return memory.Entry{}, err
	}
	if err := json.Unmarshal([]byte(tags), &e.Tags); err != nil {
		return memory.Entry{}, fmt.Errorf("decode tags for %s: %w", e.ID, err)
	}
	if err := json.Unmarshal([]byte(photos), &e.Photos); err != nil {
		return memory.Entry{}, fmt.Errorf("decode photos for %s: %w", e.ID, err)
	}
	if len(e.Tags) == 0 {
		e.Tags = nil
	}
	return e, nil
}

func encodeLists(e memory.Entry) (string, string, error) {
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	photos := e.Photos
	if photos == nil {
		photos = []media.Ref{}
	}
	t, err := json.Marshal(tags)
	if err != nil {
		return "", "", fmt.Errorf("encode tags: %w", err)
	}
	p, err := json.Marshal(photos)
	if err != nil {
		return "", "", fmt.Errorf("encode photos: %w", err)
	}
	return string(t), string(p), nil
}

// List returns entries in insertion order.
func (db *DB) List(ctx context.Context) ([]memory.Entry, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+entryColumns+` FROM entries ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	out := []memory.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (db *DB) Get(ctx context.Context, id string) (memory.Entry, error) {
	e, err := scanEntry(db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return memory.Entry{}, ErrNotFound
	}
	if err != nil {
		return memory.Entry{}, fmt.Errorf("get entry %s: %w", id, err)
	}
	return e, nil
}

func (db *DB) Create(ctx context.Context, e memory.Entry) (memory.Entry, error) {
	tags, photos, err := encodeLists(e)
	if err != nil {
		return memory.Entry{}, err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO entries (id, title, date, location, description, tags, photos, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Title, e.Date, e.Location, e.Description, tags, photos, e.CreatedAt, time.Now().UnixMilli(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return memory.Entry{}, ErrExists
		}
		return memory.Entry{}, fmt.Errorf("insert entry: %w", err)
	}
	return e, nil
}

func (db *DB) Update(ctx context.Context, id string, p memory.Patch) (memory.Entry, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return memory.Entry{}, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	current, err := scanEntry(tx.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return memory.Entry{}, ErrNotFound
	}
	if err != nil {
		return memory.Entry{}, fmt.Errorf("load entry %s: %w", id, err)
	}

	updated := p.Apply(current)
	tags, photos, err := encodeLists(updated)
	if err != nil {
		return memory.Entry{}, err
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE entries
		SET title = ?, date = ?, location = ?, description = ?, tags = ?, photos = ?, updated_at = ?
		WHERE id = ?`,
		updated.Title, updated.Date, updated.Location, updated.Description, tags, photos, time.Now().UnixMilli(), id,
	)
	if err != nil {
		return memory.Entry{}, fmt.Errorf("update entry %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return memory.Entry{}, fmt.Errorf("commit update: %w", err)
	}
	return updated, nil
}

func (db *DB) Delete(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete entry %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
