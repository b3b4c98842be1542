package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"go.klb.dev/shotcast/internal/errors"
	"go.klb.dev/shotcast/internal/item"
)

// CreateTag adds a tag. Names are unique, ignoring case.
func (s *Store) CreateTag(ctx context.Context, name, color string) (*item.Tag, error) {
	tag, err := item.NewTag(name, color)
	if err != nil {
		return nil, err
	}
	if existing, err := s.TagByName(ctx, tag.Name); err == nil {
		return nil, errors.NewInvalidRequest("tag " + existing.Name + " already exists")
	} else if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO tags (id, name, color, created_at) VALUES (?, ?, ?, ?)",
		tag.ID, tag.Name, tag.ColorHex, tag.CreatedAt.UnixNano())
	if err != nil {
		return nil, errors.NewStore("create tag", err)
	}
	return tag, nil
}

// TagByName looks a tag up by name, ignoring case.
func (s *Store) TagByName(ctx context.Context, name string) (*item.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, color, created_at FROM tags WHERE name = ?", strings.TrimSpace(name))
	tag, err := scanTag(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("tag", name)
	}
	if err != nil {
		return nil, errors.NewStore("get tag", err)
	}
	return tag, nil
}

// Tags lists all tags by name.
func (s *Store) Tags(ctx context.Context) ([]item.Tag, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, color, created_at FROM tags ORDER BY name")
	if err != nil {
		return nil, errors.NewStore("list tags", err)
	}
	defer rows.Close()
	var out []item.Tag
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, errors.NewStore("list tags", err)
		}
		out = append(out, *tag)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStore("list tags", err)
	}
	return out, nil
}

// DeleteTag removes a tag and detaches it from every item.
func (s *Store) DeleteTag(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tags WHERE id = ?", id)
	if err != nil {
		return errors.NewStore("delete tag", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFound("tag", id)
	}
	return nil
}

// AddTag attaches tagID to itemID. Attaching twice is a no-op.
func (s *Store) AddTag(ctx context.Context, itemID, tagID string) error {
	return addTag(ctx, s.db, itemID, tagID)
}

func addTag(ctx context.Context, q dbtx, itemID, tagID string) error {
	if err := exists(ctx, q, "items", "item", itemID); err != nil {
		return err
	}
	if err := exists(ctx, q, "tags", "tag", tagID); err != nil {
		return err
	}
	if _, err := q.ExecContext(ctx,
		"INSERT OR IGNORE INTO item_tags (item_id, tag_id) VALUES (?, ?)", itemID, tagID); err != nil {
		return errors.NewStore("add tag", err)
	}
	return nil
}

// RemoveTag detaches tagID from itemID.
func (s *Store) RemoveTag(ctx context.Context, itemID, tagID string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM item_tags WHERE item_id = ? AND tag_id = ?", itemID, tagID); err != nil {
		return errors.NewStore("remove tag", err)
	}
	return nil
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func exists(ctx context.Context, q dbtx, table, kind, id string) error {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return errors.NewNotFound(kind, id)
	}
	if err != nil {
		return errors.NewStore("lookup "+kind, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTag(row scanner) (*item.Tag, error) {
	var (
		tag     item.Tag
		created int64
	)
	if err := row.Scan(&tag.ID, &tag.Name, &tag.ColorHex, &created); err != nil {
		return nil, err
	}
	tag.CreatedAt = time.Unix(0, created)
	return &tag, nil
}
