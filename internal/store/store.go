// Package store persists the clipboard history in SQLite.
//
// Payloads are stored compressed (zstd for text-like content, lz4 for
// other binary content, nothing for already-compressed media) and, when a
// passphrase is configured, sealed with a key derived from it. Each
// fingerprint maps to at most one row; the capture path enforces this and
// the schema backs it with a unique index.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.klb.dev/shotcast/internal/crypto"
	"go.klb.dev/shotcast/internal/errors"
	"go.klb.dev/shotcast/internal/fingerprint"
	"go.klb.dev/shotcast/internal/item"
)

// Options configures Open.
type Options struct {
	// Passphrase enables at-rest encryption of payloads and thumbnails.
	Passphrase string
	// KDF sets the Argon2id cost for a newly encrypted history. Zero means
	// crypto.DefaultKDFParams. An existing history uses the parameters it
	// was created with.
	KDF crypto.KDFParams
	// MaxOpenConns limits the connection pool when non-zero.
	MaxOpenConns int
}

// Store is the SQLite item store. It is safe for concurrent use.
type Store struct {
	db    *sql.DB
	codec codec
	log   *slog.Logger
}

// Open opens (creating if needed) the store in dir.
func Open(dir string, opts Options) (*Store, error) {
	db, err := openDB(dir)
	if err != nil {
		return nil, errors.NewStore("open", err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	kdf := opts.KDF
	if kdf == (crypto.KDFParams{}) {
		kdf = crypto.DefaultKDFParams
	}
	key, err := contentKey(db, opts.Passphrase, kdf)
	if err != nil {
		db.Close()
		return nil, errors.NewStore("open", err)
	}
	s := &Store{
		db:    db,
		codec: codec{key: key},
		log:   slog.Default().With("component", "store"),
	}
	s.log.Debug("store opened", "dir", dir, "encrypted", key != nil)
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Insert adds it. A second item with the same fingerprint is rejected.
func (s *Store) Insert(ctx context.Context, it *item.CapturedItem) error {
	content, err := s.codec.encode(it.Content(), compressionFor(it.Category))
	if err != nil {
		return errors.NewStore("encode content", err)
	}
	var thumb []byte
	if it.HasThumbnail() {
		if thumb, err = s.codec.encode(it.Thumbnail, CompressionNone); err != nil {
			return errors.NewStore("encode thumbnail", err)
		}
	}
	fp := it.Fingerprint()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStore("insert", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO items (id, fingerprint, category, title, source_app, mime,
		                   file_path, file_size, favorite, captured_at, content, thumbnail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, fp[:], it.Category.String(), it.Title, it.SourceApp, it.MIME,
		it.FilePath, it.FileSize, boolInt(it.Favorite), it.Timestamp.UnixNano(), content, thumb,
	)
	if err != nil {
		return errors.NewStore("insert", err)
	}
	for _, tagID := range it.Tags {
		if err := addTag(ctx, tx, it.ID, tagID); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.NewStore("insert", err)
	}
	return nil
}

// FindByFingerprint returns the ID of the item with fp.
func (s *Store) FindByFingerprint(ctx context.Context, fp fingerprint.Fingerprint) (string, bool, error) {
	var id string
	err := s.db.QueryRowContext(ctx, "SELECT id FROM items WHERE fingerprint = ?", fp[:]).Scan(&id)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.NewStore("find by fingerprint", err)
	}
	return id, true, nil
}

// Touch sets the capture time of id to at. Nothing else changes.
func (s *Store) Touch(ctx context.Context, id string, at time.Time) error {
	return s.updateOne(ctx, "touch", id, "UPDATE items SET captured_at = ? WHERE id = ?", at.UnixNano(), id)
}

// SetThumbnail stores data as the thumbnail of id unless one is already
// present. It reports whether the write happened; a missing item is not an
// error.
func (s *Store) SetThumbnail(ctx context.Context, id string, data []byte) (bool, error) {
	if len(data) == 0 {
		return false, errors.NewInvalidRequest("empty thumbnail")
	}
	blob, err := s.codec.encode(data, CompressionNone)
	if err != nil {
		return false, errors.NewStore("encode thumbnail", err)
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE items SET thumbnail = ? WHERE id = ? AND thumbnail IS NULL", blob, id)
	if err != nil {
		return false, errors.NewStore("set thumbnail", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.NewStore("set thumbnail", err)
	}
	return n == 1, nil
}

// SetFavorite marks or unmarks id as a favorite.
func (s *Store) SetFavorite(ctx context.Context, id string, favorite bool) error {
	return s.updateOne(ctx, "set favorite", id, "UPDATE items SET favorite = ? WHERE id = ?", boolInt(favorite), id)
}

// Delete removes id and its tag links.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.updateOne(ctx, "delete", id, "DELETE FROM items WHERE id = ?", id)
}

func (s *Store) updateOne(ctx context.Context, op, id, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.NewStore(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewStore(op, err)
	}
	if n == 0 {
		return errors.NewNotFound("item", id)
	}
	return nil
}

// Get loads the full item including payload and thumbnail.
func (s *Store) Get(ctx context.Context, id string) (*item.CapturedItem, error) {
	var (
		it          item.CapturedItem
		fpRaw       []byte
		category    string
		favorite    int
		capturedAt  int64
		contentBlob []byte
		thumbBlob   []byte
		tags        sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, fingerprint, category, title, source_app, mime, file_path,
		       favorite, captured_at, content, thumbnail,
		       (SELECT group_concat(tag_id, ',') FROM item_tags WHERE item_id = items.id)
		FROM items WHERE id = ?`, id).Scan(
		&it.ID, &fpRaw, &category, &it.Title, &it.SourceApp, &it.MIME, &it.FilePath,
		&favorite, &capturedAt, &contentBlob, &thumbBlob, &tags,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("item", id)
	}
	if err != nil {
		return nil, errors.NewStore("get", err)
	}

	it.Category, _ = item.ParseCategory(category)
	it.Favorite = favorite != 0
	it.Timestamp = time.Unix(0, capturedAt)
	it.Tags = splitTags(tags)

	content, err := s.codec.decode(contentBlob)
	if err != nil {
		return nil, errors.NewStore("decode content", err)
	}
	if thumbBlob != nil {
		if it.Thumbnail, err = s.codec.decode(thumbBlob); err != nil {
			return nil, errors.NewStore("decode thumbnail", err)
		}
	}
	var fp fingerprint.Fingerprint
	if len(fpRaw) != len(fp) {
		return nil, errors.NewStore("get", fmt.Errorf("item %s: bad fingerprint length %d", id, len(fpRaw)))
	}
	copy(fp[:], fpRaw)

	restored, err := item.Restore(it, content, fp)
	if err != nil {
		return nil, errors.NewStore("get", err)
	}
	return restored, nil
}

// Thumbnail returns the stored preview of id, or nil if none was rendered.
func (s *Store) Thumbnail(ctx context.Context, id string) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, "SELECT thumbnail FROM items WHERE id = ?", id).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("item", id)
	}
	if err != nil {
		return nil, errors.NewStore("thumbnail", err)
	}
	if blob == nil {
		return nil, nil
	}
	data, err := s.codec.decode(blob)
	if err != nil {
		return nil, errors.NewStore("decode thumbnail", err)
	}
	return data, nil
}

// ListOptions filters List.
type ListOptions struct {
	Limit         int // zero means no limit
	Categories    []item.Category
	FavoritesOnly bool
	TagID         string
}

// List returns item summaries, most recently captured first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]item.Summary, error) {
	var (
		where []string
		args  []any
	)
	if len(opts.Categories) > 0 {
		ph := make([]string, len(opts.Categories))
		for i, c := range opts.Categories {
			ph[i] = "?"
			args = append(args, c.String())
		}
		where = append(where, "category IN ("+strings.Join(ph, ",")+")")
	}
	if opts.FavoritesOnly {
		where = append(where, "favorite = 1")
	}
	if opts.TagID != "" {
		where = append(where, "EXISTS (SELECT 1 FROM item_tags t WHERE t.item_id = items.id AND t.tag_id = ?)")
		args = append(args, opts.TagID)
	}

	query := `
		SELECT id, fingerprint, category, title, source_app, mime, file_size,
		       favorite, captured_at, thumbnail IS NOT NULL,
		       (SELECT group_concat(tag_id, ',') FROM item_tags WHERE item_id = items.id)
		FROM items`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY captured_at DESC, id DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewStore("list", err)
	}
	defer rows.Close()

	var out []item.Summary
	for rows.Next() {
		var (
			sum        item.Summary
			fpRaw      []byte
			category   string
			favorite   int
			capturedAt int64
			hasThumb   int
			tags       sql.NullString
		)
		if err := rows.Scan(&sum.ID, &fpRaw, &category, &sum.Title, &sum.SourceApp, &sum.MIME,
			&sum.FileSize, &favorite, &capturedAt, &hasThumb, &tags); err != nil {
			return nil, errors.NewStore("list", err)
		}
		sum.Category, _ = item.ParseCategory(category)
		sum.Favorite = favorite != 0
		sum.Timestamp = time.Unix(0, capturedAt)
		sum.HasThumbnail = hasThumb != 0
		sum.Tags = splitTags(tags)
		copy(sum.Fingerprint[:], fpRaw)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStore("list", err)
	}
	return out, nil
}

// Count returns the number of stored items.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items").Scan(&n); err != nil {
		return 0, errors.NewStore("count", err)
	}
	return n, nil
}

// Prune deletes the oldest non-favorite items so that at most keep of them
// remain. Favorites are never pruned. It returns the number deleted.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		return 0, errors.NewInvalidRequest("retention must not be negative")
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM items
		WHERE favorite = 0 AND id NOT IN (
		  SELECT id FROM items WHERE favorite = 0
		  ORDER BY captured_at DESC, id DESC
		  LIMIT ?
		)`, keep)
	if err != nil {
		return 0, errors.NewStore("prune", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.NewStore("prune", err)
	}
	if n > 0 {
		s.log.Info("history pruned", "deleted", n, "keep", keep)
	}
	return n, nil
}

func splitTags(s sql.NullString) []string {
	if !s.Valid || s.String == "" {
		return nil
	}
	return strings.Split(s.String, ",")
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
