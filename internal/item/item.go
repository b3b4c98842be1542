// Package item defines the captured clipboard item and its closed category
// set.
//
// A CapturedItem is constructed once by the capture pipeline and owned by
// the item store thereafter. Its payload and fingerprint never change;
// only the thumbnail (written at most once), timestamp, title, favorite
// flag and tags are mutable, and each of those has a single writer.
package item

import (
	"crypto/rand"
	"fmt"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/oklog/ulid/v2"

	"go.klb.dev/shotcast/internal/errors"
	"go.klb.dev/shotcast/internal/fingerprint"
)

// TitleMaxRunes is the number of characters of text content used as a title.
const TitleMaxRunes = 50

// Params describes a freshly extracted payload.
type Params struct {
	Category   Category
	Title      string
	SourceApp  string
	FilePath   string // origin on disk for file-backed content
	Content    []byte
	CapturedAt time.Time
}

// CapturedItem is one entry of the clipboard history.
type CapturedItem struct {
	ID        string
	Title     string
	Timestamp time.Time
	Category  Category
	SourceApp string
	MIME      string
	FilePath  string
	FileSize  int64
	Favorite  bool
	Tags      []string // tag IDs; tags are owned by the store
	Thumbnail []byte   // nil until rendered

	raw         []byte
	fingerprint fingerprint.Fingerprint
}

// New validates p and builds a CapturedItem with a fresh ID. Empty payloads
// are rejected with a capture error. Content is copied so later mutation of
// the caller's slice cannot reach the item.
func New(p Params) (*CapturedItem, error) {
	if len(p.Content) == 0 {
		return nil, errors.NewCapture("empty payload", nil)
	}
	if !p.Category.Valid() {
		p.Category = File
	}
	fp, err := fingerprint.Of(p.Content)
	if err != nil {
		return nil, err
	}
	if p.CapturedAt.IsZero() {
		p.CapturedAt = time.Now()
	}

	raw := make([]byte, len(p.Content))
	copy(raw, p.Content)

	title := p.Title
	if title == "" {
		title = DeriveTitle(p.Category, raw, p.FilePath)
	}

	return &CapturedItem{
		ID:          NewID(p.CapturedAt),
		Title:       title,
		Timestamp:   p.CapturedAt,
		Category:    p.Category,
		SourceApp:   p.SourceApp,
		MIME:        mimetype.Detect(raw).String(),
		FilePath:    p.FilePath,
		FileSize:    int64(len(raw)),
		raw:         raw,
		fingerprint: fp,
	}, nil
}

// Restore rebuilds an item loaded from the store. The fingerprint is
// recomputed from content and must match the stored one.
func Restore(it CapturedItem, content []byte, stored fingerprint.Fingerprint) (*CapturedItem, error) {
	fp, err := fingerprint.Of(content)
	if err != nil {
		return nil, err
	}
	if fp != stored {
		return nil, fmt.Errorf("item %s: content fingerprint %s does not match stored %s",
			it.ID, fp.Short(), stored.Short())
	}
	it.raw = content
	it.fingerprint = fp
	it.FileSize = int64(len(content))
	return &it, nil
}

// NewID returns a lexically sortable ULID for an item captured at t.
func NewID(t time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// RawContent returns a copy of the captured payload.
func (it *CapturedItem) RawContent() []byte {
	out := make([]byte, len(it.raw))
	copy(out, it.raw)
	return out
}

// Content returns the payload without copying. Callers must not modify it.
func (it *CapturedItem) Content() []byte { return it.raw }

// Fingerprint returns the cached content fingerprint.
func (it *CapturedItem) Fingerprint() fingerprint.Fingerprint { return it.fingerprint }

// HasThumbnail reports whether a preview has been written.
func (it *CapturedItem) HasThumbnail() bool { return len(it.Thumbnail) > 0 }

// DeriveTitle produces the default title for a payload: the URL for links,
// the file name for file-backed content, image dimensions for raw images,
// and the first TitleMaxRunes characters for text.
func DeriveTitle(c Category, content []byte, filePath string) string {
	if filePath != "" {
		return filepath.Base(filePath)
	}
	switch c {
	case Link:
		return truncateRunes(string(content), 2048)
	case Image:
		if w, h, ok := ImageSize(content); ok {
			return fmt.Sprintf("Image - %dx%d", w, h)
		}
		return "Image"
	case Text, Code:
		return TextTitle(content)
	default:
		return "Untitled"
	}
}

// TextTitle returns the first TitleMaxRunes characters of text, with
// invalid UTF-8 replaced.
func TextTitle(content []byte) string {
	if !utf8.Valid(content) {
		content = []byte(string([]rune(string(content))))
	}
	return truncateRunes(string(content), TitleMaxRunes)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
