package item

import (
	"time"

	"go.klb.dev/shotcast/internal/fingerprint"
)

// Summary is the listing view of an item: everything except the payload
// and the thumbnail bytes.
type Summary struct {
	ID           string                  `json:"id"`
	Title        string                  `json:"title"`
	Timestamp    time.Time               `json:"timestamp"`
	Category     Category                `json:"category"`
	SourceApp    string                  `json:"source_app,omitempty"`
	MIME         string                  `json:"mime,omitempty"`
	FileSize     int64                   `json:"file_size"`
	Favorite     bool                    `json:"favorite"`
	HasThumbnail bool                    `json:"has_thumbnail"`
	Fingerprint  fingerprint.Fingerprint `json:"fingerprint"`
	Tags         []string                `json:"tags,omitempty"`
}

// Summarize returns the listing view of it.
func (it *CapturedItem) Summarize() Summary {
	return Summary{
		ID:           it.ID,
		Title:        it.Title,
		Timestamp:    it.Timestamp,
		Category:     it.Category,
		SourceApp:    it.SourceApp,
		MIME:         it.MIME,
		FileSize:     it.FileSize,
		Favorite:     it.Favorite,
		HasThumbnail: it.HasThumbnail(),
		Fingerprint:  it.fingerprint,
		Tags:         it.Tags,
	}
}
