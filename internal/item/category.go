package item

import (
	"fmt"
	"strings"
)

// Category is the closed set of content categories a captured item can
// belong to. Every switch over Category in this module is exhaustive;
// adding a value means updating categoryNames, categoryDescriptions, the
// classifier table and the thumbnail dispatch, and the array lengths below
// make a missed table a compile error.
type Category uint8

const (
	Image Category = iota
	Text
	PDF
	Word
	Excel
	PowerPoint
	Pages
	Numbers
	Keynote
	Code
	Audio
	Video
	Design
	Font
	Archive
	Installer
	ThreeDModel
	Data
	Link
	File // generic file fallback

	categoryCount
)

var categoryNames = [...]string{
	Image:       "image",
	Text:        "text",
	PDF:         "pdf",
	Word:        "word",
	Excel:       "excel",
	PowerPoint:  "powerpoint",
	Pages:       "pages",
	Numbers:     "numbers",
	Keynote:     "keynote",
	Code:        "code",
	Audio:       "audio",
	Video:       "video",
	Design:      "design",
	Font:        "font",
	Archive:     "archive",
	Installer:   "installer",
	ThreeDModel: "threedmodel",
	Data:        "data",
	Link:        "link",
	File:        "file",
}

var categoryDescriptions = [...]string{
	Image:       "Image",
	Text:        "Text Document",
	PDF:         "PDF Document",
	Word:        "Word Document",
	Excel:       "Excel Spreadsheet",
	PowerPoint:  "PowerPoint Presentation",
	Pages:       "Pages Document",
	Numbers:     "Numbers Spreadsheet",
	Keynote:     "Keynote Presentation",
	Code:        "Source Code",
	Audio:       "Audio File",
	Video:       "Video File",
	Design:      "Design File",
	Font:        "Font File",
	Archive:     "Archive",
	Installer:   "Installer",
	ThreeDModel: "3D Model",
	Data:        "Data File",
	Link:        "Web Link",
	File:        "File",
}

// Both tables must cover every category.
var (
	_ [len(categoryNames) - int(categoryCount)]struct{}
	_ [int(categoryCount) - len(categoryNames)]struct{}
	_ [len(categoryDescriptions) - int(categoryCount)]struct{}
	_ [int(categoryCount) - len(categoryDescriptions)]struct{}
)

// deprecatedNames maps category names used by older snapshots of the
// history database onto the current set.
var deprecatedNames = map[string]Category{
	"screenshot": Image,
	"url":        Link,
	"generic":    File,
}

// Categories returns every category in declaration order.
func Categories() []Category {
	out := make([]Category, 0, categoryCount)
	for c := Category(0); c < categoryCount; c++ {
		out = append(out, c)
	}
	return out
}

// Valid reports whether c is one of the declared categories.
func (c Category) Valid() bool { return c < categoryCount }

// String returns the stable lowercase name stored in the database.
func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("category(%d)", uint8(c))
	}
	return categoryNames[c]
}

// Description returns a human-readable description.
func (c Category) Description() string {
	if !c.Valid() {
		return categoryDescriptions[File]
	}
	return categoryDescriptions[c]
}

// Previewable reports whether the thumbnail pipeline renders a preview for c.
func (c Category) Previewable() bool {
	switch c {
	case Image, PDF, Video, Design:
		return true
	default:
		return false
	}
}

// ParseCategory resolves a stored category name. Unknown names resolve to
// File with ok=false; callers that only need a usable category can ignore ok.
func ParseCategory(s string) (c Category, ok bool) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range categoryNames {
		if n == name {
			return Category(i), true
		}
	}
	if dep, found := deprecatedNames[name]; found {
		return dep, true
	}
	return File, false
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid category %d", uint8(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown names decode
// to File rather than failing.
func (c *Category) UnmarshalText(text []byte) error {
	*c, _ = ParseCategory(string(text))
	return nil
}
