package item

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"go.klb.dev/shotcast/internal/errors"
)

// DefaultTagColor is the color assigned when none is given.
const DefaultTagColor = "#007AFF"

// Tag is a user label attached to items by reference.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ColorHex  string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTag validates name and color and returns a tag with a fresh ID.
func NewTag(name, colorHex string) (*Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.NewInvalidRequest("tag name is required")
	}
	if colorHex == "" {
		colorHex = DefaultTagColor
	}
	normalized, err := NormalizeColor(colorHex)
	if err != nil {
		return nil, err
	}
	return &Tag{
		ID:        uuid.NewString(),
		Name:      name,
		ColorHex:  normalized,
		CreatedAt: time.Now(),
	}, nil
}

// NormalizeColor accepts #RGB, #RRGGBB and #AARRGGBB (with or without the
// leading #) and returns the uppercase form with a leading #.
func NormalizeColor(s string) (string, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(hex) {
	case 3, 6, 8:
	default:
		return "", errors.NewInvalidRequest(fmt.Sprintf("invalid color %q", s))
	}
	for _, r := range hex {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return "", errors.NewInvalidRequest(fmt.Sprintf("invalid color %q", s))
		}
	}
	return "#" + strings.ToUpper(hex), nil
}
