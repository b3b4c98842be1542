// Package sourceapp resolves a best-effort label for the application that
// placed content on the clipboard.
//
// The label is informational. Platforms without a way to ask for the
// frontmost application report "", which is a valid value everywhere.
package sourceapp

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of distinct raw names remembered.
const DefaultCacheSize = 256

// variations maps lowercase spellings to canonical application names.
var variations = map[string]string{
	"chrome":               "Google Chrome",
	"google chrome":        "Google Chrome",
	"firefox":              "Firefox",
	"mozilla firefox":      "Firefox",
	"safari":               "Safari",
	"mail":                 "Mail",
	"apple mail":           "Mail",
	"messages":             "Messages",
	"imessage":             "Messages",
	"slack":                "Slack",
	"discord":              "Discord",
	"vscode":               "Visual Studio Code",
	"visual studio code":   "Visual Studio Code",
	"code":                 "Visual Studio Code",
	"xcode":                "Xcode",
	"terminal":             "Terminal",
	"iterm":                "iTerm",
	"iterm2":               "iTerm",
	"photoshop":            "Adobe Photoshop",
	"adobe photoshop":      "Adobe Photoshop",
	"illustrator":          "Adobe Illustrator",
	"adobe illustrator":    "Adobe Illustrator",
	"figma":                "Figma",
	"sketch":               "Sketch",
	"notion":               "Notion",
	"obsidian":             "Obsidian",
	"spotify":              "Spotify",
	"music":                "Music",
	"apple music":          "Music",
	"finder":               "Finder",
	"preview":              "Preview",
	"notes":                "Notes",
	"apple notes":          "Notes",
	"reminder":             "Reminders",
	"reminders":            "Reminders",
	"calendar":             "Calendar",
	"ical":                 "Calendar",
	"zoom":                 "zoom.us",
	"teams":                "Microsoft Teams",
	"microsoft teams":      "Microsoft Teams",
	"excel":                "Microsoft Excel",
	"microsoft excel":      "Microsoft Excel",
	"word":                 "Microsoft Word",
	"microsoft word":       "Microsoft Word",
	"powerpoint":           "Microsoft PowerPoint",
	"microsoft powerpoint": "Microsoft PowerPoint",
	"outlook":              "Microsoft Outlook",
	"microsoft outlook":    "Microsoft Outlook",
}

// Normalize trims whitespace and an ".app"/".exe" suffix and maps known
// spellings to their canonical name. Unknown names pass through trimmed.
func Normalize(raw string) string {
	name := strings.TrimSpace(raw)
	lower := strings.ToLower(name)
	for _, suffix := range []string{".app", ".exe"} {
		if strings.HasSuffix(lower, suffix) {
			name = strings.TrimSpace(name[:len(name)-len(suffix)])
			lower = strings.ToLower(name)
		}
	}
	if canonical, ok := variations[lower]; ok {
		return canonical
	}
	return name
}

// Detector resolves and normalizes the frontmost application name. The
// normalization cache is owned by the Detector and bounded.
type Detector struct {
	frontmost func() string
	cache     *lru.Cache[string, string]
}

// NewDetector returns a Detector using the platform lookup.
func NewDetector(size int) *Detector {
	return newDetector(frontmostApp, size)
}

func newDetector(frontmost func() string, size int) *Detector {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, string](size)
	if err != nil {
		// Only reachable with a non-positive size.
		panic(err)
	}
	return &Detector{frontmost: frontmost, cache: c}
}

// Current returns the normalized name of the frontmost application, or "".
func (d *Detector) Current() string {
	raw := d.frontmost()
	if raw == "" {
		return ""
	}
	if name, ok := d.cache.Get(raw); ok {
		return name
	}
	name := Normalize(raw)
	d.cache.Add(raw, name)
	return name
}

// Len reports how many raw names are cached.
func (d *Detector) Len() int { return d.cache.Len() }
