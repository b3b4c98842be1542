// Package clip provides a unified, read-only view of the system clipboard
// across platforms. Build constraints select the appropriate backend:
//
//	clip_darwin.go  : macOS via NSPasteboard changeCount + golang.design/x/clipboard
//	clip_windows.go : Windows via GetClipboardSequenceNumber + golang.design/x/clipboard
//	clip_linux.go   : Linux via golang.design/x/clipboard, counter synthesized by polling
//	clip_other.go   : headless / container stub
//
// Every backend exposes a monotonically increasing change counter, the set
// of representation kinds currently on the clipboard, and byte access per
// kind. The watcher only ever reads; shotcast never writes the clipboard.
package clip

import (
	"bytes"
	"net/url"
	"strings"
)

// Kind names one representation of the clipboard content.
type Kind string

const (
	KindURL     Kind = "url"      // explicit web link
	KindFileURL Kind = "file-url" // reference to a file on disk
	KindImage   Kind = "image"    // encoded raster image (PNG on every backend)
	KindText    Kind = "text"     // UTF-8 plain text
)

// Source is the interface that all platform clipboard implementations satisfy.
type Source interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// ChangeCount returns the clipboard's change counter. It increases
	// every time another application places new content; equal values mean
	// the content has not been replaced.
	ChangeCount() int64

	// Kinds lists the representations currently available.
	Kinds() []Kind

	// Read returns the bytes of one representation. A nil slice with a nil
	// error means the kind is not present.
	Read(kind Kind) ([]byte, error)

	// Close releases any resources held by the backend.
	Close()
}

// Has reports whether kinds contains k.
func Has(kinds []Kind, k Kind) bool {
	for _, have := range kinds {
		if have == k {
			return true
		}
	}
	return false
}

// textKinds derives the representation kinds implied by plain text on
// backends that only expose a text format. A lone http(s) URL is offered as
// a link; text made only of file:// URIs (what file managers place on the
// clipboard) is offered as a file reference.
func textKinds(text []byte) []Kind {
	trimmed := bytes.TrimSpace(text)
	if len(trimmed) == 0 {
		return nil
	}
	kinds := []Kind{KindText}
	if isWebURL(string(trimmed)) {
		kinds = append([]Kind{KindURL}, kinds...)
	} else if firstFileURI(trimmed) != "" {
		kinds = append([]Kind{KindFileURL}, kinds...)
	}
	return kinds
}

func isWebURL(s string) bool {
	if strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// firstFileURI returns the first file:// URI when every non-empty line of
// text is one, or "" otherwise.
func firstFileURI(text []byte) string {
	var first string
	for _, line := range strings.Split(string(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.HasPrefix(line, "file://") {
			return ""
		}
		if first == "" {
			first = line
		}
	}
	return first
}

// FilePath converts a file URL as returned by Read(KindFileURL) into a
// local path.
func FilePath(fileURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(fileURL))
	if err != nil || u.Scheme != "file" || u.Path == "" {
		return "", false
	}
	return u.Path, true
}

// readDerived serves the URL and file-URL kinds from a text payload.
func readDerived(kind Kind, text []byte) []byte {
	trimmed := bytes.TrimSpace(text)
	switch kind {
	case KindURL:
		if isWebURL(string(trimmed)) {
			return trimmed
		}
	case KindFileURL:
		if uri := firstFileURI(trimmed); uri != "" {
			return []byte(uri)
		}
	case KindText:
		if len(text) > 0 {
			return text
		}
	}
	return nil
}
