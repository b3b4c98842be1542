//go:build linux || windows

package clip

import (
	"golang.design/x/clipboard"
)

// formatBackend reads text and PNG images through golang.design/x/clipboard.
// The change counter comes from the platform file (native on Windows,
// synthesized on Linux).
type formatBackend struct {
	name    string
	counter func() int64
}

func (b *formatBackend) Name() string { return b.name }

func (b *formatBackend) ChangeCount() int64 { return b.counter() }

func (b *formatBackend) Kinds() []Kind {
	kinds := textKinds(clipboard.Read(clipboard.FmtText))
	if img := clipboard.Read(clipboard.FmtImage); len(img) > 0 {
		kinds = append(kinds, KindImage)
	}
	return kinds
}

func (b *formatBackend) Read(kind Kind) ([]byte, error) {
	switch kind {
	case KindImage:
		return clipboard.Read(clipboard.FmtImage), nil
	case KindURL, KindFileURL, KindText:
		return readDerived(kind, clipboard.Read(clipboard.FmtText)), nil
	default:
		return nil, nil
	}
}

func (b *formatBackend) Close() {}
