//go:build windows

package clip

import (
	"log/slog"

	"golang.design/x/clipboard"
	"golang.org/x/sys/windows"
)

var procGetClipboardSequenceNumber = windows.NewLazySystemDLL("user32.dll").NewProc("GetClipboardSequenceNumber")

func sequenceNumber() int64 {
	n, _, _ := procGetClipboardSequenceNumber.Call()
	return int64(uint32(n))
}

// New returns the Windows clipboard backend. The change counter is the
// system clipboard sequence number.
func New() Source {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard init failed", "err", err)
	}
	return &formatBackend{name: "Windows Clipboard", counter: sequenceNumber}
}
