// Package ipc is the local control channel between a running shotcast
// daemon and the CLI tools (list/show/forget/favorite/tag/status).
//
// One socket carries two protocols, split by cmux on the first bytes of
// each connection: newline-delimited JSON requests (see package message)
// and plain HTTP for preview images. CLI sub-commands check for the socket
// and fall back to opening the history database directly if it is absent.
package ipc

import (
	"net"
	"os"

	"go.klb.dev/shotcast/internal/crypto"
)

// SocketPath returns the platform-appropriate path for the IPC socket.
//
//   - Linux:   $XDG_RUNTIME_DIR/shotcast.sock
//   - macOS:   $TMPDIR/shotcast.sock
//   - Windows: \\.\pipe\shotcast
//
// $SHOTCAST_SOCKET overrides all of them.
func SocketPath() string {
	if s := os.Getenv("SHOTCAST_SOCKET"); s != "" {
		return s
	}
	return socketPath()
}

// IsRunning reports whether a shotcast daemon appears to be listening
// on the IPC socket. It does a cheap dial-and-close; no data is exchanged.
func IsRunning() bool {
	c, err := dialIPC(SocketPath())
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Listen creates and returns a net.Listener on the IPC socket path, removing
// any stale socket file first.
func Listen() (net.Listener, error) {
	path := SocketPath()
	// Remove stale socket from a previous (crashed) run.
	_ = os.Remove(path)
	return listenIPC(path)
}

// Dial connects to the IPC socket.
func Dial() (net.Conn, error) {
	return dialIPC(SocketPath())
}

var ipcSalt = []byte("shotcast-ipc-v1")

// KeyFor returns the channel key for passphrase, or nil when it is empty.
// With an encrypted history the IPC traffic (which carries payloads) is
// sealed with a key both sides derive from the same passphrase.
func KeyFor(passphrase string) (*crypto.Key, error) {
	if passphrase == "" {
		return nil, nil
	}
	return crypto.DeriveKey(passphrase, ipcSalt, crypto.DefaultKDFParams, crypto.PurposeIPC)
}
