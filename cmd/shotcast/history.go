package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"go.klb.dev/shotcast/internal/ipc"
	"go.klb.dev/shotcast/internal/store"
)

// openHistory returns the daemon's history over IPC when one is running,
// and otherwise opens the store in data-dir directly. The second return
// value describes the transport for status output.
func openHistory(v *viper.Viper) (ipc.History, string, error) {
	passphrase := v.GetString("passphrase")

	if ipc.IsRunning() {
		key, err := ipc.KeyFor(passphrase)
		if err != nil {
			return nil, "", fmt.Errorf("ipc key: %w", err)
		}
		c, err := ipc.NewClient(key)
		if err == nil {
			return c, fmt.Sprintf("ipc (%s)", ipc.SocketPath()), nil
		}
		slog.Debug("ipc unavailable, opening history directly", "err", err)
	}

	dir := v.GetString("data-dir")
	st, err := store.Open(dir, store.Options{Passphrase: passphrase})
	if err != nil {
		return nil, "", err
	}
	return ipc.NewLocal(st), fmt.Sprintf("local (%s)", dir), nil
}
