package thumbnail

import "log/slog"

func logger() *slog.Logger {
	return slog.Default().With("component", "thumbnail")
}
