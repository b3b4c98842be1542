package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/shotcast/internal/capture"
	"go.klb.dev/shotcast/internal/clip"
	"go.klb.dev/shotcast/internal/ipc"
	"go.klb.dev/shotcast/internal/message"
	"go.klb.dev/shotcast/internal/sourceapp"
	"go.klb.dev/shotcast/internal/store"
	"go.klb.dev/shotcast/internal/thumbnail"
	"go.klb.dev/shotcast/internal/watcher"
)

const pruneInterval = time.Minute

func newWatchCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the clipboard history daemon",
		Long: `Polls the system clipboard, records every new piece of content in the
history and renders previews in the background. CLI commands reach the
daemon through its local socket.

Config file search order:
  /etc/shotcast/shotcast.toml
  $HOME/.config/shotcast/shotcast.toml
  path supplied via --config

Precedence (lowest → highest): defaults → config file → SHOTCAST_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runWatch(v) },
	}

	f := cmd.Flags()
	f.Duration("poll-interval", watcher.DefaultInterval, "clipboard poll interval")
	f.Int64("max-file-size", watcher.DefaultMaxFileSize, "largest referenced file read into the history, in bytes")
	f.Int("thumb-width", thumbnail.DefaultWidth, "preview bounding box width")
	f.Int("thumb-height", thumbnail.DefaultHeight, "preview bounding box height")
	f.Int("thumb-quality", thumbnail.DefaultQuality, "preview JPEG quality (1-100)")
	f.Int("render-workers", 2, "concurrent preview renders")
	f.Duration("render-timeout", 0, "per-preview render timeout (0 = none)")
	f.String("ffmpeg", "", "ffmpeg binary used for video frames (default: from PATH)")
	f.String("pdf-license-key", "", "unipdf metered license key enabling PDF previews")
	f.Int("retain", 0, "keep only the N most recent non-favorite items (0 = keep all)")
	addHistoryFlags(cmd)
	addLoggingFlags(cmd)

	return cmd
}

func renderConfig(v *viper.Viper) thumbnail.Config {
	return thumbnail.Config{
		Width:         v.GetInt("thumb-width"),
		Height:        v.GetInt("thumb-height"),
		Quality:       v.GetInt("thumb-quality"),
		FFmpegPath:    v.GetString("ffmpeg"),
		PDFLicenseKey: v.GetString("pdf-license-key"),
	}
}

func runWatch(v *viper.Viper) error {
	setupLogging(v)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if ipc.IsRunning() {
		return fmt.Errorf("a shotcast daemon is already listening on %s", ipc.SocketPath())
	}

	dataDir := v.GetString("data-dir")
	passphrase := v.GetString("passphrase")
	retain := v.GetInt("retain")

	st, err := store.Open(dataDir, store.Options{Passphrase: passphrase})
	if err != nil {
		return err
	}
	defer st.Close()

	renderer := thumbnail.NewRenderer(renderConfig(v))
	pipeline := thumbnail.NewPipeline(renderer, st,
		thumbnail.WithWorkers(v.GetInt("render-workers")),
		thumbnail.WithRenderTimeout(v.GetDuration("render-timeout")),
	)
	defer pipeline.Close()

	svc := capture.NewService(st, pipeline)

	src := clip.New()
	defer src.Close()
	detector := sourceapp.NewDetector(64)

	w := watcher.New(src,
		watcher.WithInterval(v.GetDuration("poll-interval")),
		watcher.WithMaxFileSize(v.GetInt64("max-file-size")),
		watcher.WithSourceApp(detector.Current),
		watcher.OnCapture(svc.Callback(ctx)),
	)

	slog.Info("shotcast starting",
		"version", Version,
		"backend", src.Name(),
		"data_dir", dataDir,
		"encrypted", passphrase != "",
		"interval", w.Interval(),
		"retain", retain,
	)

	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	startedAt := time.Now()
	status := func(ctx context.Context) (*message.Status, error) {
		n, err := st.Count(ctx)
		if err != nil {
			return nil, err
		}
		ps := pipeline.Stats()
		return &message.Status{
			Backend:     src.Name(),
			DataDir:     dataDir,
			Encrypted:   passphrase != "",
			StartedAt:   startedAt,
			Items:       n,
			Rendered:    ps.Rendered,
			Unsupported: ps.Unsupported,
			Failed:      ps.Failed,
			Pending:     ps.Pending,
		}, nil
	}

	serveDone := make(chan struct{})
	key, err := ipc.KeyFor(passphrase)
	if err != nil {
		return fmt.Errorf("ipc key: %w", err)
	}
	ln, err := ipc.Listen()
	if err != nil {
		slog.Warn("IPC socket unavailable", "err", err)
		close(serveDone)
	} else {
		slog.Info("IPC socket listening", "path", ipc.SocketPath())
		srv := ipc.NewServer(ipc.NewLocal(st), st, status, key)
		go func() {
			defer close(serveDone)
			if err := srv.Serve(ctx, ln); err != nil {
				slog.Error("IPC server stopped", "err", err)
			}
		}()
	}

	if retain > 0 {
		go pruneLoop(ctx, st, retain)
	}

	<-ctx.Done()
	slog.Info("shotcast stopping")
	<-serveDone
	return nil
}

// pruneLoop trims the history to keep non-favorite items until ctx is done.
func pruneLoop(ctx context.Context, st *store.Store, keep int) {
	t := time.NewTicker(pruneInterval)
	defer t.Stop()
	for {
		if n, err := st.Prune(ctx, keep); err != nil {
			slog.Warn("prune failed", "err", err)
		} else if n > 0 {
			slog.Info("history pruned", "removed", n, "keep", keep)
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
