// Package thumbnail renders bounded JPEG previews of captured items and
// runs the asynchronous pipeline that writes them back to the store.
//
// Render is the pull-style entry point: it dispatches on the item category
// and returns JPEG bytes no larger than the configured bounding box, never
// upscaling smaller sources. Pipeline wraps Render in background tasks and
// funnels every result through one coordinator goroutine, the only writer
// of thumbnails.
package thumbnail

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/unidoc/unipdf/v3/common/license"

	"go.klb.dev/shotcast/internal/errors"
	"go.klb.dev/shotcast/internal/item"
)

// Tunables. The bounding box and quality are not part of any external
// contract.
const (
	DefaultWidth   = 400
	DefaultHeight  = 300
	DefaultQuality = 80
)

// ErrUnsupported is returned by Render for categories without a preview.
// It is an expected outcome, not a failure.
var ErrUnsupported = stderrors.New("thumbnail: category has no preview")

// Config holds the read-only settings shared by every render.
type Config struct {
	Width   int
	Height  int
	Quality int // JPEG quality, 1-100

	// FFmpegPath is the ffmpeg binary used for video frames. Empty means
	// "ffmpeg" from PATH.
	FFmpegPath string

	// PDFLicenseKey is the metered unipdf key enabling page rendering.
	PDFLicenseKey string
}

// DefaultConfig returns the standard 400x300 box at quality 80.
func DefaultConfig() Config {
	return Config{Width: DefaultWidth, Height: DefaultHeight, Quality: DefaultQuality}
}

func (c Config) normalized() Config {
	if c.Width <= 0 {
		c.Width = DefaultWidth
	}
	if c.Height <= 0 {
		c.Height = DefaultHeight
	}
	if c.Quality <= 0 || c.Quality > 100 {
		c.Quality = DefaultQuality
	}
	return c
}

// Renderer produces previews. It holds no mutable state and is safe for
// concurrent use.
type Renderer struct {
	cfg    Config
	frames FrameGrabber
	files  FilePreviewer
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithFrameGrabber replaces the ffmpeg-based video frame source.
func WithFrameGrabber(g FrameGrabber) Option {
	return func(r *Renderer) { r.frames = g }
}

// WithFilePreviewer replaces the generic file previewer used for design files.
func WithFilePreviewer(f FilePreviewer) Option {
	return func(r *Renderer) { r.files = f }
}

var licenseOnce sync.Once

// NewRenderer returns a Renderer for cfg.
func NewRenderer(cfg Config, opts ...Option) *Renderer {
	cfg = cfg.normalized()
	if cfg.PDFLicenseKey != "" {
		licenseOnce.Do(func() {
			if err := license.SetMeteredKey(cfg.PDFLicenseKey); err != nil {
				logger().Warn("pdf license key rejected", "err", err)
			}
		})
	}
	r := &Renderer{cfg: cfg}
	r.frames = &FFmpegGrabber{Path: cfg.FFmpegPath}
	r.files = &sniffPreviewer{}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Config returns the renderer's effective configuration.
func (r *Renderer) Config() Config { return r.cfg }

// Render returns a JPEG preview of it, ErrUnsupported for categories without
// a preview, or a render error.
func (r *Renderer) Render(ctx context.Context, it *item.CapturedItem) ([]byte, error) {
	if it == nil || len(it.Content()) == 0 {
		return nil, errors.NewRender("empty", fmt.Errorf("no content"))
	}
	start := time.Now()

	var (
		data []byte
		err  error
	)
	switch it.Category {
	case item.Image:
		data, err = r.renderImage(it.Content())
	case item.PDF:
		data, err = r.renderPDF(it.Content())
	case item.Video:
		data, err = r.renderVideo(ctx, it)
	case item.Design:
		data, err = r.renderFile(ctx, it)
	case item.Text, item.Word, item.Excel, item.PowerPoint, item.Pages,
		item.Numbers, item.Keynote, item.Code, item.Audio, item.Font,
		item.Archive, item.Installer, item.ThreeDModel, item.Data,
		item.Link, item.File:
		return nil, ErrUnsupported
	default:
		return nil, ErrUnsupported
	}
	if err != nil {
		return nil, errors.NewRender(it.Category.String(), err)
	}

	logger().Debug("thumbnail rendered",
		"id", it.ID,
		"category", it.Category.String(),
		"size_bytes", len(data),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return data, nil
}
