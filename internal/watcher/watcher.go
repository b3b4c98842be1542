// Package watcher polls a clipboard source at a fixed interval and turns
// every observed change into a captured item.
//
// The watcher only compares the source's change counter; it never looks at
// content to decide whether something changed. Content is read once per
// change, in priority order link, file reference, image, text. The first
// representation present is the one captured; an empty payload produces
// nothing.
package watcher

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"go.klb.dev/shotcast/internal/classify"
	"go.klb.dev/shotcast/internal/clip"
	"go.klb.dev/shotcast/internal/errors"
	"go.klb.dev/shotcast/internal/item"
)

const (
	DefaultInterval    = 500 * time.Millisecond
	DefaultMaxFileSize = 64 << 20
)

// Watcher owns the poll loop for one clipboard source.
type Watcher struct {
	src         clip.Source
	interval    time.Duration
	maxFileSize int64
	onCapture   func(*item.CapturedItem)
	sourceApp   func() string
	now         func() time.Time
	log         *slog.Logger

	mu       sync.Mutex
	baseline int64
	cancel   context.CancelFunc
	done     chan struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithInterval sets the poll interval. Non-positive values keep the default.
func WithInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithMaxFileSize caps the size of referenced files read from disk. Larger
// files are skipped. Non-positive values keep the default.
func WithMaxFileSize(n int64) Option {
	return func(w *Watcher) {
		if n > 0 {
			w.maxFileSize = n
		}
	}
}

// OnCapture registers the capture callback. It runs synchronously on the
// poll goroutine, so it must not block for long.
func OnCapture(fn func(*item.CapturedItem)) Option {
	return func(w *Watcher) { w.onCapture = fn }
}

// WithSourceApp sets the source application lookup, called once per capture.
func WithSourceApp(fn func() string) Option {
	return func(w *Watcher) { w.sourceApp = fn }
}

// WithClock replaces time.Now for capture timestamps.
func WithClock(now func() time.Time) Option {
	return func(w *Watcher) { w.now = now }
}

// New returns a stopped watcher over src. The current clipboard state is
// taken as already seen.
func New(src clip.Source, opts ...Option) *Watcher {
	w := &Watcher{
		src:         src,
		interval:    DefaultInterval,
		maxFileSize: DefaultMaxFileSize,
		onCapture:   func(*item.CapturedItem) {},
		sourceApp:   func() string { return "" },
		now:         time.Now,
		log:         slog.Default().With("component", "watcher", "backend", src.Name()),
	}
	for _, o := range opts {
		o(w)
	}
	w.baseline = src.ChangeCount()
	return w
}

// Interval returns the poll interval.
func (w *Watcher) Interval() time.Duration { return w.interval }

// Start records the current change counter as the baseline and begins
// polling in a new goroutine. Content present at Start is never emitted.
// Polling stops when ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return fmt.Errorf("watcher already running")
	}
	w.baseline = w.src.ChangeCount()

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.loop(ctx, w.done)

	w.log.Info("clipboard watcher started", "interval", w.interval, "change_count", w.baseline)
	return nil
}

// Stop halts polling and waits for an in-progress tick to finish. Captures
// already handed to the callback are unaffected.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	w.log.Info("clipboard watcher stopped")
}

func (w *Watcher) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.Tick()
		}
	}
}

// Tick performs one poll. It reports whether an item was emitted.
func (w *Watcher) Tick() bool {
	count := w.src.ChangeCount()

	w.mu.Lock()
	if count == w.baseline {
		w.mu.Unlock()
		return false
	}
	w.baseline = count
	w.mu.Unlock()

	it, err := w.extract()
	if err != nil {
		w.log.Warn("clipboard extraction failed", "change_count", count, "err", err)
		return false
	}
	if it == nil {
		return false
	}

	w.log.Info("clipboard captured",
		"id", it.ID,
		"category", it.Category.String(),
		"size_bytes", it.FileSize,
		"source_app", it.SourceApp,
	)
	w.onCapture(it)
	return true
}

// extract reads the highest-priority representation. A nil item with a nil
// error means there was nothing to capture.
func (w *Watcher) extract() (*item.CapturedItem, error) {
	kinds := w.src.Kinds()
	p := item.Params{CapturedAt: w.now()}

	switch {
	case clip.Has(kinds, clip.KindURL):
		data, err := w.src.Read(clip.KindURL)
		if err != nil {
			return nil, errors.NewCapture("read link", err)
		}
		p.Content = bytes.TrimSpace(data)
		p.Category = classify.Classify(classify.Snapshot{Kinds: kinds})

	case clip.Has(kinds, clip.KindFileURL):
		data, err := w.src.Read(clip.KindFileURL)
		if err != nil {
			return nil, errors.NewCapture("read file reference", err)
		}
		path, ok := clip.FilePath(string(data))
		if !ok {
			return nil, errors.NewCapture(fmt.Sprintf("unusable file reference %q", data), nil)
		}
		content, err := w.readFile(path)
		if err != nil || content == nil {
			return nil, err
		}
		snap := classify.SnapshotForFile(path)
		snap.Kinds = kinds
		p.Content = content
		p.FilePath = path
		p.Category = classify.Classify(snap)

	case clip.Has(kinds, clip.KindImage):
		data, err := w.src.Read(clip.KindImage)
		if err != nil {
			return nil, errors.NewCapture("read image", err)
		}
		p.Content = data
		p.Category = classify.Classify(classify.Snapshot{Kinds: kinds})

	case clip.Has(kinds, clip.KindText):
		data, err := w.src.Read(clip.KindText)
		if err != nil {
			return nil, errors.NewCapture("read text", err)
		}
		p.Content = data
		p.Category = classify.Classify(classify.Snapshot{Kinds: kinds, Text: data})

	default:
		return nil, nil
	}

	if len(p.Content) == 0 {
		w.log.Debug("empty clipboard payload, skipping", "category", p.Category.String())
		return nil, nil
	}
	p.SourceApp = w.sourceApp()
	return item.New(p)
}

// readFile loads a referenced file. Directories and files over the size cap
// yield nil content and no error.
func (w *Watcher) readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.NewCapture("stat referenced file", err)
	}
	if info.IsDir() {
		w.log.Debug("file reference is a directory, skipping", "path", path)
		return nil, nil
	}
	if info.Size() > w.maxFileSize {
		w.log.Warn("referenced file too large, skipping",
			"path", path,
			"size_bytes", info.Size(),
			"max_bytes", w.maxFileSize,
		)
		return nil, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewCapture("read referenced file", err)
	}
	return content, nil
}
