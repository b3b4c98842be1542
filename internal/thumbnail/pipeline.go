package thumbnail

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"go.klb.dev/shotcast/internal/fingerprint"
	"go.klb.dev/shotcast/internal/item"
)

// State is the thumbnail status of one scheduled item.
type State uint8

const (
	StatePending State = iota
	StateRendered
	StateUnsupported
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRendered:
		return "rendered"
	case StateUnsupported:
		return "unsupported"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Previewer is what the pipeline calls to produce a preview.
type Previewer interface {
	Render(ctx context.Context, it *item.CapturedItem) ([]byte, error)
}

// Writer persists a rendered thumbnail. It reports whether the write took
// effect; an item that already has a thumbnail, or no longer exists, is not
// an error.
type Writer interface {
	SetThumbnail(ctx context.Context, id string, data []byte) (bool, error)
}

// Observer is told about render failures. Failures never reach the capture
// path.
type Observer interface {
	RenderFailed(c Completion)
}

// LogObserver logs failures at WARN.
type LogObserver struct{}

func (LogObserver) RenderFailed(c Completion) {
	logger().Warn("thumbnail render failed",
		"id", c.ItemID,
		"category", c.Category.String(),
		"fingerprint", c.Fingerprint.Short(),
		"err", c.Err,
	)
}

// Completion is the result of one render task.
type Completion struct {
	ItemID      string
	Category    item.Category
	Fingerprint fingerprint.Fingerprint
	State       State
	Data        []byte
	Err         error
	Duration    time.Duration
}

// Stats counts pipeline outcomes.
type Stats struct {
	Scheduled     int
	Rendered      int
	Unsupported   int
	Failed        int
	Pending       int
	Discarded     int // renders whose write was a no-op
	AvgDurationMs int64
}

type writeKey struct {
	id string
	fp fingerprint.Fingerprint
}

// Pipeline renders previews in the background. Schedule starts one task per
// item; at most Workers renders run at a time. Every task reports to a
// single coordinator goroutine, which is the only caller of Writer.
type Pipeline struct {
	previewer Previewer
	writer    Writer
	observer  Observer
	timeout   time.Duration
	onDone    func(Completion)

	sem         chan struct{}
	completions chan Completion
	tasks       sync.WaitGroup
	coordDone   chan struct{}

	mu     sync.Mutex
	closed bool
	states *lru.Cache[string, State]
	stats  Stats
	total  time.Duration

	// owned by the coordinator goroutine
	written *lru.Cache[writeKey, struct{}]
}

// trackedItems bounds the per-item state kept for State and write dedup.
// Older entries are evicted; the store's write-once update still holds.
const trackedItems = 4096

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithWorkers bounds the number of concurrent renders. Values below one
// mean one.
func WithWorkers(n int) PipelineOption {
	return func(p *Pipeline) {
		if n < 1 {
			n = 1
		}
		p.sem = make(chan struct{}, n)
	}
}

// WithRenderTimeout bounds each render. Zero disables the bound.
func WithRenderTimeout(d time.Duration) PipelineOption {
	return func(p *Pipeline) { p.timeout = d }
}

// WithObserver replaces the default logging observer.
func WithObserver(o Observer) PipelineOption {
	return func(p *Pipeline) { p.observer = o }
}

// WithCompletionHook is called by the coordinator after each completion is
// applied.
func WithCompletionHook(fn func(Completion)) PipelineOption {
	return func(p *Pipeline) { p.onDone = fn }
}

// NewPipeline starts the coordinator. Call Close to stop it.
func NewPipeline(pv Previewer, w Writer, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		previewer:   pv,
		writer:      w,
		observer:    LogObserver{},
		sem:         make(chan struct{}, 2),
		completions: make(chan Completion, 64),
		coordDone:   make(chan struct{}),
	}
	p.states, _ = lru.New[string, State](trackedItems)
	p.written, _ = lru.New[writeKey, struct{}](trackedItems)
	for _, o := range opts {
		o(p)
	}
	go p.coordinate()
	return p
}

// Schedule queues a render for it and returns immediately. It reports
// false once the pipeline is closed.
func (p *Pipeline) Schedule(it *item.CapturedItem) bool {
	if it == nil {
		return false
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false
	}
	p.states.Add(it.ID, StatePending)
	p.stats.Scheduled++
	p.stats.Pending++
	p.tasks.Add(1)
	p.mu.Unlock()

	go p.run(it)
	return true
}

func (p *Pipeline) run(it *item.CapturedItem) {
	defer p.tasks.Done()

	c := Completion{
		ItemID:      it.ID,
		Category:    it.Category,
		Fingerprint: it.Fingerprint(),
	}
	if !it.Category.Previewable() {
		c.State = StateUnsupported
		p.completions <- c
		return
	}

	start := time.Now()
	data, err := p.render(it)
	c.Duration = time.Since(start)

	switch {
	case err == nil:
		c.State = StateRendered
		c.Data = data
	case stderrors.Is(err, ErrUnsupported):
		c.State = StateUnsupported
	default:
		c.State = StateFailed
		c.Err = err
	}
	p.completions <- c
}

// render runs the previewer under the worker bound. A panicking decoder
// fails only this item.
func (p *Pipeline) render(it *item.CapturedItem) (data []byte, err error) {
	p.sem <- struct{}{}
	defer func() { <-p.sem }()

	ctx := context.Background()
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, fmt.Errorf("render panic: %v", r)
		}
	}()
	return p.previewer.Render(ctx, it)
}

func (p *Pipeline) coordinate() {
	defer close(p.coordDone)
	for c := range p.completions {
		p.apply(c)
	}
}

func (p *Pipeline) apply(c Completion) {
	switch c.State {
	case StateRendered:
		key := writeKey{id: c.ItemID, fp: c.Fingerprint}
		if p.written.Contains(key) {
			p.record(c, false)
			break
		}
		ok, err := p.writer.SetThumbnail(context.Background(), c.ItemID, c.Data)
		if err != nil {
			c.State = StateFailed
			c.Err = err
			p.record(c, false)
			p.observer.RenderFailed(c)
			break
		}
		p.written.Add(key, struct{}{})
		p.record(c, ok)
	case StateFailed:
		p.record(c, false)
		p.observer.RenderFailed(c)
	default:
		p.record(c, false)
	}
	if p.onDone != nil {
		p.onDone(c)
	}
}

func (p *Pipeline) record(c Completion, wrote bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states.Add(c.ItemID, c.State)
	p.stats.Pending--
	switch c.State {
	case StateRendered:
		p.stats.Rendered++
		if !wrote {
			p.stats.Discarded++
		}
		p.total += c.Duration
		p.stats.AvgDurationMs = (p.total / time.Duration(p.stats.Rendered)).Milliseconds()
	case StateUnsupported:
		p.stats.Unsupported++
	case StateFailed:
		p.stats.Failed++
	}
}

// State returns the last known state for an item ID, and false if the
// pipeline has never seen it or has since evicted it.
func (p *Pipeline) State(id string) (State, bool) {
	return p.states.Get(id)
}

// Stats returns a snapshot of the counters.
func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Close stops accepting work, waits for in-flight renders and drains their
// completions. It is safe to call more than once.
func (p *Pipeline) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.coordDone
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.tasks.Wait()
	close(p.completions)
	<-p.coordDone

	st := p.Stats()
	logger().Info("thumbnail pipeline stopped",
		"rendered", st.Rendered,
		"unsupported", st.Unsupported,
		"failed", st.Failed,
	)
}
