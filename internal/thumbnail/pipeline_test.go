package thumbnail

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/shotcast/internal/item"
)

type fakeWriter struct {
	mu     sync.Mutex
	calls  map[string]int
	stored map[string][]byte
	err    error
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{calls: map[string]int{}, stored: map[string][]byte{}}
}

func (w *fakeWriter) SetThumbnail(_ context.Context, id string, data []byte) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls[id]++
	if w.err != nil {
		return false, w.err
	}
	if _, ok := w.stored[id]; ok {
		return false, nil
	}
	w.stored[id] = data
	return true, nil
}

func (w *fakeWriter) count(id string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls[id]
}

type funcPreviewer func(ctx context.Context, it *item.CapturedItem) ([]byte, error)

func (f funcPreviewer) Render(ctx context.Context, it *item.CapturedItem) ([]byte, error) {
	return f(ctx, it)
}

type recordingObserver struct {
	mu       sync.Mutex
	failures []Completion
}

func (o *recordingObserver) RenderFailed(c Completion) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures = append(o.failures, c)
}

func TestPipeline_RendersAndWritesOnce(t *testing.T) {
	w := newFakeWriter()
	p := NewPipeline(NewRenderer(DefaultConfig()), w, WithWorkers(4))

	it := newItem(t, item.Image, pngBytes(t, 800, 600, false))
	require.True(t, p.Schedule(it))
	require.True(t, p.Schedule(it))
	p.Close()

	assert.Equal(t, 1, w.count(it.ID))
	state, ok := p.State(it.ID)
	require.True(t, ok)
	assert.Equal(t, StateRendered, state)
	assert.Equal(t, DefaultWidth, decodeJPEG(t, w.stored[it.ID]).Dx())

	st := p.Stats()
	assert.Equal(t, 2, st.Scheduled)
	assert.Equal(t, 2, st.Rendered)
	assert.Equal(t, 1, st.Discarded)
	assert.Equal(t, 0, st.Pending)
}

func TestPipeline_UnsupportedNeverWrites(t *testing.T) {
	w := newFakeWriter()
	called := false
	pv := funcPreviewer(func(context.Context, *item.CapturedItem) ([]byte, error) {
		called = true
		return []byte("x"), nil
	})
	p := NewPipeline(pv, w)

	it := newItem(t, item.Text, []byte("hello"))
	require.True(t, p.Schedule(it))
	p.Close()

	assert.False(t, called)
	assert.Equal(t, 0, w.count(it.ID))
	state, _ := p.State(it.ID)
	assert.Equal(t, StateUnsupported, state)
	assert.Equal(t, 1, p.Stats().Unsupported)
}

func TestPipeline_FailureGoesToObserver(t *testing.T) {
	w := newFakeWriter()
	obs := &recordingObserver{}
	p := NewPipeline(NewRenderer(DefaultConfig()), w, WithObserver(obs))

	it := newItem(t, item.PDF, []byte("definitely not a pdf"))
	require.True(t, p.Schedule(it))
	p.Close()

	assert.Equal(t, 0, w.count(it.ID))
	state, _ := p.State(it.ID)
	assert.Equal(t, StateFailed, state)
	require.Len(t, obs.failures, 1)
	assert.Equal(t, it.ID, obs.failures[0].ItemID)
	assert.Error(t, obs.failures[0].Err)
}

func TestPipeline_WriterErrorIsFailure(t *testing.T) {
	w := newFakeWriter()
	w.err = fmt.Errorf("disk full")
	obs := &recordingObserver{}
	pv := funcPreviewer(func(context.Context, *item.CapturedItem) ([]byte, error) {
		return []byte{0xff, 0xd8}, nil
	})
	p := NewPipeline(pv, w, WithObserver(obs))

	it := newItem(t, item.Image, []byte("img"))
	p.Schedule(it)
	p.Close()

	state, _ := p.State(it.ID)
	assert.Equal(t, StateFailed, state)
	require.Len(t, obs.failures, 1)
	assert.ErrorContains(t, obs.failures[0].Err, "disk full")
}

func TestPipeline_ScheduleDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	running, peak := 0, 0
	pv := funcPreviewer(func(context.Context, *item.CapturedItem) ([]byte, error) {
		mu.Lock()
		running++
		if running > peak {
			peak = running
		}
		mu.Unlock()
		<-release
		mu.Lock()
		running--
		mu.Unlock()
		return []byte("jpeg"), nil
	})
	w := newFakeWriter()
	p := NewPipeline(pv, w, WithWorkers(2))

	const n = 200
	done := make(chan struct{})
	go func() {
		for i := 0; i < n; i++ {
			p.Schedule(newItem(t, item.Image, []byte(fmt.Sprintf("img-%d", i))))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Schedule blocked while renders were stalled")
	}

	close(release)
	p.Close()

	assert.LessOrEqual(t, peak, 2)
	assert.Equal(t, n, p.Stats().Rendered)
	assert.False(t, p.Schedule(newItem(t, item.Image, []byte("late"))))
}

func TestPipeline_RenderTimeout(t *testing.T) {
	pv := funcPreviewer(func(ctx context.Context, _ *item.CapturedItem) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	obs := &recordingObserver{}
	p := NewPipeline(pv, newFakeWriter(), WithRenderTimeout(10*time.Millisecond), WithObserver(obs))

	it := newItem(t, item.Video, []byte("vid"))
	p.Schedule(it)
	p.Close()

	require.Len(t, obs.failures, 1)
	assert.ErrorIs(t, obs.failures[0].Err, context.DeadlineExceeded)
}

func TestPipeline_CompletionHookAndDoubleClose(t *testing.T) {
	var got []State
	var mu sync.Mutex
	p := NewPipeline(NewRenderer(DefaultConfig()), newFakeWriter(), WithCompletionHook(func(c Completion) {
		mu.Lock()
		got = append(got, c.State)
		mu.Unlock()
	}))
	p.Schedule(newItem(t, item.Archive, []byte("PK")))
	p.Close()
	p.Close()

	assert.Equal(t, []State{StateUnsupported}, got)
	_, ok := p.State("missing")
	assert.False(t, ok)
	assert.Equal(t, "failed", StateFailed.String())
}

func TestPipeline_PanickingRenderFailsOnlyThatItem(t *testing.T) {
	w := newFakeWriter()
	obs := &recordingObserver{}
	pv := funcPreviewer(func(_ context.Context, it *item.CapturedItem) ([]byte, error) {
		if string(it.Content()) == "bad" {
			panic("decoder blew up")
		}
		return []byte{0xff, 0xd8}, nil
	})
	p := NewPipeline(pv, w, WithObserver(obs), WithWorkers(1))

	bad := newItem(t, item.Image, []byte("bad"))
	good := newItem(t, item.Image, []byte("good"))
	require.True(t, p.Schedule(bad))
	require.True(t, p.Schedule(good))
	p.Close()

	state, _ := p.State(bad.ID)
	assert.Equal(t, StateFailed, state)
	state, _ = p.State(good.ID)
	assert.Equal(t, StateRendered, state)
	assert.Equal(t, 1, w.count(good.ID))

	require.Len(t, obs.failures, 1)
	assert.Equal(t, bad.ID, obs.failures[0].ItemID)
	assert.ErrorContains(t, obs.failures[0].Err, "decoder blew up")

	// With a single worker, the good render only ran because the slot was released.
	assert.Equal(t, 1, p.Stats().Failed)
	assert.Equal(t, 1, p.Stats().Rendered)
}

func TestPipeline_StateIsBounded(t *testing.T) {
	p := NewPipeline(funcPreviewer(func(context.Context, *item.CapturedItem) ([]byte, error) {
		return nil, ErrUnsupported
	}), newFakeWriter())

	for i := 0; i < trackedItems+10; i++ {
		it := newItem(t, item.Text, []byte(fmt.Sprintf("note %d", i)))
		require.True(t, p.Schedule(it))
	}
	p.Close()

	assert.Equal(t, trackedItems+10, p.Stats().Unsupported)
	assert.Equal(t, trackedItems, p.states.Len())
}
