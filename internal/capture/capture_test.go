package capture

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/shotcast/internal/errors"
	"go.klb.dev/shotcast/internal/fingerprint"
	"go.klb.dev/shotcast/internal/item"
)

type memStore struct {
	mu      sync.Mutex
	items   map[string]*item.CapturedItem
	byFP    map[fingerprint.Fingerprint]string
	failOn  string
	touches int
}

func newMemStore() *memStore {
	return &memStore{
		items: map[string]*item.CapturedItem{},
		byFP:  map[fingerprint.Fingerprint]string{},
	}
}

func (s *memStore) FindByFingerprint(_ context.Context, fp fingerprint.Fingerprint) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn == "find" {
		return "", false, errors.NewStore("find", fmt.Errorf("database is locked"))
	}
	id, ok := s.byFP[fp]
	return id, ok, nil
}

func (s *memStore) Insert(_ context.Context, it *item.CapturedItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn == "insert" {
		return errors.NewStore("insert", fmt.Errorf("disk full"))
	}
	s.items[it.ID] = it
	s.byFP[it.Fingerprint()] = it.ID
	return nil
}

func (s *memStore) Touch(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return errors.NewNotFound("item", id)
	}
	it.Timestamp = at
	s.touches++
	return nil
}

type countingScheduler struct {
	mu  sync.Mutex
	ids []string
}

func (c *countingScheduler) Schedule(it *item.CapturedItem) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = append(c.ids, it.ID)
	return true
}

func capture(t *testing.T, c item.Category, content string, at time.Time) *item.CapturedItem {
	t.Helper()
	it, err := item.New(item.Params{Category: c, Content: []byte(content), CapturedAt: at})
	require.NoError(t, err)
	return it
}

func TestHandle_InsertThenDuplicate(t *testing.T) {
	store := newMemStore()
	sched := &countingScheduler{}
	svc := NewService(store, sched)
	ctx := context.Background()

	t1 := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)

	first := capture(t, item.Image, "same image bytes", t1)
	outcome, err := svc.Handle(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, OutcomeInserted, outcome)

	second := capture(t, item.Image, "same image bytes", t2)
	outcome, err = svc.Handle(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)

	require.Len(t, store.items, 1)
	stored := store.items[first.ID]
	require.NotNil(t, stored)
	assert.Equal(t, t2, stored.Timestamp)
	assert.Equal(t, 1, store.touches)
	assert.Equal(t, []string{first.ID}, sched.ids, "duplicates are not re-rendered")
}

func TestHandle_DistinctContent(t *testing.T) {
	store := newMemStore()
	sched := &countingScheduler{}
	svc := NewService(store, sched)

	for _, s := range []string{"a", "b", "c"} {
		outcome, err := svc.Handle(context.Background(), capture(t, item.Text, s, time.Now()))
		require.NoError(t, err)
		assert.Equal(t, OutcomeInserted, outcome)
	}
	assert.Len(t, store.items, 3)
	assert.Len(t, sched.ids, 3)
}

func TestHandle_EmptyItemNeverStored(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil)

	_, err := svc.Handle(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCapture))

	_, err = svc.Handle(context.Background(), &item.CapturedItem{ID: "zero"})
	require.Error(t, err)
	assert.Empty(t, store.items)
}

func TestHandle_StoreErrors(t *testing.T) {
	for _, op := range []string{"find", "insert"} {
		t.Run(op, func(t *testing.T) {
			store := newMemStore()
			store.failOn = op
			sched := &countingScheduler{}
			svc := NewService(store, sched)

			_, err := svc.Handle(context.Background(), capture(t, item.Text, "x", time.Now()))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrStore))
			assert.Empty(t, sched.ids)
		})
	}
}

func TestCallback_AbsorbsErrors(t *testing.T) {
	store := newMemStore()
	store.failOn = "insert"
	svc := NewService(store, nil)
	cb := svc.Callback(context.Background())
	assert.NotPanics(t, func() { cb(capture(t, item.Text, "x", time.Now())) })
	assert.Equal(t, "duplicate", OutcomeDuplicate.String())
}
