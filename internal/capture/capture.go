// Package capture deduplicates captured items against the store and hands
// new ones to the thumbnail pipeline.
package capture

import (
	"context"
	"log/slog"
	"time"

	"go.klb.dev/shotcast/internal/errors"
	"go.klb.dev/shotcast/internal/fingerprint"
	"go.klb.dev/shotcast/internal/item"
)

// Outcome says what Handle did with an item.
type Outcome uint8

const (
	OutcomeInserted Outcome = iota + 1
	OutcomeDuplicate
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeDuplicate:
		return "duplicate"
	default:
		return "none"
	}
}

// Store is the subset of the item store the dedup path needs.
type Store interface {
	// FindByFingerprint returns the ID of the stored item with fp, or
	// ok=false.
	FindByFingerprint(ctx context.Context, fp fingerprint.Fingerprint) (id string, ok bool, err error)
	// Insert adds a new item.
	Insert(ctx context.Context, it *item.CapturedItem) error
	// Touch refreshes only the timestamp of an existing item.
	Touch(ctx context.Context, id string, at time.Time) error
}

// Scheduler accepts items for background preview rendering.
type Scheduler interface {
	Schedule(it *item.CapturedItem) bool
}

// Service applies the dedup rule: one stored item per fingerprint, with the
// timestamp of its most recent capture.
type Service struct {
	store     Store
	scheduler Scheduler
	log       *slog.Logger
}

// NewService returns a Service. scheduler may be nil to disable previews.
func NewService(store Store, scheduler Scheduler) *Service {
	return &Service{
		store:     store,
		scheduler: scheduler,
		log:       slog.Default().With("component", "capture"),
	}
}

// Handle stores it, or refreshes the timestamp of the existing item with the
// same fingerprint. Duplicates are not re-rendered. Store failures are
// returned unretried; the item is dropped.
func (s *Service) Handle(ctx context.Context, it *item.CapturedItem) (Outcome, error) {
	if it == nil || len(it.Content()) == 0 {
		return 0, errors.NewCapture("empty item", nil)
	}
	fp := it.Fingerprint()

	id, found, err := s.store.FindByFingerprint(ctx, fp)
	if err != nil {
		return 0, err
	}
	if found {
		if err := s.store.Touch(ctx, id, it.Timestamp); err != nil {
			return 0, err
		}
		s.log.Debug("duplicate capture, timestamp refreshed",
			"id", id,
			"fingerprint", fp.Short(),
		)
		return OutcomeDuplicate, nil
	}

	if err := s.store.Insert(ctx, it); err != nil {
		return 0, err
	}
	if s.scheduler != nil {
		s.scheduler.Schedule(it)
	}
	return OutcomeInserted, nil
}

// Callback adapts Handle to the watcher's capture hook. Errors are logged.
func (s *Service) Callback(ctx context.Context) func(*item.CapturedItem) {
	return func(it *item.CapturedItem) {
		outcome, err := s.Handle(ctx, it)
		if err != nil {
			s.log.Error("capture not stored", "id", it.ID, "err", err)
			return
		}
		s.log.Debug("capture handled", "id", it.ID, "outcome", outcome.String())
	}
}
