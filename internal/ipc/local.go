package ipc

import (
	"context"
	"fmt"

	"go.klb.dev/shotcast/internal/errors"
	"go.klb.dev/shotcast/internal/item"
	"go.klb.dev/shotcast/internal/message"
	"go.klb.dev/shotcast/internal/store"
)

// History is the set of history operations the CLI needs. The daemon
// serves it over the socket; without a daemon the CLI uses Local directly.
type History interface {
	List(ctx context.Context, q message.Query) ([]item.Summary, error)
	Show(ctx context.Context, id string) (*message.Detail, error)
	Forget(ctx context.Context, id string) error
	Favorite(ctx context.Context, id string, on bool) error
	Tag(ctx context.Context, id, name, color string) (*item.Tag, error)
	// Thumbnail returns nil data when no preview has been rendered yet.
	Thumbnail(ctx context.Context, id string) ([]byte, error)
	Close() error
}

// Local implements History on an open store.
type Local struct {
	st *store.Store
}

var _ History = (*Local)(nil)

// NewLocal wraps st. Close closes st.
func NewLocal(st *store.Store) *Local { return &Local{st: st} }

// List implements History.
func (l *Local) List(ctx context.Context, q message.Query) ([]item.Summary, error) {
	opts := store.ListOptions{Limit: q.Limit, FavoritesOnly: q.Favorites}
	for _, name := range q.Categories {
		c, ok := item.ParseCategory(name)
		if !ok {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown category %q", name))
		}
		opts.Categories = append(opts.Categories, c)
	}
	if q.Tag != "" {
		tag, err := l.st.TagByName(ctx, q.Tag)
		if err != nil {
			return nil, err
		}
		opts.TagID = tag.ID
	}
	items, err := l.st.List(ctx, opts)
	if err != nil {
		return nil, err
	}
	names, err := l.tagNames(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Tags = resolveTags(items[i].Tags, names)
	}
	return items, nil
}

// tagNames maps tag IDs to names. Summaries leave the store carrying IDs;
// the CLI shows names.
func (l *Local) tagNames(ctx context.Context) (map[string]string, error) {
	tags, err := l.st.Tags(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(tags))
	for _, t := range tags {
		names[t.ID] = t.Name
	}
	return names, nil
}

func resolveTags(ids []string, names map[string]string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if n, ok := names[id]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Show implements History.
func (l *Local) Show(ctx context.Context, id string) (*message.Detail, error) {
	it, err := l.st.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	d := message.NewDetail(it)
	if len(d.Tags) > 0 {
		names, err := l.tagNames(ctx)
		if err != nil {
			return nil, err
		}
		d.Tags = resolveTags(d.Tags, names)
	}
	return d, nil
}

// Forget implements History.
func (l *Local) Forget(ctx context.Context, id string) error {
	return l.st.Delete(ctx, id)
}

// Favorite implements History.
func (l *Local) Favorite(ctx context.Context, id string, on bool) error {
	return l.st.SetFavorite(ctx, id, on)
}

// Tag attaches the tag called name to id, creating the tag with color if
// it does not exist yet.
func (l *Local) Tag(ctx context.Context, id, name, color string) (*item.Tag, error) {
	tag, err := l.st.TagByName(ctx, name)
	if errors.Is(err, errors.ErrNotFound) {
		tag, err = l.st.CreateTag(ctx, name, color)
	}
	if err != nil {
		return nil, err
	}
	if err := l.st.AddTag(ctx, id, tag.ID); err != nil {
		return nil, err
	}
	return tag, nil
}

// Thumbnail implements History.
func (l *Local) Thumbnail(ctx context.Context, id string) ([]byte, error) {
	return l.st.Thumbnail(ctx, id)
}

// Close implements History.
func (l *Local) Close() error { return l.st.Close() }
