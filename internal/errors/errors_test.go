package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShotError_Error(t *testing.T) {
	err := NewNotFound("item", "01HZ")
	assert.Equal(t, "NOT_FOUND: item not found: 01HZ", err.Error())

	wrapped := NewStore("insert", stderrors.New("disk full"))
	assert.Equal(t, "STORE: insert: disk full", wrapped.Error())
}

func TestIs_FollowsWrapChain(t *testing.T) {
	base := NewRender("pdf", stderrors.New("bad xref"))
	wrapped := fmt.Errorf("thumbnail: %w", base)

	assert.True(t, Is(wrapped, ErrRender))
	assert.False(t, Is(wrapped, ErrStore))
	assert.False(t, Is(stderrors.New("plain"), ErrRender))
	assert.False(t, Is(nil, ErrRender))
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := NewCapture("read file", cause)
	require.ErrorIs(t, err, cause)
	assert.Equal(t, ErrCapture, CodeOf(err))
	assert.Equal(t, ErrorCode(""), CodeOf(cause))
}

func TestNewInternal_NilCause(t *testing.T) {
	err := NewInternal(nil)
	assert.Equal(t, "internal error", err.Message)
}
