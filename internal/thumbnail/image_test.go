package thumbnail

import (
	"context"
	"encoding/binary"
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/shotcast/internal/errors"
	"go.klb.dev/shotcast/internal/item"
)

// oversizedPNG returns a tiny PNG whose header claims w x h pixels.
func oversizedPNG(t *testing.T, w, h uint32) []byte {
	t.Helper()
	data := pngBytes(t, 1, 1, false)
	// IHDR: 8-byte signature, 4-byte length, "IHDR", width, height, ..., CRC.
	require.Equal(t, "IHDR", string(data[12:16]))
	binary.BigEndian.PutUint32(data[16:20], w)
	binary.BigEndian.PutUint32(data[20:24], h)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestRender_RejectsOversizedImage(t *testing.T) {
	r := NewRenderer(DefaultConfig())
	huge := oversizedPNG(t, 16000, 16000)

	for _, c := range []item.Category{item.Image, item.Design} {
		t.Run(c.String(), func(t *testing.T) {
			_, err := r.Render(context.Background(), newItem(t, c, huge))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrRender))
			assert.ErrorContains(t, err, "too large")
		})
	}
}

func TestDecodeBounded(t *testing.T) {
	img, err := decodeBounded(pngBytes(t, 40, 20, false))
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())

	_, err = decodeBounded(oversizedPNG(t, 10000, 5001))
	assert.ErrorContains(t, err, "too large")

	_, err = decodeBounded([]byte("nope"))
	assert.ErrorContains(t, err, "header")
}
