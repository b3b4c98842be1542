package thumbnail

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/shotcast/internal/errors"
	"go.klb.dev/shotcast/internal/item"
)

func pngBytes(t *testing.T, w, h int, transparent bool) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a := uint8(255)
			if transparent && x < w/2 {
				a = 0
			}
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 90, A: a})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newItem(t *testing.T, c item.Category, content []byte) *item.CapturedItem {
	t.Helper()
	it, err := item.New(item.Params{Category: c, Content: content})
	require.NoError(t, err)
	return it
}

func decodeJPEG(t *testing.T, data []byte) image.Rectangle {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img.Bounds()
}

func TestRender_ImageFitsBoundingBox(t *testing.T) {
	r := NewRenderer(DefaultConfig())
	tests := []struct {
		name  string
		w, h  int
		wantW int
		wantH int
	}{
		{"landscape exact ratio", 800, 600, 400, 300},
		{"wide", 1600, 400, 400, 100},
		{"tall", 300, 1200, 75, 300},
		{"small is not upscaled", 120, 40, 120, 40},
		{"one dimension inside box", 150, 600, 75, 300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.Render(context.Background(), newItem(t, item.Image, pngBytes(t, tt.w, tt.h, false)))
			require.NoError(t, err)
			b := decodeJPEG(t, out)
			assert.Equal(t, tt.wantW, b.Dx())
			assert.Equal(t, tt.wantH, b.Dy())
			assert.LessOrEqual(t, b.Dx(), DefaultWidth)
			assert.LessOrEqual(t, b.Dy(), DefaultHeight)
		})
	}
}

func TestRender_TransparentImage(t *testing.T) {
	r := NewRenderer(DefaultConfig())
	out, err := r.Render(context.Background(), newItem(t, item.Image, pngBytes(t, 40, 20, true)))
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	cr, cg, cb, _ := img.At(2, 10).RGBA()
	// Flattened onto white, allowing for JPEG error.
	assert.Greater(t, cr>>8, uint32(230))
	assert.Greater(t, cg>>8, uint32(230))
	assert.Greater(t, cb>>8, uint32(230))
}

func TestRender_CustomBox(t *testing.T) {
	r := NewRenderer(Config{Width: 64, Height: 64, Quality: 50})
	out, err := r.Render(context.Background(), newItem(t, item.Image, pngBytes(t, 256, 128, false)))
	require.NoError(t, err)
	b := decodeJPEG(t, out)
	assert.Equal(t, 64, b.Dx())
	assert.Equal(t, 32, b.Dy())
}

func TestRender_Unsupported(t *testing.T) {
	r := NewRenderer(DefaultConfig())
	for _, c := range item.Categories() {
		if c.Previewable() {
			continue
		}
		t.Run(c.String(), func(t *testing.T) {
			_, err := r.Render(context.Background(), newItem(t, c, []byte("payload")))
			assert.ErrorIs(t, err, ErrUnsupported)
		})
	}
}

func TestRender_Failures(t *testing.T) {
	r := NewRenderer(DefaultConfig())
	tests := []struct {
		name     string
		category item.Category
		content  []byte
	}{
		{"corrupt image", item.Image, []byte("not an image at all")},
		{"corrupt pdf", item.PDF, []byte("%PDF-1.4 truncated")},
		{"design without preview", item.Design, []byte("8BPS-not-really")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Render(context.Background(), newItem(t, tt.category, tt.content))
			require.Error(t, err)
			assert.NotErrorIs(t, err, ErrUnsupported)
			assert.True(t, errors.Is(err, errors.ErrRender))
		})
	}
}

func TestRender_DesignWithRasterPayload(t *testing.T) {
	r := NewRenderer(DefaultConfig())
	out, err := r.Render(context.Background(), newItem(t, item.Design, pngBytes(t, 900, 300, false)))
	require.NoError(t, err)
	b := decodeJPEG(t, out)
	assert.Equal(t, 400, b.Dx())
	assert.Equal(t, 133, b.Dy())
}

type stubGrabber struct {
	img  image.Image
	path string
	data []byte
}

func (g *stubGrabber) Frame(_ context.Context, path string, data []byte) (image.Image, error) {
	g.path = path
	g.data = data
	return g.img, nil
}

func TestRender_VideoUsesFrameGrabber(t *testing.T) {
	g := &stubGrabber{img: image.NewRGBA(image.Rect(0, 0, 1600, 800))}
	r := NewRenderer(DefaultConfig(), WithFrameGrabber(g))

	it, err := item.New(item.Params{
		Category: item.Video,
		Content:  []byte("fake video bytes"),
		FilePath: "/nonexistent/clip.mp4",
	})
	require.NoError(t, err)

	out, err := r.Render(context.Background(), it)
	require.NoError(t, err)
	b := decodeJPEG(t, out)
	assert.Equal(t, 400, b.Dx())
	assert.Equal(t, 200, b.Dy())
	// Missing source file falls back to the captured payload.
	assert.Empty(t, g.path)
	assert.Equal(t, []byte("fake video bytes"), g.data)
}

func TestConfigNormalized(t *testing.T) {
	c := Config{Quality: 400}.normalized()
	assert.Equal(t, DefaultConfig(), c)
}
