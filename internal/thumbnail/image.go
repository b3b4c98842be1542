package thumbnail

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	// Extra decoders for formats commonly found on the clipboard.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxPixels caps the declared size of a decoded raster. Decoders allocate
// the full pixel buffer from the header before reading any pixel data.
const MaxPixels = 50_000_000

// decodeBounded decodes data after checking its declared dimensions
// against MaxPixels.
func decodeBounded(data []byte) (image.Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%s image has no pixels", format)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%s image too large: %dx%d exceeds %d pixels",
			format, cfg.Width, cfg.Height, MaxPixels)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}
	return img, nil
}

func (r *Renderer) renderImage(data []byte) ([]byte, error) {
	img, err := decodeBounded(data)
	if err != nil {
		return nil, err
	}
	return r.encode(img)
}

// encode scales img into the bounding box and writes it as JPEG. Images
// already inside the box keep their size. Transparent regions are
// flattened onto white since JPEG has no alpha channel.
func (r *Renderer) encode(img image.Image) ([]byte, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("image has no pixels")
	}
	fitted := imaging.Fit(img, r.cfg.Width, r.cfg.Height, imaging.Lanczos)

	fb := fitted.Bounds()
	flat := imaging.New(fb.Dx(), fb.Dy(), color.White)
	flat = imaging.Overlay(flat, fitted, image.Pt(0, 0), 1.0)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, flat, imaging.JPEG, imaging.JPEGQuality(r.cfg.Quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
