package thumbnail

import (
	"context"
	stderrors "errors"
	"fmt"
	"image"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"go.klb.dev/shotcast/internal/item"
)

// FilePreviewer produces a still for files without a dedicated renderer.
type FilePreviewer interface {
	Preview(ctx context.Context, it *item.CapturedItem) (image.Image, error)
}

// sniffPreviewer inspects the payload's real format. Many design formats
// embed a raster or PDF-compatible stream (Illustrator saves PDF-compatible
// files by default), which the regular decoders can render.
type sniffPreviewer struct{}

// errPDFCompatible signals the payload should take the PDF path.
var errPDFCompatible = stderrors.New("pdf-compatible payload")

func (sniffPreviewer) Preview(_ context.Context, it *item.CapturedItem) (image.Image, error) {
	mt := mimetype.Detect(it.Content())
	switch {
	case mt.Is("application/pdf"):
		return nil, errPDFCompatible
	case strings.HasPrefix(mt.String(), "image/"):
		return decodeBounded(it.Content())
	default:
		return nil, fmt.Errorf("no previewer for %s", mt.String())
	}
}

func (r *Renderer) renderFile(ctx context.Context, it *item.CapturedItem) ([]byte, error) {
	img, err := r.files.Preview(ctx, it)
	if stderrors.Is(err, errPDFCompatible) {
		return r.renderPDF(it.Content())
	}
	if err != nil {
		return nil, err
	}
	return r.encode(img)
}
