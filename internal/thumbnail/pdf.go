package thumbnail

import (
	"bytes"
	"fmt"

	"github.com/unidoc/unipdf/v3/model"
	"github.com/unidoc/unipdf/v3/render"
)

// renderPDF rasterizes the first page of a PDF document.
func (r *Renderer) renderPDF(data []byte) ([]byte, error) {
	reader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	encrypted, err := reader.IsEncrypted()
	if err != nil {
		return nil, fmt.Errorf("inspect pdf: %w", err)
	}
	if encrypted {
		ok, err := reader.Decrypt([]byte(""))
		if err != nil || !ok {
			return nil, fmt.Errorf("pdf is password protected")
		}
	}
	pages, err := reader.GetNumPages()
	if err != nil {
		return nil, fmt.Errorf("count pdf pages: %w", err)
	}
	if pages < 1 {
		return nil, fmt.Errorf("pdf has no pages")
	}
	page, err := reader.GetPage(1)
	if err != nil {
		return nil, fmt.Errorf("load first page: %w", err)
	}

	device := render.NewImageDevice()
	device.OutputWidth = r.cfg.Width
	img, err := device.Render(page)
	if err != nil {
		return nil, fmt.Errorf("render first page: %w", err)
	}
	return r.encode(img)
}
