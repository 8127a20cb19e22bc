package preview

import (
	"bytes"
	"fmt"
	"image/jpeg"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog/log"
)

// Renderer produces dashboard thumbnails from loaded source documents.
type Renderer struct {
	dpi     int
	quality int
}

// New creates a Renderer. Non-positive values fall back to 72 DPI / quality 70.
func New(dpi, quality int) *Renderer {
	if dpi <= 0 {
		dpi = 72
	}
	if quality <= 0 || quality > 100 {
		quality = 70
	}
	return &Renderer{dpi: dpi, quality: quality}
}

// FirstPageJPEG renders page 1 of the given PDF bytes as a JPEG thumbnail.
func (r *Renderer) FirstPageJPEG(pdfBytes []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdfBytes)
	if err != nil {
		return nil, fmt.Errorf("open pdf for preview: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() < 1 {
		return nil, fmt.Errorf("document has no pages")
	}

	img, err := doc.ImageDPI(0, float64(r.dpi))
	if err != nil {
		return nil, fmt.Errorf("render preview page: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: r.quality}); err != nil {
		return nil, fmt.Errorf("encode preview jpeg: %w", err)
	}
	log.Debug().
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Int("bytes", buf.Len()).
		Msg("rendered slot preview")
	return buf.Bytes(), nil
}
