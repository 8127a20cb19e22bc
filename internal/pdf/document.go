package pdf

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog/log"
)

// LoadError marks a byte buffer that could not be parsed as a PDF document.
// Slot attribution (source A vs source B) happens at the caller.
type LoadError struct {
	Name string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("load pdf: %v", e.Err)
	}
	return fmt.Sprintf("load pdf %q: %v", e.Name, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// IsLoadError reports whether err originated from Load.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// Document is a parsed, page-counted PDF handle. The raw bytes are owned by
// the Document and must not be mutated after Load.
type Document struct {
	raw       []byte
	name      string
	pageCount int
	ctx       *model.Context
}

// Load parses and validates raw into a Document. The input bytes are never
// modified; name is carried through for artifact naming and display only.
func Load(raw []byte, name string) (*Document, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadContext(bytes.NewReader(raw), conf)
	if err != nil {
		return nil, &LoadError{Name: name, Err: err}
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, &LoadError{Name: name, Err: err}
	}
	if ctx.PageCount < 1 {
		return nil, &LoadError{Name: name, Err: fmt.Errorf("document has no pages")}
	}
	log.Debug().Str("name", name).Int("pages", ctx.PageCount).Int("bytes", len(raw)).Msg("pdf loaded")
	return &Document{raw: raw, name: name, pageCount: ctx.PageCount, ctx: ctx}, nil
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int { return d.pageCount }

// Name returns the original file name the document was loaded under.
func (d *Document) Name() string { return d.name }

// Size returns the byte length of the original buffer.
func (d *Document) Size() int64 { return int64(len(d.raw)) }

// Bytes exposes the original buffer for read-only use (previews, re-parsing).
// Callers must not mutate it.
func (d *Document) Bytes() []byte { return d.raw }

// ExtractPage serializes the single page at zero-based index i into a
// standalone one-page PDF. The receiver is left untouched.
func (d *Document) ExtractPage(i int) ([]byte, error) {
	if i < 0 || i >= d.pageCount {
		return nil, fmt.Errorf("page index %d out of range [0,%d)", i, d.pageCount)
	}
	pageCtx, err := pdfcpu.ExtractPages(d.ctx, []int{i + 1}, false)
	if err != nil {
		return nil, fmt.Errorf("extract page %d: %w", i, err)
	}
	var buf bytes.Buffer
	if err := api.WriteContext(pageCtx, &buf); err != nil {
		return nil, fmt.Errorf("write page %d: %w", i, err)
	}
	return buf.Bytes(), nil
}
