package interleave

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog/log"

	"github.com/local/alternator/internal/metrics"
	"github.com/local/alternator/internal/pdf"
)

// FallbackName is used when source A carries no file name.
const FallbackName = "interleaved.pdf"

// NamePrefix is prepended to source A's file name to derive the artifact name.
const NamePrefix = "al-"

// Slot identifies which source document a page comes from.
type Slot string

const (
	SlotA Slot = "a"
	SlotB Slot = "b"
)

// PageRef addresses one page of one source document within a merge plan.
type PageRef struct {
	Slot Slot
	Page int // zero-based index into the source document
}

// MergeError marks a failure while copying pages or serializing the output.
// No partial artifact survives a MergeError.
type MergeError struct {
	Err error
}

func (e *MergeError) Error() string { return fmt.Sprintf("merge: %v", e.Err) }
func (e *MergeError) Unwrap() error { return e.Err }

// Artifact is the result of one successful merge: the serialized output plus
// the metadata the caller presents (page count, byte size, derived name).
type Artifact struct {
	Bytes     []byte
	PageCount int
	Size      int64
	Name      string
}

// Plan computes the strict alternation of two page ranges. For each index the
// A-side page precedes the B-side page; when one side runs out the other
// continues uninterrupted. The plan always holds exactly a+b entries.
func Plan(a, b int) []PageRef {
	n := a
	if b > n {
		n = b
	}
	refs := make([]PageRef, 0, a+b)
	for i := 0; i < n; i++ {
		if i < a {
			refs = append(refs, PageRef{Slot: SlotA, Page: i})
		}
		if i < b {
			refs = append(refs, PageRef{Slot: SlotB, Page: i})
		}
	}
	return refs
}

// OutputName derives the artifact file name from source A's file name.
// B's name never participates.
func OutputName(aName string) string {
	if aName == "" {
		return NamePrefix + FallbackName
	}
	return NamePrefix + aName
}

// Merge assembles a new document alternating pages from docA and docB and
// serializes it. Both inputs must already be loaded; neither is modified.
// Any page-copy or serialization failure aborts the whole merge.
func Merge(docA, docB *pdf.Document) (*Artifact, error) {
	start := time.Now()
	plan := Plan(docA.PageCount(), docB.PageCount())
	if len(plan) == 0 {
		return nil, &MergeError{Err: fmt.Errorf("both sources are empty")}
	}

	parts := make([]io.ReadSeeker, 0, len(plan))
	for _, ref := range plan {
		src := docA
		if ref.Slot == SlotB {
			src = docB
		}
		page, err := src.ExtractPage(ref.Page)
		if err != nil {
			return nil, &MergeError{Err: fmt.Errorf("copy %s page %d: %w", ref.Slot, ref.Page, err)}
		}
		parts = append(parts, bytes.NewReader(page))
	}

	var out bytes.Buffer
	conf := model.NewDefaultConfiguration()
	if err := api.MergeRaw(parts, &out, false, conf); err != nil {
		return nil, &MergeError{Err: fmt.Errorf("serialize output: %w", err)}
	}

	art := &Artifact{
		Bytes:     out.Bytes(),
		PageCount: docA.PageCount() + docB.PageCount(),
		Size:      int64(out.Len()),
		Name:      OutputName(docA.Name()),
	}
	metrics.ObserveMerge(art.PageCount, art.Size, time.Since(start))
	log.Info().
		Int("pages_a", docA.PageCount()).
		Int("pages_b", docB.PageCount()).
		Int("pages_out", art.PageCount).
		Int64("bytes", art.Size).
		Dur("took", time.Since(start)).
		Msg("interleave merge complete")
	return art, nil
}
