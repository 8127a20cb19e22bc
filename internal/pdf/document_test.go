package pdf_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/alternator/internal/pdf"
	"github.com/local/alternator/internal/pdftest"
)

func TestLoad_ValidDocument(t *testing.T) {
	raw := pdftest.MakePDF(4)
	doc, err := pdf.Load(raw, "fixture.pdf")
	require.NoError(t, err)

	assert.Equal(t, 4, doc.PageCount())
	assert.Equal(t, "fixture.pdf", doc.Name())
	assert.Equal(t, int64(len(raw)), doc.Size())
}

func TestLoad_Garbage(t *testing.T) {
	doc, err := pdf.Load(pdftest.Garbage(), "junk.bin")
	require.Error(t, err)
	assert.Nil(t, doc)
	assert.True(t, pdf.IsLoadError(err))
	assert.Contains(t, err.Error(), "junk.bin")
}

func TestLoad_DoesNotMutateInput(t *testing.T) {
	raw := pdftest.MakePDF(2)
	snapshot := make([]byte, len(raw))
	copy(snapshot, raw)

	_, err := pdf.Load(raw, "fixture.pdf")
	require.NoError(t, err)
	assert.Equal(t, snapshot, raw)
}

func TestExtractPage(t *testing.T) {
	doc, err := pdf.Load(pdftest.MakePDF(3), "fixture.pdf")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		page, err := doc.ExtractPage(i)
		require.NoError(t, err, "page %d", i)

		single, err := pdf.Load(page, "page.pdf")
		require.NoError(t, err, "page %d", i)
		assert.Equal(t, 1, single.PageCount(), "page %d", i)
	}
}

func TestExtractPage_OutOfRange(t *testing.T) {
	doc, err := pdf.Load(pdftest.MakePDF(2), "fixture.pdf")
	require.NoError(t, err)

	_, err = doc.ExtractPage(2)
	assert.Error(t, err)
	_, err = doc.ExtractPage(-1)
	assert.Error(t, err)
}
