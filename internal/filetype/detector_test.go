package filetype

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/local/alternator/internal/pdftest"
)

func TestDetectPDF(t *testing.T) {
	info := Detect(pdftest.MakePDF(1))
	assert.True(t, info.IsPDF)
	assert.Equal(t, "application/pdf", info.MIMEType)
}

func TestRequirePDF(t *testing.T) {
	assert.NoError(t, RequirePDF(pdftest.MakePDF(2)))

	err := RequirePDF([]byte("plain text masquerading as upload.pdf"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "application/pdf")
}
