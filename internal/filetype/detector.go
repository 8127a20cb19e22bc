package filetype

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// Info describes a sniffed upload.
type Info struct {
	MIMEType  string
	Extension string
	IsPDF     bool
}

// Detect sniffs the content type of data using magic bytes, not the file name.
func Detect(data []byte) Info {
	mtype := mimetype.Detect(data)
	info := Info{
		MIMEType:  mtype.String(),
		Extension: mtype.Extension(),
		IsPDF:     mtype.Is("application/pdf"),
	}
	log.Debug().Str("mime", info.MIMEType).Str("ext", info.Extension).Msg("detected upload type")
	return info
}

// RequirePDF returns an error unless data sniffs as a PDF document.
// The slot accepts PDF content only; extensions are not trusted.
func RequirePDF(data []byte) error {
	info := Detect(data)
	if !info.IsPDF {
		return fmt.Errorf("unsupported content type %s, expected application/pdf", info.MIMEType)
	}
	return nil
}
