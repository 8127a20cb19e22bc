// Package pdftest synthesizes minimal but well-formed PDF fixtures so tests
// can exercise loading and merging without binary files checked into the repo.
package pdftest

import (
	"bytes"
	"fmt"
)

// MakePDF returns a valid single-xref PDF with n pages (n >= 1). Each page
// carries a small content stream whose geometry depends on the page index,
// so fixture pages are not byte-identical.
func MakePDF(n int) []byte {
	if n < 1 {
		panic("pdftest: page count must be >= 1")
	}

	// object layout: 1 catalog, 2 page tree, 3..n+2 pages, n+3..2n+2 contents
	objCount := 2*n + 2
	offsets := make([]int, objCount+1)

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	writeObj := func(num int, body string) {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}

	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")

	var kids bytes.Buffer
	for i := 0; i < n; i++ {
		if i > 0 {
			kids.WriteByte(' ')
		}
		fmt.Fprintf(&kids, "%d 0 R", 3+i)
	}
	writeObj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 612 792] >>", kids.String(), n))

	for i := 0; i < n; i++ {
		writeObj(3+i, fmt.Sprintf("<< /Type /Page /Parent 2 0 R /Contents %d 0 R >>", n+3+i))
	}

	for i := 0; i < n; i++ {
		content := fmt.Sprintf("0 0 %d %d re f", 100+10*i, 50+5*i)
		body := fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content)
		writeObj(n+3+i, body)
	}

	xrefPos := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", objCount+1)
	buf.WriteString("0000000000 65535 f \n")
	for num := 1; num <= objCount; num++ {
		fmt.Fprintf(&buf, "%010d %05d n \n", offsets[num], 0)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", objCount+1, xrefPos)

	return buf.Bytes()
}

// Garbage returns bytes that no PDF parser should accept.
func Garbage() []byte {
	return []byte("this is not a pdf document, just prose pretending to be one")
}
