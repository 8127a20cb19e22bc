package interleave_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/alternator/internal/interleave"
	"github.com/local/alternator/internal/pdf"
	"github.com/local/alternator/internal/pdftest"
)

func TestPlan_EqualLengths(t *testing.T) {
	plan := interleave.Plan(3, 3)
	require.Len(t, plan, 6)

	// output page 2k is A page k, 2k+1 is B page k
	for k := 0; k < 3; k++ {
		assert.Equal(t, interleave.PageRef{Slot: interleave.SlotA, Page: k}, plan[2*k])
		assert.Equal(t, interleave.PageRef{Slot: interleave.SlotB, Page: k}, plan[2*k+1])
	}
}

func TestPlan_ALonger(t *testing.T) {
	plan := interleave.Plan(3, 2)
	require.Len(t, plan, 5)

	want := []interleave.PageRef{
		{Slot: interleave.SlotA, Page: 0},
		{Slot: interleave.SlotB, Page: 0},
		{Slot: interleave.SlotA, Page: 1},
		{Slot: interleave.SlotB, Page: 1},
		{Slot: interleave.SlotA, Page: 2},
	}
	assert.Equal(t, want, plan)
}

func TestPlan_BLonger(t *testing.T) {
	plan := interleave.Plan(1, 4)
	require.Len(t, plan, 5)

	want := []interleave.PageRef{
		{Slot: interleave.SlotA, Page: 0},
		{Slot: interleave.SlotB, Page: 0},
		{Slot: interleave.SlotB, Page: 1},
		{Slot: interleave.SlotB, Page: 2},
		{Slot: interleave.SlotB, Page: 3},
	}
	assert.Equal(t, want, plan)
}

func TestPlan_OneSideEmpty(t *testing.T) {
	plan := interleave.Plan(0, 3)
	require.Len(t, plan, 3)
	for i, ref := range plan {
		assert.Equal(t, interleave.SlotB, ref.Slot)
		assert.Equal(t, i, ref.Page)
	}

	assert.Empty(t, interleave.Plan(0, 0))
}

func TestPlan_TailOrderAfterShortSideEnds(t *testing.T) {
	a, b := 7, 3
	plan := interleave.Plan(a, b)
	require.Len(t, plan, a+b)

	// once B is exhausted the remainder is A's pages in original order
	tail := plan[2*b:]
	for i, ref := range tail {
		assert.Equal(t, interleave.SlotA, ref.Slot)
		assert.Equal(t, b+i, ref.Page)
	}
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "al-report.pdf", interleave.OutputName("report.pdf"))
	assert.Equal(t, "al-interleaved.pdf", interleave.OutputName(""))
}

func TestMerge_PageCountAndName(t *testing.T) {
	docA, err := pdf.Load(pdftest.MakePDF(3), "report.pdf")
	require.NoError(t, err)
	docB, err := pdf.Load(pdftest.MakePDF(2), "notes.pdf")
	require.NoError(t, err)

	art, err := interleave.Merge(docA, docB)
	require.NoError(t, err)

	assert.Equal(t, 5, art.PageCount)
	assert.Equal(t, "al-report.pdf", art.Name)
	assert.Equal(t, int64(len(art.Bytes)), art.Size)

	// the serialized artifact parses back with the promised page count
	out, err := pdf.Load(art.Bytes, art.Name)
	require.NoError(t, err)
	assert.Equal(t, 5, out.PageCount())
}

func TestMerge_NameNeverDerivedFromB(t *testing.T) {
	docA, err := pdf.Load(pdftest.MakePDF(1), "")
	require.NoError(t, err)
	docB, err := pdf.Load(pdftest.MakePDF(1), "notes.pdf")
	require.NoError(t, err)

	art, err := interleave.Merge(docA, docB)
	require.NoError(t, err)
	assert.Equal(t, "al-interleaved.pdf", art.Name)
}

func TestMerge_UnequalLengths(t *testing.T) {
	docA, err := pdf.Load(pdftest.MakePDF(1), "a.pdf")
	require.NoError(t, err)
	docB, err := pdf.Load(pdftest.MakePDF(5), "b.pdf")
	require.NoError(t, err)

	art, err := interleave.Merge(docA, docB)
	require.NoError(t, err)
	assert.Equal(t, 6, art.PageCount)

	out, err := pdf.Load(art.Bytes, art.Name)
	require.NoError(t, err)
	assert.Equal(t, 6, out.PageCount())
}

func TestMerge_Repeatable(t *testing.T) {
	docA, err := pdf.Load(pdftest.MakePDF(2), "a.pdf")
	require.NoError(t, err)
	docB, err := pdf.Load(pdftest.MakePDF(2), "b.pdf")
	require.NoError(t, err)

	first, err := interleave.Merge(docA, docB)
	require.NoError(t, err)
	second, err := interleave.Merge(docA, docB)
	require.NoError(t, err)

	// same inputs, same page count and name both times
	assert.Equal(t, first.PageCount, second.PageCount)
	assert.Equal(t, first.Name, second.Name)
}
