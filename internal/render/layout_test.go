package render

import (
	"strconv"
	"testing"

	"github.com/rohmanhakim/beu-result-proxy/internal/extractor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradeRows(n int) []extractor.ResultRow {
	rows := make([]extractor.ResultRow, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, extractor.NewResultRow(
			extractor.Cell{Header: "Subject", Value: "S" + strconv.Itoa(i)},
			extractor.Cell{Header: "Grade", Value: "A"},
		))
	}
	return rows
}

func opsOnPage(p plan, page int) []textOp {
	var ops []textOp
	for _, op := range p.ops {
		if op.page == page {
			ops = append(ops, op)
		}
	}
	return ops
}

func TestPlanDocument_EmptyRowsIsHeaderBlockOnly(t *testing.T) {
	p := planDocument("22101110001", "B.Tech 3rd Semester Examination 2023", nil)

	assert.Equal(t, 1, p.pages)
	require.Len(t, p.ops, 3)
	assert.Equal(t, textOp{page: 1, x: 40, y: 40, font: fontTitle, text: "BEU Result"}, p.ops[0])
	assert.Equal(t, textOp{page: 1, x: 40, y: 60, font: fontInfo, text: "Reg No: 22101110001"}, p.ops[1])
	assert.Equal(t, textOp{page: 1, x: 40, y: 80, font: fontInfo, text: "Exam: B.Tech 3rd Semester Examination 2023"}, p.ops[2])
}

func TestPlanDocument_GridFollowsFirstRowColumnOrder(t *testing.T) {
	rows := []extractor.ResultRow{
		extractor.NewResultRow(
			extractor.Cell{Header: "Code", Value: "100311"},
			extractor.Cell{Header: "Subject", Value: "Mathematics"},
			extractor.Cell{Header: "Grade", Value: "A"},
		),
		// different key order and a missing column
		extractor.NewResultRow(
			extractor.Cell{Header: "Grade", Value: "B"},
			extractor.Cell{Header: "Code", Value: "100312"},
		),
	}

	p := planDocument("1", "Exam", rows)
	table := p.ops[3:]

	require.Len(t, table, 9)
	for i, want := range []string{"Code", "Subject", "Grade"} {
		assert.Equal(t, want, table[i].text)
		assert.Equal(t, fontTableHead, table[i].font)
		assert.Equal(t, 40+float64(i)*120, table[i].x)
		assert.Equal(t, 120.0, table[i].y)
	}

	assert.Equal(t, []string{"100311", "Mathematics", "A"}, []string{table[3].text, table[4].text, table[5].text})
	assert.Equal(t, 140.0, table[3].y)
	assert.Equal(t, []string{"100312", "", "B"}, []string{table[6].text, table[7].text, table[8].text})
	assert.Equal(t, 160.0, table[6].y)
}

func TestPlanDocument_PaginatesBeforeBottomMargin(t *testing.T) {
	p := planDocument("1", "Exam", gradeRows(100))

	require.Greater(t, p.pages, 1)
	for _, op := range p.ops {
		assert.LessOrEqual(t, op.y, pageHeight-marginBottom, "op %q on page %d below margin", op.text, op.page)
		assert.GreaterOrEqual(t, op.y, marginTop)
	}

	bodyCount := 0
	for _, op := range p.ops {
		if op.font == fontTableBody {
			bodyCount++
		}
	}
	assert.Equal(t, 200, bodyCount, "every row is rendered exactly once")
}

func TestPlanDocument_ContinuationPageRepeatsColumnHeaders(t *testing.T) {
	p := planDocument("1", "Exam", gradeRows(100))

	second := opsOnPage(p, 2)
	require.GreaterOrEqual(t, len(second), 4)
	assert.Equal(t, textOp{page: 2, x: 40, y: marginTop, font: fontTableHead, text: "Subject"}, second[0])
	assert.Equal(t, textOp{page: 2, x: 160, y: marginTop, font: fontTableHead, text: "Grade"}, second[1])
	assert.Equal(t, marginTop+lineHeight, second[2].y)
}

func TestPlanDocument_FirstPageCapacity(t *testing.T) {
	// table header at 120, rows from 140 in steps of 20 up to the last
	// baseline at 801.89: 34 rows fit on the first page
	fits := planDocument("1", "Exam", gradeRows(34))
	assert.Equal(t, 1, fits.pages)

	overflows := planDocument("1", "Exam", gradeRows(35))
	assert.Equal(t, 2, overflows.pages)
}
