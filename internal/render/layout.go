package render

import (
	"github.com/rohmanhakim/beu-result-proxy/internal/extractor"
)

// Page geometry in points, A4 portrait. Y grows downward from the top edge
// and is the text baseline.
const (
	pageHeight = 841.89

	marginLeft   = 40.0
	marginTop    = 40.0
	marginBottom = 40.0

	columnWidth = 120.0
	lineHeight  = 20.0

	titleY  = 40.0
	regNoY  = 60.0
	examY   = 80.0
	tableY  = 120.0
	docName = "BEU Result"
)

type fontStyle struct {
	family string
	style  string
	size   float64
}

var (
	fontTitle     = fontStyle{family: "Helvetica", style: "B", size: 14}
	fontInfo      = fontStyle{family: "Helvetica", style: "", size: 12}
	fontTableHead = fontStyle{family: "Helvetica", style: "B", size: 10}
	fontTableBody = fontStyle{family: "Helvetica", style: "", size: 10}
)

// textOp places one string on one page. Pages are numbered from 1.
type textOp struct {
	page int
	x    float64
	y    float64
	font fontStyle
	text string
}

type plan struct {
	pages int
	ops   []textOp
}

func (p *plan) add(x, y float64, font fontStyle, text string) {
	p.ops = append(p.ops, textOp{page: p.pages, x: x, y: y, font: font, text: text})
}

// lastBaseline is the lowest baseline a line may use on any page.
func lastBaseline() float64 {
	return pageHeight - marginBottom
}

// planDocument lays out the header block followed by a grid with one column
// per header of the first row. A line that would fall below the bottom
// margin moves to a fresh page, where the column headers are drawn again.
func planDocument(regNo, examTitle string, rows []extractor.ResultRow) plan {
	p := plan{pages: 1}

	p.add(marginLeft, titleY, fontTitle, docName)
	p.add(marginLeft, regNoY, fontInfo, "Reg No: "+regNo)
	p.add(marginLeft, examY, fontInfo, "Exam: "+examTitle)

	if len(rows) == 0 {
		return p
	}

	headers := rows[0].Headers()
	y := tableY

	drawHeaders := func() {
		for i, h := range headers {
			p.add(columnX(i), y, fontTableHead, h)
		}
		y += lineHeight
	}

	drawHeaders()
	for _, row := range rows {
		if y > lastBaseline() {
			p.pages++
			y = marginTop
			drawHeaders()
		}
		for i, h := range headers {
			// later rows may lack a column of the first row
			value, _ := row.Get(h)
			p.add(columnX(i), y, fontTableBody, value)
		}
		y += lineHeight
	}

	return p
}

func columnX(index int) float64 {
	return marginLeft + float64(index)*columnWidth
}
