package render

import (
	"bytes"
	"strconv"

	"github.com/go-pdf/fpdf"
	"github.com/jonboulle/clockwork"
	"github.com/rohmanhakim/beu-result-proxy/internal/extractor"
	"github.com/rohmanhakim/beu-result-proxy/internal/metadata"
	"github.com/rohmanhakim/beu-result-proxy/pkg/failure"
)

/*
Responsibilities
- Turn an already-fetched result into a single PDF document
- Keep layout independent of caching and of how the rows were obtained

Rendering is synchronous and CPU-bound.
*/

type PdfRenderer struct {
	metadataSink metadata.MetadataSink
	clock        clockwork.Clock
}

func NewPdfRenderer(metadataSink metadata.MetadataSink, clock clockwork.Clock) PdfRenderer {
	return PdfRenderer{
		metadataSink: metadataSink,
		clock:        clock,
	}
}

func (r *PdfRenderer) Render(
	regNo string,
	examTitle string,
	rows []extractor.ResultRow,
) ([]byte, failure.ClassifiedError) {
	layout := planDocument(regNo, examTitle, rows)

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(marginLeft, marginTop, marginLeft)
	pdf.SetCreationDate(r.clock.Now())
	pdf.SetTitle(docName, true)
	pdf.SetCreator("beu-result-proxy", false)

	// core fonts are cp1252; the translator maps UTF-8 input onto it
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	page := 0
	for _, op := range layout.ops {
		for page < op.page {
			pdf.AddPage()
			page++
		}
		pdf.SetFont(op.font.family, op.font.style, op.font.size)
		pdf.Text(op.x, op.y, tr(op.text))
	}

	if pdf.Err() {
		err := &RenderError{
			Message:   pdf.Error().Error(),
			Retryable: false,
			Cause:     ErrCauseLayout,
		}
		r.recordError(regNo, err)
		return nil, err
	}

	pages := pdf.PageCount()

	var buf bytes.Buffer
	if outErr := pdf.Output(&buf); outErr != nil {
		err := &RenderError{
			Message:   outErr.Error(),
			Retryable: false,
			Cause:     ErrCauseOutput,
		}
		r.recordError(regNo, err)
		return nil, err
	}

	r.metadataSink.RecordArtifact(
		metadata.ArtifactDocument,
		FileName(regNo),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrRegNo, regNo),
			metadata.NewAttr(metadata.AttrExamTitle, examTitle),
			metadata.NewAttr(metadata.AttrRows, strconv.Itoa(len(rows))),
			metadata.NewAttr(metadata.AttrPages, strconv.Itoa(pages)),
		},
	)

	return buf.Bytes(), nil
}

func (r *PdfRenderer) recordError(regNo string, err *RenderError) {
	r.metadataSink.RecordError(
		r.clock.Now(),
		"render",
		"PdfRenderer.Render",
		mapRenderErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrRegNo, regNo),
		},
	)
}
