package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rohmanhakim/beu-result-proxy/internal/metadata"
	"github.com/rohmanhakim/beu-result-proxy/pkg/failure"
	"golang.org/x/net/html"
)

/*
Responsibilities
- Parse upstream HTML into a DOM tree
- Turn the exam listing page into ExamListing values
- Turn a result page into a ResultSet

Extraction assumes the upstream row/column structure is stable:
  - Listing: every <tr> whose first <a> has a non-empty href and a title
    containing "Examination" (case-sensitive) is one exam.
  - Result: the first <table>; its first <tr> holds <th> headers, every
    later <tr> with at least one <td> is one row.

A listing page without matches is an empty list. A result page without a
table is ErrCauseNoTable because it cannot be told apart from an unknown
registration number.
*/

// listingMarker is the substring an anchor title must contain to be an exam.
const listingMarker = "Examination"

type DomExtractor struct {
	metadataSink metadata.MetadataSink
}

func NewDomExtractor(
	metadataSink metadata.MetadataSink,
) DomExtractor {
	return DomExtractor{
		metadataSink: metadataSink,
	}
}

func (d *DomExtractor) ExtractExamListings(
	sourceUrl url.URL,
	htmlByte []byte,
) ([]ExamListing, failure.ClassifiedError) {
	doc, err := parseDocument(htmlByte)
	if err != nil {
		d.recordError(sourceUrl, "DomExtractor.ExtractExamListings", err)
		return nil, err
	}
	return extractExamListings(doc), nil
}

func (d *DomExtractor) ExtractResultTable(
	sourceUrl url.URL,
	htmlByte []byte,
) (ResultSet, failure.ClassifiedError) {
	doc, err := parseDocument(htmlByte)
	if err != nil {
		d.recordError(sourceUrl, "DomExtractor.ExtractResultTable", err)
		return ResultSet{}, err
	}

	result, err := extractResultTable(doc)
	if err != nil {
		d.recordError(sourceUrl, "DomExtractor.ExtractResultTable", err)
		return ResultSet{}, err
	}
	return result, nil
}

func (d *DomExtractor) recordError(sourceUrl url.URL, action string, err *ExtractionError) {
	d.metadataSink.RecordError(
		time.Now(),
		"extractor",
		action,
		mapExtractionErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, sourceUrl.String()),
		},
	)
}

func parseDocument(htmlByte []byte) (*goquery.Document, *ExtractionError) {
	root, err := html.Parse(bytes.NewReader(htmlByte))
	if err != nil {
		return nil, &ExtractionError{
			Message:   fmt.Sprintf("failed to parse HTML: %v", err),
			Retryable: false,
			Cause:     ErrCauseNotHTML,
		}
	}
	return goquery.NewDocumentFromNode(root), nil
}

func extractExamListings(doc *goquery.Document) []ExamListing {
	exams := []ExamListing{}

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		anchor := row.Find("a").First()
		if anchor.Length() == 0 {
			return
		}
		href, ok := anchor.Attr("href")
		if !ok || href == "" {
			return
		}

		title := strippedText(anchor)
		if !strings.Contains(title, listingMarker) {
			return
		}

		exams = append(exams, ExamListing{
			Title:  title,
			Course: strings.Fields(title)[0],
			Link:   href,
		})
	})

	return exams
}

func extractResultTable(doc *goquery.Document) (ResultSet, *ExtractionError) {
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return ResultSet{}, &ExtractionError{
			Message:   "no table element in result page",
			Retryable: false,
			Cause:     ErrCauseNoTable,
		}
	}

	rows := table.Find("tr")
	if rows.Length() == 0 {
		return ResultSet{}, &ExtractionError{
			Message:   "result table has no rows",
			Retryable: false,
			Cause:     ErrCauseNoTable,
		}
	}

	headers := cellTexts(rows.First().Find("th"))

	var resultRows []ResultRow
	rows.Slice(1, goquery.ToEnd).Each(func(_ int, row *goquery.Selection) {
		values := cellTexts(row.Find("td"))
		if len(values) == 0 {
			return
		}
		resultRows = append(resultRows, zipRow(headers, values))
	})

	return NewResultSet(headers, resultRows), nil
}

// AsExtractionError unwraps err into an *ExtractionError when possible.
func AsExtractionError(err error) (*ExtractionError, bool) {
	var extractionErr *ExtractionError
	if errors.As(err, &extractionErr) {
		return extractionErr, true
	}
	return nil, false
}
