package extractor

// ExamListing is one published examination on the upstream listing page.
// Link is the href exactly as it appears in the page, relative to the site root.
type ExamListing struct {
	Title  string `json:"title"`
	Course string `json:"course"`
	Link   string `json:"link"`
}

// ResultSet is a parsed result table: the header schema discovered from the
// first table row plus one ResultRow per non-empty data row.
type ResultSet struct {
	headers []string
	rows    []ResultRow
}

func NewResultSet(headers []string, rows []ResultRow) ResultSet {
	if rows == nil {
		rows = []ResultRow{}
	}
	return ResultSet{
		headers: headers,
		rows:    rows,
	}
}

func (s ResultSet) Headers() []string {
	headers := make([]string, len(s.headers))
	copy(headers, s.headers)
	return headers
}

// Rows returns the rows in document order. The returned slice is never nil.
func (s ResultSet) Rows() []ResultRow {
	rows := make([]ResultRow, len(s.rows))
	copy(rows, s.rows)
	return rows
}

func (s ResultSet) Len() int {
	return len(s.rows)
}
