package result

import (
	"strconv"

	"github.com/rohmanhakim/beu-result-proxy/internal/extractor"
)

// Key identifies one cached result: a student on one examination.
// Link is kept verbatim so distinct spellings of a link are distinct keys.
type Key struct {
	RegNo string
	Link  string
}

// flightKey encodes k for the in-flight group. RegNo is quoted so no pair of
// distinct keys encodes to the same string.
func (k Key) flightKey() string {
	return "result\x00" + strconv.Quote(k.RegNo) + "\x00" + k.Link
}

type ExamsResult struct {
	Exams  []extractor.ExamListing
	Cached bool
}

type FetchedResult struct {
	Result extractor.ResultSet
	Cached bool
}

// CacheStats is a point-in-time view of cache occupancy. Counts include
// entries that have expired but not been purged.
type CacheStats struct {
	ExamsCached int `json:"exams_cached"`
	Results     int `json:"results"`
}
