package result

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rohmanhakim/beu-result-proxy/internal/cache"
	"github.com/rohmanhakim/beu-result-proxy/internal/config"
	"github.com/rohmanhakim/beu-result-proxy/internal/extractor"
	"github.com/rohmanhakim/beu-result-proxy/internal/fetcher"
	"github.com/rohmanhakim/beu-result-proxy/internal/metadata"
	"github.com/rohmanhakim/beu-result-proxy/pkg/failure"
	"github.com/rohmanhakim/beu-result-proxy/pkg/urlutil"
	"golang.org/x/sync/singleflight"
)

/*
Responsibilities
- Serve the exam list and per-student results from cache when fresh
- On a miss, fetch upstream, extract rows and write the cache
- Never cache failures: fetch errors and missing results re-fetch next time

Concurrency
- Caches are safe for concurrent use and replace entries atomically.
- Unless dedupeInflight is enabled, two concurrent misses for the same key
  both fetch upstream and both write the cache; the last write wins.
*/

type Extractor interface {
	ExtractExamListings(sourceUrl url.URL, htmlByte []byte) ([]extractor.ExamListing, failure.ClassifiedError)
	ExtractResultTable(sourceUrl url.URL, htmlByte []byte) (extractor.ResultSet, failure.ClassifiedError)
}

type Service struct {
	fetcher      fetcher.Fetcher
	extractor    Extractor
	metadataSink metadata.MetadataSink

	exams   *cache.Slot[[]extractor.ExamListing]
	results *cache.MemoryCache[Key, extractor.ResultSet]

	baseURL        url.URL
	listingPath    string
	userAgent      string
	examsTTL       time.Duration
	resultTTL      time.Duration
	listingTimeout time.Duration
	resultTimeout  time.Duration

	dedupeInflight bool
	inflight       singleflight.Group
}

func NewService(
	cfg config.Config,
	f fetcher.Fetcher,
	ext Extractor,
	clock clockwork.Clock,
	metadataSink metadata.MetadataSink,
) *Service {
	return &Service{
		fetcher:        f,
		extractor:      ext,
		metadataSink:   metadataSink,
		exams:          cache.NewSlot[[]extractor.ExamListing](clock),
		results:        cache.NewMemoryCache[Key, extractor.ResultSet](clock),
		baseURL:        cfg.BaseURL(),
		listingPath:    cfg.ListingPath(),
		userAgent:      cfg.UserAgent(),
		examsTTL:       cfg.ExamsTTL(),
		resultTTL:      cfg.ResultTTL(),
		listingTimeout: cfg.ListingTimeout(),
		resultTimeout:  cfg.ResultTimeout(),
		dedupeInflight: cfg.DedupeInflight(),
	}
}

// ListExams returns the published examinations, from cache when the cached
// list is unexpired and non-empty.
func (s *Service) ListExams(ctx context.Context) (ExamsResult, failure.ClassifiedError) {
	if exams, ok := s.exams.Get(); ok && len(exams) > 0 {
		s.metadataSink.RecordCacheLookup(metadata.CacheExams, true)
		return ExamsResult{Exams: exams, Cached: true}, nil
	}
	s.metadataSink.RecordCacheLookup(metadata.CacheExams, false)

	exams, err := doOnce(s, "exams", func() ([]extractor.ExamListing, failure.ClassifiedError) {
		return s.refreshExams(ctx)
	})
	if err != nil {
		return ExamsResult{}, err
	}
	return ExamsResult{Exams: exams, Cached: false}, nil
}

func (s *Service) refreshExams(ctx context.Context) ([]extractor.ExamListing, failure.ClassifiedError) {
	listingURL, err := urlutil.Join(s.baseURL, s.listingPath)
	if err != nil {
		return nil, &fetcher.FetchError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     fetcher.ErrCauseRequestBuild,
		}
	}

	page, fetchErr := s.fetcher.Fetch(ctx, fetcher.NewGetParam(listingURL, s.userAgent, s.listingTimeout))
	if fetchErr != nil {
		return nil, fetchErr
	}

	exams, extractErr := s.extractor.ExtractExamListings(listingURL, page.Body())
	if extractErr != nil {
		return nil, extractErr
	}

	s.exams.Put(exams, s.examsTTL)
	return exams, nil
}

// FetchResult returns the result rows of regNo for the exam at link.
// regNo is trimmed; link is used verbatim for both the upstream URL and the
// cache key.
func (s *Service) FetchResult(ctx context.Context, regNo string, link string) (FetchedResult, failure.ClassifiedError) {
	regNo = strings.TrimSpace(regNo)
	if regNo == "" {
		return FetchedResult{}, s.rejectInput("reg_no", regNo, link)
	}
	if strings.TrimSpace(link) == "" {
		return FetchedResult{}, s.rejectInput("link", regNo, link)
	}

	key := Key{RegNo: regNo, Link: link}
	if rows, ok := s.results.Get(key); ok {
		s.metadataSink.RecordCacheLookup(metadata.CacheResults, true)
		return FetchedResult{Result: rows, Cached: true}, nil
	}
	s.metadataSink.RecordCacheLookup(metadata.CacheResults, false)

	rows, err := doOnce(s, key.flightKey(), func() (extractor.ResultSet, failure.ClassifiedError) {
		return s.refreshResult(ctx, key)
	})
	if err != nil {
		return FetchedResult{}, err
	}
	return FetchedResult{Result: rows, Cached: false}, nil
}

func (s *Service) rejectInput(field string, regNo string, link string) *ValidationError {
	err := &ValidationError{Message: MsgRegNoAndLinkRequired, Field: field}
	s.metadataSink.RecordError(
		time.Now(),
		"result",
		"Service.FetchResult",
		metadata.CauseInvalidInput,
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrRegNo, regNo),
			metadata.NewAttr(metadata.AttrLink, link),
		},
	)
	return err
}

func (s *Service) refreshResult(ctx context.Context, key Key) (extractor.ResultSet, failure.ClassifiedError) {
	resultURL, err := urlutil.Join(s.baseURL, key.Link)
	if err != nil {
		return extractor.ResultSet{}, &ValidationError{Message: err.Error(), Field: "link"}
	}

	form := url.Values{"reg_no": {key.RegNo}}
	page, fetchErr := s.fetcher.Fetch(ctx, fetcher.NewPostFormParam(resultURL, form, s.userAgent, s.resultTimeout))
	if fetchErr != nil {
		return extractor.ResultSet{}, fetchErr
	}

	rows, extractErr := s.extractor.ExtractResultTable(resultURL, page.Body())
	if extractErr != nil {
		if e, ok := extractor.AsExtractionError(extractErr); ok && e.IsNotFound() {
			return extractor.ResultSet{}, &NotFoundError{RegNo: key.RegNo, Link: key.Link}
		}
		return extractor.ResultSet{}, extractErr
	}

	s.results.Put(key, rows, s.resultTTL)
	return rows, nil
}

// Stats reports how many entries each cache holds.
func (s *Service) Stats() CacheStats {
	return CacheStats{
		ExamsCached: s.exams.Size(),
		Results:     s.results.Size(),
	}
}

// PurgeExpired drops expired entries from both caches and returns how many
// were removed.
func (s *Service) PurgeExpired() int {
	return s.exams.PurgeExpired() + s.results.PurgeExpired()
}

// Purgers exposes both caches for a background cache.RunPurger loop.
func (s *Service) Purgers() []cache.Purger {
	return []cache.Purger{s.exams, s.results}
}

// doOnce runs fn directly, or through the service singleflight group when
// dedupeInflight is enabled so concurrent misses on key share one fetch.
func doOnce[T any](s *Service, key string, fn func() (T, failure.ClassifiedError)) (T, failure.ClassifiedError) {
	if !s.dedupeInflight {
		return fn()
	}

	v, err, _ := s.inflight.Do(key, func() (any, error) {
		value, classifiedErr := fn()
		if classifiedErr != nil {
			return value, classifiedErr
		}
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err.(failure.ClassifiedError)
	}
	return v.(T), nil
}
