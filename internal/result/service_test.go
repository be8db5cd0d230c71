package result_test

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rohmanhakim/beu-result-proxy/internal/config"
	"github.com/rohmanhakim/beu-result-proxy/internal/extractor"
	"github.com/rohmanhakim/beu-result-proxy/internal/fetcher"
	"github.com/rohmanhakim/beu-result-proxy/internal/metadata"
	"github.com/rohmanhakim/beu-result-proxy/internal/result"
	"github.com/rohmanhakim/beu-result-proxy/pkg/failure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const listingHTML = `<html><body><table>
<tr><th>Examination</th></tr>
<tr><td><a href="/result-three/BTech-3-2023">B.Tech 3rd Semester Examination 2023</a></td></tr>
<tr><td><a href="/notice">Holiday Notice</a></td></tr>
</table></body></html>`

const resultHTML = `<html><body><table>
<tr><th>Subject</th><th>Grade</th></tr>
<tr><td>Mathematics</td><td>A</td></tr>
<tr><td>Physics</td><td>B</td></tr>
</table></body></html>`

const notFoundHTML = `<html><body><p>Invalid registration number</p></body></html>`

type fetcherMock struct {
	mock.Mock
}

func (f *fetcherMock) Fetch(
	ctx context.Context,
	fetchParam fetcher.FetchParam,
) (fetcher.FetchResult, failure.ClassifiedError) {
	args := f.Called(ctx, fetchParam)
	res := args.Get(0).(fetcher.FetchResult)
	var err failure.ClassifiedError
	if args.Get(1) != nil {
		err = args.Get(1).(failure.ClassifiedError)
	}
	return res, err
}

// cacheSpy counts cache lookups by outcome and keeps recorded errors
type cacheSpy struct {
	metadata.NoopSink
	mu     sync.Mutex
	hits   map[metadata.CacheName]int
	misses map[metadata.CacheName]int
	errors []recordedError
}

type recordedError struct {
	cause metadata.ErrorCause
	attrs []metadata.Attribute
}

func newCacheSpy() *cacheSpy {
	return &cacheSpy{
		hits:   map[metadata.CacheName]int{},
		misses: map[metadata.CacheName]int{},
	}
}

func (s *cacheSpy) RecordCacheLookup(cache metadata.CacheName, hit bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if hit {
		s.hits[cache]++
	} else {
		s.misses[cache]++
	}
}

func (s *cacheSpy) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause metadata.ErrorCause,
	details string,
	attrs []metadata.Attribute,
) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, recordedError{cause: cause, attrs: attrs})
}

func page(body string) fetcher.FetchResult {
	return fetcher.NewFetchResultForTest(url.URL{}, []byte(body), http.StatusOK, "text/html")
}

func setupService(
	t *testing.T,
	f fetcher.Fetcher,
	configure func(*config.Config) *config.Config,
) (*result.Service, clockwork.FakeClock, *cacheSpy) {
	t.Helper()
	builder := config.WithDefault()
	if configure != nil {
		builder = configure(builder)
	}
	cfg, err := builder.Build()
	require.NoError(t, err)

	sink := newCacheSpy()
	ext := extractor.NewDomExtractor(sink)
	clock := clockwork.NewFakeClock()
	return result.NewService(cfg, f, &ext, clock, sink), clock, sink
}

func isGet(rawURL string) interface{} {
	return mock.MatchedBy(func(p fetcher.FetchParam) bool {
		u := p.URL()
		return p.Method() == http.MethodGet && u.String() == rawURL
	})
}

func isResultPost(rawURL, regNo string) interface{} {
	return mock.MatchedBy(func(p fetcher.FetchParam) bool {
		u := p.URL()
		return p.Method() == http.MethodPost &&
			u.String() == rawURL &&
			p.Form().Get("reg_no") == regNo
	})
}

func TestListExams_FetchesListingAndCaches(t *testing.T) {
	f := &fetcherMock{}
	f.On("Fetch", mock.Anything, isGet("https://beu-bih.ac.in/result")).
		Return(page(listingHTML), nil).Once()
	svc, _, sink := setupService(t, f, nil)

	first, err := svc.ListExams(context.Background())
	require.NoError(t, err)
	assert.False(t, first.Cached)
	require.Len(t, first.Exams, 1)
	assert.Equal(t, extractor.ExamListing{
		Title:  "B.Tech 3rd Semester Examination 2023",
		Course: "B.Tech",
		Link:   "/result-three/BTech-3-2023",
	}, first.Exams[0])

	second, err := svc.ListExams(context.Background())
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Exams, second.Exams)

	f.AssertNumberOfCalls(t, "Fetch", 1)
	assert.Equal(t, 1, sink.hits[metadata.CacheExams])
	assert.Equal(t, 1, sink.misses[metadata.CacheExams])
}

func TestListExams_RefetchesAfterTTL(t *testing.T) {
	f := &fetcherMock{}
	f.On("Fetch", mock.Anything, mock.Anything).Return(page(listingHTML), nil)
	svc, clock, _ := setupService(t, f, nil)

	_, err := svc.ListExams(context.Background())
	require.NoError(t, err)

	clock.Advance(30*time.Minute - time.Second)
	res, err := svc.ListExams(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Cached)

	clock.Advance(time.Second)
	res, err = svc.ListExams(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Cached, "entry expires exactly at its TTL")

	f.AssertNumberOfCalls(t, "Fetch", 2)
}

func TestListExams_EmptyListIsNotServedFromCache(t *testing.T) {
	f := &fetcherMock{}
	f.On("Fetch", mock.Anything, mock.Anything).Return(page(`<table><tr><td>nothing</td></tr></table>`), nil)
	svc, _, _ := setupService(t, f, nil)

	for i := 0; i < 2; i++ {
		res, err := svc.ListExams(context.Background())
		require.NoError(t, err)
		assert.False(t, res.Cached)
		assert.NotNil(t, res.Exams)
		assert.Empty(t, res.Exams)
	}

	f.AssertNumberOfCalls(t, "Fetch", 2)
}

func TestListExams_FetchErrorIsNotCached(t *testing.T) {
	f := &fetcherMock{}
	f.On("Fetch", mock.Anything, mock.Anything).Return(fetcher.FetchResult{}, &fetcher.FetchError{
		Message:   "connection refused",
		Retryable: true,
		Cause:     fetcher.ErrCauseNetworkFailure,
	}).Once()
	f.On("Fetch", mock.Anything, mock.Anything).Return(page(listingHTML), nil).Once()
	svc, _, _ := setupService(t, f, nil)

	_, err := svc.ListExams(context.Background())
	var fetchErr *fetcher.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, 0, svc.Stats().ExamsCached)

	res, err := svc.ListExams(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Len(t, res.Exams, 1)
}

func TestFetchResult_PostsRegNoAndCaches(t *testing.T) {
	f := &fetcherMock{}
	f.On("Fetch", mock.Anything, isResultPost("https://beu-bih.ac.in/result-three/BTech-3-2023", "22101110001")).
		Return(page(resultHTML), nil).Once()
	svc, _, sink := setupService(t, f, nil)

	first, err := svc.FetchResult(context.Background(), "  22101110001 ", "/result-three/BTech-3-2023")
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, []string{"Subject", "Grade"}, first.Result.Headers())
	require.Equal(t, 2, first.Result.Len())
	grade, _ := first.Result.Rows()[1].Get("Grade")
	assert.Equal(t, "B", grade)

	second, err := svc.FetchResult(context.Background(), "22101110001", "/result-three/BTech-3-2023")
	require.NoError(t, err)
	assert.True(t, second.Cached, "trimmed reg_no shares the cache entry")
	assert.Equal(t, first.Result, second.Result)

	f.AssertExpectations(t)
	assert.Equal(t, 1, svc.Stats().Results)
	assert.Equal(t, 1, sink.hits[metadata.CacheResults])
}

func TestFetchResult_KeysAreIndependent(t *testing.T) {
	f := &fetcherMock{}
	f.On("Fetch", mock.Anything, mock.Anything).Return(page(resultHTML), nil)
	svc, _, _ := setupService(t, f, nil)

	_, err := svc.FetchResult(context.Background(), "1", "/a")
	require.NoError(t, err)
	_, err = svc.FetchResult(context.Background(), "1", "/b")
	require.NoError(t, err)
	res, err := svc.FetchResult(context.Background(), "2", "/a")
	require.NoError(t, err)

	assert.False(t, res.Cached)
	f.AssertNumberOfCalls(t, "Fetch", 3)
	assert.Equal(t, 3, svc.Stats().Results)
}

func TestFetchResult_RefetchesAfterTTL(t *testing.T) {
	f := &fetcherMock{}
	f.On("Fetch", mock.Anything, mock.Anything).Return(page(resultHTML), nil)
	svc, clock, _ := setupService(t, f, func(c *config.Config) *config.Config {
		return c.WithResultTTL(time.Minute)
	})

	_, err := svc.FetchResult(context.Background(), "1", "/a")
	require.NoError(t, err)

	clock.Advance(time.Minute)
	res, err := svc.FetchResult(context.Background(), "1", "/a")
	require.NoError(t, err)

	assert.False(t, res.Cached)
	f.AssertNumberOfCalls(t, "Fetch", 2)
}

func TestFetchResult_Validation(t *testing.T) {
	tests := []struct {
		name  string
		regNo string
		link  string
		field string
	}{
		{"missing reg_no", "", "/a", "reg_no"},
		{"blank reg_no", "   ", "/a", "reg_no"},
		{"missing link", "22101110001", "", "link"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fetcherMock{}
			svc, _, sink := setupService(t, f, nil)

			_, err := svc.FetchResult(context.Background(), tt.regNo, tt.link)

			var vErr *result.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, result.MsgRegNoAndLinkRequired, vErr.Message)
			assert.Equal(t, tt.field, vErr.Field)
			assert.Equal(t, failure.SeverityFatal, err.Severity())
			f.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)

			require.Len(t, sink.errors, 1)
			assert.Equal(t, metadata.CauseInvalidInput, sink.errors[0].cause)
			assert.Contains(t, sink.errors[0].attrs, metadata.NewAttr(metadata.AttrLink, tt.link))
		})
	}
}

func TestFetchResult_NotFoundIsNotCached(t *testing.T) {
	f := &fetcherMock{}
	f.On("Fetch", mock.Anything, mock.Anything).Return(page(notFoundHTML), nil)
	svc, _, _ := setupService(t, f, nil)

	for i := 0; i < 2; i++ {
		_, err := svc.FetchResult(context.Background(), "999", "/a")
		var nfErr *result.NotFoundError
		require.ErrorAs(t, err, &nfErr)
		assert.Equal(t, "999", nfErr.RegNo)
	}

	f.AssertNumberOfCalls(t, "Fetch", 2)
	assert.Equal(t, 0, svc.Stats().Results)
}

func TestFetchResult_FetchErrorPassesThrough(t *testing.T) {
	f := &fetcherMock{}
	f.On("Fetch", mock.Anything, mock.Anything).Return(fetcher.FetchResult{}, &fetcher.FetchError{
		Message:    "upstream returned 503",
		Retryable:  true,
		Cause:      fetcher.ErrCauseRequest5xx,
		StatusCode: http.StatusServiceUnavailable,
	})
	svc, _, _ := setupService(t, f, nil)

	_, err := svc.FetchResult(context.Background(), "1", "/a")

	var fetchErr *fetcher.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, fetcher.ErrCauseRequest5xx, fetchErr.Cause)
	assert.Equal(t, 0, svc.Stats().Results)
}

func TestPurgeExpired(t *testing.T) {
	f := &fetcherMock{}
	f.On("Fetch", mock.Anything, isGet("https://beu-bih.ac.in/result")).Return(page(listingHTML), nil)
	f.On("Fetch", mock.Anything, mock.Anything).Return(page(resultHTML), nil)
	svc, clock, _ := setupService(t, f, nil)

	_, err := svc.ListExams(context.Background())
	require.NoError(t, err)
	_, err = svc.FetchResult(context.Background(), "1", "/a")
	require.NoError(t, err)
	assert.Equal(t, result.CacheStats{ExamsCached: 1, Results: 1}, svc.Stats())

	clock.Advance(10 * time.Minute)
	assert.Equal(t, 1, svc.PurgeExpired(), "only the result has expired")
	assert.Equal(t, result.CacheStats{ExamsCached: 1, Results: 0}, svc.Stats())

	clock.Advance(20 * time.Minute)
	assert.Equal(t, 1, svc.PurgeExpired())
	assert.Equal(t, result.CacheStats{}, svc.Stats())
	assert.Len(t, svc.Purgers(), 2)
}

func TestFetchResult_ConcurrentMissesEachFetchWithoutDedupe(t *testing.T) {
	started := make(chan struct{}, 2)
	release := make(chan struct{})

	f := &fetcherMock{}
	f.On("Fetch", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			started <- struct{}{}
			<-release
		}).
		Return(page(resultHTML), nil)
	svc, _, _ := setupService(t, f, nil)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.FetchResult(context.Background(), "1", "/a")
			assert.NoError(t, err)
			assert.False(t, res.Cached)
		}()
	}

	<-started
	<-started
	close(release)
	wg.Wait()

	f.AssertNumberOfCalls(t, "Fetch", 2)
	assert.Equal(t, 1, svc.Stats().Results, "last write replaces the entry")
}

func TestFetchResult_DedupeInflightSharesOneFetch(t *testing.T) {
	started := make(chan struct{}, 2)
	release := make(chan struct{})

	f := &fetcherMock{}
	f.On("Fetch", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			started <- struct{}{}
			<-release
		}).
		Return(page(resultHTML), nil)
	svc, _, _ := setupService(t, f, func(c *config.Config) *config.Config {
		return c.WithDedupeInflight(true)
	})

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.FetchResult(context.Background(), "1", "/a")
			assert.NoError(t, err)
			assert.Equal(t, 2, res.Result.Len())
		}()
	}

	<-started
	// let the other callers reach the in-flight call
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	f.AssertNumberOfCalls(t, "Fetch", 1)
}

func TestFetchResult_DedupeInflightKeepsDistinctKeysApart(t *testing.T) {
	started := make(chan struct{}, 2)
	release := make(chan struct{})
	block := func(args mock.Arguments) {
		started <- struct{}{}
		<-release
	}

	singleRow := `<table><tr><th>Subject</th><th>Grade</th></tr><tr><td>Chemistry</td><td>C</td></tr></table>`
	f := &fetcherMock{}
	f.On("Fetch", mock.Anything, isResultPost("https://beu-bih.ac.in/b", "22_/a")).
		Run(block).Return(page(resultHTML), nil)
	f.On("Fetch", mock.Anything, isResultPost("https://beu-bih.ac.in/a_/b", "22")).
		Run(block).Return(page(singleRow), nil)
	svc, _, _ := setupService(t, f, func(c *config.Config) *config.Config {
		return c.WithDedupeInflight(true)
	})

	var wg sync.WaitGroup
	var first, second result.FetchedResult
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err failure.ClassifiedError
		first, err = svc.FetchResult(context.Background(), "22_/a", "/b")
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		var err failure.ClassifiedError
		second, err = svc.FetchResult(context.Background(), "22", "/a_/b")
		assert.NoError(t, err)
	}()

	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Error("second upstream fetch never started")
		}
	}
	close(release)
	wg.Wait()

	f.AssertNumberOfCalls(t, "Fetch", 2)
	assert.Equal(t, 2, first.Result.Len())
	require.Equal(t, 1, second.Result.Len())
	subject, _ := second.Result.Rows()[0].Get("Subject")
	assert.Equal(t, "Chemistry", subject)
	assert.Equal(t, 2, svc.Stats().Results)
}
