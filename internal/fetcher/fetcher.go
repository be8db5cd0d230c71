package fetcher

import (
	"context"

	"github.com/rohmanhakim/beu-result-proxy/pkg/failure"
)

type Fetcher interface {
	Fetch(
		ctx context.Context,
		fetchParam FetchParam,
	) (FetchResult, failure.ClassifiedError)
}
