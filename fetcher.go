package weathersdk

import "context"

// Fetcher retrieves a fresh weather snapshot for a city. Implementations own
// all network and parsing concerns, including per-request timeouts and any
// retry policy; the SDK never retries on their behalf. Fetch failures are
// reported through the sentinel errors in this package.
//
// Implementations must be safe for concurrent use: the background polling
// sweep and foreground requests may fetch at the same time.
type Fetcher interface {
	Fetch(ctx context.Context, city string) (Weather, error)
}
