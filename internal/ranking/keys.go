package ranking

import "fmt"

// Cache key namespace. The layout is shared with admin tooling that inspects
// or manually clears cache, so it must not change:
//
//	<namespace>:<filter>:<page>:<pageSize>  paginated queries
//	<namespace>:top:<n>                     top-N summaries
//
// Every ranking entry lives under the namespace so a single pattern covers
// all of them at invalidation time.
const (
	Namespace = "ranking"

	// InvalidatePattern matches every cached ranking page and summary.
	InvalidatePattern = Namespace + ":*"

	// defaultFilter is the serialized filter for the unfiltered leaderboard.
	defaultFilter = "all"
)

// PageKey builds the cache key for a leaderboard page.
func PageKey(page, pageSize int) string {
	return fmt.Sprintf("%s:%s:%d:%d", Namespace, defaultFilter, page, pageSize)
}

// TopKey builds the cache key for a top-N summary.
func TopKey(n int) string {
	return fmt.Sprintf("%s:top:%d", Namespace, n)
}
