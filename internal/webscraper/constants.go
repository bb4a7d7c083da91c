package webscraper

import "time"

const (
	MaxDepth          = 5                // default maximum number of hops from the seed
	MaxConcurrency    = 20               // upper bound on parallel workers
	DefaultTimeout    = 10 * time.Second // probe timeout
	NavigationTimeout = 30 * time.Second // page navigation timeout
)

// Report reasons that are not derived from an HTTP status or transport error.
const (
	ReasonMaxDepth    = "Max Crawl Depth Reached"
	ReasonCrawlFailed = "Crawl Failed: "

	ClassTimeout    = "TimeoutError"
	ClassNavigation = "NavigationError"
)

const (
	anchorHrefsScript = `() => Array.from(document.querySelectorAll('a')).map(a => a.href)`
	defaultUserAgent  = "dead-link-hunter/1.0"
)
