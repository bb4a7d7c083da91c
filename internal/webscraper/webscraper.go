package webscraper

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yingtu35/link-integrity-crawler/pkg/domain"
	"golang.org/x/sync/errgroup"
)

// CrawlTarget is one frontier entry.
type CrawlTarget struct {
	URL      string
	Depth    int
	Referrer string // page the target was discovered on, empty for the seed
}

// FailureKind classifies a report entry.
type FailureKind string

const (
	KindMaxDepth     FailureKind = "max_depth"
	KindCrawlFailed  FailureKind = "crawl_failed"
	KindBrokenStatus FailureKind = "broken_status"
	KindRequestError FailureKind = "request_error"
)

// BrokenLink is a single entry of the crawl report.
type BrokenLink struct {
	URL        string
	Referrer   string
	Kind       FailureKind
	StatusCode int    // set for KindBrokenStatus
	Message    string // set for every other kind
}

// Reason is the status code for broken statuses and the message otherwise.
func (b BrokenLink) Reason() string {
	if b.Kind == KindBrokenStatus {
		return strconv.Itoa(b.StatusCode)
	}
	return b.Message
}

// HunterOptions configures a DeadLinkHunter.
type HunterOptions struct {
	BaseURL  string // scope prefix
	MaxDepth int
	Workers  int // 1 keeps the strict sequential breadth-first order
	Logger   logrus.FieldLogger
}

// DeadLinkHunter crawls a site breadth-first and reports every link that fails validation.
type DeadLinkHunter struct {
	loader    LinkLoader
	validator LinkValidator
	baseURL   string
	maxDepth  int
	workers   int
	log       logrus.FieldLogger
}

func NewDeadLinkHunter(loader LinkLoader, validator LinkValidator, opts HunterOptions) *DeadLinkHunter {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Workers > MaxConcurrency {
		opts.Workers = MaxConcurrency
	}
	if opts.MaxDepth < 0 {
		opts.MaxDepth = 0
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &DeadLinkHunter{
		loader:    loader,
		validator: validator,
		baseURL:   opts.BaseURL,
		maxDepth:  opts.MaxDepth,
		workers:   opts.Workers,
		log:       opts.Logger,
	}
}

// crawlRun holds the state of a single Hunt call.
type crawlRun struct {
	mu      sync.Mutex
	visited map[string]struct{}
	report  []BrokenLink
}

func newCrawlRun(seed string) *crawlRun {
	return &crawlRun{visited: map[string]struct{}{seed: {}}}
}

// markVisited inserts url and reports whether it was new.
func (r *crawlRun) markVisited(url string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.visited[url]; ok {
		return false
	}
	r.visited[url] = struct{}{}
	return true
}

func (r *crawlRun) record(b BrokenLink) {
	r.mu.Lock()
	r.report = append(r.report, b)
	r.mu.Unlock()
}

func (r *crawlRun) results() []BrokenLink {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]BrokenLink, len(r.report))
	copy(out, r.report)
	return out
}

// Hunt crawls from seed and returns the broken links found. The error is non-nil only when
// ctx is cancelled; the report gathered so far is returned with it.
func (h *DeadLinkHunter) Hunt(ctx context.Context, seed string) ([]BrokenLink, error) {
	run := newCrawlRun(seed)
	start := time.Now()
	h.log.WithFields(logrus.Fields{"seed": seed, "max_depth": h.maxDepth, "workers": h.workers}).
		Info("starting crawl")

	var err error
	if h.workers == 1 {
		err = h.huntSequential(ctx, run, seed)
	} else {
		err = h.huntParallel(ctx, run, seed)
	}

	report := run.results()
	h.log.WithFields(logrus.Fields{
		"visited": len(run.visited),
		"broken":  len(report),
		"elapsed": time.Since(start).String(),
	}).Info("crawl finished")
	return report, err
}

func (h *DeadLinkHunter) huntSequential(ctx context.Context, run *crawlRun, seed string) error {
	queue := []CrawlTarget{{URL: seed, Depth: 0}}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		target := queue[0]
		queue = queue[1:]
		queue = append(queue, h.visit(ctx, run, target)...)
	}
	return nil
}

// huntParallel drains the frontier one depth level at a time so that every URL is still
// claimed at its shallowest depth.
func (h *DeadLinkHunter) huntParallel(ctx context.Context, run *crawlRun, seed string) error {
	level := []CrawlTarget{{URL: seed, Depth: 0}}
	for len(level) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		var (
			nextMu sync.Mutex
			next   []CrawlTarget
		)
		g := new(errgroup.Group)
		g.SetLimit(h.workers)
		for _, target := range level {
			target := target
			g.Go(func() error {
				children := h.visit(ctx, run, target)
				nextMu.Lock()
				next = append(next, children...)
				nextMu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		level = next
	}
	return nil
}

// visit handles one dequeued target and returns the healthy in-scope links to enqueue.
func (h *DeadLinkHunter) visit(ctx context.Context, run *crawlRun, target CrawlTarget) []CrawlTarget {
	log := h.log.WithFields(logrus.Fields{"url": target.URL, "depth": target.Depth})

	if target.Depth >= h.maxDepth {
		log.Warn("max depth reached")
		run.record(BrokenLink{
			URL:      target.URL,
			Referrer: target.Referrer,
			Kind:     KindMaxDepth,
			Message:  ReasonMaxDepth,
		})
		return nil
	}

	log.Info("crawling page")
	links, err := h.loader.LoadLinks(ctx, target.URL)
	if err != nil {
		var rf *RenderFailure
		if !errors.As(err, &rf) {
			rf = newRenderFailure(target.URL, err)
		}
		log.WithError(err).Warn("crawl failed")
		run.record(BrokenLink{
			URL:      target.URL,
			Referrer: target.Referrer,
			Kind:     KindCrawlFailed,
			Message:  rf.Reason(),
		})
		return nil
	}

	var children []CrawlTarget
	for _, raw := range links {
		link, err := domain.Normalize(target.URL, raw)
		if err != nil {
			log.WithField("href", raw).Debug("skipping malformed link")
			continue
		}
		if !domain.InScope(h.baseURL, link) {
			continue
		}
		if !run.markVisited(link) {
			continue
		}

		linkLog := log.WithField("link", link)
		linkLog.Debug("checking status")
		outcome := h.validator.Validate(ctx, link)
		switch outcome.Kind {
		case Healthy:
			linkLog.WithField("status", outcome.StatusCode).Debug("link ok")
			children = append(children, CrawlTarget{URL: link, Depth: target.Depth + 1, Referrer: target.URL})
		case BrokenStatus:
			linkLog.WithField("status", outcome.StatusCode).Warn("broken link")
			run.record(BrokenLink{
				URL:        link,
				Referrer:   target.URL,
				Kind:       KindBrokenStatus,
				StatusCode: outcome.StatusCode,
			})
		default:
			linkLog.WithField("reason", outcome.Message).Warn("request failed")
			run.record(BrokenLink{
				URL:      link,
				Referrer: target.URL,
				Kind:     KindRequestError,
				Message:  outcome.Message,
			})
		}
	}
	return children
}
