// Package crawler runs the date-driven traffic news crawl.
//
// For each day in [Start, Start+Days) it fetches one listing page, extracts records and
// adds them to a news.Collection. Days are processed strictly in order, one request at a
// time. Any fetch or parse error ends the crawl and the partial collection is discarded.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pfrederiksen/hktraffic/internal/logger"
	"github.com/pfrederiksen/hktraffic/internal/news"
	"github.com/pfrederiksen/hktraffic/internal/scraper"
)

var (
	ErrNegativeDays  = errors.New("day count must not be negative")
	ErrNoFetcher     = errors.New("page fetcher is required")
	ErrZeroStartDate = errors.New("start date is required")
)

// PageFetcher returns the listing page for one calendar day.
type PageFetcher interface {
	FetchPage(ctx context.Context, day time.Time) (io.ReadCloser, error)
}

// Reporter observes crawl progress
type Reporter interface {
	Start(total int)
	Step(day time.Time, added int)
	Finish()
}

// Config controls the date range of a crawl
type Config struct {
	Start time.Time
	Days  int
}

// Crawler walks the configured date range
type Crawler struct {
	fetcher  PageFetcher
	cfg      Config
	reporter Reporter
	metrics  *logger.Metrics
	log      *logger.Logger
}

// Option configures a Crawler
type Option func(*Crawler)

// WithReporter sets the progress reporter
func WithReporter(r Reporter) Option {
	return func(c *Crawler) {
		c.reporter = r
	}
}

// WithMetrics sets the metrics tracker the crawl records into
func WithMetrics(m *logger.Metrics) Option {
	return func(c *Crawler) {
		c.metrics = m
	}
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(c *Crawler) {
		c.log = l
	}
}

// New creates a Crawler
func New(fetcher PageFetcher, cfg Config, opts ...Option) (*Crawler, error) {
	if fetcher == nil {
		return nil, ErrNoFetcher
	}
	if cfg.Start.IsZero() {
		return nil, ErrZeroStartDate
	}
	if cfg.Days < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeDays, cfg.Days)
	}

	c := &Crawler{
		fetcher:  fetcher,
		cfg:      cfg,
		reporter: nopReporter{},
		metrics:  logger.DefaultMetrics(),
		log:      logger.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Day returns the calendar day for a 0-based offset from the start date
func (c *Crawler) Day(offset int) time.Time {
	return c.cfg.Start.AddDate(0, 0, offset)
}

// Run crawls every day in range and returns the distinct records found.
func (c *Crawler) Run(ctx context.Context) (*news.Collection, error) {
	collection := news.NewCollection()

	c.log.Info("crawl started", logger.Fields{
		"start": c.cfg.Start.Format("2006-01-02"),
		"days":  c.cfg.Days,
	})

	c.reporter.Start(c.cfg.Days)
	defer c.reporter.Finish()

	for i := 0; i < c.cfg.Days; i++ {
		day := c.Day(i)

		added, err := c.crawlDay(ctx, day, collection)
		if err != nil {
			return nil, fmt.Errorf("crawling %s: %w", day.Format(scraper.DateLayout), err)
		}

		c.reporter.Step(day, added)
	}

	c.log.Info("crawl finished", logger.Fields{
		"days":    c.cfg.Days,
		"records": collection.Len(),
	})

	return collection, nil
}

// crawlDay fetches and parses one listing page and returns how many new records it added
func (c *Crawler) crawlDay(ctx context.Context, day time.Time, collection *news.Collection) (int, error) {
	started := time.Now()

	body, err := c.fetcher.FetchPage(ctx, day)
	if err != nil {
		return 0, err
	}
	defer body.Close() // nolint:errcheck

	listing, err := scraper.ParseListing(body)
	if err != nil {
		return 0, err
	}

	c.metrics.RecordTiming("news.fetch", time.Since(started))
	c.metrics.IncrCounter("news.pages_fetched")
	c.metrics.AddCounter("news.items_skipped", int64(listing.Skipped))

	added := collection.AddAll(listing.Records)
	c.metrics.AddCounter("news.records_added", int64(added))

	if c.log.Enabled(logger.LevelDebug) {
		c.log.Debug("listing page processed", logger.Fields{
			"date":    day.Format(scraper.DateLayout),
			"items":   len(listing.Records),
			"added":   added,
			"skipped": listing.Skipped,
		})
	}

	return added, nil
}

type nopReporter struct{}

func (nopReporter) Start(int)           {}
func (nopReporter) Step(time.Time, int) {}
func (nopReporter) Finish()             {}
