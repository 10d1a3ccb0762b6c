package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/hktraffic/internal/news"
)

const (
	ListingURLTemplate = "https://programme.rthk.hk/channel/radio/trafficnews/index.php?d={date}"
	DatePlaceholder    = "{date}"
	DateLayout         = "20060102"
	UserAgent          = "hktraffic/1.0 (github.com/pfrederiksen/hktraffic)"
	Timeout            = 30 * time.Second
)

const (
	containerSelector = "div.articles"
	itemSelector      = "li.inner"
	fieldSeparator    = "\t"
	hktSeparator      = " HKT "
)

// Scraper fetches traffic news listing pages. The underlying client is reused
// across requests so connections stay open between days.
type Scraper struct {
	client      *http.Client
	urlTemplate string
	userAgent   string
}

// Option configures a Scraper
type Option func(*Scraper)

// WithURLTemplate overrides the listing URL template. The template must contain {date}.
func WithURLTemplate(tmpl string) Option {
	return func(s *Scraper) {
		s.urlTemplate = tmpl
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(s *Scraper) {
		s.userAgent = ua
	}
}

// WithTimeout overrides the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(s *Scraper) {
		s.client.Timeout = d
	}
}

// New creates a new Scraper instance
func New(opts ...Option) *Scraper {
	s := &Scraper{
		client: &http.Client{
			Timeout: Timeout,
		},
		urlTemplate: ListingURLTemplate,
		userAgent:   UserAgent,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PageURL returns the listing URL for the given day
func (s *Scraper) PageURL(day time.Time) string {
	return strings.ReplaceAll(s.urlTemplate, DatePlaceholder, day.Format(DateLayout))
}

// FetchPage fetches the listing page for day. The caller must close the body.
func (s *Scraper) FetchPage(ctx context.Context, day time.Time) (io.ReadCloser, error) {
	pageURL := s.PageURL(day)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page %s: %w", pageURL, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close() // nolint:errcheck
		return nil, fmt.Errorf("fetching page %s: unexpected status code: %d", pageURL, resp.StatusCode)
	}

	return resp.Body, nil
}

// Listing is what one page yielded
type Listing struct {
	Records []news.Record
	// Skipped counts items whose timestamp field was not in "<date> HKT <time>" form
	Skipped int
}

// ParseListing extracts traffic news records from a listing page.
// A page without an articles container yields an empty listing.
func ParseListing(r io.Reader) (*Listing, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	listing := &Listing{
		Records: make([]news.Record, 0),
	}

	container := doc.Find(containerSelector).First()
	if container.Length() == 0 {
		return listing, nil
	}

	container.Find(itemSelector).Each(func(i int, item *goquery.Selection) {
		record, ok := parseItem(item.Text())
		if !ok {
			listing.Skipped++
			return
		}
		listing.Records = append(listing.Records, record)
	})

	return listing, nil
}

// parseItem splits the flattened text of one list item.
// Example: "Accident on Main St\t...\t2023-05-01 HKT 08:30"
func parseItem(text string) (news.Record, bool) {
	fields := strings.Split(text, fieldSeparator)

	last := strings.TrimSpace(fields[len(fields)-1])
	dateTime := strings.Split(last, hktSeparator)
	if len(dateTime) != 2 {
		return news.Record{}, false
	}

	return news.Record{
		Date:   dateTime[0],
		Time:   dateTime[1],
		Detail: fields[0],
	}, true
}
