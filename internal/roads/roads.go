// Package roads collects the Hong Kong street name list.
//
// The source is a JSON endpoint returning {"data": [[...], ...]} where every row holds the
// Chinese and English street names, the Chinese and English location, and a free-text
// note. Rows are kept in source order.
package roads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pfrederiksen/hktraffic/internal/logger"
)

const (
	SourceURL = "https://www.overview.hk/street/ssp.php"
	Timeout   = 30 * time.Second
)

// Columns is the header of the exported road names table.
var Columns = []string{
	"Name (Chinese)",
	"Name (English)",
	"Location (Chinese)",
	"Location (English)",
	"Additional Info",
}

// ErrRowWidth is returned when a row does not have one cell per column
var ErrRowWidth = errors.New("unexpected row width")

// Road is one street entry
type Road struct {
	NameChinese     string `json:"name_chinese"`
	NameEnglish     string `json:"name_english"`
	LocationChinese string `json:"location_chinese"`
	LocationEnglish string `json:"location_english"`
	AdditionalInfo  string `json:"additional_info"`
}

// Row returns the road as a table row in Columns order
func (r Road) Row() []string {
	return []string{r.NameChinese, r.NameEnglish, r.LocationChinese, r.LocationEnglish, r.AdditionalInfo}
}

// Rows converts roads to table rows
func Rows(roads []Road) [][]string {
	rows := make([][]string, 0, len(roads))
	for _, r := range roads {
		rows = append(rows, r.Row())
	}
	return rows
}

// Client fetches the road list
type Client struct {
	http *resty.Client
	url  string
}

// NewClient creates a road list client
func NewClient(url, userAgent string, timeout time.Duration) *Client {
	return &Client{
		http: resty.New().
			SetTimeout(timeout).
			SetHeader("User-Agent", userAgent),
		url: url,
	}
}

// Fetch downloads and decodes the road list
func (c *Client) Fetch(ctx context.Context) ([]Road, error) {
	started := time.Now()
	resp, err := c.http.R().SetContext(ctx).Get(c.url)
	if err != nil {
		return nil, fmt.Errorf("fetching road list: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetching road list: unexpected status code: %d", resp.StatusCode())
	}
	logger.RecordTiming("roads.fetch", time.Since(started))

	roads, err := Decode(resp.Body())
	if err != nil {
		return nil, err
	}
	logger.AddCounter("roads.rows", int64(len(roads)))

	return roads, nil
}

type payload struct {
	Data [][]json.RawMessage `json:"data"`
}

// Decode parses the road list JSON body
func Decode(body []byte) ([]Road, error) {
	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("parsing road list: %w", err)
	}

	roads := make([]Road, 0, len(p.Data))
	for i, row := range p.Data {
		if len(row) != len(Columns) {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrRowWidth, i, len(row), len(Columns))
		}

		cells := make([]string, len(row))
		for j, raw := range row {
			cell, err := cellText(raw)
			if err != nil {
				return nil, fmt.Errorf("parsing road list: row %d cell %d: %w", i, j, err)
			}
			cells[j] = cell
		}

		roads = append(roads, Road{
			NameChinese:     cells[0],
			NameEnglish:     cells[1],
			LocationChinese: cells[2],
			LocationEnglish: cells[3],
			AdditionalInfo:  cells[4],
		})
	}

	return roads, nil
}

// cellText renders a JSON cell: strings as-is, null as empty, anything else as its JSON text
func cellText(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	return string(trimmed), nil
}
