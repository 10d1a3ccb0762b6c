package osm

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pfrederiksen/hktraffic/internal/logger"
)

// ErrAddressNotFound is returned when geocoding yields no result
var ErrAddressNotFound = errors.New("address not found")

// Client talks to Nominatim and the Overpass API
type Client struct {
	http         *resty.Client
	nominatimURL string
	overpassURL  string
	timeout      time.Duration
}

// NewClient creates an OSM client
func NewClient(nominatimURL, overpassURL, userAgent string, timeout time.Duration) *Client {
	return &Client{
		http: resty.New().
			SetTimeout(timeout).
			SetHeader("User-Agent", userAgent),
		nominatimURL: nominatimURL,
		overpassURL:  overpassURL,
		timeout:      timeout,
	}
}

type place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode returns the coordinates of the best Nominatim match for address
func (c *Client) Geocode(ctx context.Context, address string) (lat, lon float64, err error) {
	var places []place

	started := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":      address,
			"format": "json",
			"limit":  "1",
		}).
		SetResult(&places).
		Get(c.nominatimURL + "/search")
	if err != nil {
		return 0, 0, fmt.Errorf("geocoding %q: %w", address, err)
	}
	if resp.IsError() {
		return 0, 0, fmt.Errorf("geocoding %q: unexpected status code: %d", address, resp.StatusCode())
	}
	logger.RecordTiming("osm.geocode", time.Since(started))
	if len(places) == 0 {
		return 0, 0, fmt.Errorf("geocoding %q: %w", address, ErrAddressNotFound)
	}

	lat, err = strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("geocoding %q: parsing latitude: %w", address, err)
	}
	lon, err = strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("geocoding %q: parsing longitude: %w", address, err)
	}

	return lat, lon, nil
}

type overpassResponse struct {
	Elements []Element `json:"elements"`
}

// Elements runs an Overpass QL query and returns its elements
func (c *Client) Elements(ctx context.Context, query string) ([]Element, error) {
	var result overpassResponse

	started := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{"data": query}).
		SetResult(&result).
		Post(c.overpassURL)
	if err != nil {
		return nil, fmt.Errorf("querying overpass: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("querying overpass: unexpected status code: %d", resp.StatusCode())
	}

	logger.RecordTiming("osm.overpass", time.Since(started))
	logger.AddCounter("osm.elements", int64(len(result.Elements)))

	return result.Elements, nil
}

// GraphFromAddress downloads the road network within dist metres of address.
// Street counts are taken before truncation so nodes on the box edge keep their cut-off streets.
func (c *Client) GraphFromAddress(ctx context.Context, address string, dist float64, nt NetworkType) (*Graph, error) {
	lat, lon, err := c.Geocode(ctx, address)
	if err != nil {
		return nil, err
	}

	bbox := BBoxFromPoint(lat, lon, dist)

	elements, err := c.Elements(ctx, Query(bbox, nt, int(c.timeout.Seconds())))
	if err != nil {
		return nil, err
	}

	g := BuildGraph(elements, nt)
	g.CountStreets()
	g.Truncate(bbox)
	g.KeepLargestComponent()

	return g, nil
}
