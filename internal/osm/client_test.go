package osm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const overpassFixture = `{
  "elements": [
    {"type": "node", "id": 1, "lat": 22.3300, "lon": 114.1600},
    {"type": "node", "id": 2, "lat": 22.3305, "lon": 114.1600},
    {"type": "node", "id": 3, "lat": 22.3310, "lon": 114.1605, "tags": {"highway": "traffic_signals"}},
    {"type": "node", "id": 4, "lat": 22.5000, "lon": 114.1600},
    {"type": "node", "id": 5, "lat": 22.3290, "lon": 114.1590},
    {"type": "node", "id": 6, "lat": 22.3291, "lon": 114.1591},
    {"type": "way", "id": 100, "nodes": [1, 2, 3, 4], "tags": {"highway": "secondary", "name": "Nam Cheong Street"}},
    {"type": "way", "id": 101, "nodes": [5, 6], "tags": {"highway": "service"}}
  ]
}`

func newTestServer(t *testing.T, places string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.NotEmpty(t, r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(places)) // nolint:errcheck
	})
	mux.HandleFunc("/interpreter", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, r.ParseForm())
		assert.True(t, strings.HasPrefix(r.PostForm.Get("data"), "[out:json]"))
		assert.Contains(t, r.Header.Get("User-Agent"), "hktraffic")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(overpassFixture)) // nolint:errcheck
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestClient_GraphFromAddress(t *testing.T) {
	server := newTestServer(t, `[{"lat": "22.3300", "lon": "114.1600", "display_name": "Nam Cheong Street"}]`)
	c := NewClient(server.URL, server.URL+"/interpreter", "hktraffic-test", 5*time.Second)

	g, err := c.GraphFromAddress(context.Background(), "Nam Cheong Street", 1000, NetworkDriveService)
	require.NoError(t, err)

	// node 4 lies outside the box; the 5-6 service road is a smaller component
	assert.Len(t, g.Nodes, 3)
	assert.Equal(t, [][2]int64{{1, 2}, {2, 1}, {2, 3}, {3, 2}}, edgePairs(g))
	assert.Equal(t, 2, g.Nodes[2].StreetCount)
	// node 3 keeps its street towards node 4 although node 4 was cut off
	assert.Equal(t, 2, g.Nodes[3].StreetCount)
	assert.Equal(t, "traffic_signals", g.Nodes[3].Tags["highway"])
	assert.Equal(t, "Nam Cheong Street", g.Edges[0].Tags["name"])
}

func TestClient_Geocode_NotFound(t *testing.T) {
	server := newTestServer(t, `[]`)
	c := NewClient(server.URL, server.URL+"/interpreter", "hktraffic-test", 5*time.Second)

	_, _, err := c.Geocode(context.Background(), "Nowhere Road")
	assert.ErrorIs(t, err, ErrAddressNotFound)
}

func TestClient_Elements_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := NewClient(server.URL, server.URL, "hktraffic-test", 5*time.Second)
	_, err := c.Elements(context.Background(), "[out:json];")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
