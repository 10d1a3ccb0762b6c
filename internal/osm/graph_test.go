package osm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(id int64, lat, lon float64) Element {
	return Element{Type: "node", ID: id, Lat: lat, Lon: lon}
}

func way(id int64, tags map[string]string, nodes ...int64) Element {
	return Element{Type: "way", ID: id, Nodes: nodes, Tags: tags}
}

func edgePairs(g *Graph) [][2]int64 {
	pairs := make([][2]int64, 0, len(g.Edges))
	for _, e := range g.Edges {
		pairs = append(pairs, [2]int64{e.U, e.V})
	}
	return pairs
}

func TestBuildGraph_TwoWayStreet(t *testing.T) {
	elements := []Element{
		node(1, 22.3300, 114.1600),
		node(2, 22.3310, 114.1600),
		node(3, 22.3320, 114.1600),
		way(100, map[string]string{"highway": "secondary", "name": "Nam Cheong Street"}, 1, 2, 3),
	}

	g := BuildGraph(elements, NetworkDriveService)

	assert.Len(t, g.Nodes, 3)
	assert.Equal(t, [][2]int64{{1, 2}, {2, 1}, {2, 3}, {3, 2}}, edgePairs(g))

	assert.False(t, g.Edges[0].Reversed)
	assert.True(t, g.Edges[1].Reversed)
	for _, e := range g.Edges {
		assert.False(t, e.Oneway)
		assert.Equal(t, int64(100), e.WayID)
		assert.Equal(t, "Nam Cheong Street", e.Tags["name"])
		assert.Equal(t, "secondary", e.Tags["highway"])
		assert.Equal(t, 0, e.Key)
	}
}

func TestBuildGraph_Oneway(t *testing.T) {
	tests := []struct {
		name         string
		tags         map[string]string
		nt           NetworkType
		wantPairs    [][2]int64
		wantOneway   bool
		wantReversed bool
	}{
		{
			name:       "oneway yes",
			tags:       map[string]string{"highway": "primary", "oneway": "yes"},
			nt:         NetworkDrive,
			wantPairs:  [][2]int64{{1, 2}, {2, 3}},
			wantOneway: true,
		},
		{
			name:       "oneway -1 flips direction",
			tags:       map[string]string{"highway": "primary", "oneway": "-1"},
			nt:         NetworkDrive,
			wantPairs:  [][2]int64{{3, 2}, {2, 1}},
			wantOneway: true,
		},
		{
			name:       "oneway reverse flips direction",
			tags:       map[string]string{"highway": "primary", "oneway": "reverse"},
			nt:         NetworkDrive,
			wantPairs:  [][2]int64{{3, 2}, {2, 1}},
			wantOneway: true,
		},
		{
			name:       "roundabout is oneway",
			tags:       map[string]string{"highway": "tertiary", "junction": "roundabout"},
			nt:         NetworkDriveService,
			wantPairs:  [][2]int64{{1, 2}, {2, 3}},
			wantOneway: true,
		},
		{
			name:      "walk ignores oneway",
			tags:      map[string]string{"highway": "primary", "oneway": "yes"},
			nt:        NetworkWalk,
			wantPairs: [][2]int64{{1, 2}, {2, 1}, {2, 3}, {3, 2}},
		},
		{
			name:      "oneway no",
			tags:      map[string]string{"highway": "primary", "oneway": "no"},
			nt:        NetworkDrive,
			wantPairs: [][2]int64{{1, 2}, {2, 1}, {2, 3}, {3, 2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			elements := []Element{
				node(1, 22.330, 114.160),
				node(2, 22.331, 114.160),
				node(3, 22.332, 114.160),
				way(7, tt.tags, 1, 2, 3),
			}

			g := BuildGraph(elements, tt.nt)

			assert.Equal(t, tt.wantPairs, edgePairs(g))
			for _, e := range g.Edges {
				assert.Equal(t, tt.wantOneway, e.Oneway)
			}
			assert.Equal(t, tt.wantReversed, g.Edges[0].Reversed)
		})
	}
}

func TestBuildGraph_ParallelEdgeKeys(t *testing.T) {
	elements := []Element{
		node(1, 22.330, 114.160),
		node(2, 22.331, 114.160),
		way(10, map[string]string{"highway": "service", "oneway": "yes"}, 1, 2),
		way(11, map[string]string{"highway": "service", "oneway": "yes"}, 1, 2),
	}

	g := BuildGraph(elements, NetworkDriveService)

	require.Len(t, g.Edges, 2)
	assert.Equal(t, 0, g.Edges[0].Key)
	assert.Equal(t, 1, g.Edges[1].Key)
	assert.Equal(t, int64(11), g.Edges[1].WayID)
}

func TestBuildGraph_SkipsMissingNodesAndShortWays(t *testing.T) {
	elements := []Element{
		node(1, 22.330, 114.160),
		node(2, 22.331, 114.160),
		node(9, 22.340, 114.170),
		way(10, map[string]string{"highway": "residential", "oneway": "yes"}, 1, 2, 404),
		way(11, map[string]string{"highway": "residential"}, 9),
	}

	g := BuildGraph(elements, NetworkDrive)

	assert.Equal(t, [][2]int64{{1, 2}}, edgePairs(g))
	assert.NotContains(t, g.Nodes, int64(9))
}

func TestBuildGraph_Length(t *testing.T) {
	elements := []Element{
		node(1, 22.0, 114.0),
		node(2, 22.001, 114.0),
		way(1, map[string]string{"highway": "primary", "oneway": "yes"}, 1, 2),
	}

	g := BuildGraph(elements, NetworkDrive)
	require.Len(t, g.Edges, 1)

	// 0.001 degrees of latitude
	want := 0.001 * math.Pi / 180 * EarthRadius
	assert.InDelta(t, want, g.Edges[0].Length, 0.01)
}

func TestTruncate(t *testing.T) {
	bbox := BBox{North: 22.335, South: 22.325, East: 114.165, West: 114.155}
	elements := []Element{
		node(1, 22.330, 114.160),
		node(2, 22.331, 114.160),
		node(3, 22.400, 114.160), // outside
		way(5, map[string]string{"highway": "primary"}, 1, 2, 3),
	}

	g := BuildGraph(elements, NetworkDrive)
	g.Truncate(bbox)

	assert.Len(t, g.Nodes, 2)
	assert.Equal(t, [][2]int64{{1, 2}, {2, 1}}, edgePairs(g))
}

func TestCountStreets_BeforeTruncate(t *testing.T) {
	bbox := BBox{North: 22.335, South: 22.325, East: 114.165, West: 114.155}
	elements := []Element{
		node(1, 22.330, 114.160),
		node(2, 22.331, 114.160),
		node(3, 22.400, 114.160), // outside
		way(5, map[string]string{"highway": "primary"}, 1, 2, 3),
	}

	g := BuildGraph(elements, NetworkDrive)
	g.CountStreets()
	g.Truncate(bbox)
	g.KeepLargestComponent()

	require.Len(t, g.Nodes, 2)
	assert.Equal(t, 1, g.Nodes[1].StreetCount)
	assert.Equal(t, 2, g.Nodes[2].StreetCount)
}

func TestKeepLargestComponent(t *testing.T) {
	elements := []Element{
		node(1, 22.330, 114.160),
		node(2, 22.331, 114.160),
		node(3, 22.332, 114.160),
		node(10, 22.340, 114.170),
		node(11, 22.341, 114.170),
		way(100, map[string]string{"highway": "primary", "oneway": "yes"}, 1, 2, 3),
		way(200, map[string]string{"highway": "primary"}, 10, 11),
	}

	g := BuildGraph(elements, NetworkDrive)
	g.KeepLargestComponent()

	assert.Len(t, g.Nodes, 3)
	assert.Equal(t, [][2]int64{{1, 2}, {2, 3}}, edgePairs(g))
}

func TestKeepLargestComponent_TieGoesToSmallestID(t *testing.T) {
	elements := []Element{
		node(20, 22.330, 114.160),
		node(21, 22.331, 114.160),
		node(5, 22.340, 114.170),
		node(6, 22.341, 114.170),
		way(1, map[string]string{"highway": "primary"}, 20, 21),
		way(2, map[string]string{"highway": "primary"}, 5, 6),
	}

	g := BuildGraph(elements, NetworkDrive)
	g.KeepLargestComponent()

	assert.Contains(t, g.Nodes, int64(5))
	assert.Contains(t, g.Nodes, int64(6))
	assert.Len(t, g.Nodes, 2)
}

func TestCountStreets(t *testing.T) {
	// 2 is a junction of three streets; 4 has a self-loop
	elements := []Element{
		node(1, 22.330, 114.160),
		node(2, 22.331, 114.160),
		node(3, 22.332, 114.160),
		node(4, 22.331, 114.161),
		way(1, map[string]string{"highway": "primary"}, 1, 2, 3),
		way(2, map[string]string{"highway": "service", "oneway": "yes"}, 2, 4, 4),
	}

	g := BuildGraph(elements, NetworkDriveService)
	g.CountStreets()

	assert.Equal(t, 1, g.Nodes[1].StreetCount)
	assert.Equal(t, 3, g.Nodes[2].StreetCount)
	assert.Equal(t, 1, g.Nodes[3].StreetCount)
	assert.Equal(t, 3, g.Nodes[4].StreetCount)
}

func TestRows(t *testing.T) {
	elements := []Element{
		{Type: "node", ID: 2, Lat: 22.331, Lon: 114.16, Tags: map[string]string{"highway": "motorway_junction", "ref": "4A"}},
		node(1, 22.33, 114.16),
		way(100, map[string]string{
			"highway":  "primary",
			"name":     "Nam Cheong Street",
			"oneway":   "yes",
			"lanes":    "3",
			"maxspeed": "50",
			"surface":  "asphalt",
		}, 1, 2),
	}

	g := BuildGraph(elements, NetworkDrive)
	g.CountStreets()

	assert.Equal(t, []string{"osmid", "y", "x", "street_count", "highway", "ref"}, NodeColumns)
	assert.Equal(t, [][]string{
		{"1", "22.33", "114.16", "1", "", ""},
		{"2", "22.331", "114.16", "1", "motorway_junction", "4A"},
	}, g.NodeRows())

	assert.Equal(t, []string{
		"u", "v", "key", "osmid",
		"highway", "name", "ref", "lanes", "maxspeed", "bridge", "tunnel", "junction", "access", "service", "width",
		"oneway", "reversed", "length",
	}, EdgeColumns)

	rows := g.EdgeRows()
	require.Len(t, rows, 1)
	assert.Equal(t, []string{
		"1", "2", "0", "100",
		"primary", "Nam Cheong Street", "", "3", "50", "", "", "", "", "", "",
		"true", "false",
	}, rows[0][:17])
	assert.Len(t, rows[0], len(EdgeColumns))
}

func TestBBoxFromPoint(t *testing.T) {
	bbox := BBoxFromPoint(22.33, 114.16, 1000)

	assert.InDelta(t, 22.33+0.008993, bbox.North, 1e-5)
	assert.InDelta(t, 22.33-0.008993, bbox.South, 1e-5)
	assert.Greater(t, bbox.East-114.16, bbox.North-22.33)
	assert.InDelta(t, 1000, GreatCircle(22.33, 114.16, bbox.North, 114.16), 0.01)
	assert.True(t, bbox.Contains(22.33, 114.16))
	assert.False(t, bbox.Contains(22.35, 114.16))
}

func TestQuery(t *testing.T) {
	q := Query(BBox{North: 2, South: 1, East: 4, West: 3}, NetworkDriveService, 180)

	assert.Contains(t, q, "[out:json][timeout:180];")
	assert.Contains(t, q, `(1.0000000,3.0000000,2.0000000,4.0000000)`)
	assert.Contains(t, q, `["service"!~"emergency_access|parking|parking_aisle|private"]`)
	assert.Contains(t, q, ">;);out;")
}

func TestParseNetworkType(t *testing.T) {
	for _, name := range []string{"drive", "drive_service", "walk", "all"} {
		nt, err := ParseNetworkType(name)
		require.NoError(t, err)
		assert.NotEmpty(t, nt.Filter())
	}

	_, err := ParseNetworkType("bike")
	assert.Error(t, err)
}
