package osm

import (
	"sort"
	"strconv"
)

// Tags carried onto the graph, in column order. A missing tag exports as an empty cell.
var (
	nodeTags = []string{"highway", "ref"}
	wayTags  = []string{"highway", "name", "ref", "lanes", "maxspeed", "bridge", "tunnel", "junction", "access", "service", "width"}
)

// NodeColumns is the header of the exported nodes table.
var NodeColumns = concat([]string{"osmid", "y", "x", "street_count"}, nodeTags)

// EdgeColumns is the header of the exported edges table.
var EdgeColumns = concat([]string{"u", "v", "key", "osmid"}, wayTags, []string{"oneway", "reversed", "length"})

func concat(parts ...[]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Element is one node or way from an Overpass response
type Element struct {
	Type  string            `json:"type"`
	ID    int64             `json:"id"`
	Lat   float64           `json:"lat"`
	Lon   float64           `json:"lon"`
	Nodes []int64           `json:"nodes"`
	Tags  map[string]string `json:"tags"`
}

// Node is a graph vertex
type Node struct {
	ID          int64
	Lat         float64
	Lon         float64
	StreetCount int
	Tags        map[string]string
}

// Edge is a directed street segment between two consecutive way nodes
type Edge struct {
	U        int64
	V        int64
	Key      int
	WayID    int64
	Tags     map[string]string
	Oneway   bool
	Reversed bool
	Length   float64
}

// Graph is a directed multigraph of the street network
type Graph struct {
	Nodes map[int64]*Node
	Edges []Edge
}

var onewayValues = map[string]bool{
	"yes": true, "true": true, "1": true, "-1": true, "reverse": true, "T": true, "F": true,
}

var flippedValues = map[string]bool{
	"-1": true, "reverse": true, "T": true,
}

// BuildGraph turns Overpass elements into a graph. Ways referring to nodes missing from
// the response skip those segments.
func BuildGraph(elements []Element, nt NetworkType) *Graph {
	g := &Graph{
		Nodes: make(map[int64]*Node),
	}

	for _, el := range elements {
		if el.Type != "node" {
			continue
		}
		g.Nodes[el.ID] = &Node{
			ID:   el.ID,
			Lat:  el.Lat,
			Lon:  el.Lon,
			Tags: pickTags(el.Tags, nodeTags),
		}
	}

	keys := make(map[[2]int64]int)
	addEdge := func(u, v, wayID int64, tags map[string]string, oneway, reversed bool) {
		from, okU := g.Nodes[u]
		to, okV := g.Nodes[v]
		if !okU || !okV {
			return
		}
		pair := [2]int64{u, v}
		g.Edges = append(g.Edges, Edge{
			U:        u,
			V:        v,
			Key:      keys[pair],
			WayID:    wayID,
			Tags:     tags,
			Oneway:   oneway,
			Reversed: reversed,
			Length:   GreatCircle(from.Lat, from.Lon, to.Lat, to.Lon),
		})
		keys[pair]++
	}

	for _, way := range elements {
		if way.Type != "way" || len(way.Nodes) < 2 {
			continue
		}

		tags := pickTags(way.Tags, wayTags)
		oneway := isOneway(way.Tags, nt)

		// a one-way path drawn against traffic is flipped; its edges are not reversed copies
		nodes := way.Nodes
		if oneway && flippedValues[way.Tags["oneway"]] {
			nodes = reverse(nodes)
		}

		for i := 0; i+1 < len(nodes); i++ {
			u, v := nodes[i], nodes[i+1]
			addEdge(u, v, way.ID, tags, oneway, false)
			if !oneway {
				addEdge(v, u, way.ID, tags, false, true)
			}
		}
	}

	g.dropUnusedNodes()
	return g
}

func isOneway(tags map[string]string, nt NetworkType) bool {
	if nt.Bidirectional() {
		return false
	}
	if onewayValues[tags["oneway"]] {
		return true
	}
	return tags["junction"] == "roundabout"
}

func pickTags(src map[string]string, keys []string) map[string]string {
	out := make(map[string]string)
	for _, k := range keys {
		if v, ok := src[k]; ok {
			out[k] = v
		}
	}
	return out
}

func reverse(ids []int64) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[len(ids)-1-i] = id
	}
	return out
}

// dropUnusedNodes removes nodes that are not an endpoint of any edge.
// Overpass returns nodes of every matching way, including ways with fewer than two nodes.
func (g *Graph) dropUnusedNodes() {
	used := make(map[int64]bool, len(g.Nodes))
	for _, e := range g.Edges {
		used[e.U] = true
		used[e.V] = true
	}
	for id := range g.Nodes {
		if !used[id] {
			delete(g.Nodes, id)
		}
	}
}

// Truncate removes nodes outside bbox and every edge touching them.
// Street counts already set are kept, so boundary nodes still count their cut-off streets.
func (g *Graph) Truncate(bbox BBox) {
	for id, n := range g.Nodes {
		if !bbox.Contains(n.Lat, n.Lon) {
			delete(g.Nodes, id)
		}
	}
	g.keepEdgesWithin()
}

// KeepLargestComponent keeps only the largest weakly connected component.
// Ties go to the component holding the smallest node ID.
func (g *Graph) KeepLargestComponent() {
	if len(g.Nodes) == 0 {
		return
	}

	parent := make(map[int64]int64, len(g.Nodes))
	find := func(x int64) int64 {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	for id := range g.Nodes {
		parent[id] = id
	}
	for _, e := range g.Edges {
		ru, rv := find(e.U), find(e.V)
		if ru == rv {
			continue
		}
		// the smaller ID becomes the root so ties resolve deterministically
		if ru < rv {
			parent[rv] = ru
		} else {
			parent[ru] = rv
		}
	}

	sizes := make(map[int64]int)
	for id := range g.Nodes {
		sizes[find(id)]++
	}

	var best int64
	bestSize := -1
	for root, size := range sizes {
		if size > bestSize || (size == bestSize && root < best) {
			best, bestSize = root, size
		}
	}

	for id := range g.Nodes {
		if find(id) != best {
			delete(g.Nodes, id)
		}
	}
	g.keepEdgesWithin()
}

func (g *Graph) keepEdgesWithin() {
	kept := g.Edges[:0]
	for _, e := range g.Edges {
		_, okU := g.Nodes[e.U]
		_, okV := g.Nodes[e.V]
		if okU && okV {
			kept = append(kept, e)
		}
	}
	g.Edges = kept
}

// CountStreets sets StreetCount on every node to its number of distinct undirected neighbours.
// A self-loop counts as two streets.
func (g *Graph) CountStreets() {
	neighbours := make(map[int64]map[int64]bool, len(g.Nodes))
	loops := make(map[int64]bool)

	for _, e := range g.Edges {
		if e.U == e.V {
			loops[e.U] = true
			continue
		}
		for _, pair := range [][2]int64{{e.U, e.V}, {e.V, e.U}} {
			if neighbours[pair[0]] == nil {
				neighbours[pair[0]] = make(map[int64]bool)
			}
			neighbours[pair[0]][pair[1]] = true
		}
	}

	for id, n := range g.Nodes {
		n.StreetCount = len(neighbours[id])
		if loops[id] {
			n.StreetCount += 2
		}
	}
}

// SortedNodes returns the nodes ordered by ID
func (g *Graph) SortedNodes() []*Node {
	nodes := make([]*Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].ID < nodes[j].ID
	})
	return nodes
}

// NodeRows returns the nodes as table rows in NodeColumns order
func (g *Graph) NodeRows() [][]string {
	nodes := g.SortedNodes()
	rows := make([][]string, 0, len(nodes))
	for _, n := range nodes {
		row := []string{
			strconv.FormatInt(n.ID, 10),
			strconv.FormatFloat(n.Lat, 'f', -1, 64),
			strconv.FormatFloat(n.Lon, 'f', -1, 64),
			strconv.Itoa(n.StreetCount),
		}
		rows = append(rows, appendTags(row, n.Tags, nodeTags))
	}
	return rows
}

// EdgeRows returns the edges as table rows in EdgeColumns order
func (g *Graph) EdgeRows() [][]string {
	rows := make([][]string, 0, len(g.Edges))
	for _, e := range g.Edges {
		row := []string{
			strconv.FormatInt(e.U, 10),
			strconv.FormatInt(e.V, 10),
			strconv.Itoa(e.Key),
			strconv.FormatInt(e.WayID, 10),
		}
		row = appendTags(row, e.Tags, wayTags)
		rows = append(rows, append(row,
			strconv.FormatBool(e.Oneway),
			strconv.FormatBool(e.Reversed),
			strconv.FormatFloat(e.Length, 'f', 3, 64),
		))
	}
	return rows
}

func appendTags(row []string, tags map[string]string, keys []string) []string {
	for _, k := range keys {
		row = append(row, tags[k])
	}
	return row
}
