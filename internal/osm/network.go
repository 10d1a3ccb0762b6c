package osm

import (
	"fmt"
	"math"
)

// NetworkType selects which ways are part of the road network
type NetworkType string

const (
	NetworkDrive        NetworkType = "drive"
	NetworkDriveService NetworkType = "drive_service"
	NetworkWalk         NetworkType = "walk"
	NetworkAll          NetworkType = "all"
)

const accessFilter = `["access"!~"private"]`

var networkFilters = map[NetworkType]string{
	NetworkDrive: `["highway"]["area"!~"yes"]` +
		`["highway"!~"abandoned|bridleway|bus_guideway|construction|corridor|cycleway|elevator|escalator|footway|path|pedestrian|planned|platform|proposed|raceway|service|steps|track"]` +
		`["motor_vehicle"!~"no"]["motorcar"!~"no"]` +
		`["service"!~"alley|driveway|emergency_access|parking|parking_aisle|private"]` + accessFilter,
	NetworkDriveService: `["highway"]["area"!~"yes"]` +
		`["highway"!~"abandoned|bridleway|bus_guideway|construction|corridor|cycleway|elevator|escalator|footway|path|pedestrian|planned|platform|proposed|raceway|steps|track"]` +
		`["motor_vehicle"!~"no"]["motorcar"!~"no"]` +
		`["service"!~"emergency_access|parking|parking_aisle|private"]` + accessFilter,
	NetworkWalk: `["highway"]["area"!~"yes"]` +
		`["highway"!~"abandoned|bus_guideway|construction|cycleway|motor|planned|platform|proposed|raceway"]` +
		`["foot"!~"no"]["service"!~"private"]` + accessFilter,
	NetworkAll: `["highway"]["area"!~"yes"]` +
		`["highway"!~"abandoned|construction|planned|platform|proposed|raceway"]`,
}

// ParseNetworkType validates a network type name
func ParseNetworkType(s string) (NetworkType, error) {
	nt := NetworkType(s)
	if _, ok := networkFilters[nt]; !ok {
		return "", fmt.Errorf("unknown network type: %q", s)
	}
	return nt, nil
}

// Filter returns the Overpass tag filter for the network type
func (nt NetworkType) Filter() string {
	return networkFilters[nt]
}

// Bidirectional reports whether one-way tags are ignored for this network type
func (nt NetworkType) Bidirectional() bool {
	return nt == NetworkWalk
}

// EarthRadius is the mean earth radius in metres
const EarthRadius = 6371009.0

// BBox is a latitude/longitude bounding box
type BBox struct {
	North float64
	South float64
	East  float64
	West  float64
}

// BBoxFromPoint returns the box extending dist metres north, south, east and west of a point
func BBoxFromPoint(lat, lon, dist float64) BBox {
	deltaLat := dist / EarthRadius * (180 / math.Pi)
	deltaLon := deltaLat / math.Cos(lat*math.Pi/180)
	return BBox{
		North: lat + deltaLat,
		South: lat - deltaLat,
		East:  lon + deltaLon,
		West:  lon - deltaLon,
	}
}

// Contains reports whether the point lies inside the box, edges included
func (b BBox) Contains(lat, lon float64) bool {
	return lat >= b.South && lat <= b.North && lon >= b.West && lon <= b.East
}

// Query builds the Overpass QL query returning matching ways and their nodes
func Query(bbox BBox, nt NetworkType, timeoutSec int) string {
	return fmt.Sprintf(
		"[out:json][timeout:%d];(way%s(%.7f,%.7f,%.7f,%.7f);>;);out;",
		timeoutSec, nt.Filter(), bbox.South, bbox.West, bbox.North, bbox.East,
	)
}

// GreatCircle returns the haversine distance in metres between two points
func GreatCircle(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := phi2 - phi1
	dLambda := (lon2 - lon1) * math.Pi / 180

	h := math.Pow(math.Sin(dPhi/2), 2) + math.Cos(phi1)*math.Cos(phi2)*math.Pow(math.Sin(dLambda/2), 2)
	h = math.Min(1, h)
	return 2 * EarthRadius * math.Asin(math.Sqrt(h))
}
