// Package osm builds a non-simplified OpenStreetMap road network around an address.
//
// The address is geocoded through Nominatim, a square bounding box of the configured
// distance is drawn around the point, and the ways matching the network type are
// downloaded from the Overpass API. Every consecutive node pair of a way becomes a
// directed edge; two-way streets get an edge in each direction. Only the largest weakly
// connected component inside the bounding box is kept.
package osm
