// Package cli implements the command-line interface for hktraffic.
//
// The cli package provides the Cobra-based commands news, roads and osm. Each command
// loads configuration, runs one collector, prints a preview of the collected table
// (text or JSON) and writes the table to the dataset directory as CSV.
package cli
