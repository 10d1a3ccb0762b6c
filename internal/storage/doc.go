// Package storage writes collected tables to the dataset directory as CSV files.
//
// Every table is written with a header row and no index column. Files are written to a
// temporary file next to the destination and renamed into place, so a failed run never
// leaves a truncated dataset behind. The default location is datasets/raw.
package storage
