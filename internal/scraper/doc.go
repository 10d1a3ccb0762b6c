// Package scraper fetches and parses the RTHK traffic news listing pages.
//
// One listing page exists per calendar day, addressed by a YYYYMMDD query parameter. The
// scraper fetches a page over a reused HTTP client and extracts (date, time, detail) records
// from the "articles" container. Items whose timestamp field does not split cleanly on the
// " HKT " marker are skipped.
package scraper
