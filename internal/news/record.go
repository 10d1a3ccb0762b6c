package news

import "time"

// Columns is the header of the exported traffic news table.
var Columns = []string{"date", "time", "detail"}

// Record is a single traffic news entry as shown on a listing page.
// Date and Time are kept as the text the page shows.
type Record struct {
	Date   string `json:"date"`
	Time   string `json:"time"`
	Detail string `json:"detail"`
}

// Row returns the record as a table row in Columns order
func (r Record) Row() []string {
	return []string{r.Date, r.Time, r.Detail}
}

// timestampLayouts are the date/time shapes the listing pages have used
var timestampLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04",
	"02/01/2006 15:04",
}

// Timestamp parses Date and Time into a time.Time in Hong Kong local time.
// Returns the zero value if the text does not match a known layout.
func (r Record) Timestamp() time.Time {
	text := r.Date + " " + r.Time
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, text, hongKong); err == nil {
			return t
		}
	}
	return time.Time{}
}

// hongKong is UTC+8 with no daylight saving, so a fixed zone avoids depending on tzdata.
var hongKong = time.FixedZone("HKT", 8*60*60)
