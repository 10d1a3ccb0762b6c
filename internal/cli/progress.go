package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
)

// progressReporter renders crawl progress as a single tracker bar
type progressReporter struct {
	out     io.Writer
	pw      progress.Writer
	tracker *progress.Tracker
	added   int
}

func newProgressReporter(out io.Writer) *progressReporter {
	return &progressReporter{out: out}
}

// Start begins rendering a tracker with total steps
func (p *progressReporter) Start(total int) {
	p.pw = progress.NewWriter()
	p.pw.SetOutputWriter(p.out)
	p.pw.SetAutoStop(true)
	p.pw.SetTrackerLength(30)
	p.pw.SetUpdateFrequency(100 * time.Millisecond)
	p.pw.SetStyle(progress.StyleDefault)
	p.pw.Style().Visibility.ETA = true
	p.pw.Style().Visibility.Value = true

	p.tracker = &progress.Tracker{
		Message: "Traffic news",
		Total:   int64(total),
		Units:   progress.UnitsDefault,
	}
	p.pw.AppendTracker(p.tracker)

	go p.pw.Render()
	for !p.pw.IsRenderInProgress() {
		time.Sleep(time.Millisecond)
	}
}

// Step advances the tracker by one day
func (p *progressReporter) Step(day time.Time, added int) {
	p.added += added
	p.tracker.UpdateMessage(fmt.Sprintf("Traffic news %s (%d records)", day.Format("2006-01-02"), p.added))
	p.tracker.Increment(1)
}

// Finish marks the tracker done and waits for the last frame
func (p *progressReporter) Finish() {
	if p.tracker == nil {
		return
	}
	p.tracker.MarkAsDone()
	for p.pw.IsRenderInProgress() {
		time.Sleep(10 * time.Millisecond)
	}
}
