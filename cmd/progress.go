package cmd

import (
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
)

// progressBar renders reconcile progress with go-pretty. It implements reconcile.Progress.
type progressBar struct {
	out     io.Writer
	label   string
	writer  progress.Writer
	tracker *progress.Tracker
}

func newProgressBar(out io.Writer, label string) *progressBar {
	return &progressBar{out: out, label: label}
}

func (p *progressBar) Start(total uint64) {
	pw := progress.NewWriter()
	pw.SetOutputWriter(p.out)
	pw.SetAutoStop(false)
	pw.SetTrackerLength(40)
	pw.SetUpdateFrequency(100 * time.Millisecond)
	pw.SetStyle(progress.StyleDefault)
	pw.Style().Visibility.ETA = true
	pw.Style().Visibility.Speed = true

	p.tracker = &progress.Tracker{Message: p.label, Total: int64(total), Units: progress.UnitsDefault}
	pw.AppendTracker(p.tracker)
	p.writer = pw

	go pw.Render()

	// Stop is a no-op until rendering has begun.
	deadline := time.Now().Add(time.Second)
	for !pw.IsRenderInProgress() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
}

func (p *progressBar) Advance(n uint64) {
	if p.tracker != nil {
		p.tracker.Increment(int64(n))
	}
}

func (p *progressBar) Done() {
	if p.writer == nil {
		return
	}
	if p.tracker.Value() < p.tracker.Total {
		p.tracker.MarkAsErrored()
	} else {
		p.tracker.MarkAsDone()
	}
	p.writer.Stop()
	for p.writer.IsRenderInProgress() {
		time.Sleep(10 * time.Millisecond)
	}
}
