package reconcile

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// Recorder receives pass counters. See core/metrics.
type Recorder interface {
	// RequestDone is called after every successful remote request.
	RequestDone(records int)

	// WindowCommitted is called after every committed window transaction.
	WindowCommitted()

	// WindowWaited is called whenever the limiter is about to block for a new window.
	WindowWaited()
}

type noRecorder struct{}

func (noRecorder) RequestDone(int)  {}
func (noRecorder) WindowCommitted() {}
func (noRecorder) WindowWaited()    {}

// Driver runs one reconciliation pass: analysis, then optionally a rate-limited,
// windowed re-fetch of everything the analysis found missing.
type Driver struct {
	// Store is the local history. Required.
	Store Store

	// Fetcher performs remote requests. Required for fill modes.
	Fetcher Fetcher

	// Limiter gates remote requests. Required for fill modes.
	Limiter Limiter

	// Analyzer finds gaps and missing revisions. Defaults to NewAnalyzer(nil, Logger).
	Analyzer *Analyzer

	// Progress receives per-record progress. Optional.
	Progress Progress

	// Recorder receives pass counters. Optional.
	Recorder Recorder

	// Logger receives pass events. Optional.
	Logger *zap.Logger

	// Out receives the check report. Defaults to os.Stdout.
	Out io.Writer

	// Limits bounds packed range requests. ItemCap is also the page size of every request.
	Limits PackLimits
}

// Result is the outcome of a pass.
type Result struct {
	Analysis *Analysis
	Pass     PassSummary
}

// request is one planned remote request and the number of items it accounts for.
type request struct {
	filter Filter
	count  uint64
}

// Run performs one pass in the given mode.
//
// Fill modes group requests by limiter window: a transaction is opened with the
// first request of a window and committed right before the limiter blocks for
// the next window, and once more at the end. A failed request aborts the pass;
// windows committed before the failure stay persisted.
func (d *Driver) Run(ctx context.Context, mode Mode) (*Result, error) {
	d.defaults()

	if d.Store == nil {
		return nil, errors.New("reconcile: driver has no store")
	}
	if mode.Fills() && (d.Fetcher == nil || d.Limiter == nil) {
		return nil, fmt.Errorf("reconcile: mode %s requires a fetcher and a limiter", mode)
	}

	analysis, err := d.Analyzer.Analyze(ctx, d.Store)
	if err != nil {
		return nil, err
	}
	result := &Result{Analysis: analysis}

	switch mode {
	case ModeCheck:
		return result, WriteReport(d.Out, analysis.Missing)
	case ModeFillByRevision:
		requests := make([]request, len(analysis.Missing))
		for i, m := range analysis.Missing {
			requests[i] = request{filter: RevisionFilter{ItemID: m.ItemID, Revision: m.Revision}, count: 1}
		}
		result.Pass, err = d.fill(ctx, requests, uint64(len(analysis.Missing)))
		return result, err
	case ModeFillByRange:
		batches, err := Pack(analysis.Gaps, d.Limits)
		if err != nil {
			return nil, err
		}
		requests := make([]request, len(batches))
		for i, b := range batches {
			requests[i] = request{filter: b.Filter, count: uint64(b.Count)}
		}
		d.Logger.Info("Packed missing ranges", zap.Int("requests", len(requests)))
		result.Pass, err = d.fill(ctx, requests, analysis.Summary.MissingIDs)
		return result, err
	default:
		return nil, &UsageError{Msg: fmt.Sprintf("unknown mode %d", mode)}
	}
}

func (d *Driver) defaults() {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Analyzer == nil {
		d.Analyzer = NewAnalyzer(nil, d.Logger)
	}
	if d.Progress == nil {
		d.Progress = noProgress{}
	}
	if d.Recorder == nil {
		d.Recorder = noRecorder{}
	}
	if d.Out == nil {
		d.Out = os.Stdout
	}
}

// fill issues the requests and stores what they return.
func (d *Driver) fill(ctx context.Context, requests []request, total uint64) (PassSummary, error) {
	summary := PassSummary{Expected: total}
	if len(requests) == 0 {
		d.Logger.Info("Nothing to fetch")
		return summary, nil
	}

	d.Progress.Start(total)
	defer d.Progress.Done()

	w := &window{store: d.Store, logger: d.Logger, recorder: d.Recorder}

	for _, req := range requests {
		if err := ctx.Err(); err != nil {
			return summary, w.abort(err, &summary)
		}

		if d.Limiter.Full() {
			if err := w.commit(&summary); err != nil {
				return summary, err
			}
			d.Recorder.WindowWaited()
		}
		if err := d.Limiter.Acquire(ctx); err != nil {
			return summary, w.abort(err, &summary)
		}

		if err := w.begin(ctx); err != nil {
			return summary, err
		}

		records, err := d.Fetcher.Fetch(ctx, req.filter, d.Limits.ItemCap)
		if err != nil {
			if ctx.Err() != nil {
				d.Logger.Debug("Request interrupted", zap.Error(err))
				return summary, w.abort(ctx.Err(), &summary)
			}
			w.rollback()
			return summary, err
		}
		summary.Requests++
		summary.Fetched += len(records)
		d.Recorder.RequestDone(len(records))

		if err := w.insert(ctx, records); err != nil {
			w.rollback()
			return summary, err
		}

		// One step per returned record, then account for ids the source did not return.
		reported := uint64(0)
		for range records {
			if reported == req.count {
				break
			}
			d.Progress.Advance(1)
			reported++
		}
		if reported < req.count {
			d.Progress.Advance(req.count - reported)
		}
		summary.Processed += req.count
	}

	if err := w.commit(&summary); err != nil {
		return summary, err
	}

	d.Logger.Info("Fill pass complete",
		zap.Int("requests", summary.Requests),
		zap.String("fetched", humanize.Comma(int64(summary.Fetched))),
		zap.Int("commits", summary.Commits),
	)
	return summary, nil
}

// window owns the transaction of the current limiter window.
type window struct {
	store    Store
	logger   *zap.Logger
	recorder Recorder

	tx       Tx
	inserted int
}

func (w *window) begin(ctx context.Context) error {
	if w.tx != nil {
		return nil
	}
	// Detached: an interrupted pass still commits this window.
	tx, err := w.store.Begin(context.WithoutCancel(ctx))
	if err != nil {
		return asStoreError("begin", err)
	}
	w.tx = tx
	w.inserted = 0
	return nil
}

func (w *window) insert(ctx context.Context, records []VersionRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := w.tx.InsertMany(context.WithoutCancel(ctx), records); err != nil {
		return asStoreError("insert", err)
	}
	w.inserted += len(records)
	for _, rec := range records {
		w.logger.Debug("Inserted record",
			zap.Uint64("id", rec.SequenceID),
			zap.Uint32("item", rec.ItemID),
			zap.Uint32("revision", rec.Revision),
		)
	}
	return nil
}

func (w *window) commit(summary *PassSummary) error {
	if w.tx == nil {
		return nil
	}
	tx := w.tx
	w.tx = nil
	if err := tx.Commit(); err != nil {
		return asStoreError("commit", err)
	}
	summary.Commits++
	w.recorder.WindowCommitted()
	w.logger.Debug("Committed window", zap.Int("records", w.inserted))
	return nil
}

func (w *window) rollback() {
	if w.tx == nil {
		return
	}
	if err := w.tx.Rollback(); err != nil {
		w.logger.Warn("Rollback failed", zap.Error(err))
	}
	w.tx = nil
}

// abort ends a cancelled pass. Work fetched in the open window is complete, so it is kept.
func (w *window) abort(cause error, summary *PassSummary) error {
	if err := w.commit(summary); err != nil {
		return errors.Join(cause, err)
	}
	w.logger.Warn("Fill pass interrupted", zap.Error(cause))
	return cause
}

func asStoreError(op string, err error) error {
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// WriteReport writes one "item_id,revision" line per missing revision.
func WriteReport(out io.Writer, missing []MissingRevision) error {
	bw := bufio.NewWriter(out)
	for _, m := range missing {
		if _, err := bw.WriteString(m.String() + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
