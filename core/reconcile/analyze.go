package reconcile

import (
	"context"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// ItemRevisionState tracks how far one item's revision run has been applied
// during a scan. It only lives for the duration of one Analyze call.
type ItemRevisionState struct {
	// Applied is the highest revision contiguous with the start of the run.
	Applied uint32

	// Pending holds revisions seen out of order and not yet contiguous with Applied.
	Pending []uint32
}

// Apply folds one observed revision into the state.
func (s *ItemRevisionState) Apply(revision uint32, stale StalePolicy) {
	switch {
	case revision == s.Applied+1:
		s.Applied = revision
		s.drain(stale)
	case revision <= s.Applied:
		if stale(s.Applied, revision) {
			s.Applied++
			s.drain(stale)
		}
	default:
		s.Pending = append(s.Pending, revision)
	}
}

// drain consumes the sorted prefix of Pending that has become contiguous.
func (s *ItemRevisionState) drain(stale StalePolicy) {
	if len(s.Pending) == 0 {
		return
	}
	slices.Sort(s.Pending)

	consumed := 0
	for _, revision := range s.Pending {
		if revision == s.Applied+1 {
			s.Applied = revision
		} else if revision <= s.Applied {
			if stale(s.Applied, revision) {
				s.Applied++
			}
		} else {
			break
		}
		consumed++
	}

	s.Pending = slices.Delete(s.Pending, 0, consumed)
}

// Holes returns the revisions between Applied and the highest pending revision
// that were never observed.
func (s *ItemRevisionState) Holes() []uint32 {
	if len(s.Pending) == 0 {
		return nil
	}
	slices.Sort(s.Pending)
	last := s.Pending[len(s.Pending)-1]

	var holes []uint32
	i := 0
	for v := s.Applied + 1; v < last; v++ {
		for i < len(s.Pending) && s.Pending[i] < v {
			i++
		}
		if i < len(s.Pending) && s.Pending[i] == v {
			continue
		}
		holes = append(holes, v)
	}
	return holes
}

// Analyzer finds sequence gaps and missing revisions in a single ascending scan.
type Analyzer struct {
	stale  StalePolicy
	logger *zap.Logger
}

// NewAnalyzer creates an analyzer. A nil policy selects AdvanceOnStale.
func NewAnalyzer(stale StalePolicy, logger *zap.Logger) *Analyzer {
	if stale == nil {
		stale = AdvanceOnStale
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{stale: stale, logger: logger}
}

// Analyze scans the store once and returns the gaps and missing revisions.
// Running it twice over an unchanged store yields identical results.
func (a *Analyzer) Analyze(ctx context.Context, store Store) (*Analysis, error) {
	var items []ItemRevisionState

	if sizer, ok := store.(Sizer); ok {
		begin := time.Now()
		records, maxItem, err := sizer.Stats(ctx)
		if err != nil {
			return nil, err
		}
		a.logger.Info("Store preflight",
			zap.String("records", humanize.Comma(int64(records))),
			zap.Uint32("latest_item", maxItem),
			zap.Duration("took", time.Since(begin)),
		)
		items = make([]ItemRevisionState, int(maxItem)+1)
	}

	result := &Analysis{}
	var previous uint64

	begin := time.Now()
	err := store.Scan(ctx, func(rec VersionRecord) error {
		result.Summary.Records++

		if rec.SequenceID > previous+1 {
			gap := SequenceGap{Start: previous + 1, End: rec.SequenceID}
			result.Gaps = append(result.Gaps, gap)
			result.Summary.MissingIDs += gap.Len()
		}
		if rec.SequenceID > previous {
			previous = rec.SequenceID
		}

		if int(rec.ItemID) >= len(items) {
			items = append(items, make([]ItemRevisionState, int(rec.ItemID)+1-len(items))...)
		}
		items[rec.ItemID].Apply(rec.Revision, a.stale)
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.logger.Info("Found missing sequence ranges",
		zap.Int("ranges", len(result.Gaps)),
		zap.String("missing_ids", humanize.Comma(int64(result.Summary.MissingIDs))),
		zap.Duration("took", time.Since(begin)),
	)

	for id := range items {
		holes := items[id].Holes()
		if len(items[id].Pending) == 0 {
			continue
		}
		result.Summary.ItemsWithMissing++
		for _, revision := range holes {
			result.Missing = append(result.Missing, MissingRevision{ItemID: uint32(id), Revision: revision})
		}
	}

	a.logger.Info("Found missing revisions",
		zap.Int("revisions", len(result.Missing)),
		zap.Int("items", result.Summary.ItemsWithMissing),
	)

	return result, nil
}
