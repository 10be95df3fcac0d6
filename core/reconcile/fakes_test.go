package reconcile

import (
	"context"
	"errors"
	"slices"
	"sort"

	"github.com/stretchr/testify/mock"
)

// memStore is an in-memory Store. Inserts become visible to Scan only after Commit.
// Like database/sql, a transaction dies with the context it was begun with.
type memStore struct {
	records []VersionRecord

	begins    int
	commits   int
	rollbacks int

	beginErr  error
	insertErr error
	commitErr error

	// committed holds the size of every committed transaction, in order.
	committed []int
}

func newMemStore(records ...VersionRecord) *memStore {
	return &memStore{records: slices.Clone(records)}
}

// seqs builds records from (id, item, revision) triples.
func seqs(triples ...[3]uint64) []VersionRecord {
	out := make([]VersionRecord, len(triples))
	for i, t := range triples {
		out[i] = VersionRecord{SequenceID: t[0], ItemID: uint32(t[1]), Revision: uint32(t[2])}
	}
	return out
}

func (s *memStore) Scan(ctx context.Context, fn func(VersionRecord) error) error {
	sorted := slices.Clone(s.records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].SequenceID < sorted[j].SequenceID })
	for _, rec := range sorted {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

func (s *memStore) Begin(ctx context.Context) (Tx, error) {
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	s.begins++
	return &memTx{store: s, ctx: ctx}, nil
}

func (s *memStore) has(id uint64) bool {
	for _, rec := range s.records {
		if rec.SequenceID == id {
			return true
		}
	}
	return false
}

type memTx struct {
	store   *memStore
	ctx     context.Context
	pending []VersionRecord
	done    bool
}

func (t *memTx) InsertMany(ctx context.Context, records []VersionRecord) error {
	if t.done {
		return errors.New("transaction finished")
	}
	if err := errors.Join(t.ctx.Err(), ctx.Err()); err != nil {
		return err
	}
	if t.store.insertErr != nil {
		return t.store.insertErr
	}
	t.pending = append(t.pending, records...)
	return nil
}

func (t *memTx) Commit() error {
	if t.done {
		return errors.New("transaction finished")
	}
	if err := t.ctx.Err(); err != nil {
		return err
	}
	if t.store.commitErr != nil {
		return t.store.commitErr
	}
	t.done = true
	for _, rec := range t.pending {
		if !t.store.has(rec.SequenceID) {
			t.store.records = append(t.store.records, rec)
		}
	}
	t.store.commits++
	t.store.committed = append(t.store.committed, len(t.pending))
	return nil
}

func (t *memTx) Rollback() error {
	t.done = true
	t.store.rollbacks++
	return nil
}

// filterIDs expands an IDFilter into the ids it covers, in order.
func filterIDs(f IDFilter) []uint64 {
	var ids []uint64
	for _, t := range f.Terms {
		for id := t.Start; id < t.End; id++ {
			ids = append(ids, id)
		}
	}
	return ids
}

// mockFetcher is a testify mock of Fetcher.
type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Fetch(ctx context.Context, filter Filter, pageSize int) ([]VersionRecord, error) {
	args := m.Called(ctx, filter, pageSize)
	records, _ := args.Get(0).([]VersionRecord)
	return records, args.Error(1)
}

// remoteSource answers fetches from a fixed set of remote records.
type remoteSource struct {
	records []VersionRecord
	calls   []Filter
	failAt  int
	failErr error
}

func (r *remoteSource) Fetch(ctx context.Context, filter Filter, pageSize int) ([]VersionRecord, error) {
	r.calls = append(r.calls, filter)
	if r.failErr != nil && len(r.calls) == r.failAt {
		return nil, r.failErr
	}

	var out []VersionRecord
	switch f := filter.(type) {
	case IDFilter:
		for _, id := range filterIDs(f) {
			for _, rec := range r.records {
				if rec.SequenceID == id {
					out = append(out, rec)
				}
			}
		}
	case RevisionFilter:
		for _, rec := range r.records {
			if rec.ItemID == f.ItemID && rec.Revision == f.Revision {
				out = append(out, rec)
			}
		}
	}
	if len(out) > pageSize {
		out = out[:pageSize]
	}
	return out, nil
}

// countingLimiter is a Limiter that never blocks but tracks windows like the fixed-window limiter.
type countingLimiter struct {
	limit   int
	count   int
	windows int
	err     error
}

func (l *countingLimiter) Full() bool { return l.count >= l.limit }

func (l *countingLimiter) Acquire(ctx context.Context) error {
	if l.err != nil {
		return l.err
	}
	if l.count >= l.limit {
		l.count = 0
		l.windows++
	}
	l.count++
	return nil
}

// recordingProgress captures progress calls.
type recordingProgress struct {
	total    uint64
	advanced uint64
	steps    int
	done     bool
}

func (p *recordingProgress) Start(total uint64) { p.total = total }
func (p *recordingProgress) Advance(n uint64) {
	p.advanced += n
	p.steps++
}
func (p *recordingProgress) Done() { p.done = true }
