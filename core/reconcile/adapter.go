package reconcile

import "context"

// Store is the local, ordered record history.
// Implementations live in feature packages (see feature/postversions).
type Store interface {
	// Scan calls fn for every stored record in ascending SequenceID order.
	// The scan is finite and can be restarted by calling Scan again.
	// Returning an error from fn stops the scan and Scan returns that error.
	Scan(ctx context.Context, fn func(VersionRecord) error) error

	// Begin opens a transaction. The driver decides when it commits, so the
	// transaction must stay usable after ctx is cancelled.
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a store transaction opened by the driver.
type Tx interface {
	// InsertMany inserts the records. Records whose SequenceID already exists are skipped.
	InsertMany(ctx context.Context, records []VersionRecord) error

	// Commit commits the transaction.
	Commit() error

	// Rollback abandons the transaction.
	Rollback() error
}

// Sizer is optionally implemented by a Store that can report its size cheaply.
// The analyzer uses it to pre-size the per-item table.
type Sizer interface {
	// Stats returns the number of stored records and the highest item id.
	Stats(ctx context.Context) (records int, maxItemID uint32, err error)
}

// Fetcher performs remote queries.
type Fetcher interface {
	// Fetch returns at most pageSize records matching the filter.
	// Failures are reported as *RemoteRequestError carrying the attempted request.
	Fetch(ctx context.Context, filter Filter, pageSize int) ([]VersionRecord, error)
}

// Limiter gates outbound requests. See core/ratelimit.
type Limiter interface {
	// Full reports whether the next Acquire will have to wait for a new window.
	Full() bool

	// Acquire blocks until a request may be issued.
	Acquire(ctx context.Context) error
}

// Progress receives per-record progress updates.
type Progress interface {
	// Start is called once with the expected total.
	Start(total uint64)

	// Advance adds n processed items.
	Advance(n uint64)

	// Done is called once when the pass ends, successfully or not.
	Done()
}

type noProgress struct{}

func (noProgress) Start(uint64)   {}
func (noProgress) Advance(uint64) {}
func (noProgress) Done()          {}
