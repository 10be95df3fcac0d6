package postversions

import (
	"context"
	"fmt"

	"booru-sync/core/database"
	"booru-sync/core/reconcile"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	insertBatchSize = 200
	scanCheckEvery  = 4096
)

// Store is the post_versions table seen as a reconcile.Store.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStore creates a store on an open connection.
func NewStore(db *gorm.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}
}

// Verify checks that the table exists with every expected column.
func (s *Store) Verify(ctx context.Context) error {
	missing, err := database.MissingColumns(s.db.WithContext(ctx), TableName, Columns)
	if err != nil {
		return &reconcile.StoreError{Op: "verify", Err: err}
	}
	if len(missing) > 0 {
		return &reconcile.StoreError{Op: "verify", Err: fmt.Errorf("table %s lacks columns %v", TableName, missing)}
	}
	return nil
}

// Stats returns the row count and the highest post id.
func (s *Store) Stats(ctx context.Context) (int, uint32, error) {
	var row struct {
		Count   int64
		MaxPost uint32
	}
	err := s.db.WithContext(ctx).
		Model(&PostVersion{}).
		Select("COUNT(*) AS count, COALESCE(MAX(post_id), 0) AS max_post").
		Scan(&row).Error
	if err != nil {
		return 0, 0, &reconcile.StoreError{Op: "stats", Err: err}
	}
	return int(row.Count), row.MaxPost, nil
}

// Scan streams (id, post_id, version) in ascending id order.
func (s *Store) Scan(ctx context.Context, fn func(reconcile.VersionRecord) error) error {
	rows, err := s.db.WithContext(ctx).
		Model(&PostVersion{}).
		Select("id", "post_id", "version").
		Order("id").
		Rows()
	if err != nil {
		return &reconcile.StoreError{Op: "scan", Err: err}
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var rec reconcile.VersionRecord
		if err := rows.Scan(&rec.SequenceID, &rec.ItemID, &rec.Revision); err != nil {
			return &reconcile.StoreError{Op: "scan", Err: err}
		}
		if err := fn(rec); err != nil {
			return err
		}

		n++
		if n%scanCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
	}
	if err := rows.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &reconcile.StoreError{Op: "scan", Err: err}
	}
	return nil
}

// Begin opens a transaction for one limiter window. The transaction is not
// rolled back when ctx is cancelled: the driver commits the open window of an
// interrupted pass.
func (s *Store) Begin(ctx context.Context) (reconcile.Tx, error) {
	tx := s.db.WithContext(context.WithoutCancel(ctx)).Begin()
	if tx.Error != nil {
		return nil, &reconcile.StoreError{Op: "begin", Err: tx.Error}
	}
	return &Tx{tx: tx, logger: s.logger}, nil
}

// Tx is an open window transaction.
type Tx struct {
	tx     *gorm.DB
	logger *zap.Logger
}

// InsertMany inserts the records, skipping ids that already exist.
func (t *Tx) InsertMany(ctx context.Context, records []reconcile.VersionRecord) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([]PostVersion, len(records))
	for i, rec := range records {
		rows[i] = fromRecord(rec)
	}

	result := t.tx.WithContext(context.WithoutCancel(ctx)).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(rows, insertBatchSize)
	if result.Error != nil {
		return &reconcile.StoreError{Op: "insert", Err: result.Error}
	}
	if skipped := int64(len(rows)) - result.RowsAffected; skipped > 0 {
		t.logger.Debug("Skipped existing records", zap.Int64("count", skipped))
	}
	return nil
}

func (t *Tx) Commit() error {
	if err := t.tx.Commit().Error; err != nil {
		return &reconcile.StoreError{Op: "commit", Err: err}
	}
	return nil
}

func (t *Tx) Rollback() error {
	if err := t.tx.Rollback().Error; err != nil {
		return &reconcile.StoreError{Op: "rollback", Err: err}
	}
	return nil
}
