package postversions

import (
	"context"
	"errors"
	"testing"

	"booru-sync/core/database"
	"booru-sync/core/reconcile"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	require.NoError(t, db.AutoMigrate(&PostVersion{}))
	return NewStore(db, nil), db
}

func setupMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return NewStore(gormDB, nil), mock
}

func row(id uint64, post, version uint32) PostVersion {
	return PostVersion{
		ID:        id,
		PostID:    post,
		Version:   version,
		AddedTags: "tag_a tag_b",
		Rating:    "s",
		UpdatedAt: "2020-01-02 03:04:05",
	}
}

func insert(t *testing.T, store *Store, rows ...PostVersion) {
	t.Helper()
	records := make([]reconcile.VersionRecord, len(rows))
	for i, r := range rows {
		records[i] = r.Record()
	}

	tx, err := store.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.InsertMany(context.Background(), records))
	require.NoError(t, tx.Commit())
}

func scanAll(t *testing.T, store *Store) []reconcile.VersionRecord {
	t.Helper()
	var out []reconcile.VersionRecord
	err := store.Scan(context.Background(), func(rec reconcile.VersionRecord) error {
		out = append(out, rec)
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestStore_Verify(t *testing.T) {
	store, _ := setupStore(t)
	assert.NoError(t, store.Verify(context.Background()))

	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE TABLE post_versions (id INTEGER PRIMARY KEY, post_id INTEGER, version INTEGER)").Error)

	err = NewStore(db, nil).Verify(context.Background())
	var se *reconcile.StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "verify", se.Op)
	assert.Contains(t, err.Error(), "added_tags")
}

func TestStore_StatsAndScanOrder(t *testing.T) {
	store, _ := setupStore(t)

	count, maxPost, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, maxPost)

	insert(t, store, row(30, 7, 2), row(10, 7, 1), row(20, 99, 1))

	count, maxPost, err = store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, uint32(99), maxPost)

	records := scanAll(t, store)
	require.Len(t, records, 3)
	assert.Equal(t, uint64(10), records[0].SequenceID)
	assert.Equal(t, uint64(20), records[1].SequenceID)
	assert.Equal(t, uint64(30), records[2].SequenceID)
	assert.Equal(t, uint32(99), records[1].ItemID)
	assert.Equal(t, uint32(2), records[2].Revision)
}

func TestStore_ScanStopsOnCallbackError(t *testing.T) {
	store, _ := setupStore(t)
	insert(t, store, row(1, 1, 1), row(2, 1, 2))

	stop := errors.New("stop")
	calls := 0
	err := store.Scan(context.Background(), func(reconcile.VersionRecord) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestStore_InsertKeepsColumns(t *testing.T) {
	store, db := setupStore(t)

	want := PostVersion{
		ID:            5,
		PostID:        12,
		AddedTags:     "a b",
		RemovedTags:   "c",
		UpdaterID:     77,
		Rating:        "e",
		RatingChanged: true,
		ParentID:      3,
		ParentChanged: true,
		Source:        "https://example.org/x",
		SourceChanged: true,
		Version:       4,
		UpdatedAt:     "2022-05-06 07:08:09",
	}
	insert(t, store, want)

	var got PostVersion
	require.NoError(t, db.First(&got, 5).Error)
	assert.Equal(t, want, got)
}

func TestStore_InsertIsIdempotent(t *testing.T) {
	store, db := setupStore(t)

	insert(t, store, row(1, 1, 1), row(2, 1, 2))

	dup := row(2, 1, 2)
	dup.AddedTags = "changed"
	insert(t, store, dup, row(3, 1, 3))

	var count int64
	require.NoError(t, db.Model(&PostVersion{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)

	var kept PostVersion
	require.NoError(t, db.First(&kept, 2).Error)
	assert.Equal(t, "tag_a tag_b", kept.AddedTags)
}

func TestStore_RollbackDiscards(t *testing.T) {
	store, _ := setupStore(t)

	tx, err := store.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.InsertMany(context.Background(), []reconcile.VersionRecord{row(1, 1, 1).Record()}))
	require.NoError(t, tx.Rollback())

	assert.Empty(t, scanAll(t, store))
}

func TestStore_InsertWithoutPayload(t *testing.T) {
	store, db := setupStore(t)

	tx, err := store.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.InsertMany(context.Background(), []reconcile.VersionRecord{{SequenceID: 8, ItemID: 2, Revision: 1}}))
	require.NoError(t, tx.Commit())

	var got PostVersion
	require.NoError(t, db.First(&got, 8).Error)
	assert.Equal(t, uint32(2), got.PostID)
	assert.Empty(t, got.AddedTags)
}

func TestStore_TransactionFailures(t *testing.T) {
	records := []reconcile.VersionRecord{row(1, 1, 1).Record()}

	t.Run("Insert", func(t *testing.T) {
		store, mock := setupMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO `post_versions`").WillReturnError(errors.New("deadlock"))
		mock.ExpectRollback()

		tx, err := store.Begin(context.Background())
		require.NoError(t, err)

		err = tx.InsertMany(context.Background(), records)
		var se *reconcile.StoreError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "insert", se.Op)
		assert.NoError(t, tx.Rollback())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Commit", func(t *testing.T) {
		store, mock := setupMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO `post_versions`").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit().WillReturnError(errors.New("disk full"))

		tx, err := store.Begin(context.Background())
		require.NoError(t, err)
		require.NoError(t, tx.InsertMany(context.Background(), records))

		err = tx.Commit()
		var se *reconcile.StoreError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "commit", se.Op)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Begin", func(t *testing.T) {
		store, mock := setupMockStore(t)
		mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

		_, err := store.Begin(context.Background())
		var se *reconcile.StoreError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "begin", se.Op)
	})

	t.Run("Scan", func(t *testing.T) {
		store, mock := setupMockStore(t)
		rows := sqlmock.NewRows([]string{"id", "post_id", "version"}).
			AddRow(1, 1, 1).
			AddRow(2, 1, 2).
			RowError(1, errors.New("connection reset"))
		mock.ExpectQuery("SELECT (.+) FROM `post_versions` ORDER BY id").WillReturnRows(rows)

		seen := 0
		err := store.Scan(context.Background(), func(reconcile.VersionRecord) error {
			seen++
			return nil
		})
		var se *reconcile.StoreError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "scan", se.Op)
		assert.Equal(t, 1, seen)
	})
}
