package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPass_Counters(t *testing.T) {
	p := NewPass("version", "run-1")

	p.RequestDone(3)
	p.RequestDone(0)
	p.WindowCommitted()
	p.WindowWaited()
	p.WindowWaited()
	p.SetMissing(2, 40, 5)

	assert.Equal(t, 2.0, testutil.ToFloat64(p.requests))
	assert.Equal(t, 3.0, testutil.ToFloat64(p.records))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.commits))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.waits))
	assert.Equal(t, 40.0, testutil.ToFloat64(p.missing.WithLabelValues("ids")))

	count, err := testutil.GatherAndCount(p.registry)
	require.NoError(t, err)
	assert.Equal(t, 7, count)
}

func TestPass_WriteTextfile(t *testing.T) {
	p := NewPass("check", "run-2")
	p.SetMissing(1, 1, 0)
	path := filepath.Join(t.TempDir(), "booru_sync.prom")

	require.NoError(t, p.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `booru_sync_missing{kind="ranges",mode="check",run_id="run-2"} 1`)
	assert.Contains(t, string(data), "# TYPE booru_sync_requests_total counter")
}

func TestPass_WriteTextfileBadPath(t *testing.T) {
	p := NewPass("check", "run-3")
	err := p.WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"))
	assert.Error(t, err)
}
