package history

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bastiangx/fqwb/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func TestRecordAndUsageCount(t *testing.T) {
	s := New(nil, nil)

	assert.Equal(t, 0, s.UsageCount("wang", "汪"))
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Record("wang", "汪"))
	}
	require.NoError(t, s.Record("wang", "王"))
	require.NoError(t, s.Record("zhi", "之"))

	assert.Equal(t, 3, s.UsageCount("wang", "汪"))
	assert.Equal(t, 1, s.UsageCount("wang", "王"))
	assert.Equal(t, 0, s.UsageCount("wan", "汪"))
	assert.Equal(t, map[string]int{"汪": 3, "王": 1}, s.Counts("wang"))
	assert.Empty(t, s.Counts("wan"))
	assert.Equal(t, 3, s.Len())
}

func TestRecordRejectsEmptyFields(t *testing.T) {
	s := New(nil, nil)
	assert.ErrorIs(t, s.Record("", "王"), ErrInvalidRecord)
	assert.ErrorIs(t, s.Record("wang", ""), ErrInvalidRecord)
	assert.Equal(t, 0, s.Len())
}

func TestRecordsAreOrdered(t *testing.T) {
	s := New(nil, nil, WithClock(fixedClock))
	require.NoError(t, s.Record("zhi", "之"))
	require.NoError(t, s.Record("wang", "汪"))
	require.NoError(t, s.Record("wang", "王"))

	recs := s.Records()
	require.Len(t, recs, 3)
	assert.Equal(t, "wang", recs[0].Code)
	assert.Equal(t, "wang", recs[1].Code)
	assert.Equal(t, "zhi", recs[2].Code)
	assert.True(t, recs[0].LastUsed.Equal(fixedNow))
}

func TestBackendsPersistAcrossReopen(t *testing.T) {
	backends := map[string]func(t *testing.T, path string) Backend{
		"file": func(t *testing.T, path string) Backend {
			return NewFileBackend(path)
		},
		"sqlite": func(t *testing.T, path string) Backend {
			b, err := OpenSQLite(path)
			require.NoError(t, err)
			return b
		},
	}

	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "state", "history."+name)

			s := New(open(t, path), nil, WithClock(fixedClock))
			require.NoError(t, s.Record("wang", "汪"))
			require.NoError(t, s.Record("wang", "汪"))
			require.NoError(t, s.Record("wang", "王"))
			require.NoError(t, s.Close())

			reopened := New(open(t, path), nil)
			defer reopened.Close()
			assert.Equal(t, 2, reopened.UsageCount("wang", "汪"))
			assert.Equal(t, 1, reopened.UsageCount("wang", "王"))
			recs := reopened.Records()
			require.Len(t, recs, 2)
			assert.True(t, recs[0].LastUsed.Equal(fixedNow))

			require.NoError(t, reopened.Record("wang", "王"))
			assert.Equal(t, 2, reopened.UsageCount("wang", "王"))
		})
	}
}

func TestFlushOnWriteDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.msgpack")
	s := New(NewFileBackend(path), nil, WithFlushOnWrite(false))

	require.NoError(t, s.Record("wang", "汪"))
	assert.NoFileExists(t, path)

	require.NoError(t, s.Flush())
	assert.FileExists(t, path)
}

func TestCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.msgpack")
	require.NoError(t, os.WriteFile(path, []byte("\xc1 garbage"), 0644))

	s := New(NewFileBackend(path), nil)
	assert.Equal(t, 0, s.Len())

	require.NoError(t, s.Record("wang", "王"))
	reopened := New(NewFileBackend(path), nil)
	assert.Equal(t, 1, reopened.UsageCount("wang", "王"))
}

func TestMissingFileStartsEmpty(t *testing.T) {
	s := New(NewFileBackend(filepath.Join(t.TempDir(), "none.msgpack")), nil)
	assert.Equal(t, 0, s.Len())
}

func TestWriteFailureKeepsMemoryState(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	s := New(NewFileBackend(filepath.Join(blocker, "history.msgpack")), nil)
	err := s.Record("wang", "汪")

	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "write", ioErr.Op)
	assert.Equal(t, 1, s.UsageCount("wang", "汪"))
}

func TestClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	b, err := OpenSQLite(path)
	require.NoError(t, err)

	s := New(b, nil)
	require.NoError(t, s.Record("wang", "汪"))
	require.NoError(t, s.Clear())
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.UsageCount("wang", "汪"))
	require.NoError(t, s.Close())

	b2, err := OpenSQLite(path)
	require.NoError(t, err)
	reopened := New(b2, nil)
	defer reopened.Close()
	assert.Equal(t, 0, reopened.Len())
}

func TestEnabledFollowsConfig(t *testing.T) {
	cfg := config.NewStore("")
	s := New(nil, cfg.History())

	assert.True(t, s.IsEnabled())
	s.SetEnabled(false)
	assert.False(t, cfg.Get().HistoryEnabled)
	assert.False(t, s.IsEnabled())

	// the store itself never refuses a selection
	require.NoError(t, s.Record("wang", "王"))
	assert.Equal(t, 1, s.UsageCount("wang", "王"))
}
