package persistence

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecideTruthTable(t *testing.T) {
	tests := []struct {
		name                                         string
		mainExists, mainValid, tempExists, tempValid bool
		want                                         Action
	}{
		{"healthy, no temp", true, true, false, false, ActionNone},
		{"healthy, stale temp", true, true, true, true, ActionDeleteTemp},
		{"healthy, garbage temp", true, true, true, false, ActionDeleteTemp},
		{"main missing, temp valid", false, false, true, true, ActionPromoteTemp},
		{"main corrupt, temp valid", true, false, true, true, ActionPromoteTemp},
		{"nothing exists", false, false, false, false, ActionFresh},
		{"main corrupt, no temp", true, false, false, false, ActionFail},
		{"main corrupt, temp corrupt", true, false, true, false, ActionFail},
		{"main missing, temp corrupt", false, false, true, false, ActionFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.mainExists, tt.mainValid, tt.tempExists, tt.tempValid)
			assert.Equal(t, tt.want, got)
		})
	}
}

func writeValidState(t *testing.T, s *Store, path string) {
	t.Helper()
	st := NewState(2, nil, time.Now())
	st.Data["k/v"] = "doc"
	st.Index.Prefix = []string{"k/v"}
	raw, err := s.codec.Marshal(st)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))
}

func TestRecoverNoOp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	s := NewStore(path, nil, nil)
	writeValidState(t, s, path)

	action, err := s.Recover()
	require.NoError(t, err)
	assert.Equal(t, ActionNone, action)

	_, err = s.Load()
	require.NoError(t, err)
}

func TestRecoverFresh(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "db.json"), nil, nil)

	action, err := s.Recover()
	require.NoError(t, err)
	assert.Equal(t, ActionFresh, action)
}

func TestRecoverDeletesStaleTemp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	s := NewStore(path, nil, nil)
	writeValidState(t, s, path)
	require.NoError(t, os.WriteFile(s.TempPath(), []byte("partial garbage"), 0o644))

	action, err := s.Recover()
	require.NoError(t, err)
	assert.Equal(t, ActionDeleteTemp, action)

	_, err = os.Stat(s.TempPath())
	assert.True(t, os.IsNotExist(err))

	_, err = s.Load()
	require.NoError(t, err)
}

func TestRecoverPromotesTemp(t *testing.T) {
	t.Run("main missing", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "db.json")
		s := NewStore(path, nil, nil)
		writeValidState(t, s, s.TempPath())

		action, err := s.Recover()
		require.NoError(t, err)
		assert.Equal(t, ActionPromoteTemp, action)

		st, err := s.Load()
		require.NoError(t, err)
		assert.Contains(t, st.Data, "k/v")

		_, err = os.Stat(s.TempPath())
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("main corrupt", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "db.json")
		s := NewStore(path, nil, nil)
		require.NoError(t, os.WriteFile(path, []byte("torn write"), 0o644))
		writeValidState(t, s, s.TempPath())

		action, err := s.Recover()
		require.NoError(t, err)
		assert.Equal(t, ActionPromoteTemp, action)

		st, err := s.Load()
		require.NoError(t, err)
		assert.Contains(t, st.Data, "k/v")
	})
}

func TestRecoverFailsOnCorruption(t *testing.T) {
	t.Run("main corrupt, no temp", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "db.json")
		s := NewStore(path, nil, nil)
		require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))

		action, err := s.Recover()
		assert.Equal(t, ActionFail, action)
		var corrupted *ErrCorrupted
		require.ErrorAs(t, err, &corrupted)
		assert.Equal(t, path, corrupted.Path)
		assert.Empty(t, corrupted.TempPath)
	})

	t.Run("both corrupt", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "db.json")
		s := NewStore(path, nil, nil)
		require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))
		require.NoError(t, os.WriteFile(s.TempPath(), []byte("more garbage"), 0o644))

		action, err := s.Recover()
		assert.Equal(t, ActionFail, action)
		var corrupted *ErrCorrupted
		require.ErrorAs(t, err, &corrupted)
		assert.Equal(t, s.TempPath(), corrupted.TempPath)
	})
}

// Simulated crash around the publish step: a crash after staging but before
// rename leaves old main + valid temp (promote); a crash after rename leaves
// new main + no temp (no-op).
func TestRecoverSimulatedCrashWindows(t *testing.T) {
	t.Run("crash before rename keeps pre-commit state available", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "db.json")
		s := NewStore(path, nil, nil)

		old := NewState(2, nil, time.Now())
		old.Data["old/key"] = "old"
		require.NoError(t, s.WriteAtomic(old))

		// Stage the new state by hand, simulating a crash between fsync and
		// rename.
		next := NewState(2, nil, time.Now())
		next.Data["new/key"] = "new"
		raw, err := s.codec.Marshal(next)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(s.TempPath(), raw, 0o644))

		action, err := s.Recover()
		require.NoError(t, err)
		// Main is still valid, so the old state wins and the temp is dropped.
		assert.Equal(t, ActionDeleteTemp, action)

		st, err := s.Load()
		require.NoError(t, err)
		assert.Contains(t, st.Data, "old/key")
		assert.NotContains(t, st.Data, "new/key")
	})

	t.Run("crash after rename keeps post-commit state", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "db.json")
		s := NewStore(path, nil, nil)

		next := NewState(2, nil, time.Now())
		next.Data["new/key"] = "new"
		require.NoError(t, s.WriteAtomic(next))

		action, err := s.Recover()
		require.NoError(t, err)
		assert.Equal(t, ActionNone, action)

		st, err := s.Load()
		require.NoError(t, err)
		assert.Contains(t, st.Data, "new/key")
	})
}
