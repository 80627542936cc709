package history

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, limit int) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "nested", "history.json"), limit)
	require.NoError(t, err)

	clock := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func TestNewStoreRejectsNonPositiveLimit(t *testing.T) {
	_, err := NewStore("history.json", 0)
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestListMissingFileIsEmpty(t *testing.T) {
	s := newTestStore(t, 5)
	got, err := s.List()
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAddInsertsAtHeadAndEvictsTail(t *testing.T) {
	const limit = 3
	s := newTestStore(t, limit)

	for i := 1; i <= 5; i++ {
		_, err := s.Add(Entry{Prompt: "prompt " + strconv.Itoa(i)})
		require.NoError(t, err)

		got, err := s.List()
		require.NoError(t, err)
		assert.LessOrEqual(t, len(got), limit)
		assert.Equal(t, "prompt "+strconv.Itoa(i), got[0].Prompt, "newest entry must be first")
	}

	got, err := s.List()
	require.NoError(t, err)
	require.Len(t, got, limit)
	assert.Equal(t, "prompt 5", got[0].Prompt)
	assert.Equal(t, "prompt 4", got[1].Prompt)
	assert.Equal(t, "prompt 3", got[2].Prompt)
}

func TestAddStampsIDAndTimestamp(t *testing.T) {
	s := newTestStore(t, 5)

	a, err := s.Add(Entry{Agent: "planner", Files: []string{"/tmp/a.md"}})
	require.NoError(t, err)
	b, err := s.Add(Entry{Agent: "planner"})
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 1, 0, time.UTC).UnixMilli(), a.Timestamp)
	assert.Greater(t, b.Timestamp, a.Timestamp)
}

func TestClear(t *testing.T) {
	s := newTestStore(t, 5)
	_, err := s.Add(Entry{Prompt: "x"})
	require.NoError(t, err)

	require.NoError(t, s.Clear())

	got, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListTrimsFileWrittenWithLargerLimit(t *testing.T) {
	big := newTestStore(t, 10)
	for i := 0; i < 6; i++ {
		_, err := big.Add(Entry{Prompt: strconv.Itoa(i)})
		require.NoError(t, err)
	}

	small, err := NewStore(big.path, 2)
	require.NoError(t, err)

	got, err := small.List()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "5", got[0].Prompt)
}

func TestCorruptFileIsReported(t *testing.T) {
	s := newTestStore(t, 5)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.path), 0755))
	require.NoError(t, os.WriteFile(s.path, []byte("{not json"), 0644))

	_, err := s.List()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse history file")

	_, err = s.Add(Entry{Prompt: "x"})
	assert.Error(t, err)
}
