package fallback

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissing(t *testing.T) {
	s := New(t.TempDir())

	counts, err := s.Load("2024-03-01", "spanish")
	require.NoError(t, err)
	assert.Equal(t, 0, counts.NewGraded)
	assert.Equal(t, 0, counts.ReviewsDone)
	assert.Equal(t, "spanish", counts.Scope)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := New(t.TempDir())

	err := s.Save("2024-03-01", "spanish", &Counts{NewGraded: 3, ReviewsDone: 7})
	require.NoError(t, err)

	counts, err := s.Load("2024-03-01", "spanish")
	require.NoError(t, err)
	assert.Equal(t, 3, counts.NewGraded)
	assert.Equal(t, 7, counts.ReviewsDone)
	assert.Equal(t, "2024-03-01", counts.Day)
}

func TestLoadCorruptRecord(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	require.NoError(t, s.Save("2024-03-01", "spanish", &Counts{NewGraded: 3}))

	// Overwrite the record with garbage on disk.
	path := filepath.Join(dir, "2024", "03", "01", encodeScope("spanish"))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	counts, err := s.Load("2024-03-01", "spanish")
	assert.Error(t, err)
	assert.Equal(t, 0, counts.NewGraded)
	assert.Equal(t, 0, counts.ReviewsDone)
}

func TestClear(t *testing.T) {
	s := New(t.TempDir())

	require.NoError(t, s.Save("2024-03-01", "spanish", &Counts{NewGraded: 3}))
	require.NoError(t, s.Clear("2024-03-01", "spanish"))

	counts, err := s.Load("2024-03-01", "spanish")
	require.NoError(t, err)
	assert.Equal(t, 0, counts.NewGraded)

	// Clearing again is a no-op.
	require.NoError(t, s.Clear("2024-03-01", "spanish"))
}

func TestScopes(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	require.NoError(t, s.Save("2024-03-01", "spanish", &Counts{NewGraded: 1}))
	require.NoError(t, s.Save("2024-03-01", "kanji", &Counts{ReviewsDone: 2}))
	require.NoError(t, s.Save("2024-03-02", "spanish", &Counts{NewGraded: 5}))

	scopes := s.Scopes(ctx, "2024-03-01")
	assert.ElementsMatch(t, []string{"spanish", "kanji"}, scopes)
}

func TestEmptyScopeNormalizes(t *testing.T) {
	s := New(t.TempDir())

	require.NoError(t, s.Save("2024-03-01", "", &Counts{NewGraded: 2}))

	counts, err := s.Load("2024-03-01", "default")
	require.NoError(t, err)
	assert.Equal(t, 2, counts.NewGraded)
}
