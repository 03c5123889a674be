package journal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournal(t *testing.T) {
	t.Run("AbsentIsEmpty", func(t *testing.T) {
		j := New(t.TempDir(), nil)
		entries, err := j.Read()
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("RecordReadRoundTrip", func(t *testing.T) {
		j := New(t.TempDir(), nil)
		j.Record("init", "", "", "")
		j.Record("commit", "", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "first")

		entries, err := j.Read()
		require.NoError(t, err)
		require.Len(t, entries, 2)

		assert.False(t, entries[0].Tampered)
		assert.Equal(t, "init", entries[0].Entry.Op)
		assert.NotEmpty(t, entries[0].Entry.ID)
		assert.NotEmpty(t, entries[0].Entry.Time)

		assert.False(t, entries[1].Tampered)
		assert.Equal(t, "commit", entries[1].Entry.Op)
		assert.Equal(t, "first", entries[1].Entry.Message)
		assert.Equal(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", entries[1].Entry.NewHead)
	})

	t.Run("TamperedLineFlagged", func(t *testing.T) {
		dir := t.TempDir()
		j := New(dir, nil)
		j.Record("commit", "", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "honest")

		path := filepath.Join(dir, FileName)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		edited := strings.Replace(string(data), "honest", "forged", 1)
		require.NoError(t, os.WriteFile(path, []byte(edited), 0644))

		entries, err := j.Read()
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.True(t, entries[0].Tampered)
	})

	t.Run("UnparseableLineFlagged", func(t *testing.T) {
		dir := t.TempDir()
		j := New(dir, nil)
		j.Record("init", "", "", "")

		path := filepath.Join(dir, FileName)
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
		require.NoError(t, err)
		_, err = f.WriteString("this is not json\n")
		require.NoError(t, err)
		require.NoError(t, f.Close())

		entries, err := j.Read()
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.False(t, entries[0].Tampered)
		assert.True(t, entries[1].Tampered)
	})
}
