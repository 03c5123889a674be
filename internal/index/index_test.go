package index

import (
	"strings"
	"testing"

	"github.com/Piyush29quanta/zit-my-git/internal/errors"
	"github.com/Piyush29quanta/zit-my-git/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	digestA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	digestB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	digestC = "cccccccccccccccccccccccccccccccccccccccc"
)

func setupStage(t *testing.T) (*Stage, storage.Backend) {
	t.Helper()

	backend, err := storage.NewBadgerBackend("", storage.BadgerOptions{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	return New(backend, nil), backend
}

func TestStage(t *testing.T) {
	t.Run("FreshStageIsEmpty", func(t *testing.T) {
		stage, _ := setupStage(t)
		entries, err := stage.Load()
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("AddPreservesInsertionOrder", func(t *testing.T) {
		stage, _ := setupStage(t)
		require.NoError(t, stage.Add("b.txt", digestB))
		require.NoError(t, stage.Add("a.txt", digestA))
		require.NoError(t, stage.Add("c.txt", digestC))

		entries, err := stage.Load()
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, "b.txt", entries[0].Path)
		assert.Equal(t, "a.txt", entries[1].Path)
		assert.Equal(t, "c.txt", entries[2].Path)
	})

	t.Run("ReAddReplacesInPlace", func(t *testing.T) {
		stage, _ := setupStage(t)
		require.NoError(t, stage.Add("a.txt", digestA))
		require.NoError(t, stage.Add("b.txt", digestB))
		require.NoError(t, stage.Add("a.txt", digestC))

		entries, err := stage.Load()
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, Entry{Path: "a.txt", Hash: digestC}, entries[0])
		assert.Equal(t, Entry{Path: "b.txt", Hash: digestB}, entries[1])
	})

	t.Run("Clear", func(t *testing.T) {
		stage, backend := setupStage(t)
		require.NoError(t, stage.Add("a.txt", digestA))
		require.NoError(t, stage.Clear())

		entries, err := stage.Load()
		require.NoError(t, err)
		assert.Empty(t, entries)

		data, err := backend.Get(storage.KeyIndex)
		require.NoError(t, err)
		assert.Equal(t, "[]", strings.TrimSpace(string(data)))
	})

	t.Run("CorruptIndex", func(t *testing.T) {
		stage, backend := setupStage(t)
		require.NoError(t, backend.Write(storage.KeyIndex, []byte("{not json")))

		_, err := stage.Load()
		assert.True(t, errors.IsType(err, errors.ErrorTypeCorruptState))
	})

	t.Run("MalformedEntry", func(t *testing.T) {
		stage, backend := setupStage(t)
		require.NoError(t, backend.Write(storage.KeyIndex,
			[]byte(`[{"path":"a.txt","hash":"short"}]`)))

		_, err := stage.Load()
		assert.True(t, errors.IsType(err, errors.ErrorTypeCorruptState))
	})

	t.Run("DuplicatePath", func(t *testing.T) {
		stage, backend := setupStage(t)
		require.NoError(t, backend.Write(storage.KeyIndex,
			[]byte(`[{"path":"a.txt","hash":"`+digestA+`"},{"path":"a.txt","hash":"`+digestB+`"}]`)))

		_, err := stage.Load()
		assert.True(t, errors.IsType(err, errors.ErrorTypeCorruptState))
	})
}
