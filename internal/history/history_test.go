package history

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/Piyush29quanta/zit-my-git/internal/commit"
	"github.com/Piyush29quanta/zit-my-git/internal/diff"
	"github.com/Piyush29quanta/zit-my-git/internal/errors"
	"github.com/Piyush29quanta/zit-my-git/internal/index"
	"github.com/Piyush29quanta/zit-my-git/internal/object"
	"github.com/Piyush29quanta/zit-my-git/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	backend storage.Backend
	objects *object.Store
	stage   *index.Stage
	chain   *commit.Chain
	engine  *Engine
}

func setup(t *testing.T) *fixture {
	t.Helper()

	backend, err := storage.NewBadgerBackend("", storage.BadgerOptions{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	objects, err := object.NewStore(backend, 16, nil)
	require.NoError(t, err)

	stage := index.New(backend, nil)
	chain := commit.NewChain(backend, objects, stage, nil)
	return &fixture{
		backend: backend,
		objects: objects,
		stage:   stage,
		chain:   chain,
		engine:  NewEngine(chain, objects, nil),
	}
}

func (f *fixture) commitFile(t *testing.T, path, content, message string) string {
	t.Helper()
	blob, err := f.objects.Put([]byte(content))
	require.NoError(t, err)
	require.NoError(t, f.stage.Add(path, blob))
	digest, err := f.chain.Commit(message)
	require.NoError(t, err)
	return digest
}

func TestWalker(t *testing.T) {
	t.Run("EmptyRepository", func(t *testing.T) {
		f := setup(t)
		walker := NewWalker(f.chain)
		assert.False(t, walker.Scan())
		assert.NoError(t, walker.Err())
	})

	t.Run("NewestFirst", func(t *testing.T) {
		f := setup(t)
		first := f.commitFile(t, "a.txt", "one\n", "first")
		second := f.commitFile(t, "a.txt", "two\n", "second")
		third := f.commitFile(t, "a.txt", "three\n", "third")

		var digests []string
		var messages []string
		walker := NewWalker(f.chain)
		for walker.Scan() {
			digests = append(digests, walker.Entry().Digest)
			messages = append(messages, walker.Entry().Message)
		}
		require.NoError(t, walker.Err())
		assert.Equal(t, []string{third, second, first}, digests)
		assert.Equal(t, []string{"third", "second", "first"}, messages)
	})

	t.Run("DanglingParentEndsHistory", func(t *testing.T) {
		f := setup(t)

		// A record whose parent was never stored.
		missing := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
		record := commit.Record{
			TimeStamp: "2026-01-02T03:04:05Z",
			Message:   "orphan",
			Files:     []index.Entry{},
			Parent:    &missing,
		}
		data, err := json.Marshal(&record)
		require.NoError(t, err)
		digest, err := f.objects.Put(data)
		require.NoError(t, err)
		require.NoError(t, f.backend.Write(storage.KeyHead, []byte(digest)))

		walker := NewWalker(f.chain)
		require.True(t, walker.Scan())
		assert.Equal(t, "orphan", walker.Entry().Message)
		assert.False(t, walker.Scan())
		assert.NoError(t, walker.Err())
	})

	t.Run("CycleGuard", func(t *testing.T) {
		f := setup(t)

		// Plant a record under a digest that names itself as parent.
		// That cannot arise from honest commits, only from corruption.
		self := "cccccccccccccccccccccccccccccccccccccccc"
		record := commit.Record{
			TimeStamp: "2026-01-02T03:04:05Z",
			Message:   "loop",
			Files:     []index.Entry{},
			Parent:    &self,
		}
		data, err := json.Marshal(&record)
		require.NoError(t, err)
		require.NoError(t, f.backend.Put(storage.ObjectPrefix+self, data))
		require.NoError(t, f.backend.Write(storage.KeyHead, []byte(self)))

		walker := NewWalker(f.chain)
		steps := 0
		for walker.Scan() {
			steps++
			require.LessOrEqual(t, steps, 1, "walker revisited a digest")
		}
		assert.NoError(t, walker.Err())
		assert.Equal(t, 1, steps)
	})
}

func TestDiff(t *testing.T) {
	t.Run("UnknownCommit", func(t *testing.T) {
		f := setup(t)
		_, err := f.engine.Diff("dddddddddddddddddddddddddddddddddddddddd")
		assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
	})

	t.Run("RootCommitAllAdded", func(t *testing.T) {
		f := setup(t)
		digest := f.commitFile(t, "a.txt", "hello\nworld\n", "first")

		diffs, err := f.engine.Diff(digest)
		require.NoError(t, err)
		require.Len(t, diffs, 1)
		require.NoError(t, diffs[0].Err)
		require.Len(t, diffs[0].Hunks, 1)
		assert.Equal(t, diff.Added, diffs[0].Hunks[0].Kind)
		assert.Equal(t, []string{"hello", "world"}, diffs[0].Hunks[0].Lines)
	})

	t.Run("ParentRelative", func(t *testing.T) {
		f := setup(t)
		f.commitFile(t, "a.txt", "hello\n", "first")
		second := f.commitFile(t, "a.txt", "hello\nworld\n", "second")

		diffs, err := f.engine.Diff(second)
		require.NoError(t, err)
		require.Len(t, diffs, 1)
		require.Len(t, diffs[0].Hunks, 2)
		assert.Equal(t, diff.Unchanged, diffs[0].Hunks[0].Kind)
		assert.Equal(t, []string{"hello"}, diffs[0].Hunks[0].Lines)
		assert.Equal(t, diff.Added, diffs[0].Hunks[1].Kind)
		assert.Equal(t, []string{"world"}, diffs[0].Hunks[1].Lines)
	})

	t.Run("PathNewInCommit", func(t *testing.T) {
		f := setup(t)
		f.commitFile(t, "a.txt", "hello\n", "first")

		blobA, err := f.objects.Put([]byte("hello\n"))
		require.NoError(t, err)
		blobB, err := f.objects.Put([]byte("fresh\n"))
		require.NoError(t, err)
		require.NoError(t, f.stage.Add("a.txt", blobA))
		require.NoError(t, f.stage.Add("b.txt", blobB))
		second, err := f.chain.Commit("second")
		require.NoError(t, err)

		diffs, err := f.engine.Diff(second)
		require.NoError(t, err)
		require.Len(t, diffs, 2)

		assert.Equal(t, "a.txt", diffs[0].Path)
		require.Len(t, diffs[0].Hunks, 1)
		assert.Equal(t, diff.Unchanged, diffs[0].Hunks[0].Kind)

		assert.Equal(t, "b.txt", diffs[1].Path)
		require.Len(t, diffs[1].Hunks, 1)
		assert.Equal(t, diff.Added, diffs[1].Hunks[0].Kind)
	})

	t.Run("MissingBlobDoesNotAbortOtherFiles", func(t *testing.T) {
		f := setup(t)

		blobB, err := f.objects.Put([]byte("fine\n"))
		require.NoError(t, err)

		// A record referencing one blob that was never stored.
		record := commit.Record{
			TimeStamp: "2026-01-02T03:04:05Z",
			Message:   "both",
			Files: []index.Entry{
				{Path: "gone.txt", Hash: "eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"},
				{Path: "fine.txt", Hash: blobB},
			},
		}
		data, err := json.Marshal(&record)
		require.NoError(t, err)
		digest, err := f.objects.Put(data)
		require.NoError(t, err)

		diffs, err := f.engine.Diff(digest)
		require.NoError(t, err)
		require.Len(t, diffs, 2)
		assert.Equal(t, "gone.txt", diffs[0].Path)
		assert.Error(t, diffs[0].Err)
		require.NoError(t, diffs[1].Err)
		assert.Equal(t, "fine.txt", diffs[1].Path)
		assert.NotEmpty(t, diffs[1].Hunks)
	})
}

func TestFormatFileDiff(t *testing.T) {
	t.Run("PrefixesByKind", func(t *testing.T) {
		out := FormatFileDiff(FileDiff{
			Path: "a.txt",
			Hunks: []diff.Hunk{
				{Kind: diff.Unchanged, Lines: []string{"same"}},
				{Kind: diff.Removed, Lines: []string{"old"}},
				{Kind: diff.Added, Lines: []string{"new"}},
			},
		})
		assert.Contains(t, out, "--- a.txt\n")
		assert.Contains(t, out, "  same\n")
		assert.Contains(t, out, "- old\n")
		assert.Contains(t, out, "+ new\n")
	})

	t.Run("BlankLinesDropped", func(t *testing.T) {
		out := FormatFileDiff(FileDiff{
			Path: "a.txt",
			Hunks: []diff.Hunk{
				{Kind: diff.Added, Lines: []string{"kept", "", "   ", "also kept"}},
			},
		})
		assert.Contains(t, out, "+ kept\n")
		assert.Contains(t, out, "+ also kept\n")
		assert.NotContains(t, out, "+ \n")
		assert.NotContains(t, out, "+    \n")
	})

	t.Run("WholeBlankHunkDropped", func(t *testing.T) {
		out := FormatFileDiff(FileDiff{
			Path: "a.txt",
			Hunks: []diff.Hunk{
				{Kind: diff.Added, Lines: []string{"", "  "}},
			},
		})
		assert.Equal(t, "--- a.txt\n", out)
	})

	t.Run("ErrorMarker", func(t *testing.T) {
		out := FormatFileDiff(FileDiff{
			Path: "a.txt",
			Err:  errors.NotFound("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
		})
		require.True(t, strings.Contains(out, "! a.txt:"))
	})
}
