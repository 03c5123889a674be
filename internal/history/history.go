// Package history provides read-only traversal of the commit chain
// and parent-relative file diffs. The walker is lazy so a long chain
// never has to fit in memory at once.
package history

import (
	"fmt"
	"strings"

	"github.com/Piyush29quanta/zit-my-git/internal/commit"
	"github.com/Piyush29quanta/zit-my-git/internal/diff"
	"github.com/Piyush29quanta/zit-my-git/internal/index"
	"github.com/Piyush29quanta/zit-my-git/internal/object"

	"go.uber.org/zap"
)

// Entry is one line of the log.
type Entry struct {
	Digest    string `json:"digest"`
	TimeStamp string `json:"timeStamp"`
	Message   string `json:"message"`
}

// Walker iterates the chain newest-first, following parent links from
// head. A digest that cannot be resolved or decoded ends the walk
// without error, and no digest is ever visited twice.
type Walker struct {
	chain *commit.Chain

	next    string
	started bool
	seen    map[string]bool
	entry   Entry
	err     error
}

// NewWalker starts a walk at the current head.
func NewWalker(chain *commit.Chain) *Walker {
	return &Walker{chain: chain, seen: make(map[string]bool)}
}

// Scan advances to the next commit. It returns false at the end of
// history or on error; Err tells the two apart.
func (w *Walker) Scan() bool {
	if w.err != nil {
		return false
	}

	if !w.started {
		w.started = true
		head, err := w.chain.Head()
		if err != nil {
			w.err = err
			return false
		}
		w.next = head
	}

	if w.next == "" || w.seen[w.next] {
		return false
	}

	record, err := w.chain.Resolve(w.next)
	if err != nil {
		// A dangling or undecodable digest is treated as the end of
		// history, matching a chain whose older objects are gone.
		return false
	}

	w.seen[w.next] = true
	w.entry = Entry{
		Digest:    w.next,
		TimeStamp: record.TimeStamp,
		Message:   record.Message,
	}

	if record.Parent != nil {
		w.next = *record.Parent
	} else {
		w.next = ""
	}
	return true
}

// Entry returns the commit reached by the last successful Scan.
func (w *Walker) Entry() Entry {
	return w.entry
}

func (w *Walker) Err() error {
	return w.err
}

// FileDiff is the diff of one file in a commit against its parent. Err
// is set when the blob or parent record needed for this file could not
// be resolved; the other files of the commit are unaffected.
type FileDiff struct {
	Path  string
	Hunks []diff.Hunk
	Err   error
}

// Engine computes per-commit diffs.
type Engine struct {
	chain   *commit.Chain
	objects *object.Store
	differ  *diff.Engine
	logger  *zap.Logger
}

func NewEngine(chain *commit.Chain, objects *object.Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		chain:   chain,
		objects: objects,
		differ:  diff.NewEngine(),
		logger:  logger,
	}
}

// Diff compares every file recorded in the commit against the same
// path in its parent, in recorded order. A root commit, or a path the
// parent does not carry, diffs against empty content so every line
// comes out added. Per-file resolution failures are recorded on the
// FileDiff and do not abort the remaining files.
func (e *Engine) Diff(digest string) ([]FileDiff, error) {
	record, err := e.chain.Resolve(digest)
	if err != nil {
		return nil, err
	}

	var parent *commit.Record
	var parentErr error
	if record.Parent != nil {
		parent, parentErr = e.chain.Resolve(*record.Parent)
		if parentErr != nil {
			e.logger.Warn("parent record unresolvable",
				zap.String("commit", digest),
				zap.String("parent", *record.Parent),
				zap.Error(parentErr))
		}
	}

	diffs := make([]FileDiff, 0, len(record.Files))
	for _, entry := range record.Files {
		fd := FileDiff{Path: entry.Path}

		content, err := e.objects.Get(entry.Hash)
		if err != nil {
			fd.Err = fmt.Errorf("blob %s: %w", entry.Hash, err)
			diffs = append(diffs, fd)
			continue
		}

		var old []byte
		switch {
		case record.Parent == nil:
			// Root commit: everything is new.
		case parentErr != nil:
			fd.Err = fmt.Errorf("parent %s: %w", *record.Parent, parentErr)
			diffs = append(diffs, fd)
			continue
		default:
			if prev, ok := findEntry(parent, entry.Path); ok {
				old, err = e.objects.Get(prev.Hash)
				if err != nil {
					fd.Err = fmt.Errorf("parent blob %s: %w", prev.Hash, err)
					diffs = append(diffs, fd)
					continue
				}
			}
		}

		fd.Hunks = diff.Group(e.differ.Compare(old, content))
		diffs = append(diffs, fd)
	}

	return diffs, nil
}

func findEntry(record *commit.Record, path string) (index.Entry, bool) {
	for _, e := range record.Files {
		if e.Path == path {
			return e, true
		}
	}
	return index.Entry{}, false
}

// FormatFileDiff renders one file's diff for display. Presentation
// policy lives here, not in the diff engine: blank lines are dropped
// after trimming, hunks left empty by that are dropped with them, and
// a file whose diff failed renders as a single error marker line.
func FormatFileDiff(fd FileDiff) string {
	var b strings.Builder

	fmt.Fprintf(&b, "--- %s\n", fd.Path)
	if fd.Err != nil {
		fmt.Fprintf(&b, "! %s: %v\n", fd.Path, fd.Err)
		return b.String()
	}

	for _, hunk := range fd.Hunks {
		prefix := "  "
		switch hunk.Kind {
		case diff.Added:
			prefix = "+ "
		case diff.Removed:
			prefix = "- "
		}
		for _, line := range hunk.Lines {
			if strings.TrimSpace(line) == "" {
				continue
			}
			b.WriteString(prefix)
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	return b.String()
}
