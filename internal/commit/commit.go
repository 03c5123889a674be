// Package commit implements the append-only commit chain: typed
// commit records stored in the object store, linked backward by parent
// digest, with the head pointer naming the latest record.
package commit

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Piyush29quanta/zit-my-git/internal/errors"
	"github.com/Piyush29quanta/zit-my-git/internal/index"
	"github.com/Piyush29quanta/zit-my-git/internal/object"
	"github.com/Piyush29quanta/zit-my-git/internal/storage"

	"go.uber.org/zap"
)

// Record is one commit. Its identity is the digest of its serialized
// bytes, so a record can never be edited in place. Parent is nil for
// the root commit and serializes as JSON null.
type Record struct {
	TimeStamp string        `json:"timeStamp"`
	Message   string        `json:"message"`
	Files     []index.Entry `json:"files"`
	Parent    *string       `json:"parent"`
}

// Validate checks the shape of a decoded record. A record that fails
// here is corrupt storage, never something to work with.
func (r *Record) Validate() error {
	if r.TimeStamp == "" {
		return fmt.Errorf("record has empty timestamp")
	}
	if _, err := time.Parse(time.RFC3339, r.TimeStamp); err != nil {
		return fmt.Errorf("record has malformed timestamp %q: %w", r.TimeStamp, err)
	}
	for _, e := range r.Files {
		if e.Path == "" {
			return fmt.Errorf("record file entry with empty path")
		}
		if !object.ValidDigest(e.Hash) {
			return fmt.Errorf("record entry %s has malformed hash %q", e.Path, e.Hash)
		}
	}
	if r.Parent != nil && !object.ValidDigest(*r.Parent) {
		return fmt.Errorf("record has malformed parent %q", *r.Parent)
	}
	return nil
}

// Decode parses and validates a serialized commit record.
func Decode(data []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.CorruptState("commit record", err)
	}
	if err := r.Validate(); err != nil {
		return nil, errors.CorruptState("commit record", err)
	}
	return &r, nil
}

// Chain creates commits and tracks the head pointer.
type Chain struct {
	backend storage.Backend
	objects *object.Store
	stage   *index.Stage
	logger  *zap.Logger

	// now is swapped out by tests for deterministic timestamps.
	now func() time.Time
}

func NewChain(backend storage.Backend, objects *object.Store, stage *index.Stage, logger *zap.Logger) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{
		backend: backend,
		objects: objects,
		stage:   stage,
		logger:  logger,
		now:     time.Now,
	}
}

// Head returns the digest of the latest commit, or "" when the
// repository has no commits yet. An absent head key and an empty head
// value mean the same thing.
func (c *Chain) Head() (string, error) {
	data, err := c.backend.Get(storage.KeyHead)
	if err != nil {
		if err == storage.ErrNotExist {
			return "", nil
		}
		return "", fmt.Errorf("reading head: %w", err)
	}

	head := strings.TrimSpace(string(data))
	if head == "" {
		return "", nil
	}
	if !object.ValidDigest(head) {
		return "", errors.CorruptState("head", fmt.Errorf("malformed digest %q", head))
	}
	return head, nil
}

// Commit finalizes the current stage into a new record and returns its
// digest. Steps run in a fixed order: load stage, read head, build and
// store the record, advance head, clear stage. If storing succeeds but
// a later step fails, the record sits unreferenced in the object store,
// which is harmless and makes the commit re-attemptable.
func (c *Chain) Commit(message string) (string, error) {
	entries, err := c.stage.Load()
	if err != nil {
		return "", err
	}

	head, err := c.Head()
	if err != nil {
		return "", err
	}

	record := Record{
		TimeStamp: c.now().UTC().Format(time.RFC3339),
		Message:   message,
		Files:     append([]index.Entry{}, entries...),
	}
	if head != "" {
		parent := head
		record.Parent = &parent
	}

	data, err := json.Marshal(&record)
	if err != nil {
		return "", fmt.Errorf("encoding commit record: %w", err)
	}

	digest, err := c.objects.Put(data)
	if err != nil {
		return "", err
	}

	// Re-read the head right before advancing it. Another writer that
	// slipped in between our first read and now would otherwise be
	// silently overwritten, forking the chain.
	current, err := c.Head()
	if err != nil {
		return "", err
	}
	if current != head {
		return "", errors.HeadConflict(head, current)
	}

	if err := c.backend.Write(storage.KeyHead, []byte(digest)); err != nil {
		return "", fmt.Errorf("advancing head: %w", err)
	}
	if err := c.stage.Clear(); err != nil {
		return "", err
	}

	c.logger.Info("created commit",
		zap.String("digest", digest),
		zap.String("parent", head),
		zap.Int("files", len(record.Files)))

	return digest, nil
}

// Resolve fetches and decodes the commit record stored under digest.
func (c *Chain) Resolve(digest string) (*Record, error) {
	data, err := c.objects.Get(digest)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}
