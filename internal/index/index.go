// Package index implements the staging area: the ordered list of
// {path, hash} entries that will form the next commit.
package index

import (
	"encoding/json"
	"fmt"

	"github.com/Piyush29quanta/zit-my-git/internal/errors"
	"github.com/Piyush29quanta/zit-my-git/internal/object"
	"github.com/Piyush29quanta/zit-my-git/internal/storage"

	"go.uber.org/zap"
)

// Entry maps one working-file path to the digest of its staged
// content. Paths are unique within the stage; order is insertion
// order.
type Entry struct {
	Path string `json:"path"`
	Hash string `json:"hash"`
}

func (e Entry) validate() error {
	if e.Path == "" {
		return fmt.Errorf("entry with empty path")
	}
	if !object.ValidDigest(e.Hash) {
		return fmt.Errorf("entry %s has malformed hash %q", e.Path, e.Hash)
	}
	return nil
}

// Stage persists the staging area as a JSON array under the index key.
type Stage struct {
	backend storage.Backend
	logger  *zap.Logger
}

func New(backend storage.Backend, logger *zap.Logger) *Stage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stage{backend: backend, logger: logger}
}

// Load reads the staged entries. A repository that has never staged
// anything yields an empty list; a persisted value that does not parse
// or validate is corrupt state, not an empty stage.
func (s *Stage) Load() ([]Entry, error) {
	data, err := s.backend.Get(storage.KeyIndex)
	if err != nil {
		if err == storage.ErrNotExist {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("reading index: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.CorruptState("index", err)
	}
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if err := e.validate(); err != nil {
			return nil, errors.CorruptState("index", err)
		}
		if seen[e.Path] {
			return nil, errors.CorruptState("index", fmt.Errorf("duplicate path %s", e.Path))
		}
		seen[e.Path] = true
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// Add stages digest under path. Re-staging a path replaces its hash in
// place and keeps its original position; a new path is appended.
func (s *Stage) Add(path, digest string) error {
	entries, err := s.Load()
	if err != nil {
		return err
	}

	replaced := false
	for i := range entries {
		if entries[i].Path == path {
			entries[i].Hash = digest
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, Entry{Path: path, Hash: digest})
	}

	if err := s.save(entries); err != nil {
		return err
	}
	s.logger.Debug("staged entry",
		zap.String("path", path),
		zap.String("hash", digest),
		zap.Bool("replaced", replaced))
	return nil
}

// Clear persists an empty stage. Called once right after a successful
// commit.
func (s *Stage) Clear() error {
	return s.save([]Entry{})
}

func (s *Stage) save(entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}
	if err := s.backend.Write(storage.KeyIndex, data); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	return nil
}
