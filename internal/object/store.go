// Package object implements the content-addressed store. Every blob
// and commit record lives under objects/<digest>, where the digest is
// the sha1 of the raw bytes. Objects are immutable: a digest that
// exists is never rewritten.
package object

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	"github.com/Piyush29quanta/zit-my-git/internal/errors"
	"github.com/Piyush29quanta/zit-my-git/internal/storage"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

const DigestLen = 40

const defaultCacheSize = 512

// ComputeDigest returns the hex sha1 of content. Identical content
// always yields the identical digest, which is what makes storage
// deduplicating.
func ComputeDigest(content []byte) string {
	sum := sha1.Sum(content)
	return hex.EncodeToString(sum[:])
}

// ValidDigest reports whether s has the shape of a digest.
func ValidDigest(s string) bool {
	if len(s) != DigestLen {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// Store is the object store. Reads go through an LRU cache; objects
// are immutable so cached bytes never go stale.
type Store struct {
	backend storage.Backend
	cache   *lru.Cache[string, []byte]
	logger  *zap.Logger
}

func NewStore(backend storage.Backend, cacheSize int, logger *zap.Logger) (*Store, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cache, err := lru.New[string, []byte](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating object cache: %w", err)
	}

	return &Store{
		backend: backend,
		cache:   cache,
		logger:  logger,
	}, nil
}

// Put stores content and returns its digest. Calling it again with the
// same content returns the same digest without a second physical
// write.
func (s *Store) Put(content []byte) (string, error) {
	if content == nil {
		content = []byte{}
	}

	digest := ComputeDigest(content)
	if err := s.backend.Put(storage.ObjectPrefix+digest, content); err != nil {
		return "", fmt.Errorf("storing object %s: %w", digest, err)
	}

	s.cache.Add(digest, content)
	s.logger.Debug("stored object",
		zap.String("digest", digest),
		zap.Int("size", len(content)))

	return digest, nil
}

// Get returns the bytes previously stored under digest.
func (s *Store) Get(digest string) ([]byte, error) {
	if !ValidDigest(digest) {
		return nil, errors.NotFound(digest)
	}

	if content, ok := s.cache.Get(digest); ok {
		return content, nil
	}

	content, err := s.backend.Get(storage.ObjectPrefix + digest)
	if err != nil {
		if err == storage.ErrNotExist {
			return nil, errors.NotFound(digest)
		}
		return nil, fmt.Errorf("reading object %s: %w", digest, err)
	}

	s.cache.Add(digest, content)
	return content, nil
}

// Exists checks whether an object is present without reading it.
func (s *Store) Exists(digest string) (bool, error) {
	if !ValidDigest(digest) {
		return false, nil
	}
	if s.cache.Contains(digest) {
		return true, nil
	}
	return s.backend.Has(storage.ObjectPrefix + digest)
}

// Count returns the number of stored objects.
func (s *Store) Count() (int, error) {
	keys, err := s.backend.List(storage.ObjectPrefix)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Verify re-reads an object and checks its bytes still hash to the
// digest they are stored under.
func (s *Store) Verify(digest string) error {
	content, err := s.backend.Get(storage.ObjectPrefix + digest)
	if err != nil {
		if err == storage.ErrNotExist {
			return errors.NotFound(digest)
		}
		return fmt.Errorf("reading object %s: %w", digest, err)
	}
	if got := ComputeDigest(content); got != digest {
		return fmt.Errorf("object %s: content hashes to %s", digest, got)
	}
	return nil
}
