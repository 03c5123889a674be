// Package storage provides the durable key-value surface under the
// object store, the staging index, and the head pointer. Keys are
// slash-separated; the filesystem backend maps them to files under the
// repository directory, the badger backend keeps them in a database.
package storage

import "errors"

// Well-known keys of the persisted repository state.
const (
	KeyHead      = "HEAD"
	KeyIndex     = "index"
	ObjectPrefix = "objects/"
)

// ErrNotExist is returned by Get when a key has never been written.
var ErrNotExist = errors.New("storage: key does not exist")

// Backend is the durable surface shared by every persistence concern.
// Put is create-if-absent: writing a key that already exists is a
// no-op, never an overwrite. Write replaces the value atomically.
type Backend interface {
	Put(key string, data []byte) error
	Write(key string, data []byte) error
	Get(key string) ([]byte, error)
	Has(key string) (bool, error)
	List(prefix string) ([]string, error)
	Close() error
}
