package storage

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/klauspost/compress/zstd"
)

// zstd frame magic, used to tell compressed values from raw ones.
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// BadgerOptions configures the badger backend.
type BadgerOptions struct {
	// InMemory runs the database without files on disk. Used by tests.
	InMemory bool
	// CompressMin is the smallest value size that gets zstd-compressed.
	// Zero disables compression.
	CompressMin int
	// Level is the zstd compression level (1=fastest, 3=best).
	Level int
}

// BadgerBackend keeps the repository keys in a BadgerDB. Values above
// the configured threshold are zstd-compressed transparently.
type BadgerBackend struct {
	db    *badger.DB
	codec *valueCodec
}

func NewBadgerBackend(dir string, opts BadgerOptions) (*BadgerBackend, error) {
	dbOpts := badger.DefaultOptions(dir).
		WithNumVersionsToKeep(1).
		WithLogger(nil)
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true).WithDir("").WithValueDir("")
	}

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	codec, err := newValueCodec(opts.CompressMin, opts.Level)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BadgerBackend{db: db, codec: codec}, nil
}

func (b *BadgerBackend) Put(key string, data []byte) error {
	k := []byte(key)
	encoded := b.codec.encode(data)
	return b.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(k)
		if err == nil {
			return nil
		}
		if err != badger.ErrKeyNotFound {
			return err
		}
		return txn.Set(k, encoded)
	})
}

func (b *BadgerBackend) Write(key string, data []byte) error {
	encoded := b.codec.encode(data)
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), encoded)
	})
}

func (b *BadgerBackend) Get(key string) ([]byte, error) {
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err == badger.ErrKeyNotFound {
			return ErrNotExist
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			data, err = b.codec.decode(val)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (b *BadgerBackend) Has(key string) (bool, error) {
	err := b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})
	if err == nil {
		return true, nil
	}
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	return false, err
}

func (b *BadgerBackend) List(prefix string) ([]string, error) {
	var keys []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %q: %w", prefix, err)
	}
	return keys, nil
}

func (b *BadgerBackend) Close() error {
	return b.db.Close()
}

// valueCodec compresses and decompresses stored values. Encoders and
// decoders are pooled since zstd setup is not free.
type valueCodec struct {
	minSize  int
	encoders sync.Pool
	decoders sync.Pool
}

func newValueCodec(minSize, level int) (*valueCodec, error) {
	if level == 0 {
		level = 2
	}

	// Validate the settings once up front.
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("creating encoder: %w", err)
	}
	enc.Close()

	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("creating decoder: %w", err)
	}
	dec.Close()

	return &valueCodec{
		minSize: minSize,
		encoders: sync.Pool{
			New: func() interface{} {
				enc, _ := zstd.NewWriter(nil,
					zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)),
					zstd.WithEncoderConcurrency(1),
				)
				return enc
			},
		},
		decoders: sync.Pool{
			New: func() interface{} {
				dec, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
				return dec
			},
		},
	}, nil
}

func (c *valueCodec) encode(data []byte) []byte {
	if c.minSize == 0 || len(data) < c.minSize {
		return data
	}

	enc := c.encoders.Get().(*zstd.Encoder)
	defer c.encoders.Put(enc)

	return enc.EncodeAll(data, nil)
}

func (c *valueCodec) decode(data []byte) ([]byte, error) {
	if len(data) < 4 || !bytes.Equal(data[:4], zstdMagic) {
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	}

	dec := c.decoders.Get().(*zstd.Decoder)
	defer c.decoders.Put(dec)

	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing value: %w", err)
	}
	return out, nil
}
