package blobstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// BadgerBackend stores objects in an embedded BadgerDB. The list cursor is
// the last key of the previous page.
type BadgerBackend struct {
	db   *badger.DB
	owns bool
}

// NewBadgerBackend wraps an already opened database. The caller keeps
// ownership of db.
func NewBadgerBackend(db *badger.DB) *BadgerBackend {
	return &BadgerBackend{db: db}
}

// OpenBadger opens a database at dir, or an in-memory one when dir is empty.
// Close releases it.
func OpenBadger(dir string) (*BadgerBackend, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerBackend{db: db, owns: true}, nil
}

// Get implements Backend.
func (b *BadgerBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Put implements Backend.
func (b *BadgerBackend) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// Delete implements Backend.
func (b *BadgerBackend) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// List implements Backend.
func (b *BadgerBackend) List(ctx context.Context, in ListInput) (ListPage, error) {
	if err := ctx.Err(); err != nil {
		return ListPage{}, err
	}
	limit := in.limit()
	var page ListPage

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(in.Prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := []byte(in.Prefix)
		if in.Cursor != "" {
			seek = []byte(in.Cursor)
		}
		for it.Seek(seek); it.ValidForPrefix(opts.Prefix); it.Next() {
			item := it.Item()
			key := string(item.KeyCopy(nil))
			if key == in.Cursor {
				continue
			}
			if len(page.Objects) == limit {
				page.NextCursor = page.Objects[limit-1].Key
				return nil
			}
			page.Objects = append(page.Objects, Object{Key: key, Size: item.ValueSize()})
		}
		return nil
	})
	if err != nil {
		return ListPage{}, err
	}
	return page, nil
}

// Close closes the database when this backend opened it.
func (b *BadgerBackend) Close() error {
	if !b.owns {
		return nil
	}
	return b.db.Close()
}
