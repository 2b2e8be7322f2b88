package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// BadgerKeyStore keeps idempotency keys in an embedded badger database.
// TTL handling is native: entries carry their lifetime and vanish on expiry,
// so there is no purge sweep like the sqlite variant needs.
type BadgerKeyStore struct {
	db *badger.DB
}

// OpenBadger opens (creating if needed) a badger-backed key store at dir.
func OpenBadger(dir string) (*BadgerKeyStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerKeyStore{db: db}, nil
}

func (b *BadgerKeyStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Seen reports whether key exists and is still live.
func (b *BadgerKeyStore) Seen(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	err := b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("badger get: %w", err)
	}
	return true, nil
}

// Add records key with the given ttl. Re-adding an existing key refreshes
// its lifetime, mirroring the sqlite upsert.
func (b *BadgerKeyStore) Add(ctx context.Context, key string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), []byte{1}).WithTTL(ttl)
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("badger set: %w", err)
	}
	return nil
}
