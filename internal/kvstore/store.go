// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package kvstore

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/plenoaudit/logengine/internal/config"
	"github.com/plenoaudit/logengine/internal/logging"
	"github.com/plenoaudit/logengine/internal/schema"
)

// Key prefixes. Primary records live under prefixRecord; the three
// secondary indexes required by the KV contract (type, date, created_at)
// are maintained as separate key ranges so each can be prefix-scanned
// independently, exactly as the teacher's WAL separates prefixPending from
// prefixConfirmed.
const (
	prefixRecord   = "rec:"
	prefixIdxType  = "idx:type:"
	prefixIdxDate  = "idx:date:"
	prefixIdxCtime = "idx:created:"
)

// ErrStoreClosed is returned once Close has been called.
var ErrStoreClosed = errors.New("kvstore: store is closed")

// ErrNotFound is returned by Load when no record exists for a key.
var ErrNotFound = errors.New("kvstore: record not found")

// Store implements the blob KV adapter contract over an embedded BadgerDB
// instance.
type Store struct {
	db     *badger.DB
	cfg    config.KVConfig
	closed bool
}

// Open creates or opens a Store at cfg.Path. It corresponds to the
// adapter's init() — BadgerDB itself is idempotent across process
// restarts, so there is no separate "create schema" step, only opening
// the database, mirroring wal.Open.
func Open(cfg config.KVConfig) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path)
	opts.SyncWrites = cfg.SyncWrites
	opts.MemTableSize = cfg.MemTableSize
	opts.ValueLogFileSize = cfg.ValueLogFileSize
	opts.NumCompactors = cfg.NumCompactors
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("kvstore: open BadgerDB: %w", err)
	}

	logging.Info().Str("path", cfg.Path).Msg("kvstore opened")
	return &Store{db: db, cfg: cfg}, nil
}

// Init is a no-op beyond Open succeeding: BadgerDB has no separate
// "ensure indexes exist" step since the secondary indexes here are plain
// keys maintained by Save, not a declared schema. It exists to satisfy the
// adapter contract's init() operation and to make callers' intent explicit.
func (s *Store) Init() error {
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// Save persists record, overwriting any existing record with the same key.
// The primary write and all three secondary-index entries happen in one
// transaction. If a record already exists at this key with a different
// CreatedAt, its stale created_at index entry is removed first so the
// index never accumulates orphans.
func (s *Store) Save(record Record) error {
	if s.closed {
		return ErrStoreClosed
	}
	if record.Key == "" {
		return fmt.Errorf("kvstore: save: empty key")
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("kvstore: marshal record %q: %w", record.Key, err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if existing, err := loadTxn(txn, record.Key); err == nil {
			if !existing.CreatedAt.Equal(record.CreatedAt) {
				if err := txn.Delete(createdIndexKey(existing.CreatedAt, existing.Key)); err != nil {
					return fmt.Errorf("delete stale created-at index: %w", err)
				}
			}
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}

		if err := txn.Set([]byte(prefixRecord+record.Key), data); err != nil {
			return fmt.Errorf("set record: %w", err)
		}
		if err := txn.Set(typeIndexKey(record.Type, record.Key), nil); err != nil {
			return fmt.Errorf("set type index: %w", err)
		}
		if err := txn.Set(dateIndexKey(record.Type, record.Date, record.Key), nil); err != nil {
			return fmt.Errorf("set date index: %w", err)
		}
		if err := txn.Set(createdIndexKey(record.CreatedAt, record.Key), nil); err != nil {
			return fmt.Errorf("set created-at index: %w", err)
		}
		return nil
	})
}

// Load returns the record for key, or ErrNotFound.
func (s *Store) Load(key string) (Record, error) {
	if s.closed {
		return Record{}, ErrStoreClosed
	}
	var rec Record
	err := s.db.View(func(txn *badger.Txn) error {
		r, err := loadTxn(txn, key)
		if err != nil {
			return err
		}
		rec = r
		return nil
	})
	return rec, err
}

func loadTxn(txn *badger.Txn, key string) (Record, error) {
	item, err := txn.Get([]byte(prefixRecord + key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get record: %w", err)
	}

	var rec Record
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	})
	if err != nil {
		return Record{}, fmt.Errorf("unmarshal record: %w", err)
	}
	return rec, nil
}

// ListByType returns every record of the given type, in no particular order.
func (s *Store) ListByType(t schema.LogType) ([]Record, error) {
	if s.closed {
		return nil, ErrStoreClosed
	}

	var out []Record
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("%s%s:", prefixIdxType, t))
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key()[len(prefix):])
			rec, err := loadTxn(txn, key)
			if err != nil {
				logging.Warn().Err(err).Str("key", key).Msg("kvstore: list_by_type skipped unreadable record")
				continue
			}
			out = append(out, rec)
		}
		return nil
	})
	if out == nil {
		out = []Record{}
	}
	return out, err
}

// ListByDateRange returns every record of type t whose date falls in
// [startDate, endDate] inclusive. Dates are YYYY-MM-DD strings, which sort
// lexicographically the same as chronologically, so the comparison is a
// plain string comparison.
func (s *Store) ListByDateRange(t schema.LogType, startDate, endDate string) ([]Record, error) {
	if s.closed {
		return nil, ErrStoreClosed
	}

	var out []Record
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("%s%s:", prefixIdxDate, t))
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			rest := string(it.Item().Key()[len(prefix):])
			date, key, ok := splitDateKey(rest)
			if !ok {
				continue
			}
			if date < startDate || date > endDate {
				continue
			}
			rec, err := loadTxn(txn, key)
			if err != nil {
				logging.Warn().Err(err).Str("key", key).Msg("kvstore: list_by_date_range skipped unreadable record")
				continue
			}
			out = append(out, rec)
		}
		return nil
	})
	if out == nil {
		out = []Record{}
	}
	return out, err
}

// Delete removes the record at key along with its index entries.
func (s *Store) Delete(key string) error {
	if s.closed {
		return ErrStoreClosed
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return deleteTxn(txn, key)
	})
}

func deleteTxn(txn *badger.Txn, key string) error {
	rec, err := loadTxn(txn, key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := txn.Delete([]byte(prefixRecord + key)); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if err := txn.Delete(typeIndexKey(rec.Type, key)); err != nil {
		return fmt.Errorf("delete type index: %w", err)
	}
	if err := txn.Delete(dateIndexKey(rec.Type, rec.Date, key)); err != nil {
		return fmt.Errorf("delete date index: %w", err)
	}
	if err := txn.Delete(createdIndexKey(rec.CreatedAt, key)); err != nil {
		return fmt.Errorf("delete created-at index: %w", err)
	}
	return nil
}

// DeleteBeforeDate deletes every record of type t whose date is strictly
// less than beforeDate, returning the count deleted.
func (s *Store) DeleteBeforeDate(t schema.LogType, beforeDate string) (int, error) {
	if s.closed {
		return 0, ErrStoreClosed
	}

	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("%s%s:", prefixIdxDate, t))
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			rest := string(it.Item().Key()[len(prefix):])
			date, key, ok := splitDateKey(rest)
			if !ok {
				continue
			}
			if date < beforeDate {
				keys = append(keys, key)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, key := range keys {
		err := s.db.Update(func(txn *badger.Txn) error {
			return deleteTxn(txn, key)
		})
		if err != nil {
			return deleted, fmt.Errorf("kvstore: delete_before_date: %w", err)
		}
		deleted++
	}
	return deleted, nil
}

// Clear removes every partition in the store.
func (s *Store) Clear() error {
	if s.closed {
		return ErrStoreClosed
	}
	return s.db.DropPrefix(
		[]byte(prefixRecord),
		[]byte(prefixIdxType),
		[]byte(prefixIdxDate),
		[]byte(prefixIdxCtime),
	)
}

// Size returns the sum of size_bytes across all partitions.
func (s *Store) Size() (int64, error) {
	if s.closed {
		return 0, ErrStoreClosed
	}

	var total int64
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(prefixRecord)
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec Record
				if err := json.Unmarshal(val, &rec); err != nil {
					return err
				}
				total += rec.SizeBytes
				return nil
			})
			if err != nil {
				return fmt.Errorf("size: unmarshal record: %w", err)
			}
		}
		return nil
	})
	return total, err
}

// RunGC triggers a BadgerDB value-log GC sweep, grounded on wal.RunGC's
// loop-until-ErrNoRewrite pattern.
func (s *Store) RunGC(discardRatio float64) error {
	if s.closed {
		return ErrStoreClosed
	}
	for {
		err := s.db.RunValueLogGC(discardRatio)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("kvstore: run GC: %w", err)
		}
	}
}

// Close shuts down the underlying BadgerDB instance.
func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("kvstore: close BadgerDB: %w", err)
	}
	return nil
}

func typeIndexKey(t schema.LogType, key string) []byte {
	return []byte(fmt.Sprintf("%s%s:%s", prefixIdxType, t, key))
}

func dateIndexKey(t schema.LogType, date, key string) []byte {
	return []byte(fmt.Sprintf("%s%s:%s:%s", prefixIdxDate, t, date, key))
}

func createdIndexKey(createdAt time.Time, key string) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", prefixIdxCtime, createdAt.UnixNano(), key))
}

// splitDateKey parses "{date}:{key}" back into its parts. The key itself
// may contain ':' in principle (it doesn't, given PartitionKey's format),
// so this only splits on the first colon.
func splitDateKey(s string) (date, key string, ok bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}
