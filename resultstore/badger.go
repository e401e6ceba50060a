package resultstore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fleetsense/clusterkit/codec"
)

// Key prefixes for badger storage organization.
const (
	prefixRecord = byte(0x01) // record:k -> encoded record
	prefixMeta   = byte(0x02) // meta:k   -> write-time unix nanos
)

// BadgerStore persists per-k records in an embedded badger KV.
//
// Badger has no per-key modification time, so the write time lives in a
// companion meta key; Stat reads only that key.
type BadgerStore struct {
	db         *badger.DB
	codec      codec.Codec
	compressor Compressor
}

// BadgerOptions configures the badger-backed result store.
type BadgerOptions struct {
	// DataDir is the directory for data files. Ignored when InMemory.
	DataDir string
	// InMemory runs badger without persistence; useful for tests.
	InMemory bool
	// Codec and Compressor default to codec.Default and None. Badger
	// compresses blocks itself, so double compression is off by default.
	Codec      codec.Codec
	Compressor Compressor
}

// NewBadgerStore opens (or creates) a badger-backed result store.
func NewBadgerStore(opts BadgerOptions) (*BadgerStore, error) {
	badgerOpts := badger.DefaultOptions(opts.DataDir).
		WithInMemory(opts.InMemory).
		WithLogger(nil)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("resultstore: open badger: %w", err)
	}

	c := opts.Codec
	if c == nil {
		c = codec.Default
	}
	comp := opts.Compressor
	if comp == nil {
		comp = None{}
	}

	return &BadgerStore{db: db, codec: c, compressor: comp}, nil
}

// Close releases the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func badgerKey(prefix byte, k int) []byte {
	key := make([]byte, 5)
	key[0] = prefix
	binary.BigEndian.PutUint32(key[1:], uint32(k))
	return key
}

// Stat describes the record for k from the meta key only.
func (s *BadgerStore) Stat(_ context.Context, k int) (Meta, error) {
	var meta Meta
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(prefixMeta, k))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(v []byte) error {
			nanos, err := strconv.ParseInt(string(v), 10, 64)
			if err != nil {
				return fmt.Errorf("resultstore: corrupt meta for k=%d: %w", k, err)
			}
			meta = Meta{Exists: true, WrittenAt: time.Unix(0, nanos)}
			return nil
		})
	})
	return meta, err
}

// Load reads and decodes the record for k.
func (s *BadgerStore) Load(_ context.Context, k int) (*Envelope, error) {
	var env *Envelope
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(prefixRecord, k))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: k=%d", ErrNotFound, k)
			}
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		env, err = decodeRecord(raw)
		if err != nil {
			return fmt.Errorf("resultstore: record k=%d: %w", k, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return env, nil
}

// Save writes the record and its meta key in one transaction.
func (s *BadgerStore) Save(_ context.Context, k int, env *Envelope) error {
	writtenAt := env.WrittenAt
	if writtenAt.IsZero() {
		writtenAt = time.Now()
		stamped := *env
		stamped.WrittenAt = writtenAt
		env = &stamped
	}

	raw, err := encodeRecord(env, s.codec, s.compressor)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(badgerKey(prefixRecord, k), raw); err != nil {
			return err
		}
		return txn.Set(badgerKey(prefixMeta, k), []byte(strconv.FormatInt(writtenAt.UnixNano(), 10)))
	})
}

// Delete removes the record and meta for k.
func (s *BadgerStore) Delete(_ context.Context, k int) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(badgerKey(prefixRecord, k)); err != nil {
			return err
		}
		return txn.Delete(badgerKey(prefixMeta, k))
	})
}
