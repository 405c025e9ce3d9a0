// Package kv is a Badger-backed session.RoundStore for single-node deployments
// that do not want a SQL database.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/MJE43/pf-casino-engine/internal/session"
)

var ErrKeyEmpty = errors.New("key is empty")

// Badger keeps rounds under "<prefix>/round/<id>" and an ordering index under
// "<prefix>/account/<account>/<created>/<id>".
type Badger struct {
	db     *badger.DB
	prefix string
}

// Open opens the Badger directory at path. An empty path keeps everything in memory.
func Open(path, prefix string) (*Badger, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Badger{db: db, prefix: prefix}, nil
}

func (s *Badger) Close() error {
	return s.db.Close()
}

func (s *Badger) fullKey(k string) []byte {
	if s.prefix != "" {
		return []byte(s.prefix + "/" + k)
	}
	return []byte(k)
}

func (s *Badger) roundKey(id string) []byte {
	return s.fullKey("round/" + id)
}

func (s *Badger) accountPrefix(account string) []byte {
	return s.fullKey("account/" + account + "/")
}

func (s *Badger) indexKey(r *session.Round) []byte {
	// Fixed-width nanoseconds sort lexically in creation order.
	return append(s.accountPrefix(r.Account), fmt.Sprintf("%020d/%s", r.CreatedAt.UnixNano(), r.ID)...)
}

func (s *Badger) Create(ctx context.Context, r *session.Round) error {
	if r.ID == "" {
		return ErrKeyEmpty
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode round: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := s.roundKey(r.ID)
		if _, err := txn.Get(key); err == nil {
			return fmt.Errorf("%w: %s", session.ErrRoundExists, r.ID)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set(s.indexKey(r), []byte(r.ID))
	})
}

func (s *Badger) Update(ctx context.Context, r *session.Round) error {
	if r.ID == "" {
		return ErrKeyEmpty
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode round: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := s.roundKey(r.ID)
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", session.ErrRoundNotFound, r.ID)
		} else if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
}

func (s *Badger) Get(ctx context.Context, id string) (*session.Round, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var r *session.Round
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		r, err = readRound(txn, s.roundKey(id))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", session.ErrRoundNotFound, id)
	}
	return r, err
}

// ListByAccount walks the account index backwards, so rounds come newest first.
func (s *Badger) ListByAccount(ctx context.Context, account string) ([]*session.Round, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := s.accountPrefix(account)

	var out []*session.Round
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append(append([]byte{}, prefix...), 0xff)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			id, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			r, err := readRound(txn, s.roundKey(string(id)))
			if err != nil {
				return fmt.Errorf("index points at %s: %w", id, err)
			}
			out = append(out, r)
		}
		return nil
	})
	return out, err
}

func readRound(txn *badger.Txn, key []byte) (*session.Round, error) {
	item, err := txn.Get(key)
	if err != nil {
		return nil, err
	}
	var r session.Round
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &r)
	})
	if err != nil {
		return nil, fmt.Errorf("decode round: %w", err)
	}
	return &r, nil
}
