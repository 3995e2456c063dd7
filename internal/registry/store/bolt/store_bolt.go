package bolt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

	"shareledger/internal/registry/models"
	"shareledger/internal/registry/store"
	"shareledger/pkg/domain"
	"shareledger/pkg/platform/sentinel"
)

var (
	bucketConfig       = []byte("config")
	bucketShareholders = []byte("shareholders")
	keyConfig          = []byte("registry")
)

// BoltStore keeps registry state in a single bbolt file. bbolt allows one
// writer at a time, which gives registry mutations their serial order.
type BoltStore struct {
	db *bbolt.DB
}

var _ store.TxStore = (*BoltStore)(nil)

// Open opens or creates the database at path. The parent directory is
// created if it does not exist.
func Open(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("boltstore: create directory: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("boltstore: open db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketConfig, bucketShareholders} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("boltstore: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

// Ping verifies the database file is open and readable.
func (s *BoltStore) Ping(_ context.Context) error {
	return s.db.View(func(*bbolt.Tx) error { return nil })
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// RunInTx runs fn inside one read-write bbolt transaction. Returning an
// error from fn rolls every write back.
func (s *BoltStore) RunInTx(ctx context.Context, fn func(store.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return fn(&txStore{tx: tx})
	})
}

func (s *BoltStore) view(fn func(*txStore) error) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		return fn(&txStore{tx: tx})
	})
}

func (s *BoltStore) update(fn func(*txStore) error) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return fn(&txStore{tx: tx})
	})
}

func (s *BoltStore) Config(ctx context.Context) (cfg *models.Config, err error) {
	err = s.view(func(t *txStore) error {
		cfg, err = t.Config(ctx)
		return err
	})
	return cfg, err
}

func (s *BoltStore) SaveConfig(ctx context.Context, cfg *models.Config) error {
	return s.update(func(t *txStore) error { return t.SaveConfig(ctx, cfg) })
}

func (s *BoltStore) Find(ctx context.Context, id domain.Identity) (rec *models.ShareRecord, err error) {
	err = s.view(func(t *txStore) error {
		rec, err = t.Find(ctx, id)
		return err
	})
	return rec, err
}

func (s *BoltStore) Insert(ctx context.Context, record *models.ShareRecord) error {
	return s.update(func(t *txStore) error { return t.Insert(ctx, record) })
}

func (s *BoltStore) Update(ctx context.Context, record *models.ShareRecord) error {
	return s.update(func(t *txStore) error { return t.Update(ctx, record) })
}

func (s *BoltStore) Delete(ctx context.Context, id domain.Identity) error {
	return s.update(func(t *txStore) error { return t.Delete(ctx, id) })
}

func (s *BoltStore) List(ctx context.Context) (records []*models.ShareRecord, err error) {
	err = s.view(func(t *txStore) error {
		records, err = t.List(ctx)
		return err
	})
	return records, err
}

// txStore implements store.Store on an open bbolt transaction.
type txStore struct {
	tx *bbolt.Tx
}

func (t *txStore) Config(_ context.Context) (*models.Config, error) {
	data := t.tx.Bucket(bucketConfig).Get(keyConfig)
	if data == nil {
		return nil, sentinel.ErrNotFound
	}
	var cfg models.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("boltstore: decode config: %w", err)
	}
	return &cfg, nil
}

func (t *txStore) SaveConfig(_ context.Context, cfg *models.Config) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("boltstore: encode config: %w", err)
	}
	if err := t.tx.Bucket(bucketConfig).Put(keyConfig, data); err != nil {
		return fmt.Errorf("boltstore: put config: %w", err)
	}
	return nil
}

func (t *txStore) Find(_ context.Context, id domain.Identity) (*models.ShareRecord, error) {
	data := t.tx.Bucket(bucketShareholders).Get([]byte(id))
	if data == nil {
		return nil, sentinel.ErrNotFound
	}
	return decodeRecord(data)
}

func (t *txStore) Insert(_ context.Context, record *models.ShareRecord) error {
	b := t.tx.Bucket(bucketShareholders)
	if b.Get([]byte(record.Identity)) != nil {
		return sentinel.ErrConflict
	}
	return putRecord(b, record)
}

func (t *txStore) Update(_ context.Context, record *models.ShareRecord) error {
	b := t.tx.Bucket(bucketShareholders)
	if b.Get([]byte(record.Identity)) == nil {
		return sentinel.ErrNotFound
	}
	return putRecord(b, record)
}

func (t *txStore) Delete(_ context.Context, id domain.Identity) error {
	b := t.tx.Bucket(bucketShareholders)
	if b.Get([]byte(id)) == nil {
		return sentinel.ErrNotFound
	}
	if err := b.Delete([]byte(id)); err != nil {
		return fmt.Errorf("boltstore: delete shareholder: %w", err)
	}
	return nil
}

// List relies on bbolt's byte-ordered keys for identity ordering.
func (t *txStore) List(_ context.Context) ([]*models.ShareRecord, error) {
	records := []*models.ShareRecord{}
	err := t.tx.Bucket(bucketShareholders).ForEach(func(_, v []byte) error {
		rec, err := decodeRecord(v)
		if err != nil {
			return err
		}
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func putRecord(b *bbolt.Bucket, record *models.ShareRecord) error {
	if record.Identity.IsZero() {
		return errors.New("boltstore: record identity is required")
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("boltstore: encode shareholder: %w", err)
	}
	if err := b.Put([]byte(record.Identity), data); err != nil {
		return fmt.Errorf("boltstore: put shareholder: %w", err)
	}
	return nil
}

func decodeRecord(data []byte) (*models.ShareRecord, error) {
	var rec models.ShareRecord
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("boltstore: decode shareholder: %w", err)
	}
	return &rec, nil
}
