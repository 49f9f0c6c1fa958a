package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/etudes/core"
)

// KVStore keeps the slots in the kv_slot table.
type KVStore struct {
	db *sqlx.DB
}

var _ core.KVStore = (*KVStore)(nil)

func NewKVStore(db *sqlx.DB) *KVStore {
	return &KVStore{db: db}
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	q := s.db.Rebind(`SELECT value FROM kv_slot WHERE key = ?`)
	if err := s.db.GetContext(ctx, &value, q, key); err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrKeyNotFound
		}
		return nil, errors.Wrapf(err, "selecting slot %q", key)
	}
	return []byte(value), nil
}

func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	q := s.db.Rebind(`
		INSERT INTO kv_slot (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)
	if _, err := s.db.ExecContext(ctx, q, key, string(value), core.NowFunc().UTC()); err != nil {
		return errors.Wrapf(err, "upserting slot %q", key)
	}
	return nil
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	q := s.db.Rebind(`DELETE FROM kv_slot WHERE key = ?`)
	if _, err := s.db.ExecContext(ctx, q, key); err != nil {
		return errors.Wrapf(err, "deleting slot %q", key)
	}
	return nil
}

// Keys lists the stored slot keys.
func (s *KVStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := s.db.SelectContext(ctx, &keys, `SELECT key FROM kv_slot ORDER BY key`); err != nil {
		return nil, errors.Wrap(err, "listing slots")
	}
	return keys, nil
}

func (s *KVStore) Close() error {
	return s.db.Close()
}
