package inmemdb

import (
	"context"

	"github.com/trezcool/etudes/core"
)

// KVStore keeps the slots in process memory; nothing survives a restart.
type KVStore struct {
	db *slotTable
}

var _ core.KVStore = (*KVStore)(nil)

func NewKVStore(db *DB) *KVStore {
	return &KVStore{db: db.slot}
}

func (s *KVStore) Get(_ context.Context, key string) ([]byte, error) {
	s.db.mutex.RLock()
	defer s.db.mutex.RUnlock()

	v, ok := s.db.table[key]
	if !ok {
		return nil, core.ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *KVStore) Set(_ context.Context, key string, value []byte) error {
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()
	s.db.table[key] = append([]byte(nil), value...)
	return nil
}

func (s *KVStore) Delete(_ context.Context, key string) error {
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()
	delete(s.db.table, key)
	return nil
}

func (s *KVStore) Close() error { return nil }
