package document

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/etudes/core"
)

var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Store reads and writes JSON values in key-value slots. None of its operations fail:
// errors are reported to the logger and the caller carries on with its in-memory state.
type Store struct {
	kv     core.KVStore
	logger core.Logger
	quota  int64
}

func NewStore(kv core.KVStore, logger core.Logger, quota int64) *Store {
	return &Store{kv: kv, logger: logger, quota: quota}
}

// Load decodes the value stored under key into v and reports whether it succeeded.
// v may be partially filled when it did not.
func (s *Store) Load(ctx context.Context, key string, v interface{}) bool {
	data, err := s.kv.Get(ctx, key)
	if err != nil {
		if err == core.ErrKeyNotFound {
			s.logger.Debug(fmt.Sprintf("nothing stored under %q", key))
		} else {
			s.logger.Error(fmt.Sprintf("reading %q", key), err)
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.logger.Error(fmt.Sprintf("decoding %q", key), errors.Wrap(err, "corrupt stored value"))
		return false
	}
	return true
}

// Save encodes v and stores it under key.
func (s *Store) Save(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error(fmt.Sprintf("encoding %q", key), err)
		return
	}
	if s.quota > 0 && int64(len(data)) > s.quota {
		s.logger.Error(
			fmt.Sprintf("writing %q", key),
			errors.Wrapf(ErrQuotaExceeded, "%d bytes over a quota of %d, delete heavy resources", len(data), s.quota),
		)
		return
	}
	if err := s.kv.Set(ctx, key, data); err != nil {
		s.logger.Error(fmt.Sprintf("writing %q", key), err)
	}
}

// Delete removes the value stored under key.
func (s *Store) Delete(ctx context.Context, key string) {
	if err := s.kv.Delete(ctx, key); err != nil {
		s.logger.Error(fmt.Sprintf("deleting %q", key), err)
	}
}

// Load returns the value stored under key, or def.
func Load[T any](ctx context.Context, s *Store, key string, def T) T {
	var v T
	if !s.Load(ctx, key, &v) {
		return def
	}
	return v
}
