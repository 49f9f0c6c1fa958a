package document

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/trezcool/etudes/core"
	"github.com/trezcool/etudes/storage/database/inmem"
	"github.com/trezcool/etudes/tests"
)

type record struct {
	Name  string         `json:"name"`
	Items []string       `json:"items"`
	When  core.Timestamp `json:"when"`
	Plain string         `json:"plain"`
}

type failingKV struct {
	core.KVStore
}

func (failingKV) Get(context.Context, string) ([]byte, error) { return nil, errors.New("disk on fire") }
func (failingKV) Set(context.Context, string, []byte) error   { return errors.New("disk on fire") }
func (failingKV) Delete(context.Context, string) error        { return errors.New("disk on fire") }

func TestLoad(t *testing.T) {
	ctx := context.Background()
	def := record{Name: "default"}

	tests := []struct {
		name       string
		kv         core.KVStore
		stored     []byte
		want       record
		wantErrors int
	}{
		{name: "absent key", kv: inmemdb.NewKVStore(inmemdb.Open()), want: def},
		{name: "corrupt value", kv: inmemdb.NewKVStore(inmemdb.Open()), stored: []byte(`{"name":`), want: def, wantErrors: 1},
		{name: "wrong shape", kv: inmemdb.NewKVStore(inmemdb.Open()), stored: []byte(`[1,2]`), want: def, wantErrors: 1},
		{name: "backend error", kv: failingKV{}, want: def, wantErrors: 1},
		{name: "stored", kv: inmemdb.NewKVStore(inmemdb.Open()), stored: []byte(`{"name":"algebra","items":["a"]}`), want: record{Name: "algebra", Items: []string{"a"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &testutil.Logger{}
			if tt.stored != nil {
				_ = tt.kv.Set(ctx, "slot", tt.stored)
			}
			got := Load(ctx, NewStore(tt.kv, logger, 0), "slot", def)
			if got.Name != tt.want.Name || len(got.Items) != len(tt.want.Items) {
				t.Errorf("Load() = %+v, want %+v", got, tt.want)
			}
			if n := logger.Count("error"); n != tt.wantErrors {
				t.Errorf("Load() logged %d errors, want %d: %s", n, tt.wantErrors, logger)
			}
		})
	}
}

func TestSave(t *testing.T) {
	ctx := context.Background()

	t.Run("quota exceeded", func(t *testing.T) {
		logger := &testutil.Logger{}
		kv := inmemdb.NewKVStore(inmemdb.Open())
		store := NewStore(kv, logger, 16)

		store.Save(ctx, "slot", record{Name: "way too long for the quota"})
		if _, err := kv.Get(ctx, "slot"); err != core.ErrKeyNotFound {
			t.Errorf("Save() over quota wrote the slot")
		}
		if logger.Count("error") != 1 {
			t.Errorf("Save() over quota logged: %s", logger)
		}
	})

	t.Run("unencodable", func(t *testing.T) {
		logger := &testutil.Logger{}
		NewStore(inmemdb.NewKVStore(inmemdb.Open()), logger, 0).Save(ctx, "slot", func() {})
		if logger.Count("error") != 1 {
			t.Errorf("Save() of a func logged: %s", logger)
		}
	})

	t.Run("backend error", func(t *testing.T) {
		logger := &testutil.Logger{}
		store := NewStore(failingKV{}, logger, 0)
		store.Save(ctx, "slot", record{})
		store.Delete(ctx, "slot")
		if logger.Count("error") != 2 {
			t.Errorf("Save() and Delete() logged: %s", logger)
		}
	})
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	logger := &testutil.Logger{}
	kv := inmemdb.NewKVStore(inmemdb.Open())
	store := NewStore(kv, logger, 0)

	when := core.NewTimestamp(time.Date(2024, 3, 1, 10, 20, 30, 456789000, time.UTC))
	orig := record{Name: "algebra", Items: []string{}, When: when, Plain: "2024 is not a date"}
	store.Save(ctx, "slot", orig)
	first, _ := kv.Get(ctx, "slot")

	got := Load(ctx, store, "slot", record{})
	if !got.When.Equal(when) || got.Plain != orig.Plain {
		t.Fatalf("Load() = %+v, want %+v", got, orig)
	}
	store.Save(ctx, "slot", got)
	second, _ := kv.Get(ctx, "slot")
	if !bytes.Equal(first, second) {
		t.Errorf("round trip not stable:\n%s\n%s", first, second)
	}
	if !bytes.Contains(first, []byte(`"when":"2024-03-01T10:20:30.456Z"`)) {
		t.Errorf("Save() encoded %s", first)
	}

	store.Delete(ctx, "slot")
	if got := Load(ctx, store, "slot", record{Name: "gone"}); got.Name != "gone" {
		t.Errorf("Load() after Delete() = %+v", got)
	}
	if logger.Count("error") != 0 {
		t.Errorf("unexpected errors: %s", logger)
	}
}
