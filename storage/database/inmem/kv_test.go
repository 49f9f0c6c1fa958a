package inmemdb

import (
	"bytes"
	"context"
	"testing"

	"github.com/trezcool/etudes/core"
	"github.com/trezcool/etudes/core/principal"
)

func TestKVStore(t *testing.T) {
	ctx := context.Background()
	store := NewKVStore(Open())

	if _, err := store.Get(ctx, "studyData"); err != core.ErrKeyNotFound {
		t.Fatalf("Get() on empty store error = %v, want %v", err, core.ErrKeyNotFound)
	}

	val := []byte(`{"subjects":[]}`)
	if err := store.Set(ctx, "studyData", val); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	val[0] = 'X' // the store owns its copy

	got, err := store.Get(ctx, "studyData")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !bytes.Equal(got, []byte(`{"subjects":[]}`)) {
		t.Errorf("Get() = %s", got)
	}

	if err := store.Delete(ctx, "studyData"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, "studyData"); err != core.ErrKeyNotFound {
		t.Errorf("Get() after Delete() error = %v, want %v", err, core.ErrKeyNotFound)
	}
}

func TestPrincipalRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewPrincipalRepository(Open())

	if _, err := repo.GetPrincipal(ctx, "ana"); err != principal.ErrNotFound {
		t.Fatalf("GetPrincipal() error = %v, want %v", err, principal.ErrNotFound)
	}

	for _, id := range []string{"zed", "ana"} {
		if _, err := repo.SavePrincipal(ctx, principal.Principal{ID: id, Role: principal.RoleStudent}); err != nil {
			t.Fatalf("SavePrincipal() error = %v", err)
		}
	}
	if _, err := repo.SavePrincipal(ctx, principal.Principal{ID: "ana", DisplayName: "Ana", Role: principal.RoleTutor}); err != nil {
		t.Fatalf("SavePrincipal() error = %v", err)
	}

	ps, err := repo.QueryPrincipals(ctx)
	if err != nil {
		t.Fatalf("QueryPrincipals() error = %v", err)
	}
	if len(ps) != 2 || ps[0].ID != "ana" || ps[1].ID != "zed" {
		t.Fatalf("QueryPrincipals() = %v", ps)
	}
	if ps[0].Role != principal.RoleTutor || ps[0].DisplayName != "Ana" {
		t.Errorf("SavePrincipal() did not update: %+v", ps[0])
	}
}
