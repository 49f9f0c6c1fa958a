package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/etudes/core/principal"
)

type principalRepository struct {
	db *principalTable
}

var _ principal.Repository = (*principalRepository)(nil)

func NewPrincipalRepository(db *DB) principal.Repository {
	return &principalRepository{db: db.principal}
}

func (repo *principalRepository) GetPrincipal(_ context.Context, id string) (principal.Principal, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.table[id]; ok {
		return *p, nil
	}
	return principal.Principal{}, principal.ErrNotFound
}

func (repo *principalRepository) QueryPrincipals(_ context.Context) ([]principal.Principal, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	ps := make([]principal.Principal, 0, len(repo.db.table))
	for _, p := range repo.db.table {
		ps = append(ps, *p)
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].ID < ps[j].ID })
	return ps, nil
}

func (repo *principalRepository) SavePrincipal(_ context.Context, p principal.Principal) (principal.Principal, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	p.PasswordHash = append([]byte(nil), p.PasswordHash...)
	repo.db.table[p.ID] = &p
	return p, nil
}
