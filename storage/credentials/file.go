package credentials

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/etudes/core/principal"
)

type (
	entry struct {
		ID           string `yaml:"id"`
		Name         string `yaml:"name"`
		Role         string `yaml:"role"`
		Email        string `yaml:"email,omitempty"`
		Bio          string `yaml:"bio,omitempty"`
		PasswordHash string `yaml:"password_hash"`
	}

	document struct {
		Principals []entry `yaml:"principals"`
	}
)

// FileRepository keeps the principal registry in a YAML file, with bcrypt password hashes.
type FileRepository struct {
	path string
	mu   sync.RWMutex
}

var _ principal.Repository = (*FileRepository)(nil)

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

// read loads the file; a missing file is an empty registry.
func (repo *FileRepository) read() (document, error) {
	var doc document
	data, err := os.ReadFile(repo.path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return doc, errors.Wrap(err, "reading credentials file")
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return doc, errors.Wrapf(err, "decoding credentials file %s", repo.path)
	}
	return doc, nil
}

func (repo *FileRepository) write(doc document) error {
	sort.Slice(doc.Principals, func(i, j int) bool { return doc.Principals[i].ID < doc.Principals[j].ID })
	data, err := yaml.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "encoding credentials")
	}
	if err := os.MkdirAll(filepath.Dir(repo.path), 0o700); err != nil {
		return errors.Wrap(err, "creating credentials directory")
	}

	// replace the file in one step
	tmp := repo.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrap(err, "writing credentials file")
	}
	if err := os.Rename(tmp, repo.path); err != nil {
		return errors.Wrap(err, "writing credentials file")
	}
	return nil
}

func (e entry) principal() principal.Principal {
	return principal.Principal{
		ID:           e.ID,
		DisplayName:  e.Name,
		Role:         principal.Role(e.Role),
		Email:        e.Email,
		Bio:          e.Bio,
		PasswordHash: []byte(e.PasswordHash),
	}
}

func newEntry(p principal.Principal) entry {
	return entry{
		ID:           p.ID,
		Name:         p.DisplayName,
		Role:         string(p.Role),
		Email:        p.Email,
		Bio:          p.Bio,
		PasswordHash: string(p.PasswordHash),
	}
}

func (repo *FileRepository) GetPrincipal(_ context.Context, id string) (principal.Principal, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	doc, err := repo.read()
	if err != nil {
		return principal.Principal{}, err
	}
	for _, e := range doc.Principals {
		if e.ID == id {
			return e.principal(), nil
		}
	}
	return principal.Principal{}, principal.ErrNotFound
}

func (repo *FileRepository) QueryPrincipals(_ context.Context) ([]principal.Principal, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	doc, err := repo.read()
	if err != nil {
		return nil, err
	}
	ps := make([]principal.Principal, 0, len(doc.Principals))
	for _, e := range doc.Principals {
		ps = append(ps, e.principal())
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].ID < ps[j].ID })
	return ps, nil
}

func (repo *FileRepository) SavePrincipal(_ context.Context, p principal.Principal) (principal.Principal, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	doc, err := repo.read()
	if err != nil {
		return principal.Principal{}, err
	}
	var found bool
	for i, e := range doc.Principals {
		if e.ID == p.ID {
			doc.Principals[i] = newEntry(p)
			found = true
			break
		}
	}
	if !found {
		doc.Principals = append(doc.Principals, newEntry(p))
	}
	if err := repo.write(doc); err != nil {
		return principal.Principal{}, err
	}
	return p, nil
}
