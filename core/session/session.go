package session

import (
	"context"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/trezcool/etudes/core"
	"github.com/trezcool/etudes/core/principal"
)

var (
	ErrNotLoggedIn  = errors.New("not logged in")
	ErrInvalidTheme = errors.New("theme must be dark or light")
	errInvalidToken = errors.New("invalid session token")
)

// Theme of the presentation layer.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func (t Theme) Valid() bool { return t == ThemeLight || t == ThemeDark }

type (
	// Record is the persisted form of a session.
	Record struct {
		ID    string         `json:"id"`
		Role  principal.Role `json:"role"`
		Name  string         `json:"name"`
		Email string         `json:"email,omitempty"`
		Bio   string         `json:"bio,omitempty"`
		Token string         `json:"token"`
	}

	// Claims of the session token.
	Claims struct {
		jwt.StandardClaims
		Role principal.Role `json:"role,omitempty"`
	}

	Store interface {
		Load(ctx context.Context, key string, v interface{}) bool
		Save(ctx context.Context, key string, v interface{})
		Delete(ctx context.Context, key string)
	}

	Registry interface {
		Authenticate(ctx context.Context, username, pwd string) (principal.Principal, error)
		Get(ctx context.Context, id string) (principal.Principal, error)
	}

	Config struct {
		AppName         string
		AuthKey         string
		ThemeKey        string
		SecretKey       []byte
		ExpirationDelta time.Duration
	}

	// Context is the application context: the logged in principal and the theme.
	// Load it at startup; every change is persisted right away.
	Context struct {
		cfg      Config
		store    Store
		registry Registry
		logger   core.Logger

		mu        sync.RWMutex
		principal *principal.Principal
		theme     Theme
	}
)

func New(cfg Config, store Store, registry Registry, logger core.Logger) *Context {
	return &Context{
		cfg:      cfg,
		store:    store,
		registry: registry,
		logger:   logger,
		theme:    ThemeLight,
	}
}

// Load restores the theme and the session. A tampered, expired or orphan session is discarded.
func (c *Context) Load(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var theme Theme
	if c.store.Load(ctx, c.cfg.ThemeKey, &theme) && theme.Valid() {
		c.theme = theme
	}

	var rec Record
	if !c.store.Load(ctx, c.cfg.AuthKey, &rec) {
		return
	}
	if err := c.verify(rec); err != nil {
		c.logger.Warn("discarding session", err)
		c.store.Delete(ctx, c.cfg.AuthKey)
		return
	}
	p, err := c.registry.Get(ctx, rec.ID)
	if err != nil {
		c.logger.Warn("discarding session", errors.Wrapf(err, "principal %q", rec.ID))
		c.store.Delete(ctx, c.cfg.AuthKey)
		return
	}
	c.principal = &p
}

// Login authenticates a principal and persists the session.
func (c *Context) Login(ctx context.Context, username, pwd string) (principal.Principal, error) {
	p, err := c.registry.Authenticate(ctx, username, pwd)
	if err != nil {
		return principal.Principal{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.persist(ctx, p); err != nil {
		return principal.Principal{}, err
	}
	c.principal = &p
	c.logger.Info("logged in", p)
	return p, nil
}

// Logout forgets the session.
func (c *Context) Logout(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.principal = nil
	c.store.Delete(ctx, c.cfg.AuthKey)
}

// Principal returns the logged in principal.
func (c *Context) Principal() (principal.Principal, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.principal == nil {
		return principal.Principal{}, ErrNotLoggedIn
	}
	return *c.principal, nil
}

// Refresh replaces the logged in principal after a profile change.
func (c *Context) Refresh(ctx context.Context, p principal.Principal) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.principal == nil || c.principal.ID != p.ID {
		return ErrNotLoggedIn
	}
	if err := c.persist(ctx, p); err != nil {
		return err
	}
	c.principal = &p
	return nil
}

func (c *Context) Theme() Theme {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.theme
}

func (c *Context) SetTheme(ctx context.Context, t Theme) error {
	if !t.Valid() {
		return ErrInvalidTheme
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.theme = t
	c.store.Save(ctx, c.cfg.ThemeKey, t)
	return nil
}

// ToggleTheme switches between the dark and light themes.
func (c *Context) ToggleTheme(ctx context.Context) Theme {
	t := ThemeDark
	if c.Theme() == ThemeDark {
		t = ThemeLight
	}
	_ = c.SetTheme(ctx, t)
	return t
}

// persist saves the session record of p; must be called with c.mu held.
func (c *Context) persist(ctx context.Context, p principal.Principal) error {
	token, err := c.generateToken(p)
	if err != nil {
		return err
	}
	c.store.Save(ctx, c.cfg.AuthKey, Record{
		ID:    p.ID,
		Role:  p.Role,
		Name:  p.DisplayName,
		Email: p.Email,
		Bio:   p.Bio,
		Token: token,
	})
	return nil
}

func (c *Context) claims(p principal.Principal) *Claims {
	now := core.NowFunc()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    c.cfg.AppName,
			Subject:   p.ID,
			ExpiresAt: now.Add(c.cfg.ExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Role: p.Role,
	}
}

// generateToken generates a signed JWT token string representing the principal Claims.
func (c *Context) generateToken(p principal.Principal) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c.claims(p))
	ss, err := token.SignedString(c.cfg.SecretKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// verify checks that the token of rec is valid and issued for the principal it describes.
func (c *Context) verify(rec Record) error {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(rec.Token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return c.cfg.SecretKey, nil
	})
	if err != nil {
		return errors.Wrap(errInvalidToken, err.Error())
	}
	if claims.Subject != rec.ID || claims.Role != rec.Role {
		return errInvalidToken
	}
	return nil
}
