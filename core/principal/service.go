package principal

import (
	"context"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/etudes/core"
)

var (
	// errors
	ErrNotFound             = errors.New("principal not found")
	ErrExists               = errors.New("a principal with this username already exists")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrWrongPassword        = errors.New("current password is incorrect")
)

type (
	// Repository is the credential store backing the principal registry.
	Repository interface {
		GetPrincipal(ctx context.Context, id string) (Principal, error)
		QueryPrincipals(ctx context.Context) ([]Principal, error)
		// SavePrincipal updates the Principal with the same ID, or creates it.
		SavePrincipal(ctx context.Context, p Principal) (Principal, error)
	}

	// Notifier is told about profile changes (the study feed records them).
	Notifier interface {
		ProfileUpdated(p Principal)
	}

	Service struct {
		repo       Repository
		validate   *validator.Validate
		translator ut.Translator
		notifier   Notifier
	}
)

func NewService(repo Repository, validate *validator.Validate, translator ut.Translator) *Service {
	return &Service{
		repo:       repo,
		validate:   validate,
		translator: translator,
	}
}

// SetNotifier sets the Notifier told about profile updates.
func (svc *Service) SetNotifier(n Notifier) {
	svc.notifier = n
}

func (svc *Service) notify(p Principal) {
	if svc.notifier != nil {
		svc.notifier.ProfileUpdated(p)
	}
}

func (svc *Service) Get(ctx context.Context, id string) (Principal, error) {
	return svc.repo.GetPrincipal(ctx, core.CleanString(id, true /* lower */))
}

func (svc *Service) QueryAll(ctx context.Context) ([]Principal, error) {
	return svc.repo.QueryPrincipals(ctx)
}

// IsPrincipal reports whether id is a key of the registry.
func (svc *Service) IsPrincipal(ctx context.Context, id string) bool {
	_, err := svc.repo.GetPrincipal(ctx, id)
	return err == nil
}

// Authenticate checks the credentials of a Principal.
func (svc *Service) Authenticate(ctx context.Context, username, pwd string) (Principal, error) {
	p, err := svc.Get(ctx, username)
	if err != nil {
		if err == ErrNotFound {
			return Principal{}, ErrAuthenticationFailed
		}
		return Principal{}, errors.Wrap(err, "finding principal")
	}
	if err := p.CheckPassword(pwd); err != nil {
		return Principal{}, ErrAuthenticationFailed
	}
	return p, nil
}

// Create registers a new Principal.
func (svc *Service) Create(ctx context.Context, np NewPrincipal) (Principal, error) {
	np.clean()
	if err := core.ValidateStruct(svc.validate, svc.translator, np); err != nil {
		return Principal{}, err
	}
	if _, err := svc.repo.GetPrincipal(ctx, np.Username); err == nil {
		return Principal{}, core.NewValidationError(ErrExists, core.FieldError{Field: "username", Error: ErrExists.Error()})
	} else if err != ErrNotFound {
		return Principal{}, errors.Wrap(err, "checking principal uniqueness")
	}

	p := Principal{
		ID:          np.Username,
		DisplayName: np.DisplayName,
		Role:        np.Role,
		Email:       np.Email,
	}
	if err := p.SetPassword(np.Password); err != nil {
		return Principal{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.SavePrincipal(ctx, p)
}

// UpdateProfile edits the profile fields of Principal `id` in place.
func (svc *Service) UpdateProfile(ctx context.Context, id string, up UpdateProfile) (Principal, error) {
	p, err := svc.Get(ctx, id)
	if err != nil {
		return Principal{}, err
	}
	up.clean(p)
	if err := core.ValidateStruct(svc.validate, svc.translator, up); err != nil {
		return Principal{}, err
	}

	p.DisplayName = up.DisplayName
	p.Email = up.Email
	p.Bio = up.Bio
	if p, err = svc.repo.SavePrincipal(ctx, p); err != nil {
		return Principal{}, errors.Wrap(err, "saving principal")
	}
	svc.notify(p)
	return p, nil
}

// ChangePassword replaces the password of Principal `id` after checking the current one.
func (svc *Service) ChangePassword(ctx context.Context, id string, cp ChangePassword) (Principal, error) {
	p, err := svc.Get(ctx, id)
	if err != nil {
		return Principal{}, err
	}
	cp.username, cp.name, cp.email = p.ID, p.DisplayName, p.Email
	if err := core.ValidateStruct(svc.validate, svc.translator, cp); err != nil {
		return Principal{}, err
	}
	if err := p.CheckPassword(cp.Current); err != nil {
		return Principal{}, core.NewValidationError(ErrWrongPassword, core.FieldError{Field: "current_password", Error: ErrWrongPassword.Error()})
	}

	if err := p.SetPassword(cp.Password); err != nil {
		return Principal{}, errors.Wrap(err, "hashing password")
	}
	if p, err = svc.repo.SavePrincipal(ctx, p); err != nil {
		return Principal{}, errors.Wrap(err, "saving principal")
	}
	svc.notify(p)
	return p, nil
}

// ResetPassword sets a new password without policy or current password checks (admin only).
func (svc *Service) ResetPassword(ctx context.Context, id, pwd string) error {
	p, err := svc.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := p.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	_, err = svc.repo.SavePrincipal(ctx, p)
	return err
}
