package principal

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/etudes/core"
)

// Role of a Principal.
type Role string

const (
	RoleStudent Role = "student"
	RoleTutor   Role = "tutor"
)

var AllRoles = []Role{RoleStudent, RoleTutor}

func (r Role) Valid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Principal is an entry of the principal registry. Its ID is the username.
type Principal struct {
	ID           string `json:"id" yaml:"id"`
	DisplayName  string `json:"name" yaml:"name"`
	Role         Role   `json:"role" yaml:"role"`
	Email        string `json:"email,omitempty" yaml:"email,omitempty"`
	Bio          string `json:"bio,omitempty" yaml:"bio,omitempty"`
	PasswordHash []byte `json:"-" yaml:"-"`
}

func (p *Principal) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.PasswordHash = hash
	return nil
}

func (p *Principal) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(p.PasswordHash, []byte(pwd))
}

func (p Principal) IsTutor() bool   { return p.Role == RoleTutor }
func (p Principal) IsStudent() bool { return p.Role == RoleStudent }

// NewPrincipal contains information needed to register a new Principal.
type NewPrincipal struct {
	Username        string `json:"username" validate:"required,min=3,alphanum_"`
	DisplayName     string `json:"name" validate:"required,notblank"`
	Role            Role   `json:"role" validate:"required,principal_role"`
	Email           string `json:"email" validate:"omitempty,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (np *NewPrincipal) clean() {
	np.Username = core.CleanString(np.Username, true /* lower */)
	np.DisplayName = core.CleanString(np.DisplayName)
	np.Email = core.CleanString(np.Email, true /* lower */)
	np.Role = Role(core.CleanString(string(np.Role), true /* lower */))
}

// UpdateProfile defines what a Principal may change on their own profile. Blank fields are left as is.
type UpdateProfile struct {
	DisplayName string `json:"name"`
	Email       string `json:"email" validate:"omitempty,email"`
	Bio         string `json:"bio" validate:"max=500"`
}

func (up *UpdateProfile) clean(orig Principal) {
	if name := core.CleanString(up.DisplayName); name != "" {
		up.DisplayName = name
	} else {
		up.DisplayName = orig.DisplayName
	}
	if email := core.CleanString(up.Email, true /* lower */); email != "" {
		up.Email = email
	} else {
		up.Email = orig.Email
	}
	if bio := core.CleanString(up.Bio); bio != "" {
		up.Bio = bio
	} else {
		up.Bio = orig.Bio
	}
}

// ChangePassword is submitted by a Principal to replace their own password.
type ChangePassword struct {
	Current         string `json:"current_password" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`

	// attributes the new password must not resemble; filled by the Service
	username, name, email string
}
