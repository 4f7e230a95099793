package forms

import (
	"strings"

	"github.com/budgettracker/budget-tracker/internal/core/domain"
)

// MsgPasswordMismatch is shown when the confirmation differs from the password.
const MsgPasswordMismatch = "Passwords do not match."

// LoginForm is the sign-in form.
type LoginForm struct {
	Username string `validate:"notblank"`
	Password string `validate:"required"`
}

// ToInput validates the form.
func (f LoginForm) ToInput() (domain.LoginInput, error) {
	if verr := check(f); verr != nil {
		return domain.LoginInput{}, verr
	}
	return domain.LoginInput{Username: strings.TrimSpace(f.Username), Password: f.Password}, nil
}

// RegisterForm is the sign-up form.
type RegisterForm struct {
	Name            string `validate:"notblank"`
	Username        string `validate:"notblank"`
	Email           string `validate:"omitempty,email"`
	Password        string `validate:"required,min=8"`
	ConfirmPassword string
}

// ToInput validates the form. A blank email is sent as absent.
func (f RegisterForm) ToInput() (domain.RegisterInput, error) {
	if f.Password != f.ConfirmPassword {
		return domain.RegisterInput{}, &ValidationError{Message: MsgPasswordMismatch, Fields: []string{"confirmpassword"}}
	}
	f.Email = strings.TrimSpace(f.Email)
	if verr := check(f); verr != nil {
		return domain.RegisterInput{}, verr
	}

	in := domain.RegisterInput{
		Name:     strings.TrimSpace(f.Name),
		Username: strings.TrimSpace(f.Username),
		Password: f.Password,
	}
	if f.Email != "" {
		email := f.Email
		in.Email = &email
	}
	return in, nil
}
