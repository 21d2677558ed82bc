package core

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidRegistration wraps registration input rejected before sending.
var ErrInvalidRegistration = errors.New("invalid registration")

// RegisterForm is the sign-up input.
type RegisterForm struct {
	FullName string `validate:"required,min=2"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// RegisterErrors holds one flag per failed field rule.
type RegisterErrors struct {
	FullNameRequired bool
	FullNameTooShort bool
	EmailRequired    bool
	EmailInvalid     bool
	PasswordRequired bool
	PasswordTooShort bool
}

func (re RegisterErrors) Valid() bool {
	return re == RegisterErrors{}
}

// Messages returns one human readable line per failed rule.
func (re RegisterErrors) Messages() []string {
	var out []string
	switch {
	case re.FullNameRequired:
		out = append(out, "full name is required")
	case re.FullNameTooShort:
		out = append(out, "full name must be at least 2 characters")
	}
	switch {
	case re.EmailRequired:
		out = append(out, "email is required")
	case re.EmailInvalid:
		out = append(out, "email is not a valid address")
	}
	switch {
	case re.PasswordRequired:
		out = append(out, "password is required")
	case re.PasswordTooShort:
		out = append(out, "password must be at least 6 characters")
	}
	return out
}

func (re RegisterErrors) Error() string {
	return ErrInvalidRegistration.Error() + ": " + strings.Join(re.Messages(), "; ")
}

func (re RegisterErrors) Unwrap() error { return ErrInvalidRegistration }

var validate = validator.New()

// ValidateRegisterForm applies the sign-up rules. Name and email are
// trimmed first; the password is checked as typed.
func ValidateRegisterForm(f RegisterForm) RegisterErrors {
	f.FullName = strings.TrimSpace(f.FullName)
	f.Email = strings.TrimSpace(f.Email)

	var re RegisterErrors
	var verrs validator.ValidationErrors
	if !errors.As(validate.Struct(f), &verrs) {
		return re
	}
	for _, fe := range verrs {
		switch fe.Field() + "." + fe.Tag() {
		case "FullName.required":
			re.FullNameRequired = true
		case "FullName.min":
			re.FullNameTooShort = true
		case "Email.required":
			re.EmailRequired = true
		case "Email.email":
			re.EmailInvalid = true
		case "Password.required":
			re.PasswordRequired = true
		case "Password.min":
			re.PasswordTooShort = true
		}
	}
	return re
}
