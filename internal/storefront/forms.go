package storefront

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/go-multierror"
)

var ErrInvalidForm = errors.New("invalid form")

// FieldError is one rejected form field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

var (
	fullnamePattern = regexp.MustCompile(`^[a-zA-Z\s]{3,50}$`)
	phonePattern    = regexp.MustCompile(`^[6-9]\d{9}$`)
	emailPattern    = regexp.MustCompile(`[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}$`)
)

const minPasswordLen = 8

type RegisterForm struct {
	Fullname        string `json:"fullname"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (f RegisterForm) Validate() error {
	var result *multierror.Error
	if !fullnamePattern.MatchString(f.Fullname) {
		result = multierror.Append(result, &FieldError{"fullname", "Full Name must be 3-50 letters"})
	}
	if !phonePattern.MatchString(f.Phone) {
		result = multierror.Append(result, &FieldError{"phone", "Invalid phone number"})
	}
	result = multierror.Append(result, credentialErrors(f.Email, f.Password)...)
	if f.ConfirmPassword != f.Password {
		result = multierror.Append(result, &FieldError{"confirmPassword", "Passwords do not match"})
	}
	return wrapForm(result)
}

type LoginForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (f LoginForm) Validate() error {
	var result *multierror.Error
	result = multierror.Append(result, credentialErrors(f.Email, f.Password)...)
	return wrapForm(result)
}

func credentialErrors(email, password string) []error {
	var errs []error
	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		errs = append(errs, &FieldError{"email", "Enter a valid email"})
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		errs = append(errs, &FieldError{"password", fmt.Sprintf("Password must be at least %d characters", minPasswordLen)})
	}
	return errs
}

func wrapForm(result *multierror.Error) error {
	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidForm, err)
	}
	return nil
}

// FieldErrors lists the rejected fields of a form error by name.
func FieldErrors(err error) map[string]string {
	var merr *multierror.Error
	if !errors.As(err, &merr) {
		return nil
	}
	out := make(map[string]string, len(merr.Errors))
	for _, e := range merr.Errors {
		var fe *FieldError
		if errors.As(e, &fe) {
			out[fe.Field] = fe.Message
		}
	}
	return out
}
