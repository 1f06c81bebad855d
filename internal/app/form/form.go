// Package form implements the field-level validation rules for every
// user-facing submission. Each form is a plain struct whose Validate method
// returns an Errors map (field name -> human-readable message); an empty map
// means the submission is acceptable as a whole. The separate error return
// is for store failures only, never for rule violations.
package form

import (
	"context"
	"errors"
	"net/mail"
	"unicode/utf8"

	"github.com/JoaoGuilhermeTP/fatex/internal/common"
	"github.com/JoaoGuilhermeTP/fatex/internal/domain/model"
)

const (
	UsernameMinLen = 2
	UsernameMaxLen = 20
)

const (
	msgRequired      = "This field is required."
	msgUsernameLen   = "Username must be between 2 and 20 characters."
	msgUsernameTaken = "That username is taken. Please choose a different one."
	msgEmailInvalid  = "Invalid email address."
	msgEmailTaken    = "That email is taken. Please choose a different one."
	msgEmailUnknown  = "There is no account with that email. You must register first."
	msgPasswordMatch = "Field must be equal to password."
	msgAvatarExt     = "File type not allowed. Use jpg, jpeg or png."
)

// Errors maps a field name to the message explaining why it was rejected.
type Errors map[string]string

func (e Errors) Any() bool { return len(e) > 0 }

// UserFinder is the slice of the user store the validation rules need for
// uniqueness and existence checks. Satisfied by repository.UserRepository.
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
}

func validEmailSyntax(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func usernameTaken(ctx context.Context, users UserFinder, username string) (bool, error) {
	_, err := users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func emailTaken(ctx context.Context, users UserFinder, email string) (bool, error) {
	_, err := users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func validUsernameLength(username string) bool {
	n := utf8.RuneCountInString(username)
	return n >= UsernameMinLen && n <= UsernameMaxLen
}
