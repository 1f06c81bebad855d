package form

import (
	"context"
	"fmt"
	"strings"
)

type Registration struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Validate applies the registration rules. The organizational domain rule
// applies to new accounts only; account updates deliberately skip it.
func (f Registration) Validate(ctx context.Context, users UserFinder, emailDomain string) (Errors, error) {
	errs := Errors{}

	switch {
	case f.Username == "":
		errs["username"] = msgRequired
	case !validUsernameLength(f.Username):
		errs["username"] = msgUsernameLen
	default:
		taken, err := usernameTaken(ctx, users, f.Username)
		if err != nil {
			return nil, err
		}
		if taken {
			errs["username"] = msgUsernameTaken
		}
	}

	switch {
	case f.Email == "":
		errs["email"] = msgRequired
	case !validEmailSyntax(f.Email):
		errs["email"] = msgEmailInvalid
	case !strings.HasSuffix(f.Email, emailDomain):
		errs["email"] = fmt.Sprintf("Email must end with %s.", emailDomain)
	default:
		taken, err := emailTaken(ctx, users, f.Email)
		if err != nil {
			return nil, err
		}
		if taken {
			errs["email"] = msgEmailTaken
		}
	}

	if f.Password == "" {
		errs["password"] = msgRequired
	}
	switch {
	case f.ConfirmPassword == "":
		errs["confirm_password"] = msgRequired
	case f.ConfirmPassword != f.Password:
		errs["confirm_password"] = msgPasswordMatch
	}

	return errs, nil
}

type Login struct {
	Email    string
	Password string
	Remember bool
}

// Validate checks presence and email syntax only. Whether the credentials
// match an account is the handler's concern, not the form's.
func (f Login) Validate() Errors {
	errs := Errors{}
	switch {
	case f.Email == "":
		errs["email"] = msgRequired
	case !validEmailSyntax(f.Email):
		errs["email"] = msgEmailInvalid
	}
	if f.Password == "" {
		errs["password"] = msgRequired
	}
	return errs
}

type RequestReset struct {
	Email string
}

func (f RequestReset) Validate(ctx context.Context, users UserFinder) (Errors, error) {
	errs := Errors{}
	switch {
	case f.Email == "":
		errs["email"] = msgRequired
	case !validEmailSyntax(f.Email):
		errs["email"] = msgEmailInvalid
	default:
		taken, err := emailTaken(ctx, users, f.Email)
		if err != nil {
			return nil, err
		}
		if !taken {
			errs["email"] = msgEmailUnknown
		}
	}
	return errs, nil
}

type ResetPassword struct {
	Password        string
	ConfirmPassword string
}

func (f ResetPassword) Validate() Errors {
	errs := Errors{}
	if f.Password == "" {
		errs["password"] = msgRequired
	}
	switch {
	case f.ConfirmPassword == "":
		errs["confirm_password"] = msgRequired
	case f.ConfirmPassword != f.Password:
		errs["confirm_password"] = msgPasswordMatch
	}
	return errs
}
