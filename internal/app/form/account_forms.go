package form

import (
	"context"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/JoaoGuilhermeTP/fatex/internal/domain/model"
)

var allowedAvatarExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

type AccountUpdate struct {
	Username string
	Email    string
	Avatar   *multipart.FileHeader // nil when no new picture was uploaded
}

// Validate applies the registration username/email rules against the
// current user's record: keeping your own username or email is not a
// collision. The organizational domain suffix is not re-checked here.
func (f AccountUpdate) Validate(ctx context.Context, users UserFinder, current *model.User) (Errors, error) {
	errs := Errors{}

	switch {
	case f.Username == "":
		errs["username"] = msgRequired
	case !validUsernameLength(f.Username):
		errs["username"] = msgUsernameLen
	case f.Username != current.Username:
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
	case f.Email != current.Email:
		taken, err := emailTaken(ctx, users, f.Email)
		if err != nil {
			return nil, err
		}
		if taken {
			errs["email"] = msgEmailTaken
		}
	}

	if f.Avatar != nil {
		ext := strings.ToLower(filepath.Ext(f.Avatar.Filename))
		if !allowedAvatarExts[ext] {
			errs["avatar"] = msgAvatarExt
		}
	}

	return errs, nil
}

type Post struct {
	Title   string
	Content string
}

func (f Post) Validate() Errors {
	errs := Errors{}
	if f.Title == "" {
		errs["title"] = msgRequired
	}
	if f.Content == "" {
		errs["content"] = msgRequired
	}
	return errs
}
