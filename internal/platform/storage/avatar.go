package storage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// Thumbnail bounds for stored avatars.
const (
	avatarWidth  = 125
	avatarHeight = 125
)

// AvatarStore writes resized profile pictures to a directory on disk.
// Saving is a blocking, inline step of the account update.
type AvatarStore struct {
	dir string
}

func NewAvatarStore(dir string) (*AvatarStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage.NewAvatarStore: %w", err)
	}
	return &AvatarStore{dir: dir}, nil
}

// Save decodes the uploaded image, fits it inside 125x125 preserving aspect
// ratio, and writes it under a random hex filename with the original
// extension. Returns the stored filename.
func (s *AvatarStore) Save(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("storage.AvatarStore.Save: %w", err)
	}
	defer src.Close()

	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("storage.AvatarStore.Save: decode: %w", err)
	}
	thumb := imaging.Fit(img, avatarWidth, avatarHeight, imaging.Lanczos)

	name := randomHex(8) + strings.ToLower(filepath.Ext(fh.Filename))
	if err := imaging.Save(thumb, filepath.Join(s.dir, name)); err != nil {
		return "", fmt.Errorf("storage.AvatarStore.Save: %w", err)
	}
	return name, nil
}

func randomHex(n int) string {
	b := make([]byte, n)
	rand.Read(b)
	return hex.EncodeToString(b)
}
