// Package resource builds public URLs for stored files such as images and
// profile pictures.
package resource

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/restcrud/internal/constants"
	"github.com/fivetwenty-io/restcrud/pkg/settings"
)

// Static errors for err113 compliance.
var (
	ErrNoImageInformation = errors.New("entity contains no image information")
)

// FileInformation describes a stored file and its scaled variants. Sizes
// are named "<width>x<height>" with an optional "-<suffix>".
type FileInformation struct {
	Original string   `json:"original"`
	Sizes    []string `json:"sizes,omitempty"`
}

// Image is an entity carrying an image file.
type Image struct {
	GUID            string           `json:"guid"`
	MimeType        string           `json:"mimeType"`
	FileInformation *FileInformation `json:"fileInformation,omitempty"`
}

// User is the part of a user entity needed for its profile picture.
type User struct {
	GUID           string           `json:"guid"`
	ProfilePicture *FileInformation `json:"profilePicture,omitempty"`
}

// Resolver turns storage paths into public URLs.
type Resolver struct {
	storageLocation string
}

// NewResolver creates a resolver for files under storageLocation.
func NewResolver(storageLocation string) *Resolver {
	return &Resolver{storageLocation: strings.TrimSuffix(storageLocation, "/")}
}

// NewResolverFromSettings reads storage.location.
func NewResolverFromSettings(s *settings.Settings) (*Resolver, error) {
	location := s.StorageLocation()
	if location == "" {
		return nil, constants.ErrNoStorageLocation
	}

	return NewResolver(location), nil
}

// PublicURL returns the public URL of a storage path.
func (r *Resolver) PublicURL(path string) string {
	return r.storageLocation + "/" + path
}

// ProfilePictureURL returns the URL of the user's picture, scaled close to
// width x height when both are given and sizes are known. Users without a
// picture get the anonymous placeholder.
func (r *Resolver) ProfilePictureURL(user *User, width, height int) string {
	if user == nil || user.ProfilePicture == nil {
		return r.PublicURL(constants.AnonymousProfilePicture)
	}

	if width > 0 && height > 0 {
		if size, ok := ApproximateSize(width, height, user.ProfilePicture.Sizes); ok {
			return r.PublicURL("user/" + user.GUID + "-" + size + ".png")
		}
	}

	return user.ProfilePicture.Original
}

// ImageURL returns the URL of an image entity, scaled close to width x
// height when both are given and sizes are known.
func (r *Resolver) ImageURL(img *Image, width, height int) (string, error) {
	if img == nil {
		return "", ErrNoImageInformation
	}

	if img.FileInformation == nil {
		return "", fmt.Errorf("%w: %s", ErrNoImageInformation, img.GUID)
	}

	if width > 0 && height > 0 {
		if size, ok := ApproximateSize(width, height, img.FileInformation.Sizes); ok {
			return r.PublicURL("image/" + img.GUID + "-" + size + "." + ExtensionByMimeType(img.MimeType)), nil
		}
	}

	return img.FileInformation.Original, nil
}

// ExtensionByMimeType returns the file extension for a MIME type: its
// subtype, with jpeg shortened to jpg.
func ExtensionByMimeType(mimeType string) string {
	_, subtype, found := strings.Cut(strings.ToLower(mimeType), "/")
	if !found {
		return ""
	}

	if subtype == "jpeg" {
		return "jpg"
	}

	return subtype
}

// ApproximateSize picks the size whose dimensions have the least summed
// absolute difference to width x height. The first of equally close sizes
// wins. The watermarked variant and names that are not "<w>x<h>" are
// skipped.
func ApproximateSize(width, height int, sizes []string) (string, bool) {
	best := ""
	bestDiff := -1

	for _, size := range sizes {
		if size == constants.ImageWatermarked {
			continue
		}

		w, h, ok := parseSize(size)
		if !ok {
			continue
		}

		diff := abs(width-w) + abs(height-h)
		if bestDiff < 0 || diff < bestDiff {
			best, bestDiff = size, diff
		}
	}

	return best, bestDiff >= 0
}

func parseSize(size string) (int, int, bool) {
	dims, _, _ := strings.Cut(size, "-")

	ws, hs, found := strings.Cut(dims, "x")
	if !found {
		return 0, 0, false
	}

	w, err := strconv.Atoi(ws)
	if err != nil {
		return 0, 0, false
	}

	h, err := strconv.Atoi(hs)
	if err != nil {
		return 0, 0, false
	}

	return w, h, true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}

	return n
}
