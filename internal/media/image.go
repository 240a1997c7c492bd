// Package media decodes uploaded images and stores them on a backend.
//
// Clients upload images inline as data URLs:
//
//	data:image/png;base64,iVBORw0KGgo...
//
// Stored objects are addressed by a key such as "recipes/<uuid>.png";
// the key is what the database keeps, and Storage.URL turns it into the
// public address returned by the API.
package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind is the folder an image is stored under.
type Kind string

const (
	KindRecipe Kind = "recipes"
	KindAvatar Kind = "avatars"
)

// MaxImageSize bounds the decoded image size.
const MaxImageSize = 10 << 20

var (
	ErrInvalidDataURL = errors.New("image must be a base64 encoded data URL")
	ErrUnsupported    = errors.New("unsupported image format")
	ErrTooLarge       = fmt.Errorf("image must be at most %d bytes", MaxImageSize)
)

// allowedTypes maps content types to file extensions.
var allowedTypes = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Image is a decoded upload.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

// DecodeDataURL parses "data:image/<fmt>;base64,<payload>". The declared
// type must be allowed and agree with the sniffed content.
func DecodeDataURL(s string) (*Image, error) {
	header, payload, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, ErrInvalidDataURL
	}

	contentType := strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64"))
	ext, ok := allowedTypes[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, contentType)
	}

	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageSize {
		return nil, ErrTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	if len(data) == 0 {
		return nil, ErrInvalidDataURL
	}

	sniffed := http.DetectContentType(data)
	if allowedTypes[sniffed] != ext {
		return nil, fmt.Errorf("%w: content is %s", ErrUnsupported, sniffed)
	}

	return &Image{Data: data, ContentType: sniffed, Ext: ext}, nil
}
