package ai

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Image is raw image bytes with their MIME type.
type Image struct {
	MIMEType string
	Data     []byte
}

// DataURI renders the image as data:<mime>;base64,<payload>.
func (img Image) DataURI() string {
	return "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// ParseImageDataURI decodes a base64 data URI whose MIME type is an image type.
func ParseImageDataURI(uri string) (Image, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "data:")
	if !ok {
		return Image{}, fmt.Errorf("%w: photo must be a data URI", ErrInvalidInput)
	}

	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Image{}, fmt.Errorf("%w: data URI has no payload", ErrInvalidInput)
	}

	mimeType, encoding, _ := strings.Cut(meta, ";")
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if !strings.HasPrefix(mimeType, "image/") || len(mimeType) == len("image/") {
		return Image{}, fmt.Errorf("%w: unsupported photo type %q", ErrInvalidInput, mimeType)
	}
	if !strings.EqualFold(strings.TrimSpace(encoding), "base64") {
		return Image{}, fmt.Errorf("%w: photo must be base64 encoded", ErrInvalidInput)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("%w: photo payload is not valid base64", ErrInvalidInput)
	}
	if len(data) == 0 {
		return Image{}, fmt.Errorf("%w: photo is empty", ErrInvalidInput)
	}

	return Image{MIMEType: mimeType, Data: data}, nil
}
