package photo

import (
	"encoding/base64"
	"strings"
)

// DefaultMIMEType is assumed when the provider omits the image MIME type.
const DefaultMIMEType = "image/png"

// Encoded is an image embedded as a base64 data URI, ready for an <img src>.
type Encoded string

// Encode wraps raw image bytes in a data URI.
func Encode(mimeType string, data []byte) Encoded {
	if mimeType == "" {
		mimeType = DefaultMIMEType
	}
	return Encoded("data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data))
}

// IsZero reports whether no image is present.
func (e Encoded) IsZero() bool {
	return e == ""
}

// MIMEType returns the media type of the data URI, or "" if e is not one.
func (e Encoded) MIMEType() string {
	s, ok := strings.CutPrefix(string(e), "data:")
	if !ok {
		return ""
	}
	mt, _, ok := strings.Cut(s, ";")
	if !ok {
		return ""
	}
	return mt
}

// IsImage reports whether e is a data URI with an image media type.
func (e Encoded) IsImage() bool {
	return strings.HasPrefix(e.MIMEType(), "image/") && strings.Contains(string(e), ";base64,")
}
