// Package media turns uploaded files into payloads the vision model accepts.
package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	MIMETypePNG  = "image/png"
	MIMETypeJPEG = "image/jpeg"
)

// ErrImageTooLarge is returned by ReadImage when the upload exceeds its limit.
var ErrImageTooLarge = errors.New("image exceeds size limit")

// EncodedImage is the base64 payload of an upload plus its MIME tag.
type EncodedImage struct {
	Base64   string `json:"base64"`
	MIMEType string `json:"mimeType"`
}

// EncodeImage base64-encodes data and picks the MIME type from the file name
// alone: names ending in ".png" (any case) are image/png, everything else is
// image/jpeg. The bytes are neither sniffed nor validated, so a mislabeled
// file yields a wrong but well-formed tag.
func EncodeImage(data []byte, filename string) EncodedImage {
	return EncodedImage{
		Base64:   base64.StdEncoding.EncodeToString(data),
		MIMEType: MIMETypeFor(filename),
	}
}

// MIMETypeFor applies the suffix rule used by EncodeImage.
func MIMETypeFor(filename string) string {
	if strings.HasSuffix(strings.ToLower(filename), ".png") {
		return MIMETypePNG
	}
	return MIMETypeJPEG
}

// DataURI renders the image as data:{mime};base64,{payload}.
func (img EncodedImage) DataURI() string {
	return "data:" + img.MIMEType + ";base64," + img.Base64
}

// ReadImage reads at most limit bytes from r and encodes them. A limit of
// zero or less disables the cap.
func ReadImage(r io.Reader, filename string, limit int64) (EncodedImage, error) {
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return EncodedImage{}, fmt.Errorf("read image %s: %w", filename, err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return EncodedImage{}, fmt.Errorf("%w: %s is larger than %d bytes", ErrImageTooLarge, filename, limit)
	}

	return EncodeImage(data, filename), nil
}
