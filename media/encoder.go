// Package media turns uploaded files into self-describing data URIs that are
// stored inline in the post document.
package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"postboard/schemas"
)

type Category string

const (
	CategoryImage Category = "image"
	CategoryVideo Category = "video"
)

const (
	MiB = 1 << 20

	MaxImageBytes = 10 * MiB
	MaxVideoBytes = 20 * MiB

	largeVideoBytes = 10 * MiB
)

const genericBinary = "application/octet-stream"

var ErrMalformedDataURI = errors.New("malformed data uri")

// Upload is a raw file as received from the transport layer.
type Upload struct {
	Data     []byte
	MIMEType string
	Category Category
}

func Limit(c Category) int64 {
	if c == CategoryVideo {
		return MaxVideoBytes
	}
	return MaxImageBytes
}

// CheckSize rejects a file by its declared size before it is read into memory.
func CheckSize(size int64, c Category) error {
	if limit := Limit(c); size > limit {
		return &schemas.PayloadTooLargeError{Subject: subject(c), Limit: limit}
	}
	return nil
}

// Encode validates the upload and returns data:<mime>;base64,<payload>.
func Encode(data []byte, mimeType string, category Category) (string, error) {
	mt := normalize(mimeType)
	if !strings.HasPrefix(mt, "image/") && !strings.HasPrefix(mt, "video/") {
		return "", fmt.Errorf("%w: only image and video files are allowed, got %q", schemas.ErrUnsupportedMediaType, mimeType)
	}
	if err := CheckSize(int64(len(data)), category); err != nil {
		return "", err
	}
	if category == CategoryVideo && len(data) > largeVideoBytes {
		slog.Info("Processing large video", "size", schemas.FormatBytes(int64(len(data))))
	}

	var sb strings.Builder
	sb.Grow(EncodedLen(mt, len(data)))
	sb.WriteString("data:")
	sb.WriteString(mt)
	sb.WriteString(";base64,")
	sb.WriteString(base64.StdEncoding.EncodeToString(data))
	return sb.String(), nil
}

func (u Upload) Encode() (string, error) {
	return Encode(u.Data, u.MIMEType, u.Category)
}

// EncodedLen is the exact length of the string Encode produces for n bytes.
func EncodedLen(mimeType string, n int) int {
	return len("data:") + len(mimeType) + len(";base64,") + base64.StdEncoding.EncodedLen(n)
}

// Decode splits a data URI produced by Encode back into its MIME type and bytes.
func Decode(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, ErrMalformedDataURI
	}
	mt, payload, ok := strings.Cut(rest, ";base64,")
	if !ok || mt == "" {
		return "", nil, ErrMalformedDataURI
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s", ErrMalformedDataURI, err)
	}
	return mt, data, nil
}

// DetectMIME trusts the declared type unless it is missing or generic,
// in which case the content is sniffed.
func DetectMIME(data []byte, declared string) string {
	if mt := normalize(declared); mt != "" && mt != genericBinary {
		return mt
	}
	return normalize(mimetype.Detect(data).String())
}

func normalize(mimeType string) string {
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mt
	}
	return strings.ToLower(mimeType)
}

func subject(c Category) string {
	if c == CategoryVideo {
		return "Video size"
	}
	return "Image size"
}
