// Package upload validates photos before they are forwarded to the backend.
// Nothing is stored locally; a Photo lives only as long as the upload call.
package upload

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	units "github.com/labstack/gommon/bytes"
)

// ---------------------------------------------------------------------------
// Sentinel errors
// ---------------------------------------------------------------------------

var (
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("please upload an image file")
	ErrMissingFileName    = errors.New("file name is required")
	ErrEmptyFile          = errors.New("file is empty")
)

// DefaultMaxBytes is the photo size limit (5 MB).
const DefaultMaxBytes = 5 * 1024 * 1024

// TooLargeMessage tells the user the photo limit in readable units.
func TooLargeMessage(maxBytes int64) string {
	return "Image size should be less than " + units.Format(maxBytes)
}

// sniffLen is how many bytes http.DetectContentType looks at.
const sniffLen = 512

// Photo is a validated image held in memory.
type Photo struct {
	FileName    string
	ContentType string
	Size        int64
	Hash        string
	data        []byte
}

// Reader returns a fresh reader over the photo bytes.
func (p *Photo) Reader() io.Reader {
	return bytes.NewReader(p.data)
}

// ReadPhoto reads at most maxBytes from r and checks that the content is an
// image. declaredType is the client-supplied MIME type; it is only trusted
// for image formats the sniffer does not recognise.
func ReadPhoto(name, declaredType string, r io.Reader, maxBytes int64) (*Photo, error) {
	if name == "" {
		return nil, ErrMissingFileName
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading photo: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrFileTooLarge
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	contentType, err := imageType(data, declaredType)
	if err != nil {
		return nil, err
	}

	h := sha256.Sum256(data)
	return &Photo{
		FileName:    filepath.Base(name),
		ContentType: contentType,
		Size:        int64(len(data)),
		Hash:        fmt.Sprintf("%x", h),
		data:        data,
	}, nil
}

func imageType(data []byte, declared string) (string, error) {
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	sniffed := http.DetectContentType(head)
	if strings.HasPrefix(sniffed, "image/") {
		return sniffed, nil
	}
	if sniffed == "application/octet-stream" && strings.HasPrefix(declared, "image/") {
		return declared, nil
	}
	return "", ErrInvalidContentType
}

// FromFormFile validates a photo from a multipart upload.
func FromFormFile(fh *multipart.FileHeader, maxBytes int64) (*Photo, error) {
	if fh.Size > 0 && maxBytes > 0 && fh.Size > maxBytes {
		return nil, ErrFileTooLarge
	}
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("opening uploaded file: %w", err)
	}
	defer src.Close()
	return ReadPhoto(fh.Filename, fh.Header.Get("Content-Type"), src, maxBytes)
}

// FromPath validates a photo from the local filesystem.
func FromPath(path string, maxBytes int64) (*Photo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil && maxBytes > 0 && info.Size() > maxBytes {
		return nil, ErrFileTooLarge
	}
	return ReadPhoto(path, "", f, maxBytes)
}
