package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Kostikrut/bubbly-back/config"
	logger "github.com/Kostikrut/bubbly-back/middleware/log"
)

var (
	ErrInvalidDataURI = errors.New("invalid base64 data URI")
	ErrUploadTooLarge = errors.New("upload exceeds size limit")
)

// Kind is the resource classification derived from the declared MIME type.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video" // audio and video share a class
	KindRaw   Kind = "raw"
)

var dataURIPattern = regexp.MustCompile(`^data:([a-zA-Z0-9.+/-]+);base64,`)

// Uploader accepts a base64 data URI and returns a durable URL for the
// stored asset.
type Uploader interface {
	Upload(ctx context.Context, dataURI string) (string, error)
}

// DiskUploader stores decoded payloads on the local filesystem, grouped by
// resource kind. The upload directory is served as static files by the HTTP
// layer, so the returned URL stays valid for the lifetime of the deployment.
type DiskUploader struct {
	dir      string
	baseURL  string
	maxBytes int64
	logger   *logger.Logger
}

func NewDiskUploader(cfg *config.MediaConfig, log *logger.Logger) (*DiskUploader, error) {
	for _, kind := range []Kind{KindImage, KindVideo, KindRaw} {
		if err := os.MkdirAll(filepath.Join(cfg.UploadDir, string(kind)), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload dir: %w", err)
		}
	}
	return &DiskUploader{
		dir:      cfg.UploadDir,
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		maxBytes: cfg.MaxBytes,
		logger:   log,
	}, nil
}

// Upload decodes the data URI, classifies it by MIME type and writes it
// under the kind's subdirectory with a generated name.
func (u *DiskUploader) Upload(ctx context.Context, dataURI string) (string, error) {
	mimeType, payload, err := ParseDataURI(dataURI)
	if err != nil {
		return "", err
	}
	if u.maxBytes > 0 && int64(len(payload)) > u.maxBytes {
		return "", ErrUploadTooLarge
	}

	kind := ClassifyMIME(mimeType)
	name := uuid.New().String() + extensionFor(mimeType)
	path := filepath.Join(u.dir, string(kind), name)

	if err := os.WriteFile(path, payload, 0o644); err != nil {
		u.logger.WithContext(ctx).Error("failed to store upload",
			zap.String("path", path),
			zap.Error(err),
		)
		return "", fmt.Errorf("failed to store upload: %w", err)
	}

	return fmt.Sprintf("%s/%s/%s", u.baseURL, kind, name), nil
}

// Dir returns the root upload directory, for static-route registration.
func (u *DiskUploader) Dir() string {
	return u.dir
}

// ParseDataURI splits a base64 data URI into its MIME type and decoded payload.
func ParseDataURI(s string) (string, []byte, error) {
	m := dataURIPattern.FindStringSubmatch(s)
	if m == nil {
		return "", nil, ErrInvalidDataURI
	}
	payload, err := base64.StdEncoding.DecodeString(s[len(m[0]):])
	if err != nil {
		return "", nil, ErrInvalidDataURI
	}
	return m[1], payload, nil
}

// ClassifyMIME maps a MIME type onto a resource kind: images stay images,
// audio and video share the video class, everything else is raw.
func ClassifyMIME(mimeType string) Kind {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return KindImage
	case strings.HasPrefix(mimeType, "audio/"), strings.HasPrefix(mimeType, "video/"):
		return KindVideo
	default:
		return KindRaw
	}
}

// extensionFor derives a filename extension from the MIME subtype.
func extensionFor(mimeType string) string {
	_, sub, ok := strings.Cut(mimeType, "/")
	if !ok || sub == "" {
		return ""
	}
	// strip parameters and tree suffixes like svg+xml
	if i := strings.IndexAny(sub, "+;"); i >= 0 {
		sub = sub[:i]
	}
	if sub == "" {
		return ""
	}
	return "." + sub
}
