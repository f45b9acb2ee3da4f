package uploads

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/gymstore/backend/pkg/config"
	pkgerrors "github.com/gymstore/backend/pkg/errors"
	"github.com/gymstore/backend/pkg/logger"
)

// allowedImageTypes is the closed set of content types accepted for product
// images. Detection runs on file bytes, never on the client-supplied name.
var allowedImageTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/webp": {},
	"image/gif":  {},
}

// StoredFile describes a file persisted to the uploads directory.
type StoredFile struct {
	FileName    string
	ContentType string
	SizeBytes   int64
}

// Service writes validated uploads to local disk.
type Service struct {
	dir      string
	maxBytes int64
	logg     *logger.Logger
}

// NewService ensures the uploads directory exists and returns the service.
func NewService(cfg config.UploadsConfig, logg *logger.Logger) (*Service, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("uploads directory required")
	}
	if cfg.MaxUploadMB <= 0 {
		return nil, fmt.Errorf("max upload size must be positive")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &Service{
		dir:      cfg.Dir,
		maxBytes: int64(cfg.MaxUploadMB) * 1024 * 1024,
		logg:     logg,
	}, nil
}

// Dir returns the directory served under /uploads.
func (s *Service) Dir() string {
	return s.dir
}

// Store validates and persists one upload. The stored name is a fresh UUID
// with the extension matching the detected content type.
func (s *Service) Store(r io.Reader) (*StoredFile, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read upload")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file exceeds the maximum upload size").
			WithDetails(map[string]any{"max_bytes": s.maxBytes})
	}
	if len(data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "empty upload")
	}

	detected := mimetype.Detect(data)
	if _, ok := allowedImageTypes[detected.String()]; !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported file type").
			WithDetails(map[string]any{"detected_type": detected.String()})
	}

	fileName := uuid.NewString() + detected.Extension()
	path := filepath.Join(s.dir, fileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write upload")
	}

	return &StoredFile{
		FileName:    fileName,
		ContentType: detected.String(),
		SizeBytes:   int64(len(data)),
	}, nil
}

// Remove deletes a stored file. The name is reduced to its base component so
// callers cannot reach outside the uploads directory.
func (s *Service) Remove(fileName string) error {
	base := filepath.Base(fileName)
	if base == "." || base == string(filepath.Separator) {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid file name")
	}
	if err := os.Remove(filepath.Join(s.dir, base)); err != nil {
		if os.IsNotExist(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "file not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove upload")
	}
	return nil
}

// Open returns the stored file bytes, used by tests and integrity checks.
func (s *Service) Open(fileName string) (io.ReadCloser, error) {
	base := filepath.Base(fileName)
	file, err := os.Open(filepath.Join(s.dir, base))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "file not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "open upload")
	}
	return file, nil
}
