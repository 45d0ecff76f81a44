package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/msomdec/solifound/internal/backend"
	"github.com/msomdec/solifound/internal/domain"
	"github.com/msomdec/solifound/internal/form"
)

const (
	// CVField is the form field CV errors are reported under.
	CVField = "cv"

	msgCVNotPDF       = "Por favor, sube un archivo PDF"
	msgCVTooLarge     = "El archivo no debe superar los 5MB"
	msgCVInfected     = "El archivo no ha superado el análisis antivirus"
	msgCVUploadFailed = "Error al subir el CV. Por favor, inténtalo de nuevo."
	msgCVRemoveFailed = "Error al eliminar el CV. Por favor, inténtalo de nuevo."
	// MsgCVMissing is shown when a download finds no stored CV.
	MsgCVMissing = "Este usuario no tiene CV subido"
)

// Scanner inspects an upload before it is stored.
type Scanner interface {
	Scan(ctx context.Context, r io.Reader) error
}

// CVService uploads, removes and downloads the CV attached to a profile.
type CVService struct {
	profiles domain.ProfileRepository
	scanner  Scanner
	now      func() time.Time
}

// NewCVService creates a CVService. scanner may be nil.
func NewCVService(b *backend.Backend, scanner Scanner) *CVService {
	return &CVService{profiles: b.Profiles, scanner: scanner, now: time.Now}
}

// CheckUpload applies the local upload rules: a PDF of at most 5MB. It makes
// no network call.
func CheckUpload(contentType string, data []byte) error {
	if mediaType(contentType) != domain.CVContentType || !mimetype.Detect(data).Is(domain.CVContentType) {
		return validationError(form.Errors{CVField: msgCVNotPDF})
	}
	if len(data) > domain.MaxCVSize {
		return validationError(form.Errors{CVField: msgCVTooLarge})
	}
	return nil
}

// UploadTooLarge returns the validation error for an upload cut off before it
// was fully read.
func UploadTooLarge() error {
	return validationError(form.Errors{CVField: msgCVTooLarge})
}

// Upload stores data as the owner's CV, replacing any previous one.
func (s *CVService) Upload(ctx context.Context, owner, filename, contentType string, data []byte) (*domain.CVFile, error) {
	if err := CheckUpload(contentType, data); err != nil {
		return nil, err
	}

	if s.scanner != nil {
		if err := s.scanner.Scan(ctx, bytes.NewReader(data)); err != nil {
			slog.WarnContext(ctx, "cv rejected by scanner", "user_id", owner, "error", err)
			return nil, validationError(form.Errors{CVField: msgCVInfected})
		}
	}

	upload := &domain.CVUpload{
		Filename:  cleanFilename(filename),
		Data:      data,
		UpdatedAt: s.now().UTC(),
	}
	if err := s.profiles.UpdateCV(ctx, owner, upload); err != nil {
		slog.ErrorContext(ctx, "upload cv", "user_id", owner, "error", err)
		return nil, &FormError{Fields: form.Errors{CVField: msgCVUploadFailed}, kind: domain.ErrSubmission, cause: err}
	}
	return &domain.CVFile{Filename: upload.Filename, LastUpdated: upload.UpdatedAt}, nil
}

// Remove clears the CV payload, filename and timestamp together.
func (s *CVService) Remove(ctx context.Context, owner string) error {
	if err := s.profiles.UpdateCV(ctx, owner, nil); err != nil {
		slog.ErrorContext(ctx, "remove cv", "user_id", owner, "error", err)
		return &FormError{Fields: form.Errors{CVField: msgCVRemoveFailed}, kind: domain.ErrSubmission, cause: err}
	}
	return nil
}

// Download returns the owner's stored CV or domain.ErrNotFound.
func (s *CVService) Download(ctx context.Context, owner string) (*domain.CVDocument, error) {
	doc, err := s.profiles.GetCV(ctx, owner)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get cv: %w", err)
	}
	return doc, nil
}

func mediaType(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

func cleanFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "cv.pdf"
	}
	return name
}
