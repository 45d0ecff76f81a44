package service_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/msomdec/solifound/internal/domain"
	"github.com/msomdec/solifound/internal/service"
)

func pdf(size int) []byte {
	data := bytes.Repeat([]byte{' '}, size)
	copy(data, "%PDF-1.4\n")
	return data
}

func TestCVService_RejectsOversizedUploadWithoutNetwork(t *testing.T) {
	b, rec := newFakeBackend("")
	svc := service.NewCVService(b, nil)

	_, err := svc.Upload(context.Background(), "u1", "cv.pdf", "application/pdf", pdf(6*1024*1024))

	var fe *service.FormError
	if !errors.As(err, &fe) || !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if fe.Fields.Get(service.CVField) != "El archivo no debe superar los 5MB" {
		t.Fatalf("unexpected message %q", fe.Fields.Get(service.CVField))
	}
	if len(rec.Calls()) != 0 {
		t.Fatalf("expected no backend calls, got %v", rec.Calls())
	}
}

func TestCVService_RejectsNonPDF(t *testing.T) {
	b, rec := newFakeBackend("")
	svc := service.NewCVService(b, nil)

	tests := []struct {
		name        string
		contentType string
		data        []byte
	}{
		{"declared as word", "application/msword", pdf(1024)},
		{"declared pdf but plain text", "application/pdf", []byte("hello, not a pdf")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(context.Background(), "u1", "cv.pdf", tt.contentType, tt.data)
			var fe *service.FormError
			if !errors.As(err, &fe) || fe.Fields.Get(service.CVField) != "Por favor, sube un archivo PDF" {
				t.Fatalf("expected PDF message, got %v", err)
			}
		})
	}
	if len(rec.Calls()) != 0 {
		t.Fatalf("expected no backend calls, got %v", rec.Calls())
	}
}

func TestCVService_UploadAtLimitIsAccepted(t *testing.T) {
	b := newTestBackend(t)
	owner := registerUser(t, service.NewAuthService(b), "ana@example.com")
	svc := service.NewCVService(b, nil)
	ctx := context.Background()

	data := pdf(domain.MaxCVSize)
	cv, err := svc.Upload(ctx, owner, `C:\Users\ana\CV Ana.pdf`, "application/pdf; charset=binary", data)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if cv.Filename != "CV Ana.pdf" {
		t.Fatalf("expected base filename, got %q", cv.Filename)
	}

	doc, err := svc.Download(ctx, owner)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if !bytes.Equal(doc.Data, data) {
		t.Fatal("downloaded payload differs from upload")
	}

	if err := svc.Remove(ctx, owner); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := svc.Download(ctx, owner); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after removal, got %v", err)
	}
}

type rejectingScanner struct{ scanned int }

func (s *rejectingScanner) Scan(ctx context.Context, r io.Reader) error {
	s.scanned++
	return errors.New("Eicar-Test-Signature FOUND")
}

func TestCVService_ScannerRejection(t *testing.T) {
	b, rec := newFakeBackend("")
	scanner := &rejectingScanner{}
	svc := service.NewCVService(b, scanner)

	_, err := svc.Upload(context.Background(), "u1", "cv.pdf", "application/pdf", pdf(2048))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if scanner.scanned != 1 {
		t.Fatalf("expected one scan, got %d", scanner.scanned)
	}
	if len(rec.Calls()) != 0 {
		t.Fatalf("expected no backend calls, got %v", rec.Calls())
	}
}

func TestCVService_UploadFailureIsSubmissionError(t *testing.T) {
	b, rec := newFakeBackend("profile.update_cv")
	svc := service.NewCVService(b, nil)

	_, err := svc.Upload(context.Background(), "u1", "cv.pdf", "application/pdf", pdf(2048))
	if !errors.Is(err, domain.ErrSubmission) || !errors.Is(err, errBackendDown) {
		t.Fatalf("expected submission error, got %v", err)
	}
	if got := rec.Calls(); len(got) != 1 || got[0] != "profile.update_cv" {
		t.Fatalf("expected a single update, got %v", got)
	}
}
