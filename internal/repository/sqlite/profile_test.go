package sqlite_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/msomdec/solifound/internal/domain"
)

func TestProfileRepository_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db, "ana@example.com")

	p, err := db.Profiles().GetByUserID(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if p.FullName() != "Ana López" {
		t.Fatalf("expected full name Ana López, got %q", p.FullName())
	}
	if !p.Incomplete() {
		t.Fatal("expected new profile to be incomplete")
	}
	if p.CV() != nil {
		t.Fatal("expected no CV on a new profile")
	}
}

func TestProfileRepository_GetByUserID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Profiles().GetByUserID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProfileRepository_UpdatePersonalInfo(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db, "ana@example.com")
	ctx := context.Background()

	info := domain.PersonalInfo{
		Nacionalidad:     "Española",
		Residencia:       "Madrid",
		TipoDocumento:    domain.DocumentDNI,
		NumeroDocumento:  "12345678Z",
		SituacionLaboral: domain.EmploymentUnemployed,
	}
	if err := db.Profiles().UpdatePersonalInfo(ctx, userID, info); err != nil {
		t.Fatalf("UpdatePersonalInfo: %v", err)
	}

	p, err := db.Profiles().GetByUserID(ctx, userID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if p.PersonalInfo() != info {
		t.Fatalf("expected %+v, got %+v", info, p.PersonalInfo())
	}
	if p.Incomplete() {
		t.Fatal("expected profile to be complete")
	}

	if err := db.Profiles().UpdatePersonalInfo(ctx, "missing", info); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown profile, got %v", err)
	}
}

func TestProfileRepository_CVLifecycle(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db, "ana@example.com")
	ctx := context.Background()
	repo := db.Profiles()

	if _, err := repo.GetCV(ctx, userID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before upload, got %v", err)
	}

	uploaded := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	payload := []byte("%PDF-1.4 cv")
	err := repo.UpdateCV(ctx, userID, &domain.CVUpload{Filename: "cv.pdf", Data: payload, UpdatedAt: uploaded})
	if err != nil {
		t.Fatalf("UpdateCV: %v", err)
	}

	doc, err := repo.GetCV(ctx, userID)
	if err != nil {
		t.Fatalf("GetCV: %v", err)
	}
	if doc.Filename != "cv.pdf" || doc.ContentType != domain.CVContentType || !bytes.Equal(doc.Data, payload) {
		t.Fatalf("unexpected document %q %q %q", doc.Filename, doc.ContentType, doc.Data)
	}

	p, err := repo.GetByUserID(ctx, userID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	cv := p.CV()
	if cv == nil || cv.Filename != "cv.pdf" || !cv.LastUpdated.Equal(uploaded) {
		t.Fatalf("unexpected CV metadata %+v", cv)
	}

	if err := repo.UpdateCV(ctx, userID, nil); err != nil {
		t.Fatalf("clear CV: %v", err)
	}
	p, err = repo.GetByUserID(ctx, userID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if p.CV() != nil || p.CVUpdatedAt != nil || p.CVFilename != "" {
		t.Fatalf("expected all CV fields cleared, got %+v", p)
	}
}

func TestProfileRepository_ListNewestFirst(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first := newTestUser(t, db, "first@example.com")
	second := newTestUser(t, db, "second@example.com")
	if _, err := db.SqlDB.ExecContext(ctx,
		`UPDATE loggedusers SET created_at = ? WHERE user_id = ?`,
		time.Now().UTC().Add(-time.Hour), first); err != nil {
		t.Fatalf("backdate: %v", err)
	}

	profiles, err := db.Profiles().List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(profiles))
	}
	if profiles[0].UserID != second || profiles[1].UserID != first {
		t.Fatalf("expected newest first, got %s then %s", profiles[0].UserID, profiles[1].UserID)
	}
}

func TestProfileRepository_Delete(t *testing.T) {
	db := newTestDB(t)
	userID := newTestUser(t, db, "ana@example.com")
	ctx := context.Background()

	if err := db.Profiles().Delete(ctx, userID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := db.Profiles().GetByUserID(ctx, userID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
