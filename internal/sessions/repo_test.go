package sessions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"skincare-backend/internal/profile"
	"skincare-backend/internal/recommendation"
	"skincare-backend/internal/shared/storage/db"
	"skincare-backend/internal/wizard"
)

func sampleSession(t *testing.T) *wizard.Session {
	t.Helper()
	catalog, err := wizard.DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog: %v", err)
	}
	flow, _ := catalog.Get("quick")
	sess := wizard.NewSession("sess-1", "guest:abc", flow, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	sess.Profile.Set(profile.FieldName, "Asha")
	sess.Profile.Set(profile.FieldConcerns, []string{"acne", "redness"})
	sess.Profile.Merge(profile.ImageAnalysis{SkinType: "oily", Confidence: 0.7})
	return sess
}

func TestMemoryRepoRoundTrip(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	sess := sampleSession(t)
	if err := repo.Create(ctx, sess); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// The repo holds its own copy.
	sess.Profile.Set(profile.FieldName, "Changed")

	got, err := repo.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	snap := got.Profile.Snapshot()
	if snap.String(profile.FieldName) != "Asha" {
		t.Fatalf("expected stored name, got %q", snap.String(profile.FieldName))
	}
	if !got.Profile.IsExplicit(profile.FieldName) || got.Profile.IsExplicit(profile.FieldSkinType) {
		t.Fatalf("explicit markers not preserved")
	}
	if a := snap.Analysis(); a == nil || a.SkinType != "oily" {
		t.Fatalf("analysis not preserved: %+v", a)
	}
	if c := snap.Strings(profile.FieldConcerns); len(c) != 2 || c[1] != "redness" {
		t.Fatalf("concerns not preserved: %v", c)
	}
}

func TestMemoryRepoMissing(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	if _, err := repo.Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get: expected ErrNotFound, got %v", err)
	}
	if err := repo.Update(ctx, sampleSession(t)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update: expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete: expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoCreate(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	repo := &PGRepo{DB: conn}
	sess := sampleSession(t)

	mock.ExpectExec("INSERT INTO wizard_sessions").
		WithArgs(
			sess.ID,
			sess.OwnerID,
			sess.Flow,
			1,
			3,
			sqlmock.AnyArg(), // state
			sess.CreatedAt,
			sess.UpdatedAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), sess); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetDecodesState(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	sess := sampleSession(t)
	state, err := encodeSession(sess)
	if err != nil {
		t.Fatalf("encodeSession: %v", err)
	}
	mock.ExpectQuery("SELECT state").
		WithArgs(sess.ID).
		WillReturnRows(sqlmock.NewRows([]string{"state"}).AddRow(state))

	repo := &PGRepo{DB: conn}
	got, err := repo.Get(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.OwnerID != sess.OwnerID || got.Profile.Snapshot().String(profile.FieldName) != "Asha" {
		t.Fatalf("unexpected session %+v", got)
	}
}

func TestPGRepoNotFound(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	mock.ExpectQuery("SELECT state").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"state"}))
	mock.ExpectExec("UPDATE wizard_sessions").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM wizard_sessions").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := &PGRepo{DB: conn}
	ctx := context.Background()
	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get: expected ErrNotFound, got %v", err)
	}
	sess := sampleSession(t)
	sess.ID = "missing"
	if err := repo.Update(ctx, sess); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update: expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete: expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestSQLiteRepoLifecycle(t *testing.T) {
	conn, err := db.OpenSQLite(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	repo := &SQLiteRepo{DB: conn}
	ctx := context.Background()
	sess := sampleSession(t)
	if err := repo.Create(ctx, sess); err != nil {
		t.Fatalf("Create: %v", err)
	}

	fetched := recommendation.SynthesizeFallback("oily", []string{"acne"})
	sess.Result = &fetched
	sess.State.CurrentStep = 3
	if err := repo.Update(ctx, sess); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.AtResults() || got.Result == nil || !got.Result.IsFallback() {
		t.Fatalf("unexpected session after update: %+v", got)
	}
	if len(got.Result.Products()) != 3 {
		t.Fatalf("expected 3 fallback products, got %d", len(got.Result.Products()))
	}

	if err := repo.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Get(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
