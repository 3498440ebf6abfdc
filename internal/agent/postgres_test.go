package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestPGStoreCreateTranslatesUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("insert into agents").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	store := NewPGStore(db)
	a := &Agent{
		ID:        "agent-1",
		Email:     "sarah@brighthomes.example",
		FirstName: "Sarah",
		LastName:  "Lin",
		Settings:  DefaultSettings(),
	}
	if err := store.Create(context.Background(), a); !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGStoreFindByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	columns := []string{"id", "email", "password_hash", "first_name", "last_name", "company_name",
		"phone", "bio", "settings", "is_active", "is_verified", "created_at", "updated_at"}
	mock.ExpectQuery("select .+ from agents where email").
		WithArgs("sarah@brighthomes.example").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			"agent-1", "sarah@brighthomes.example", "hash", "Sarah", "Lin", "Bright Homes",
			"", "", []byte(`{"enable_notifications":true,"brand_name":"Bright Homes"}`), true, false, now, now,
		))

	store := NewPGStore(db)
	a, err := store.FindByEmail(context.Background(), "sarah@brighthomes.example")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if a.ID != "agent-1" || a.FirstName != "Sarah" {
		t.Fatalf("unexpected agent: %+v", a)
	}
	if !a.Settings.EnableNotifications || a.Settings.BrandName != "Bright Homes" {
		t.Fatalf("settings not decoded: %+v", a.Settings)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGStoreFindNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select .+ from agents where id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	store := NewPGStore(db)
	if _, err := store.Find(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPGStoreSetLogoURLTargetsSingleField(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("update agents").
		WithArgs("logo_url", "https://cdn.example/logo.png", sqlmock.AnyArg(), "agent-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewPGStore(db)
	if err := store.SetLogoURL(context.Background(), "agent-1", "https://cdn.example/logo.png", time.Now()); err != nil {
		t.Fatalf("SetLogoURL: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGStoreUpdateSettingsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("update agents set settings").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewPGStore(db)
	err = store.UpdateSettings(context.Background(), "missing", DefaultSettings(), time.Now())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
