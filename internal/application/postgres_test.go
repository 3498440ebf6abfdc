package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var appTestColumns = []string{
	"id", "agent_id", "status", "bio_info", "orea_form", "documents",
	"notes", "document_type", "document_url", "bio_submitted_at",
	"document_uploaded_at", "created_at", "updated_at",
}

func addAppRow(rows *sqlmock.Rows, id string, status Status, now time.Time) *sqlmock.Rows {
	return rows.AddRow(
		id, "agent-1", string(status),
		[]byte(`{"first_name":"Jamie","last_name":"Ng"}`), nil, []byte(`[]`),
		nil, nil, nil, nil, nil, now, now,
	)
}

func TestPGStoreFindApplication(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("select .+ from applications where id").
		WithArgs("app-1").
		WillReturnRows(addAppRow(sqlmock.NewRows(appTestColumns), "app-1", StatusDraft, now))

	store := NewPGStore(db)
	app, err := store.FindApplication(context.Background(), "app-1")
	if err != nil {
		t.Fatalf("FindApplication: %v", err)
	}
	if app.ID != "app-1" || app.Status != StatusDraft {
		t.Fatalf("unexpected application: %+v", app)
	}
	if app.BioInfo.FirstName != "Jamie" {
		t.Fatalf("bio_info not decoded: %+v", app.BioInfo)
	}
	if app.Documents == nil {
		t.Fatal("documents must be non-nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGStoreFindApplicationNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select .+ from applications where id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(appTestColumns))

	store := NewPGStore(db)
	if _, err := store.FindApplication(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPGStoreListApplicationsOrdersNewestFirst(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows(appTestColumns)
	addAppRow(rows, "app-2", StatusSubmitted, now)
	addAppRow(rows, "app-1", StatusDraft, now.Add(-time.Hour))
	mock.ExpectQuery(`select .+ from applications where agent_id = \$1 order by created_at desc, id desc`).
		WithArgs("agent-1").
		WillReturnRows(rows)

	store := NewPGStore(db)
	apps, err := store.ListApplications(context.Background(), "agent-1", nil)
	if err != nil {
		t.Fatalf("ListApplications: %v", err)
	}
	if len(apps) != 2 || apps[0].ID != "app-2" {
		t.Fatalf("unexpected list: %+v", apps)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGStoreListApplicationsWithStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`select .+ from applications where agent_id = \$1 and status = \$2`).
		WithArgs("agent-1", "in_review").
		WillReturnRows(sqlmock.NewRows(appTestColumns))

	store := NewPGStore(db)
	inReview := StatusInReview
	apps, err := store.ListApplications(context.Background(), "agent-1", &inReview)
	if err != nil {
		t.Fatalf("ListApplications: %v", err)
	}
	if apps == nil || len(apps) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", apps)
	}
}

func TestPGStoreUpdateApplicationBuildsPartialSet(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`update applications set status = \$1, notes = \$2, updated_at = \$3 where id = \$4 returning`).
		WithArgs("submitted", "looks good", now, "app-1").
		WillReturnRows(addAppRow(sqlmock.NewRows(appTestColumns), "app-1", StatusSubmitted, now))

	store := NewPGStore(db)
	status := StatusSubmitted
	notes := "looks good"
	app, err := store.UpdateApplication(context.Background(), "app-1", Update{Status: &status, Notes: &notes}, nil, now)
	if err != nil {
		t.Fatalf("UpdateApplication: %v", err)
	}
	if app.Status != StatusSubmitted {
		t.Fatalf("status = %s", app.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGStoreAppendDocumentSingleStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows(appTestColumns).AddRow(
		"app-1", "agent-1", "in_review",
		[]byte(`{"first_name":"Jamie","last_name":"Ng"}`), nil,
		[]byte(`[{"type":"pay_stub","url":"https://cdn.example/doc.pdf","uploaded_at":"2026-08-20T12:00:00Z"}]`),
		nil, "pay_stub", "https://cdn.example/doc.pdf", nil, now, now, now,
	)
	mock.ExpectQuery("update applications").
		WithArgs(sqlmock.AnyArg(), "pay_stub", "https://cdn.example/doc.pdf", now, "in_review", "app-1").
		WillReturnRows(rows)

	store := NewPGStore(db)
	doc := Document{Type: "pay_stub", URL: "https://cdn.example/doc.pdf", UploadedAt: now}
	app, err := store.AppendDocument(context.Background(), "app-1", doc, now)
	if err != nil {
		t.Fatalf("AppendDocument: %v", err)
	}
	if app.Status != StatusInReview || len(app.Documents) != 1 {
		t.Fatalf("unexpected application: %+v", app)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGStoreCountApplicationsWithBounds(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	before := from.AddDate(0, 0, 7)
	mock.ExpectQuery(`select count\(\*\) from applications where agent_id = \$1 and created_at >= \$2 and created_at < \$3`).
		WithArgs("agent-1", from, before).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	store := NewPGStore(db)
	count, err := store.CountApplications(context.Background(), Filter{
		AgentID:       "agent-1",
		CreatedFrom:   &from,
		CreatedBefore: &before,
	})
	if err != nil {
		t.Fatalf("CountApplications: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
}

func TestPGStoreLinkLifecycle(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectExec("insert into application_links").
		WithArgs("link-1", "agent-1", true, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("select .+ from application_links where id").
		WithArgs("link-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "agent_id", "is_active", "created_at"}).
			AddRow("link-1", "agent-1", true, now))
	mock.ExpectExec("update application_links set is_active = false").
		WithArgs("link-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewPGStore(db)
	if err := store.InsertLink(context.Background(), &Link{ID: "link-1", AgentID: "agent-1", IsActive: true, CreatedAt: now}); err != nil {
		t.Fatalf("InsertLink: %v", err)
	}
	l, err := store.FindLink(context.Background(), "link-1")
	if err != nil {
		t.Fatalf("FindLink: %v", err)
	}
	if l.AgentID != "agent-1" || !l.IsActive {
		t.Fatalf("unexpected link: %+v", l)
	}
	if err := store.DeactivateLink(context.Background(), "link-1"); err != nil {
		t.Fatalf("DeactivateLink: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
