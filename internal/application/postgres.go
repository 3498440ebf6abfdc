package application

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const appColumns = "id, agent_id, status, bio_info, orea_form, documents, notes, document_type, document_url, bio_submitted_at, document_uploaded_at, created_at, updated_at"

// PGStore persists applications and links in PostgreSQL.
type PGStore struct {
	db *sql.DB
}

// NewPGStore wraps an open connection pool.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) InsertApplication(ctx context.Context, a *Application) error {
	bio, err := json.Marshal(a.BioInfo)
	if err != nil {
		return fmt.Errorf("marshal bio_info: %w", err)
	}
	docs, err := json.Marshal(a.Documents)
	if err != nil {
		return fmt.Errorf("marshal documents: %w", err)
	}
	var form []byte
	if a.OREAForm != nil {
		if form, err = json.Marshal(a.OREAForm); err != nil {
			return fmt.Errorf("marshal orea_form: %w", err)
		}
	}
	_, err = s.db.ExecContext(ctx, `
		insert into applications (`+appColumns+`)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, a.ID, a.AgentID, string(a.Status), bio, nullBytes(form), docs,
		nullString(a.Notes), nullString(a.DocumentType), nullString(a.DocumentURL),
		a.BioSubmittedAt, a.DocumentUploadedAt, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (s *PGStore) FindApplication(ctx context.Context, id string) (*Application, error) {
	row := s.db.QueryRowContext(ctx, `select `+appColumns+` from applications where id = $1`, id)
	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return app, nil
}

func (s *PGStore) ListApplications(ctx context.Context, agentID string, status *Status) ([]*Application, error) {
	query := `select ` + appColumns + ` from applications where agent_id = $1`
	args := []any{agentID}
	if status != nil {
		query += ` and status = $2`
		args = append(args, string(*status))
	}
	query += ` order by created_at desc, id desc`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	apps := []*Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

func (s *PGStore) UpdateApplication(ctx context.Context, id string, upd Update, bioSubmittedAt *time.Time, now time.Time) (*Application, error) {
	sets := []string{}
	args := []any{}
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if upd.Status != nil {
		sets = append(sets, "status = "+next(string(*upd.Status)))
	}
	if upd.BioInfo != nil {
		bio, err := json.Marshal(upd.BioInfo)
		if err != nil {
			return nil, fmt.Errorf("marshal bio_info: %w", err)
		}
		sets = append(sets, "bio_info = "+next(bio))
	}
	if upd.OREAForm != nil {
		form, err := json.Marshal(upd.OREAForm)
		if err != nil {
			return nil, fmt.Errorf("marshal orea_form: %w", err)
		}
		sets = append(sets, "orea_form = "+next(form))
	}
	if upd.Notes != nil {
		sets = append(sets, "notes = "+next(*upd.Notes))
	}
	if bioSubmittedAt != nil {
		sets = append(sets, "bio_submitted_at = "+next(*bioSubmittedAt))
	}
	if len(sets) == 0 {
		return s.FindApplication(ctx, id)
	}
	sets = append(sets, "updated_at = "+next(now))

	query := `update applications set ` + strings.Join(sets, ", ") +
		` where id = ` + next(id) + ` returning ` + appColumns

	row := s.db.QueryRowContext(ctx, query, args...)
	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return app, nil
}

// AppendDocument pushes the document onto the jsonb array in a single
// statement so concurrent attachments never lose entries, stamps the
// upload time, refreshes the latest-document mirror and forces the
// status to in_review.
func (s *PGStore) AppendDocument(ctx context.Context, id string, doc Document, now time.Time) (*Application, error) {
	payload, err := json.Marshal([]Document{doc})
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	row := s.db.QueryRowContext(ctx, `
		update applications
		set documents = coalesce(documents, '[]'::jsonb) || $1::jsonb,
		    document_type = $2,
		    document_url = $3,
		    document_uploaded_at = $4,
		    status = $5,
		    updated_at = $4
		where id = $6
		returning `+appColumns,
		payload, doc.Type, doc.URL, now, string(StatusInReview), id)
	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return app, nil
}

func (s *PGStore) CountApplications(ctx context.Context, f Filter) (int, error) {
	query := `select count(*) from applications where agent_id = $1`
	args := []any{f.AgentID}
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if f.Status != nil {
		query += ` and status = ` + next(string(*f.Status))
	}
	if f.CreatedFrom != nil {
		query += ` and created_at >= ` + next(*f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		query += ` and created_at <= ` + next(*f.CreatedTo)
	}
	if f.CreatedBefore != nil {
		query += ` and created_at < ` + next(*f.CreatedBefore)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count applications: %w", err)
	}
	return count, nil
}

func (s *PGStore) ListCompleted(ctx context.Context, f Filter) ([]*Application, error) {
	query := `select ` + appColumns + ` from applications
		where agent_id = $1 and status = $2
		and bio_submitted_at is not null and document_uploaded_at is not null`
	args := []any{f.AgentID, string(StatusApproved)}
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if f.CreatedFrom != nil {
		query += ` and created_at >= ` + next(*f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		query += ` and created_at <= ` + next(*f.CreatedTo)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list completed: %w", err)
	}
	defer rows.Close()

	apps := []*Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

func (s *PGStore) InsertLink(ctx context.Context, l *Link) error {
	_, err := s.db.ExecContext(ctx, `
		insert into application_links (id, agent_id, is_active, created_at)
		values ($1, $2, $3, $4)
	`, l.ID, nullString(l.AgentID), l.IsActive, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert link: %w", err)
	}
	return nil
}

func (s *PGStore) FindLink(ctx context.Context, id string) (*Link, error) {
	var (
		l       Link
		agentID sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		select id, agent_id, is_active, created_at from application_links where id = $1
	`, id).Scan(&l.ID, &agentID, &l.IsActive, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find link: %w", err)
	}
	l.AgentID = agentID.String
	return &l, nil
}

func (s *PGStore) DeactivateLink(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `update application_links set is_active = false where id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate link: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*Application, error) {
	var (
		a                   Application
		status              string
		bio, form, docs     []byte
		notes, docType, url sql.NullString
		bioAt, docAt        sql.NullTime
	)
	err := row.Scan(&a.ID, &a.AgentID, &status, &bio, &form, &docs,
		&notes, &docType, &url, &bioAt, &docAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Status = Status(status)
	if len(bio) > 0 {
		if err := json.Unmarshal(bio, &a.BioInfo); err != nil {
			return nil, fmt.Errorf("unmarshal bio_info: %w", err)
		}
	}
	if len(form) > 0 {
		a.OREAForm = &OREAForm{}
		if err := json.Unmarshal(form, a.OREAForm); err != nil {
			return nil, fmt.Errorf("unmarshal orea_form: %w", err)
		}
	}
	a.Documents = []Document{}
	if len(docs) > 0 {
		if err := json.Unmarshal(docs, &a.Documents); err != nil {
			return nil, fmt.Errorf("unmarshal documents: %w", err)
		}
		if a.Documents == nil {
			a.Documents = []Document{}
		}
	}
	a.Notes = notes.String
	a.DocumentType = docType.String
	a.DocumentURL = url.String
	if bioAt.Valid {
		ts := bioAt.Time
		a.BioSubmittedAt = &ts
	}
	if docAt.Valid {
		ts := docAt.Time
		a.DocumentUploadedAt = &ts
	}
	return &a, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
