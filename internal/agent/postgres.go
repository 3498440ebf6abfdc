package agent

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const agentColumns = "id, email, password_hash, first_name, last_name, company_name, phone, bio, settings, is_active, is_verified, created_at, updated_at"

// PGStore persists agents in PostgreSQL via database/sql.
type PGStore struct {
	db *sql.DB
}

// NewPGStore wraps an open connection pool.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, a *Agent) error {
	settings, err := json.Marshal(a.Settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		insert into agents (`+agentColumns+`)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, a.ID, a.Email, a.PasswordHash, a.FirstName, a.LastName, a.CompanyName, a.Phone, a.Bio, settings, a.IsActive, a.IsVerified, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert agent: %w", err)
	}
	return nil
}

func (s *PGStore) Find(ctx context.Context, id string) (*Agent, error) {
	row := s.db.QueryRowContext(ctx, `select `+agentColumns+` from agents where id = $1`, id)
	return scanAgent(row)
}

func (s *PGStore) FindByEmail(ctx context.Context, email string) (*Agent, error) {
	row := s.db.QueryRowContext(ctx, `select `+agentColumns+` from agents where email = $1`, email)
	return scanAgent(row)
}

func (s *PGStore) UpdateSettings(ctx context.Context, id string, settings Settings, now time.Time) error {
	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		update agents set settings = $1, updated_at = $2 where id = $3
	`, payload, now, id)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return requireAgentRow(res)
}

func (s *PGStore) SetLogoURL(ctx context.Context, id, url string, now time.Time) error {
	return s.setSettingsField(ctx, id, "logo_url", url, now)
}

func (s *PGStore) SetBackgroundImageURL(ctx context.Context, id, url string, now time.Time) error {
	return s.setSettingsField(ctx, id, "background_image_url", url, now)
}

// setSettingsField updates a single key inside the settings document so
// concurrent writers touching different keys do not clobber each other.
func (s *PGStore) setSettingsField(ctx context.Context, id, field, value string, now time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		update agents
		set settings = jsonb_set(coalesce(settings, '{}'::jsonb), array[$1], to_jsonb($2::text)),
		    updated_at = $3
		where id = $4
	`, field, value, now, id)
	if err != nil {
		return fmt.Errorf("update settings field %s: %w", field, err)
	}
	return requireAgentRow(res)
}

func requireAgentRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAgent(row *sql.Row) (*Agent, error) {
	var (
		a        Agent
		settings []byte
	)
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName, &a.CompanyName,
		&a.Phone, &a.Bio, &settings, &a.IsActive, &a.IsVerified, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan agent: %w", err)
	}
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &a.Settings); err != nil {
			return nil, fmt.Errorf("unmarshal settings: %w", err)
		}
	}
	return &a, nil
}
