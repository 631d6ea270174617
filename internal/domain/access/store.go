package access

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGStore struct {
	DB *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{DB: db}
}

const userColumns = `id::text, name, email, role, level, custom_overrides, updated_at`

func scanUser(row pgx.Row, extra ...any) (User, error) {
	var u User
	var level string
	var overrides []string
	var updated time.Time
	dest := append([]any{&u.ID, &u.Name, &u.Email, &u.Role, &level, &overrides, &updated}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	// Stored keys that left the catalog are dropped here, not rejected.
	u.Level = ParseLevel(level)
	u.CustomOverrides = ParseFeatures(overrides)
	u.UpdatedAt = updated
	return u, nil
}

func (s *PGStore) GetUser(ctx context.Context, userID string) (User, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+userColumns+`
    FROM users
    WHERE id::text = $1 AND status = 'active'
  `, userID)
	return scanUser(row)
}

func (s *PGStore) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+userColumns+`
    FROM users
    WHERE status = 'active'
    ORDER BY name, email
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *PGStore) FindCredentials(ctx context.Context, email string) (Credentials, error) {
	var creds Credentials
	row := s.DB.QueryRow(ctx, `
    SELECT `+userColumns+`, password_hash, mfa_enabled, mfa_secret
    FROM users
    WHERE lower(email) = lower($1) AND status = 'active'
  `, email)
	u, err := scanUser(row, &creds.PasswordHash, &creds.MFA.Enabled, &creds.MFA.Secret)
	if err != nil {
		return Credentials{}, err
	}
	creds.User = u
	return creds, nil
}

func (s *PGStore) SavePermissions(ctx context.Context, userID string, level Level, overrides []Feature) error {
	return s.execActive(ctx, `
    UPDATE users
    SET level = $1, custom_overrides = $2, updated_at = now()
    WHERE id::text = $3 AND status = 'active'
  `, string(level.Normalize()), FeatureStrings(overrides), userID)
}

func (s *PGStore) GetMFA(ctx context.Context, userID string) (MFAState, error) {
	var state MFAState
	err := s.DB.QueryRow(ctx, `
    SELECT mfa_enabled, mfa_secret
    FROM users
    WHERE id::text = $1 AND status = 'active'
  `, userID).Scan(&state.Enabled, &state.Secret)
	if errors.Is(err, pgx.ErrNoRows) {
		return MFAState{}, ErrUserNotFound
	}
	return state, err
}

func (s *PGStore) SetMFASecret(ctx context.Context, userID, secret string) error {
	return s.execActive(ctx, `
    UPDATE users SET mfa_secret = $1, mfa_enabled = false, updated_at = now()
    WHERE id::text = $2 AND status = 'active'
  `, secret, userID)
}

func (s *PGStore) SetMFAEnabled(ctx context.Context, userID string, enabled bool) error {
	return s.execActive(ctx, `
    UPDATE users SET mfa_enabled = $1, updated_at = now()
    WHERE id::text = $2 AND status = 'active'
  `, enabled, userID)
}

func (s *PGStore) execActive(ctx context.Context, sql string, args ...any) error {
	tag, err := s.DB.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
