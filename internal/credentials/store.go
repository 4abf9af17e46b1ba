// Package credentials stores per-user OAuth grants and hands out live
// access tokens for the Google services.
package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/capitalize-ai/workspace-assistant/internal/model"
)

var (
	// ErrNotConnected is returned when the user has no grant for a service.
	ErrNotConnected = errors.New("credentials: service not connected")
	// ErrRefreshFailed is returned when an expired token could not be renewed.
	ErrRefreshFailed = errors.New("credentials: token refresh failed")
)

const timeLayout = time.RFC3339Nano

// Store is a SQLite-backed credential table keyed by (user, service).
type Store struct {
	conn *sql.DB
}

// Open opens (or creates) the credential database at the given path.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	conn, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if _, err := conn.Exec(Schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &Store{conn: conn}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// Get returns the grant for (user, service) or ErrNotConnected.
func (s *Store) Get(ctx context.Context, userID string, service model.Service) (*model.Credential, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT user_id, service, access_token, refresh_token, expiry,
		       account_email, scopes, created_at, updated_at
		FROM credentials
		WHERE user_id = ? AND service = ?`, userID, string(service))

	cred, err := scanCredential(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotConnected
	}
	if err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}
	return cred, nil
}

// Upsert inserts the grant or updates it in place. CreatedAt is preserved on update.
func (s *Store) Upsert(ctx context.Context, cred *model.Credential) error {
	now := time.Now().UTC()
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = now
	}
	cred.UpdatedAt = now

	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO credentials
			(user_id, service, access_token, refresh_token, expiry, account_email, scopes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, service) DO UPDATE SET
			access_token  = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expiry        = excluded.expiry,
			account_email = excluded.account_email,
			scopes        = excluded.scopes,
			updated_at    = excluded.updated_at`,
		cred.UserID, string(cred.Service), cred.AccessToken, cred.RefreshToken,
		formatTime(cred.Expiry), cred.AccountEmail, cred.ScopeString(),
		formatTime(cred.CreatedAt), formatTime(cred.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert credential: %w", err)
	}
	return nil
}

// Delete removes one grant. Deleting a missing grant is not an error.
func (s *Store) Delete(ctx context.Context, userID string, service model.Service) error {
	if _, err := s.conn.ExecContext(ctx,
		"DELETE FROM credentials WHERE user_id = ? AND service = ?", userID, string(service)); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

// DeleteUser removes every grant the user holds and reports how many went.
func (s *Store) DeleteUser(ctx context.Context, userID string) (int64, error) {
	res, err := s.conn.ExecContext(ctx, "DELETE FROM credentials WHERE user_id = ?", userID)
	if err != nil {
		return 0, fmt.Errorf("delete user credentials: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// List returns every grant the user holds, ordered by service.
func (s *Store) List(ctx context.Context, userID string) ([]*model.Credential, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT user_id, service, access_token, refresh_token, expiry,
		       account_email, scopes, created_at, updated_at
		FROM credentials
		WHERE user_id = ?
		ORDER BY service ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var creds []*model.Credential
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		creds = append(creds, cred)
	}
	return creds, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCredential(row scanner) (*model.Credential, error) {
	var (
		cred                     model.Credential
		service, scopes          string
		expiry, created, updated string
	)
	if err := row.Scan(&cred.UserID, &service, &cred.AccessToken, &cred.RefreshToken,
		&expiry, &cred.AccountEmail, &scopes, &created, &updated); err != nil {
		return nil, err
	}
	cred.Service = model.Service(service)
	cred.Scopes = strings.Fields(scopes)
	cred.Expiry = parseTime(expiry)
	cred.CreatedAt = parseTime(created)
	cred.UpdatedAt = parseTime(updated)
	return &cred, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
