package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"blog-service/internal/db"
)

// SQLStore implements Store on top of database/sql.
type SQLStore struct {
	db *db.DB
}

func NewSQLStore(d *db.DB) *SQLStore {
	return &SQLStore{db: d}
}

const userColumns = `u.id, u.email, u.first_name, u.last_name, u.password_hash`

func scanUser(row *sql.Row) (*User, error) {
	var (
		u    User
		hash sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &hash); err != nil {
		return nil, err
	}
	u.PasswordHash = hash.String
	return &u, nil
}

func (s *SQLStore) FindByID(ctx context.Context, id int64) (*User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, s.db.Rebind(`
		SELECT `+userColumns+`
		FROM users u
		WHERE u.id = ?
	`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user: find by id: %w", err)
	}
	return u, nil
}

func (s *SQLStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, s.db.Rebind(`
		SELECT `+userColumns+`
		FROM users u
		WHERE u.email = ?
	`), NormalizeEmail(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user: find by email: %w", err)
	}
	return u, nil
}

func (s *SQLStore) FindByFederatedID(ctx context.Context, provider, subject string) (*User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, s.db.Rebind(`
		SELECT `+userColumns+`
		FROM identities i
		JOIN users u ON u.id = i.user_id
		WHERE i.provider = ?
		  AND i.provider_user_id = ?
	`), provider, subject))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("user: find by federated id: %w", err)
	}
	return u, nil
}

func (s *SQLStore) Create(ctx context.Context, nu NewUser) (*User, error) {
	u := &User{
		Email:        NormalizeEmail(nu.Email),
		FirstName:    nu.FirstName,
		LastName:     nu.LastName,
		PasswordHash: nu.PasswordHash,
	}

	err := s.db.QueryRowContext(ctx, s.db.Rebind(`
		INSERT INTO users (email, first_name, last_name, password_hash)
		VALUES (?, ?, ?, ?)
		ON CONFLICT DO NOTHING
		RETURNING id
	`), u.Email, u.FirstName, u.LastName, nullable(u.PasswordHash)).Scan(&u.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("user: create: %w", err)
	}
	return u, nil
}

func (s *SQLStore) CreateFederated(ctx context.Context, p FederatedProfile) (*User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("user: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	u := &User{
		Email:     NormalizeEmail(p.Email),
		FirstName: p.FirstName,
		LastName:  p.LastName,
	}

	// 1. Create user (no password)
	err = tx.QueryRowContext(ctx, s.db.Rebind(`
		INSERT INTO users (email, first_name, last_name)
		VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING
		RETURNING id
	`), u.Email, u.FirstName, u.LastName).Scan(&u.ID)
	if errors.Is(err, sql.ErrNoRows) {
		_ = tx.Rollback()
		// A concurrent request for the same identity may have won the race.
		if existing, ferr := s.FindByFederatedID(ctx, p.Provider, p.Subject); ferr == nil && existing != nil {
			return existing, nil
		}
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("user: create federated: %w", err)
	}

	// 2. Bind the external identifier
	var boundUserID int64
	err = tx.QueryRowContext(ctx, s.db.Rebind(`
		INSERT INTO identities (user_id, provider, provider_user_id)
		VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING
		RETURNING user_id
	`), u.ID, p.Provider, p.Subject).Scan(&boundUserID)
	if errors.Is(err, sql.ErrNoRows) {
		_ = tx.Rollback()
		existing, ferr := s.FindByFederatedID(ctx, p.Provider, p.Subject)
		if ferr != nil {
			return nil, ferr
		}
		if existing == nil {
			return nil, fmt.Errorf("user: identity %s/%s conflicted but was not found", p.Provider, p.Subject)
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("user: bind identity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("user: commit: %w", err)
	}
	return u, nil
}

func (s *SQLStore) LinkFederatedID(ctx context.Context, userID int64, provider, subject string) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO identities (user_id, provider, provider_user_id)
		VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING
	`), userID, provider, subject)
	if err != nil {
		return fmt.Errorf("user: link identity: %w", err)
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
