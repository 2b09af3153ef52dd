package database

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lixiang810/HV-Com/internal/models"
)

type CreateUserParams struct {
	ID         string
	Username   string
	Password   string
	Avatar     string
	Mail       string
	Website    string
	TrustLevel int
}

// CreateUser inserts a user row, stamping last_revoke_time with the current
// time. Re-creating an existing id is an idempotent upsert that refreshes
// only last_revoke_time, so an account can be re-provisioned without
// clobbering its other fields.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) error {
	query := `
		INSERT INTO users (id, username, password, avatar, mail, website, trust_level, last_revoke_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET last_revoke_time = EXCLUDED.last_revoke_time
	`
	_, err := q.db.Exec(ctx, query,
		arg.ID, arg.Username, arg.Password, arg.Avatar, arg.Mail, arg.Website,
		arg.TrustLevel, time.Now().Unix(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrUsernameTaken
		}
		return err
	}
	return nil
}

// UserSelector picks a user by id or by username. Exactly one field should
// be set; an empty selector matches nothing.
type UserSelector struct {
	ID       string
	Username string
}

func (sel UserSelector) clause() (string, string, bool) {
	if sel.ID != "" {
		return "id = $1", sel.ID, true
	}
	if sel.Username != "" {
		return "username = $1", sel.Username, true
	}
	return "", "", false
}

// GetProfile returns the public projection of a user, or nil when no row
// matches. Secret fields are not part of the query.
func (q *Queries) GetProfile(ctx context.Context, sel UserSelector) (*models.Profile, error) {
	where, arg, ok := sel.clause()
	if !ok {
		return nil, nil
	}

	query := `
		SELECT id, username, avatar, mail, website, trust_level
		FROM users
		WHERE ` + where

	var profile models.Profile
	err := q.db.QueryRow(ctx, query, arg).Scan(
		&profile.ID,
		&profile.Username,
		&profile.Avatar,
		&profile.Mail,
		&profile.Website,
		&profile.TrustLevel,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &profile, nil
}

// GetCredentials returns the full user row including the password hash and
// last_revoke_time. Only the authentication paths may call it; everything
// else goes through GetProfile.
func (q *Queries) GetCredentials(ctx context.Context, sel UserSelector) (*models.User, error) {
	where, arg, ok := sel.clause()
	if !ok {
		return nil, nil
	}

	query := `
		SELECT id, username, password, avatar, mail, website, trust_level, last_revoke_time
		FROM users
		WHERE ` + where

	var user models.User
	err := q.db.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Password,
		&user.Avatar,
		&user.Mail,
		&user.Website,
		&user.TrustLevel,
		&user.LastRevokeTime,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

type UpdateUserParams struct {
	Avatar         *string
	Mail           *string
	Website        *string
	TrustLevel     *int
	LastRevokeTime *int64
}

// UpdateUser applies a partial update; nil fields are left untouched.
// Setting LastRevokeTime is the revocation trigger: one write invalidates
// every session issued before it, however many exist. The column only moves
// forward, so a stale update can never un-revoke.
func (q *Queries) UpdateUser(ctx context.Context, id string, arg UpdateUserParams) error {
	query := `
		UPDATE users
		SET
			avatar = COALESCE($2, avatar),
			mail = COALESCE($3, mail),
			website = COALESCE($4, website),
			trust_level = COALESCE($5, trust_level),
			last_revoke_time = GREATEST(last_revoke_time, COALESCE($6, last_revoke_time))
		WHERE id = $1
	`
	res, err := q.db.Exec(ctx, query, id, arg.Avatar, arg.Mail, arg.Website, arg.TrustLevel, arg.LastRevokeTime)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// DeleteUser removes the user row. Session rows cascade at the schema level.
func (q *Queries) DeleteUser(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`
	res, err := q.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
