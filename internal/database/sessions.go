package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lixiang810/HV-Com/internal/models"
)

type CreateSessionParams struct {
	UserID    string
	UserAgent string
	ClientIP  string
}

// CreateSession mints a fresh random token for the user and returns the full
// row. The returned ID is the bearer credential handed back to the client.
func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) (*models.Session, error) {
	session := models.Session{
		ID:        uuid.New(),
		UserID:    arg.UserID,
		UserAgent: arg.UserAgent,
		ClientIP:  arg.ClientIP,
	}

	query := `
		INSERT INTO sessions (id, user_id, user_agent, client_ip)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	err := q.db.QueryRow(ctx, query, session.ID, session.UserID, session.UserAgent, session.ClientIP).
		Scan(&session.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &session, nil
}

// GetSession looks up a session row by token, nil when unknown.
func (q *Queries) GetSession(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
	query := `
		SELECT id, user_id, user_agent, client_ip, created_at
		FROM sessions
		WHERE id = $1
	`
	var session models.Session
	err := q.db.QueryRow(ctx, query, sessionID).Scan(
		&session.ID,
		&session.UserID,
		&session.UserAgent,
		&session.ClientIP,
		&session.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// GetUserBySession resolves a bearer token to its owning user's full record,
// including last_revoke_time for the revocation check. This is the only path
// from a session token to an identity. Returns nil when the token is unknown.
func (q *Queries) GetUserBySession(ctx context.Context, sessionID uuid.UUID) (*models.User, error) {
	query := `
		SELECT u.id, u.username, u.password, u.avatar, u.mail, u.website, u.trust_level, u.last_revoke_time
		FROM users u
		JOIN sessions s ON u.id = s.user_id
		WHERE s.id = $1
	`
	var user models.User
	err := q.db.QueryRow(ctx, query, sessionID).Scan(
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

func (q *Queries) ListSessionsForUser(ctx context.Context, userID string) ([]models.Session, error) {
	query := `
		SELECT id, user_id, user_agent, client_ip, created_at
		FROM sessions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := q.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var session models.Session
		if err := rows.Scan(
			&session.ID,
			&session.UserID,
			&session.UserAgent,
			&session.ClientIP,
			&session.CreatedAt,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if sessions == nil {
		return []models.Session{}, nil
	}

	return sessions, nil
}

func (q *Queries) DeleteSession(ctx context.Context, sessionID uuid.UUID, userID string) error {
	query := `DELETE FROM sessions WHERE id = $1 AND user_id = $2`
	_, err := q.db.Exec(ctx, query, sessionID, userID)
	return err
}

func (q *Queries) DeleteAllSessionsForUser(ctx context.Context, userID string) error {
	query := `DELETE FROM sessions WHERE user_id = $1`
	_, err := q.db.Exec(ctx, query, userID)
	return err
}

// PurgeSessionsBefore garbage-collects session rows issued at or before the
// given Unix timestamp. Revocation itself never needs this; rows left behind
// are already logically dead once last_revoke_time passes them.
func (q *Queries) PurgeSessionsBefore(ctx context.Context, userID string, before int64) (int64, error) {
	query := `DELETE FROM sessions WHERE user_id = $1 AND created_at <= to_timestamp($2)`
	res, err := q.db.Exec(ctx, query, userID, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}
