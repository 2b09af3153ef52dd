package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lixiang810/HV-Com/internal/models"
	"github.com/lixiang810/HV-Com/internal/websocket"
)

// Store is the storage-provider contract the rest of the process depends on.
// It composes the identity and session operations behind one substitution
// point: a different backend implementing this interface replaces the whole
// provider without touching any caller.
type Store interface {
	// Init must complete once before any other operation is issued.
	Init(ctx context.Context) error
	Close()
	Ping(ctx context.Context) error
	ExecTx(ctx context.Context, fn func(*Queries) error) error

	CreateUser(ctx context.Context, arg CreateUserParams) error
	GetProfile(ctx context.Context, sel UserSelector) (*models.Profile, error)
	GetCredentials(ctx context.Context, sel UserSelector) (*models.User, error)
	UpdateUser(ctx context.Context, id string, arg UpdateUserParams) error
	DeleteUser(ctx context.Context, id string) error

	CreateSession(ctx context.Context, arg CreateSessionParams) (*models.Session, error)
	GetSession(ctx context.Context, sessionID uuid.UUID) (*models.Session, error)
	GetUserBySession(ctx context.Context, sessionID uuid.UUID) (*models.User, error)
	ListSessionsForUser(ctx context.Context, userID string) ([]models.Session, error)
	DeleteSession(ctx context.Context, sessionID uuid.UUID, userID string) error
	DeleteAllSessionsForUser(ctx context.Context, userID string) error
	PurgeSessionsBefore(ctx context.Context, userID string, before int64) (int64, error)

	PublishAccountEvent(userID string, eventType string, payload interface{}) error
}

// PostgresStore is the pgx-backed provider. Queries are promoted so the
// contract methods run directly against the pool; ExecTx reruns them inside
// a transaction when a flow needs atomicity.
type PostgresStore struct {
	pool  *pgxpool.Pool
	wsHub *websocket.Hub
	*Queries
}

var _ Store = (*PostgresStore)(nil)

func NewStore(pool *pgxpool.Pool, wsHub *websocket.Hub) *PostgresStore {
	return &PostgresStore{
		pool:    pool,
		wsHub:   wsHub,
		Queries: New(pool),
	}
}

func (s *PostgresStore) Init(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) ExecTx(ctx context.Context, fn func(*Queries) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	q := New(tx)
	err = fn(q)
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx err: %v, rb err: %v", err, rbErr)
		}
		return err
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) GetPool() *pgxpool.Pool {
	return s.pool
}
