// Package store provides MongoDB persistence for reports, users and
// password-reset tokens, behind a connection readiness gate.
package store

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var (
	// ErrNotReady is returned while the database connection has not yet
	// been established. Handlers map it to 503.
	ErrNotReady = errors.New("store: database not connected")

	// ErrNotOwner is returned when a report id already exists under a
	// different owner. Handlers map it to 403.
	ErrNotOwner = errors.New("store: report belongs to another user")

	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicateEmail is returned when signup hits an existing email.
	ErrDuplicateEmail = errors.New("store: email already registered")
)

// Config holds database connection settings.
type Config struct {
	URI            string        `koanf:"uri"`
	Database       string        `koanf:"database"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
	RetryInterval  time.Duration `koanf:"retry_interval"`
}

// DefaultConfig returns the local development defaults.
func DefaultConfig() *Config {
	return &Config{
		URI:            "mongodb://localhost:27017",
		Database:       "reportd",
		ConnectTimeout: 10 * time.Second,
		RetryInterval:  5 * time.Second,
	}
}

// Store owns the mongo client and hands out collection-scoped stores.
// Until Connect succeeds, Connected reports false and every operation
// returns ErrNotReady.
type Store struct {
	cfg    *Config
	logger *zap.Logger

	client    *mongo.Client
	db        *mongo.Database
	connected atomic.Bool
}

// New creates a disconnected store.
func New(cfg *Config, logger *zap.Logger) *Store {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{cfg: cfg, logger: logger}
}

// Connect dials the database, retrying on a fixed interval until it
// succeeds or ctx is cancelled. On success it ensures indexes and flips
// the readiness gate.
func (s *Store) Connect(ctx context.Context) error {
	for {
		err := s.tryConnect(ctx)
		if err == nil {
			s.connected.Store(true)
			s.logger.Info("database connected",
				zap.String("database", s.cfg.Database))
			return nil
		}

		s.logger.Warn("database connect failed, retrying",
			zap.Error(err),
			zap.Duration("retry_in", s.cfg.RetryInterval))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.cfg.RetryInterval):
		}
	}
}

func (s *Store) tryConnect(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(dialCtx, options.Client().ApplyURI(s.cfg.URI))
	if err != nil {
		return err
	}
	if err := client.Ping(dialCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return err
	}

	// Assign only after indexes exist, so a failed attempt leaves no
	// half-initialized handles behind the readiness gate.
	db := client.Database(s.cfg.Database)
	if err := s.ensureIndexes(dialCtx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return err
	}

	s.client = client
	s.db = db
	return nil
}

// Connected reports whether the readiness gate is open.
func (s *Store) Connected() bool { return s.connected.Load() }

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	s.connected.Store(false)
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

// Reports returns the report collection store.
func (s *Store) Reports() *ReportStore {
	return &ReportStore{store: s, logger: s.logger.Named("reports")}
}

// Users returns the user collection store.
func (s *Store) Users() *UserStore {
	return &UserStore{store: s, logger: s.logger.Named("users")}
}

// ResetTokens returns the password-reset token store.
func (s *Store) ResetTokens() *ResetTokenStore {
	return &ResetTokenStore{store: s, logger: s.logger.Named("reset_tokens")}
}

// collection returns a handle or ErrNotReady while the readiness gate
// is closed. The gate alone decides: handles assigned by an attempt
// that has not flipped it yet must stay unreachable.
func (s *Store) collection(name string) (*mongo.Collection, error) {
	if !s.connected.Load() {
		return nil, ErrNotReady
	}
	return s.db.Collection(name), nil
}
