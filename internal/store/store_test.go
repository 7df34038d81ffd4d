package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "qa@example.com", NormalizeEmail("  QA@Example.COM "))
	assert.Equal(t, "a@b.c", NormalizeEmail("a@b.c"))
}

func TestHashToken_StableAndOpaque(t *testing.T) {
	h1 := HashToken("secret")
	h2 := HashToken("secret")
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
	assert.NotContains(t, h1, "secret")
	assert.NotEqual(t, h1, HashToken("secret2"))
}

func TestStore_NotReadyBeforeConnect(t *testing.T) {
	s := New(DefaultConfig(), zap.NewNop())
	require.False(t, s.Connected())

	_, err := s.Reports().ListByOwner(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrNotReady)

	_, err = s.Users().FindByEmail(context.Background(), "a@b.c")
	assert.ErrorIs(t, err, ErrNotReady)

	_, err = s.ResetTokens().Issue(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestStore_NotReadyWhileGateStillClosed(t *testing.T) {
	s := New(DefaultConfig(), zap.NewNop())

	// A connect attempt can hold handles before the gate flips. The
	// gate alone must decide readiness.
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(s.cfg.URI))
	require.NoError(t, err)
	defer client.Disconnect(context.Background())
	s.client = client
	s.db = client.Database(s.cfg.Database)
	require.False(t, s.Connected())

	_, err = s.collection(reportsCollection)
	assert.ErrorIs(t, err, ErrNotReady)

	_, err = s.Reports().ListByOwner(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrNotReady)

	s.connected.Store(true)
	_, err = s.collection(reportsCollection)
	assert.NoError(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "mongodb://localhost:27017", cfg.URI)
	assert.Equal(t, "reportd", cfg.Database)
	assert.NotZero(t, cfg.RetryInterval)
}
