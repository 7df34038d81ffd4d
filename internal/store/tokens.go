package store

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const resetTokensCollection = "reset_tokens"

// ResetTokenTTL is how long a password-reset token stays valid.
const ResetTokenTTL = 30 * time.Minute

// resetToken is the persisted form: only the SHA-256 of the token is
// stored, so a database leak does not expose usable reset links.
type resetToken struct {
	TokenHash string    `bson:"token_hash"`
	UserID    string    `bson:"user_id"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// ResetTokenStore persists single-use password-reset tokens.
type ResetTokenStore struct {
	store  *Store
	logger *zap.Logger

	// now is injectable for expiry tests.
	now func() time.Time
}

func (ts *ResetTokenStore) clock() time.Time {
	if ts.now != nil {
		return ts.now()
	}
	return time.Now().UTC()
}

// HashToken returns the hex SHA-256 of a raw token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Issue creates a token for the user and returns its raw form, which is
// only ever sent in the reset email and never stored.
func (ts *ResetTokenStore) Issue(ctx context.Context, userID string) (string, error) {
	coll, err := ts.store.collection(resetTokensCollection)
	if err != nil {
		return "", err
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	raw := hex.EncodeToString(buf)

	doc := resetToken{
		TokenHash: HashToken(raw),
		UserID:    userID,
		ExpiresAt: ts.clock().Add(ResetTokenTTL),
	}
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}

	ts.logger.Info("issued reset token", zap.String("user_id", userID))
	return raw, nil
}

// Consume atomically deletes the token and returns its user id. Expired,
// already-used or unknown tokens all return ErrNotFound, so the token is
// single-use by construction.
func (ts *ResetTokenStore) Consume(ctx context.Context, raw string) (string, error) {
	coll, err := ts.store.collection(resetTokensCollection)
	if err != nil {
		return "", err
	}

	var doc resetToken
	err = coll.FindOneAndDelete(ctx, bson.M{"token_hash": HashToken(raw)}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("consume reset token: %w", err)
	}
	if ts.clock().After(doc.ExpiresAt) {
		return "", ErrNotFound
	}
	return doc.UserID, nil
}
