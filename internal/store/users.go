package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const usersCollection = "users"

// User is one account. Exactly one of PasswordHash or GoogleID is set,
// depending on how the account was created. Email is stored lowercased
// and never changes after signup.
type User struct {
	ID           string    `json:"id" bson:"user_id"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password_hash,omitempty"`
	GoogleID     string    `json:"-" bson:"google_id,omitempty"`
	Projects     []string  `json:"projects" bson:"projects"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
}

// NormalizeEmail lowercases and trims an email for the case-insensitive
// uniqueness rule.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserStore persists accounts.
type UserStore struct {
	store  *Store
	logger *zap.Logger
}

// Create inserts a new account. Duplicate emails are refused with
// ErrDuplicateEmail.
func (us *UserStore) Create(ctx context.Context, u *User) error {
	coll, err := us.store.collection(usersCollection)
	if err != nil {
		return err
	}

	u.Email = NormalizeEmail(u.Email)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	if _, err := coll.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create user %s: %w", u.Email, err)
	}

	us.logger.Info("created user", zap.String("user_id", u.ID), zap.String("email", u.Email))
	return nil
}

// FindByEmail looks an account up by its case-insensitive email.
func (us *UserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	return us.findOne(ctx, bson.M{"email": NormalizeEmail(email)})
}

// FindByGoogleID looks an account up by its Google subject id.
func (us *UserStore) FindByGoogleID(ctx context.Context, googleID string) (*User, error) {
	return us.findOne(ctx, bson.M{"google_id": googleID})
}

// FindByID looks an account up by user id.
func (us *UserStore) FindByID(ctx context.Context, id string) (*User, error) {
	return us.findOne(ctx, bson.M{"user_id": id})
}

// List returns every account, used for owner-name resolution on import.
func (us *UserStore) List(ctx context.Context) ([]User, error) {
	coll, err := us.store.collection(usersCollection)
	if err != nil {
		return nil, err
	}
	cur, err := coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	var out []User
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return out, nil
}

// SetPasswordHash replaces an account's password hash after a reset.
func (us *UserStore) SetPasswordHash(ctx context.Context, userID, hash string) error {
	coll, err := us.store.collection(usersCollection)
	if err != nil {
		return err
	}
	res, err := coll.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": bson.M{"password_hash": hash}})
	if err != nil {
		return fmt.Errorf("set password hash: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (us *UserStore) findOne(ctx context.Context, filter bson.M) (*User, error) {
	coll, err := us.store.collection(usersCollection)
	if err != nil {
		return nil, err
	}
	var u User
	err = coll.FindOne(ctx, filter).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}
