package authn

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fyrsmithlabs/reportd/internal/project"
	"github.com/fyrsmithlabs/reportd/internal/store"
)

// Mailer delivers password reset links. The SMTP implementation lives
// in internal/mail; tests substitute a recorder.
type Mailer interface {
	SendResetLink(ctx context.Context, to, link string) error
}

// Service implements signup, login and the password reset flow on top
// of the user and reset-token stores.
type Service struct {
	users    *store.UserStore
	tokens   *store.ResetTokenStore
	issuer   *TokenIssuer
	mailer   Mailer
	baseURL  string
	projects *project.Registry
	logger   *zap.Logger
}

// NewService validates its dependencies and returns a ready service.
// mailer may be nil, in which case reset links are only logged.
func NewService(users *store.UserStore, tokens *store.ResetTokenStore, issuer *TokenIssuer, mailer Mailer, baseURL string, projects *project.Registry, logger *zap.Logger) (*Service, error) {
	if users == nil {
		return nil, errors.New("user store is required")
	}
	if tokens == nil {
		return nil, errors.New("reset token store is required")
	}
	if issuer == nil {
		return nil, errors.New("token issuer is required")
	}
	if projects == nil {
		return nil, errors.New("project registry is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:    users,
		tokens:   tokens,
		issuer:   issuer,
		mailer:   mailer,
		baseURL:  strings.TrimRight(baseURL, "/"),
		projects: projects,
		logger:   logger.Named("authn"),
	}, nil
}

// Signup creates a password-based account and returns a bearer token.
func (s *Service) Signup(ctx context.Context, name, email, password string) (string, error) {
	name = strings.TrimSpace(name)
	email = store.NormalizeEmail(email)
	if name == "" || email == "" {
		return "", errors.New("name and email are required")
	}
	if len(password) < 8 {
		return "", errors.New("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	// New accounts start with access to every known project.
	user := &store.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Projects:     s.projects.IDs(),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return "", err
	}
	s.logger.Info("user signed up", zap.String("user_id", user.ID))
	return s.issuer.Issue(user.ID, user.Name, user.Email)
}

// Login verifies a password and returns a bearer token. Accounts
// created through Google have no password hash and cannot log in here.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if user.PasswordHash == "" {
		return "", ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}
	return s.issuer.Issue(user.ID, user.Name, user.Email)
}

// ForgotPassword issues a single-use reset token and mails the link.
// Unknown emails succeed silently so the endpoint does not reveal
// which addresses have accounts. The returned link is non-empty only
// when link exposure is wanted by the caller (dev mode).
func (s *Service) ForgotPassword(ctx context.Context, email string, exposeLink bool) (string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	token, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("issue reset token: %w", err)
	}
	link := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, token)
	if s.mailer != nil {
		if err := s.mailer.SendResetLink(ctx, user.Email, link); err != nil {
			return "", fmt.Errorf("send reset mail: %w", err)
		}
	} else {
		s.logger.Info("password reset link issued", zap.String("user_id", user.ID))
	}
	if exposeLink {
		return link, nil
	}
	return "", nil
}

// ResetPassword consumes a reset token and sets a new password.
func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	userID, err := s.tokens.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrBadToken
		}
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.SetPasswordHash(ctx, userID, string(hash)); err != nil {
		return err
	}
	s.logger.Info("password reset", zap.String("user_id", userID))
	return nil
}
