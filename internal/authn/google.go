package authn

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/fyrsmithlabs/reportd/internal/project"
	"github.com/fyrsmithlabs/reportd/internal/store"
)

// googleCertsURL serves Google's current token-signing certificates as
// a kid -> PEM map.
const googleCertsURL = "https://www.googleapis.com/oauth2/v1/certs"

// stateTTL bounds how long a login may sit between redirect and callback.
const stateTTL = 10 * time.Minute

// ErrBadState is returned when a callback carries an unknown or expired
// state parameter.
var ErrBadState = errors.New("authn: unknown or expired oauth state")

// GoogleConfig carries the OAuth client registration.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Enabled reports whether Google sign-in is configured.
func (c GoogleConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RedirectURL != ""
}

// googleClaims are the ID token fields we use.
type googleClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// stateStore tracks outstanding OAuth states. Entries expire after
// stateTTL and are swept on each use.
type stateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
	now    func() time.Time
}

func newStateStore() *stateStore {
	return &stateStore{states: make(map[string]time.Time), now: time.Now}
}

func (ss *stateStore) issue() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}
	state := hex.EncodeToString(buf)

	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.sweepLocked()
	ss.states[state] = ss.now().Add(stateTTL)
	return state, nil
}

// consume removes a state and reports whether it was live. Each state
// is single use.
func (ss *stateStore) consume(state string) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.sweepLocked()
	_, ok := ss.states[state]
	delete(ss.states, state)
	return ok
}

func (ss *stateStore) sweepLocked() {
	now := ss.now()
	for s, exp := range ss.states {
		if now.After(exp) {
			delete(ss.states, s)
		}
	}
}

var maxAgeRe = regexp.MustCompile(`max-age=(\d+)`)

// certCache holds Google's signing certificates until the TTL from the
// response's Cache-Control header lapses. The clock and HTTP client are
// injectable for tests.
type certCache struct {
	mu      sync.Mutex
	keys    map[string]*rsa.PublicKey
	expires time.Time
	client  *http.Client
	url     string
	now     func() time.Time
}

func newCertCache() *certCache {
	return &certCache{
		client: &http.Client{Timeout: 10 * time.Second},
		url:    googleCertsURL,
		now:    time.Now,
	}
}

// key returns the public key for a kid, refreshing the cache when stale.
func (cc *certCache) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	if cc.keys == nil || cc.now().After(cc.expires) {
		if err := cc.refreshLocked(ctx); err != nil {
			return nil, err
		}
	}
	key, ok := cc.keys[kid]
	if !ok {
		// Unknown kid can mean Google rotated early. Refresh once.
		if err := cc.refreshLocked(ctx); err != nil {
			return nil, err
		}
		if key, ok = cc.keys[kid]; !ok {
			return nil, fmt.Errorf("no certificate for kid %q", kid)
		}
	}
	return key, nil
}

func (cc *certCache) refreshLocked(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cc.url, nil)
	if err != nil {
		return fmt.Errorf("build cert request: %w", err)
	}
	resp, err := cc.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch google certs: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch google certs: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read google certs: %w", err)
	}
	var pems map[string]string
	if err := json.Unmarshal(body, &pems); err != nil {
		return fmt.Errorf("decode google certs: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(pems))
	for kid, certPEM := range pems {
		block, _ := pem.Decode([]byte(certPEM))
		if block == nil {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			continue
		}
		if pub, ok := cert.PublicKey.(*rsa.PublicKey); ok {
			keys[kid] = pub
		}
	}
	if len(keys) == 0 {
		return errors.New("google cert response held no usable keys")
	}

	cc.keys = keys
	cc.expires = cc.now().Add(certTTL(resp.Header.Get("Cache-Control")))
	return nil
}

// certTTL extracts max-age from a Cache-Control header, defaulting to
// an hour when absent.
func certTTL(cacheControl string) time.Duration {
	if m := maxAgeRe.FindStringSubmatch(cacheControl); m != nil {
		if secs, err := strconv.Atoi(m[1]); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return time.Hour
}

// GoogleFlow drives the OAuth redirect, callback and account linkage.
type GoogleFlow struct {
	oauth    *oauth2.Config
	states   *stateStore
	certs    *certCache
	users    *store.UserStore
	issuer   *TokenIssuer
	projects *project.Registry
	logger   *zap.Logger
}

// NewGoogleFlow wires the flow. Returns nil when the client is not
// configured; callers treat a nil flow as the feature being off.
func NewGoogleFlow(cfg GoogleConfig, users *store.UserStore, issuer *TokenIssuer, projects *project.Registry, logger *zap.Logger) *GoogleFlow {
	if !cfg.Enabled() {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoogleFlow{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		states:   newStateStore(),
		certs:    newCertCache(),
		users:    users,
		issuer:   issuer,
		projects: projects,
		logger:   logger.Named("google"),
	}
}

// AuthURL issues a fresh state and returns the consent page URL.
func (gf *GoogleFlow) AuthURL() (string, error) {
	state, err := gf.states.issue()
	if err != nil {
		return "", err
	}
	return gf.oauth.AuthCodeURL(state), nil
}

// HandleCallback exchanges the code, verifies the ID token, finds or
// creates the account, and returns a bearer token for it.
func (gf *GoogleFlow) HandleCallback(ctx context.Context, state, code string) (string, error) {
	if !gf.states.consume(state) {
		return "", ErrBadState
	}

	tok, err := gf.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchange code: %w", err)
	}
	raw, _ := tok.Extra("id_token").(string)
	if raw == "" {
		return "", errors.New("token response held no id_token")
	}

	claims, err := gf.verifyIDToken(ctx, raw)
	if err != nil {
		return "", err
	}

	user, err := gf.findOrCreate(ctx, claims)
	if err != nil {
		return "", err
	}
	return gf.issuer.Issue(user.ID, user.Name, user.Email)
}

func (gf *GoogleFlow) verifyIDToken(ctx context.Context, raw string) (*googleClaims, error) {
	var claims googleClaims
	parsed, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		kid, _ := t.Header["kid"].(string)
		return gf.certs.key(ctx, kid)
	}, jwt.WithAudience(gf.oauth.ClientID))
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("verify id token: %w", errors.Join(err, ErrBadToken))
	}
	return &claims, nil
}

// findOrCreate links by Google subject id first, then by email for
// accounts that signed up with a password before using Google.
func (gf *GoogleFlow) findOrCreate(ctx context.Context, claims *googleClaims) (*store.User, error) {
	user, err := gf.users.FindByGoogleID(ctx, claims.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if user, err = gf.users.FindByEmail(ctx, claims.Email); err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	user = &store.User{
		ID:        uuid.NewString(),
		Name:      claims.Name,
		Email:     store.NormalizeEmail(claims.Email),
		GoogleID:  claims.Subject,
		Projects:  gf.projects.IDs(),
		CreatedAt: time.Now().UTC(),
	}
	if err := gf.users.Create(ctx, user); err != nil {
		return nil, err
	}
	gf.logger.Info("created user from google sign-in", zap.String("user_id", user.ID))
	return user, nil
}
