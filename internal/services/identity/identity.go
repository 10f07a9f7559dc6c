package identity

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/margdarshan-ai/margdarshan/internal/config"
	"github.com/margdarshan-ai/margdarshan/internal/models"
	"github.com/margdarshan-ai/margdarshan/internal/store"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Identity is the verified caller of an authenticated request.
type Identity struct {
	UserID string
}

// Provider issues and verifies bearer tokens and manages credential rows.
// Tokens are HMAC-SHA256 signed: base64(userId).expiryUnix.base64(signature).
type Provider struct {
	secret   []byte
	tokenTTL time.Duration
	store    store.Store
	logger   *logrus.Logger
}

func NewProvider(cfg *config.AuthConfig, st store.Store, logger *logrus.Logger) *Provider {
	return &Provider{
		secret:   []byte(cfg.TokenSecret),
		tokenTTL: cfg.TokenTTL,
		store:    st,
		logger:   logger,
	}
}

// CreateUser registers credentials for a new account and returns the user ID.
// The caller is responsible for initializing the profile row.
func (p *Provider) CreateUser(ctx context.Context, email, password string) (string, error) {
	if len(password) < 6 {
		return "", ErrWeakPassword
	}

	existing, err := p.store.GetCredentials(ctx, email)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	userID := uuid.NewString()
	creds := &models.Credentials{
		UserID:       userID,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := p.store.SaveCredentials(ctx, creds); err != nil {
		return "", err
	}

	p.logger.WithField("user_id", userID).Info("User created")
	return userID, nil
}

// Authenticate checks a login and returns the user ID on success.
func (p *Provider) Authenticate(ctx context.Context, email, password string) (string, error) {
	creds, err := p.store.GetCredentials(ctx, email)
	if err != nil {
		return "", err
	}
	if creds == nil {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return creds.UserID, nil
}

// IssueToken mints a signed bearer token for a user.
func (p *Provider) IssueToken(userID string) string {
	expiry := time.Now().Add(p.tokenTTL).Unix()
	payload := fmt.Sprintf("%s.%d", base64.RawURLEncoding.EncodeToString([]byte(userID)), expiry)
	return payload + "." + p.sign(payload)
}

// VerifyToken validates a bearer token and returns the caller identity.
func (p *Provider) VerifyToken(token string) (*Identity, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, ErrInvalidToken
	}

	payload := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(p.sign(payload)), []byte(parts[2])) {
		return nil, ErrInvalidToken
	}

	expiry, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || time.Now().Unix() >= expiry {
		return nil, ErrInvalidToken
	}

	userID, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &Identity{UserID: string(userID)}, nil
}

func (p *Provider) sign(payload string) string {
	mac := hmac.New(sha256.New, p.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
