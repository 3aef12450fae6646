package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	TokenTypeAuth  = "auth"
	TokenTypeReset = "reset"
)

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
	ErrNoSecret     = errors.New("no signing secret provided")
)

// Claims is the payload of every token the app signs. IsPremium is only
// meaningful on auth tokens and reflects the account at issuance time.
type Claims struct {
	UserID    string `json:"user_id"`
	IsPremium bool   `json:"is_premium,omitempty"`
	Type      string `json:"type"`
	jwt.RegisteredClaims
}

// Identity is what an auth token proves about its bearer
type Identity struct {
	UserID    string `json:"userId"`
	IsPremium bool   `json:"isPremium"`
}

// Session is a freshly issued auth token
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Tokens signs and verifies HS256 tokens
type Tokens struct {
	secret   []byte
	authTTL  time.Duration
	resetTTL time.Duration

	// Overridable for tests
	Now func() time.Time
}

func NewTokens(secret string, authTTL, resetTTL time.Duration) (*Tokens, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}

	return &Tokens{
		secret:   []byte(secret),
		authTTL:  authTTL,
		resetTTL: resetTTL,
		Now:      time.Now,
	}, nil
}

// IssueSession signs an auth token binding the user ID and the premium flag
func (t *Tokens) IssueSession(userID string, isPremium bool) (*Session, error) {
	token, exp, err := t.sign(userID, isPremium, TokenTypeAuth, t.authTTL)
	if err != nil {
		return nil, err
	}

	return &Session{Token: token, ExpiresAt: exp}, nil
}

// ParseSession verifies an auth token and returns the identity it carries
func (t *Tokens) ParseSession(token string) (*Identity, error) {
	c, err := t.parse(token, TokenTypeAuth)
	if err != nil {
		return nil, err
	}

	return &Identity{UserID: c.UserID, IsPremium: c.IsPremium}, nil
}

// IssueReset signs a single-purpose password reset token. Every call returns
// a different token even within the same second.
func (t *Tokens) IssueReset(userID string) (string, time.Time, error) {
	return t.sign(userID, false, TokenTypeReset, t.resetTTL)
}

// ParseReset verifies a reset token and returns the user ID it was issued for
func (t *Tokens) ParseReset(token string) (string, error) {
	c, err := t.parse(token, TokenTypeReset)
	if err != nil {
		return "", err
	}

	return c.UserID, nil
}

func (t *Tokens) sign(userID string, isPremium bool, typ string, ttl time.Duration) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("no user ID provided")
	}

	jti, err := gonanoid.New()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate token ID, %w", err)
	}

	now := t.Now()
	exp := now.Add(ttl)

	claims := Claims{
		UserID:    userID,
		IsPremium: isPremium,
		Type:      typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, exp, nil
}

func (t *Tokens) parse(token, typ string) (*Claims, error) {
	if token == "" {
		return nil, ErrTokenInvalid
	}

	var c Claims

	_, err := jwt.ParseWithClaims(token, &c, func(tk *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}

		return nil, fmt.Errorf("%w, %w", ErrTokenInvalid, err)
	}

	if c.Type != typ || c.UserID == "" {
		return nil, ErrTokenInvalid
	}

	return &c, nil
}
