package service

import (
	"bitwise74/expense-api/internal/model"
	"bitwise74/expense-api/pkg/security"
	"bitwise74/expense-api/pkg/validators"
	"context"
	"errors"
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const idCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Auth registers accounts, checks credentials and issues session tokens
type Auth struct {
	db     *gorm.DB
	argon  *security.ArgonHash
	tokens *security.Tokens
}

// LoginResult is what a successful login hands back to the client
type LoginResult struct {
	Session *security.Session
	User    *model.User
}

func NewAuth(db *gorm.DB, argon *security.ArgonHash, tokens *security.Tokens) *Auth {
	return &Auth{
		db:     db,
		argon:  argon,
		tokens: tokens,
	}
}

// NormalizeEmail is applied on every lookup so casing never creates a second account
func NormalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// Register stores a new account and returns its ID
func (a *Auth) Register(ctx context.Context, name, email, password string) (string, error) {
	email = NormalizeEmail(email)
	name = strings.TrimSpace(name)

	if err := validators.NameValidator(name); err != nil {
		return "", fmt.Errorf("%w, %w", ErrValidation, err)
	}

	if err := validators.EmailValidator(email); err != nil {
		return "", fmt.Errorf("%w, %w", ErrValidation, err)
	}

	if err := validators.PasswordValidator(password); err != nil {
		return "", fmt.Errorf("%w, %w", ErrValidation, err)
	}

	var found bool

	err := a.db.WithContext(ctx).
		Model(model.User{}).
		Select("count(*) > 0").
		Where("email = ?", email).
		Find(&found).
		Error
	if err != nil {
		return "", fmt.Errorf("failed to check if user is registered, %w", err)
	}

	if found {
		return "", ErrDuplicateEmail
	}

	hash, err := a.argon.GenerateFromPassword(password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password, %w", err)
	}

	userID, err := gonanoid.Generate(idCharset, 16)
	if err != nil {
		return "", fmt.Errorf("failed to generate user ID, %w", err)
	}

	err = a.db.WithContext(ctx).Create(&model.User{
		ID:       userID,
		Name:     name,
		Email:    email,
		Password: hash,
	}).Error
	if err != nil {
		// Lost a race with another signup for the same address
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", ErrDuplicateEmail
		}

		return "", fmt.Errorf("failed to create user, %w", err)
	}

	return userID, nil
}

// Login checks the credentials and issues a session token carrying the
// premium flag as it is right now
func (a *Auth) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w, email and password are required", ErrValidation)
	}

	var user model.User

	err := a.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("failed to fetch user, %w", err)
	}

	ok, err := a.argon.VerifyPasswd(password, user.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password, %w", err)
	}

	if !ok {
		return nil, ErrInvalidCredentials
	}

	if security.NeedsRehash(user.Password) {
		a.upgradeHash(ctx, &user, password)
	}

	session, err := a.tokens.IssueSession(user.ID, user.IsPremium)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token, %w", err)
	}

	return &LoginResult{
		Session: session,
		User:    &user,
	}, nil
}

// Authenticate resolves a bearer token to the identity bound into it. The
// premium flag is trusted from the token, the store isn't consulted.
func (a *Auth) Authenticate(token string) (*security.Identity, error) {
	return a.tokens.ParseSession(token)
}

// upgradeHash replaces a legacy bcrypt hash with argon2id. Failing here
// isn't fatal to the login, the old hash keeps working.
func (a *Auth) upgradeHash(ctx context.Context, user *model.User, password string) {
	hash, err := a.argon.GenerateFromPassword(password)
	if err != nil {
		zap.L().Warn("Failed to rehash legacy password", zap.Error(err), zap.String("userID", user.ID))
		return
	}

	err = a.db.WithContext(ctx).
		Model(model.User{}).
		Where("id = ?", user.ID).
		Update("password", hash).
		Error
	if err != nil {
		zap.L().Warn("Failed to store rehashed password", zap.Error(err), zap.String("userID", user.ID))
		return
	}

	user.Password = hash
}
