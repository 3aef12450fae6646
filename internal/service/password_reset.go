package service

import (
	"bitwise74/expense-api/internal/model"
	"bitwise74/expense-api/pkg/security"
	"bitwise74/expense-api/pkg/validators"
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PasswordReset issues single-use reset tokens and rotates credentials
type PasswordReset struct {
	db       *gorm.DB
	argon    *security.ArgonHash
	tokens   *security.Tokens
	mailer   Mailer
	linkBase string
}

func NewPasswordReset(db *gorm.DB, argon *security.ArgonHash, tokens *security.Tokens, mailer Mailer, linkBase string) *PasswordReset {
	return &PasswordReset{
		db:       db,
		argon:    argon,
		tokens:   tokens,
		mailer:   mailer,
		linkBase: strings.TrimRight(linkBase, "/"),
	}
}

// Request stores a fresh reset token on the account, replacing any
// outstanding one, and mails the link. A delivery failure is reported as
// ErrEmailDelivery but the stored token is kept.
func (p *PasswordReset) Request(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return ErrInvalidPayload
	}

	var user model.User

	err := p.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}

		return fmt.Errorf("failed to fetch user, %w", err)
	}

	token, expiresAt, err := p.tokens.IssueReset(user.ID)
	if err != nil {
		return fmt.Errorf("failed to generate reset token, %w", err)
	}

	err = p.db.WithContext(ctx).
		Model(&user).
		Updates(map[string]any{
			"reset_token":            token,
			"reset_token_expires_at": expiresAt,
		}).
		Error
	if err != nil {
		return fmt.Errorf("failed to store reset token, %w", err)
	}

	if p.mailer == nil {
		return fmt.Errorf("%w, mail isn't configured", ErrEmailDelivery)
	}

	link := p.linkBase + "/resetpassword/" + token

	if err := p.mailer.SendPasswordReset(ctx, user.Email, user.Name, link); err != nil {
		return fmt.Errorf("%w, %w", ErrEmailDelivery, err)
	}

	zap.L().Debug("Password reset email sent", zap.String("userID", user.ID))
	return nil
}

// Complete replaces the password of the account the token was issued for
// and clears the token. The token must still be the one stored on the
// account, so a used or superseded token is rejected even before it expires.
func (p *PasswordReset) Complete(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return ErrInvalidPayload
	}

	userID, err := p.tokens.ParseReset(token)
	if err != nil {
		return ErrInvalidResetToken
	}

	// A used or superseded token is rejected no matter what password comes with it
	var outstanding bool

	err = p.db.WithContext(ctx).
		Model(model.User{}).
		Select("count(*) > 0").
		Where("id = ? AND reset_token = ?", userID, token).
		Find(&outstanding).
		Error
	if err != nil {
		return fmt.Errorf("failed to look up reset token, %w", err)
	}

	if !outstanding {
		return ErrInvalidResetToken
	}

	if err := validators.PasswordValidator(newPassword); err != nil {
		return fmt.Errorf("%w, %w", ErrValidation, err)
	}

	hash, err := p.argon.GenerateFromPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password, %w", err)
	}

	// Matching on the stored token makes the swap a compare-and-set, two
	// requests racing with the same token can't both succeed
	r := p.db.WithContext(ctx).
		Model(model.User{}).
		Where("id = ? AND reset_token = ?", userID, token).
		Updates(map[string]any{
			"password":               hash,
			"reset_token":            nil,
			"reset_token_expires_at": nil,
		})
	if r.Error != nil {
		return fmt.Errorf("failed to update password, %w", r.Error)
	}

	if r.RowsAffected == 0 {
		return ErrInvalidResetToken
	}

	return nil
}
