package service

import (
	"bitwise74/expense-api/internal/model"
	"strings"
	"time"
)

func (s *ServiceSuite) resetTokenFromMail() string {
	link := s.mailer.last().link
	s.Require().True(strings.HasPrefix(link, "http://client.test/resetpassword/"), link)
	return strings.TrimPrefix(link, "http://client.test/resetpassword/")
}

func (s *ServiceSuite) TestResetFlow() {
	id := s.register("Alice", "a@x.com")

	s.Require().NoError(s.reset.Request(s.ctx, "A@x.com"))

	mail := s.mailer.last()
	s.Equal("a@x.com", mail.to)
	s.Equal("Alice", mail.name)

	token := s.resetTokenFromMail()

	var user model.User
	s.Require().NoError(s.db.First(&user, "id = ?", id).Error)
	s.Require().NotNil(user.ResetToken)
	s.Equal(token, *user.ResetToken)
	s.NotNil(user.ResetTokenExpiresAt)

	s.Require().NoError(s.reset.Complete(s.ctx, token, "newpw"))

	_, err := s.auth.Login(s.ctx, "a@x.com", "pw1")
	s.ErrorIs(err, ErrInvalidCredentials)

	_, err = s.auth.Login(s.ctx, "a@x.com", "newpw")
	s.NoError(err)

	var after model.User
	s.Require().NoError(s.db.First(&after, "id = ?", id).Error)
	s.Nil(after.ResetToken)
	s.Nil(after.ResetTokenExpiresAt)
}

func (s *ServiceSuite) TestResetTokenIsSingleUse() {
	s.register("Alice", "a@x.com")
	s.Require().NoError(s.reset.Request(s.ctx, "a@x.com"))
	token := s.resetTokenFromMail()

	s.Require().NoError(s.reset.Complete(s.ctx, token, "newpw"))

	err := s.reset.Complete(s.ctx, token, "another")
	s.ErrorIs(err, ErrInvalidResetToken)

	_, err = s.auth.Login(s.ctx, "a@x.com", "newpw")
	s.NoError(err)
}

func (s *ServiceSuite) TestNewRequestSupersedesOldToken() {
	s.register("Alice", "a@x.com")

	s.Require().NoError(s.reset.Request(s.ctx, "a@x.com"))
	first := s.resetTokenFromMail()

	s.Require().NoError(s.reset.Request(s.ctx, "a@x.com"))
	second := s.resetTokenFromMail()
	s.NotEqual(first, second)

	s.ErrorIs(s.reset.Complete(s.ctx, first, "newpw"), ErrInvalidResetToken)
	s.NoError(s.reset.Complete(s.ctx, second, "newpw"))
}

func (s *ServiceSuite) TestResetUnknownEmail() {
	s.ErrorIs(s.reset.Request(s.ctx, "nobody@x.com"), ErrUserNotFound)
	s.Empty(s.mailer.sent)
}

func (s *ServiceSuite) TestResetMailFailureKeepsToken() {
	id := s.register("Alice", "a@x.com")
	s.mailer.err = errBoom

	s.ErrorIs(s.reset.Request(s.ctx, "a@x.com"), ErrEmailDelivery)

	var user model.User
	s.Require().NoError(s.db.First(&user, "id = ?", id).Error)
	s.NotNil(user.ResetToken)
}

func (s *ServiceSuite) TestResetWithoutMailer() {
	s.register("Alice", "a@x.com")
	r := NewPasswordReset(s.db, s.argon, s.tokens, nil, "http://client.test")

	s.ErrorIs(r.Request(s.ctx, "a@x.com"), ErrEmailDelivery)
}

func (s *ServiceSuite) TestCompleteResetBadInput() {
	s.ErrorIs(s.reset.Complete(s.ctx, "", "newpw"), ErrInvalidPayload)
	s.ErrorIs(s.reset.Complete(s.ctx, "token", ""), ErrInvalidPayload)
	s.ErrorIs(s.reset.Complete(s.ctx, "not-a-jwt", "newpw"), ErrInvalidResetToken)

	// A session token can't be used as a reset token
	id := s.register("Alice", "a@x.com")
	session, err := s.tokens.IssueSession(id, false)
	s.Require().NoError(err)
	s.ErrorIs(s.reset.Complete(s.ctx, session.Token, "newpw"), ErrInvalidResetToken)
}

func (s *ServiceSuite) TestCompleteResetExpired() {
	s.register("Alice", "a@x.com")

	s.tokens.Now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	s.Require().NoError(s.reset.Request(s.ctx, "a@x.com"))
	s.tokens.Now = time.Now

	s.ErrorIs(s.reset.Complete(s.ctx, s.resetTokenFromMail(), "newpw"), ErrInvalidResetToken)
}

func (s *ServiceSuite) TestClearExpiredResetTokens() {
	alice := s.register("Alice", "a@x.com")
	bob := s.register("Bob", "b@x.com")

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	stale, fresh := "stale", "fresh"

	s.Require().NoError(s.db.Model(model.User{}).Where("id = ?", alice).
		Updates(map[string]any{"reset_token": stale, "reset_token_expires_at": past}).Error)
	s.Require().NoError(s.db.Model(model.User{}).Where("id = ?", bob).
		Updates(map[string]any{"reset_token": fresh, "reset_token_expires_at": future}).Error)

	n, err := ClearExpiredResetTokens(s.ctx, s.db, time.Now())
	s.Require().NoError(err)
	s.EqualValues(1, n)

	var a, b model.User
	s.Require().NoError(s.db.First(&a, "id = ?", alice).Error)
	s.Require().NoError(s.db.First(&b, "id = ?", bob).Error)
	s.Nil(a.ResetToken)
	s.Require().NotNil(b.ResetToken)
	s.Equal(fresh, *b.ResetToken)
}

func (s *ServiceSuite) TestTokenCleanupRejectsBadSchedule() {
	_, err := TokenCleanup("not a schedule", s.db)
	s.Error(err)

	c, err := TokenCleanup("@every 1h", s.db)
	s.Require().NoError(err)
	c.Stop()
}

func (s *ServiceSuite) TestUsedTokenWinsOverPasswordRules() {
	s.register("Alice", "a@x.com")
	s.Require().NoError(s.reset.Request(s.ctx, "a@x.com"))
	token := s.resetTokenFromMail()

	s.Require().NoError(s.reset.Complete(s.ctx, token, "newpw"))

	err := s.reset.Complete(s.ctx, token, strings.Repeat("p", 300))
	s.ErrorIs(err, ErrInvalidResetToken)
	s.NotErrorIs(err, ErrValidation)
}

func (s *ServiceSuite) TestOutstandingTokenStillValidatesPassword() {
	s.register("Alice", "a@x.com")
	s.Require().NoError(s.reset.Request(s.ctx, "a@x.com"))
	token := s.resetTokenFromMail()

	s.ErrorIs(s.reset.Complete(s.ctx, token, strings.Repeat("p", 300)), ErrValidation)

	// Rejected input doesn't burn the token
	s.NoError(s.reset.Complete(s.ctx, token, "newpw"))
}
