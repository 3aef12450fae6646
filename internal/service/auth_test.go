package service

import (
	"bitwise74/expense-api/internal/model"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func (s *ServiceSuite) TestRegisterOnlyOnce() {
	id := s.register("Alice", "a@x.com")
	s.Len(id, 16)

	_, err := s.auth.Register(s.ctx, "Alice again", " A@X.com ", "other")
	s.ErrorIs(err, ErrDuplicateEmail)

	var count int64
	s.Require().NoError(s.db.Model(model.User{}).Count(&count).Error)
	s.EqualValues(1, count)
}

func (s *ServiceSuite) TestRegisterStoresHashOnly() {
	id := s.register("Alice", "a@x.com")

	var user model.User
	s.Require().NoError(s.db.First(&user, "id = ?", id).Error)
	s.NotEqual("pw1", user.Password)
	s.True(strings.HasPrefix(user.Password, "$argon2id$"))
	s.False(user.IsPremium)
}

func (s *ServiceSuite) TestRegisterValidation() {
	cases := []struct {
		name, userName, email, password string
	}{
		{"blank name", " ", "a@x.com", "pw1"},
		{"bad email", "Alice", "not-an-email", "pw1"},
		{"empty password", "Alice", "a@x.com", ""},
		{"long password", "Alice", "a@x.com", strings.Repeat("p", 256)},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.auth.Register(s.ctx, tc.userName, tc.email, tc.password)
			s.ErrorIs(err, ErrValidation)
		})
	}
}

func (s *ServiceSuite) TestLogin() {
	id := s.register("Alice", "a@x.com")

	res, err := s.auth.Login(s.ctx, "A@x.com", "pw1")
	s.Require().NoError(err)
	s.Equal(id, res.User.ID)

	identity, err := s.auth.Authenticate(res.Session.Token)
	s.Require().NoError(err)
	s.Equal(id, identity.UserID)
	s.False(identity.IsPremium)
}

func (s *ServiceSuite) TestLoginWrongPassword() {
	s.register("Alice", "a@x.com")

	for _, pw := range []string{"pw2", "PW1", "pw1 "} {
		res, err := s.auth.Login(s.ctx, "a@x.com", pw)
		s.ErrorIs(err, ErrInvalidCredentials)
		s.Nil(res)
	}
}

func (s *ServiceSuite) TestLoginUnknownEmail() {
	_, err := s.auth.Login(s.ctx, "nobody@x.com", "pw1")
	s.ErrorIs(err, ErrUserNotFound)
}

func (s *ServiceSuite) TestLoginUpgradesLegacyHash() {
	legacy, err := bcrypt.GenerateFromPassword([]byte("oldpass"), bcrypt.MinCost)
	s.Require().NoError(err)

	s.Require().NoError(s.db.Create(&model.User{
		ID:       "legacyuser",
		Name:     "Legacy",
		Email:    "legacy@x.com",
		Password: string(legacy),
	}).Error)

	_, err = s.auth.Login(s.ctx, "legacy@x.com", "oldpass")
	s.Require().NoError(err)

	var user model.User
	s.Require().NoError(s.db.First(&user, "id = ?", "legacyuser").Error)
	s.True(strings.HasPrefix(user.Password, "$argon2id$"))

	// Still works with the new hash
	_, err = s.auth.Login(s.ctx, "legacy@x.com", "oldpass")
	s.NoError(err)
}

func (s *ServiceSuite) TestLoginCarriesPremiumFlag() {
	id := s.register("Alice", "a@x.com")
	s.Require().NoError(s.db.Model(model.User{}).Where("id = ?", id).Update("is_premium", true).Error)

	res, err := s.auth.Login(s.ctx, "a@x.com", "pw1")
	s.Require().NoError(err)

	identity, err := s.auth.Authenticate(res.Session.Token)
	s.Require().NoError(err)
	s.True(identity.IsPremium)
}
