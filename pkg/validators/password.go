package validators

import (
	"errors"
	"strings"
)

var (
	ErrPasswordTooLong = errors.New("password is too long")
	ErrPasswordEmpty   = errors.New("no password provided")
	ErrNameEmpty       = errors.New("no name provided")
	ErrNameTooLong     = errors.New("name is too long")
)

const (
	maxPasswordLen = 255
	maxNameLen     = 100
)

// PasswordValidator only enforces presence and an upper bound, accounts
// migrated from the old app were created without any strength rules
func PasswordValidator(p string) error {
	if p == "" {
		return ErrPasswordEmpty
	}

	if len(p) > maxPasswordLen {
		return ErrPasswordTooLong
	}

	return nil
}

func NameValidator(n string) error {
	n = strings.TrimSpace(n)
	if n == "" {
		return ErrNameEmpty
	}

	if len(n) > maxNameLen {
		return ErrNameTooLong
	}

	return nil
}
