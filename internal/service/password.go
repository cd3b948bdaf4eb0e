package service

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	// bcrypt ignores input past 72 bytes.
	maxPasswordLength = 72
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)
	emailPattern    = regexp.MustCompile(`^[\w.+-]+@([\w-]+\.)+[\w-]{2,}$`)
)

func validatePassword(password string) error {
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return ErrWeakPassword
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return ErrWeakPassword
	}
	return nil
}

func normalizeUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if !usernamePattern.MatchString(username) {
		return "", fmt.Errorf("%w: username must be 3-20 characters of letters, digits or underscore", ErrInvalidArgument)
	}
	return strings.ToLower(username), nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return "", fmt.Errorf("%w: invalid email format", ErrInvalidArgument)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%w: invalid email format", ErrInvalidArgument)
	}
	return email, nil
}

type passwordHasher struct {
	cost int
	// dummy is compared against when no user matches, so a miss costs the
	// same bcrypt work as a wrong password.
	dummy []byte
}

func newPasswordHasher(cost int) (*passwordHasher, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: invalid BCRYPT_COST", ErrMisconfigured)
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("dummy-password-0"), cost)
	if err != nil {
		return nil, err
	}
	return &passwordHasher{cost: cost, dummy: dummy}, nil
}

func (h *passwordHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether password matches hash. An empty hash is checked
// against the dummy and always fails.
func (h *passwordHasher) Verify(hash, password string) (bool, error) {
	target := []byte(hash)
	if hash == "" {
		target = h.dummy
	}
	if len(password) > maxPasswordLength {
		_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password[:maxPasswordLength]))
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword(target, []byte(password))
	switch {
	case err == nil:
		return hash != "", nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}
