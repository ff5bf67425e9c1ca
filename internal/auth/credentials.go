package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Credentials checks a single configured username/password pair
type Credentials struct {
	username string
	hash     []byte
}

// NewCredentials prefers a bcrypt hash. A plaintext password is hashed once at
// startup. With neither set, every login is refused.
func NewCredentials(username, passwordHash, password string) (*Credentials, error) {
	c := &Credentials{username: username}
	switch {
	case passwordHash != "":
		if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
			return nil, fmt.Errorf("invalid password hash: %w", err)
		}
		c.hash = []byte(passwordHash)
	case password != "":
		hash, err := HashPassword(password)
		if err != nil {
			return nil, err
		}
		c.hash = []byte(hash)
	}
	return c, nil
}

// Enabled reports whether any password is configured
func (c *Credentials) Enabled() bool {
	return c.username != "" && len(c.hash) > 0
}

// Verify returns ErrInvalidCredentials unless username and password both match
func (c *Credentials) Verify(username, password string) error {
	if !c.Enabled() {
		return ErrInvalidCredentials
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(c.hash, []byte(password))
	if !userOK || passErr != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// HashPassword returns a bcrypt hash suitable for auth.password_hash
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
