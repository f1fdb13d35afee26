package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"portal/internal"
	"portal/internal/util"
)

const bcryptCost = 12

var (
	ErrInvalidCustomerID  = errors.New("please enter a valid customer ID")
	ErrInvalidCredentials = errors.New("invalid customer ID or password")
	ErrInvalidToken       = errors.New("invalid session token")
)

// Manager signs and verifies the session cookie of logged-in customers.
type Manager struct {
	secret       []byte
	ttl          time.Duration
	passwordHash string
	now          func() time.Time
}

// NewManager builds a manager. An empty secret is replaced by a random one,
// which invalidates sessions on restart. An empty password hash disables the
// password check.
func NewManager(secret string, ttl time.Duration, passwordHash string) (*Manager, error) {
	key := []byte(secret)
	if strings.TrimSpace(secret) == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		key = []byte(hex.EncodeToString(buf))
	}
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &Manager{
		secret:       key,
		ttl:          ttl,
		passwordHash: strings.TrimSpace(passwordHash),
		now:          time.Now,
	}, nil
}

// PasswordRequired reports whether Login checks the password.
func (m *Manager) PasswordRequired() bool {
	return m.passwordHash != ""
}

// ValidateCustomerID trims the id and requires it to be all digits.
func ValidateCustomerID(customerID string) (string, error) {
	id := strings.TrimSpace(customerID)
	if !util.IsDigits(id) {
		return "", ErrInvalidCustomerID
	}
	return id, nil
}

// Login checks the credentials and returns a signed token for the cookie.
func (m *Manager) Login(customerID, password string) (string, internal.Session, error) {
	id, err := ValidateCustomerID(customerID)
	if err != nil {
		return "", internal.Session{}, err
	}
	if m.PasswordRequired() {
		if err := bcrypt.CompareHashAndPassword([]byte(m.passwordHash), []byte(password)); err != nil {
			return "", internal.Session{}, ErrInvalidCredentials
		}
	}

	now := m.now()
	sess := internal.Session{CustomerID: id, ExpiresAt: now.Add(m.ttl).Truncate(time.Second)}
	claims := jwt.MapClaims{
		"sub": id,
		"exp": sess.ExpiresAt.Unix(),
		"iat": now.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", internal.Session{}, fmt.Errorf("sign session: %w", err)
	}
	return token, sess, nil
}

// Parse verifies a cookie token and returns its session.
func (m *Manager) Parse(tokenString string) (internal.Session, error) {
	if tokenString == "" {
		return internal.Session{}, ErrInvalidToken
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil {
		return internal.Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return internal.Session{}, ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok || !util.IsDigits(sub) {
		return internal.Session{}, ErrInvalidToken
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return internal.Session{}, ErrInvalidToken
	}
	return internal.Session{CustomerID: sub, ExpiresAt: exp.Time}, nil
}

// HashPassword produces a value for PORTAL_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
