package usecase

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrAuthDisabled is returned by IssueToken when no secret is configured
	ErrAuthDisabled = errors.New("admin auth is disabled")
	// ErrNotAdmin is returned for a valid token without the admin role
	ErrNotAdmin = errors.New("token does not carry the admin role")
)

// AdminAuth issues and validates the bearer tokens that guard operator routes
type AdminAuth interface {
	// Enabled reports whether a secret is configured
	Enabled() bool
	IssueToken(subject string, ttl time.Duration) (string, error)
	ValidateToken(tokenString string) (string, error)
}

type adminAuth struct {
	secret []byte
	now    func() time.Time
}

// NewAdminAuth creates a new AdminAuth; an empty secret disables it
func NewAdminAuth(secret string) AdminAuth {
	return &adminAuth{secret: []byte(secret), now: time.Now}
}

func (a *adminAuth) Enabled() bool {
	return len(a.secret) > 0
}

func (a *adminAuth) IssueToken(subject string, ttl time.Duration) (string, error) {
	if !a.Enabled() {
		return "", ErrAuthDisabled
	}
	now := a.now()
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": "admin",
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ValidateToken returns the subject of a valid admin token
func (a *adminAuth) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid token claims")
	}
	if role, _ := claims["role"].(string); role != "admin" {
		return "", ErrNotAdmin
	}

	subject, _ := claims.GetSubject()
	return subject, nil
}
