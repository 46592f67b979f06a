// Package auth validates customer bearer tokens.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Fanatic033/shoro-market/pkg/middleware"
)

var ErrInvalidSubject = errors.New("token subject is not a customer id")

// HS256Validator checks HMAC-signed tokens whose "sub" claim is the numeric
// customer id issued by the commerce API.
type HS256Validator struct {
	secret []byte
	parser *jwt.Parser
}

// NewHS256Validator creates a validator for tokens signed with secret.
func NewHS256Validator(secret string) *HS256Validator {
	return &HS256Validator{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}
}

// Validate parses token and returns its claims. It has the shape of
// middleware.TokenValidator.
func (v *HS256Validator) Validate(token string) (*middleware.Claims, error) {
	claims := &jwt.RegisteredClaims{}
	if _, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return nil, ErrInvalidSubject
	}
	return &middleware.Claims{UserID: strconv.FormatInt(id, 10)}, nil
}

// Middleware returns the chi middleware enforcing this validator.
func (v *HS256Validator) Middleware() func(http.Handler) http.Handler {
	return middleware.Auth(v.Validate)
}
