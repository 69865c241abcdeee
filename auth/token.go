package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/radarhk/radar/helper"
	"github.com/radarhk/radar/model"
)

const tokenLifetime = 30 * 24 * time.Hour

type claims struct {
	UserID      int64  `json:"user_id"`
	PhoneNumber string `json:"phone_number"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and validates bearer tokens for authenticated users
type TokenIssuer struct {
	key []byte
}

// NewTokenIssuer creates a TokenIssuer with the given signing secret
func NewTokenIssuer(secret string) (*TokenIssuer, error) {
	if secret == "" {
		return nil, helper.NewError("token issuer validation", fmt.Errorf("signing secret is empty"))
	}
	return &TokenIssuer{key: []byte(secret)}, nil
}

// CreateToken issues a signed token for the given user
func (t *TokenIssuer) CreateToken(userID int64, phoneNumber string) (string, error) {
	now := time.Now()
	claims := &claims{
		userID,
		phoneNumber,
		jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "radar",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(t.key)
	if err != nil {
		return "", helper.NewError("sign token", err)
	}
	return ss, nil
}

// ValidateToken parses and verifies a token string and returns the user ID it
// was issued for. Expired, malformed or foreign-key tokens all surface as
// model.ErrAuthRequired.
func (t *TokenIssuer) ValidateToken(tokenString string) (int64, error) {
	token, err := jwt.ParseWithClaims(tokenString, &claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.key, nil
	})
	if err != nil {
		return 0, helper.NewError("parse token", fmt.Errorf("%w: %v", model.ErrAuthRequired, err))
	}
	claims, ok := token.Claims.(*claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return 0, helper.NewError("validate token", model.ErrAuthRequired)
	}
	return claims.UserID, nil
}
