package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is what the identity collaborator puts in its bearer tokens: just
// enough to identify the caller. Classification (customer vs staff vs admin)
// is the resolver's job, against the account directory.
type Claims struct {
	UserID string
	Email  string
	Name   string
}

type JWTValidator struct {
	secret []byte
}

func NewJWTValidator(secret string) *JWTValidator {
	return &JWTValidator{secret: []byte(secret)}
}

func (j *JWTValidator) Validate(tokenStr string) (*Claims, error) {
	tok, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return j.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return nil, errors.New("invalid token")
	}
	c := &Claims{}
	if sub, ok := claims["sub"].(string); ok {
		c.UserID = sub
	} else if uid, ok := claims["user_id"].(string); ok {
		c.UserID = uid
	}
	if c.UserID == "" {
		return nil, errors.New("token missing subject")
	}
	if email, ok := claims["email"].(string); ok {
		c.Email = email
	}
	if name, ok := claims["name"].(string); ok {
		c.Name = name
	}
	return c, nil
}
