package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Service struct {
	hmac       []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewService(secret string, accessTTL, refreshTTL time.Duration) *Service {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 90 * 24 * time.Hour
	}
	return &Service{hmac: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

type Claims struct {
	Sub string `json:"sub"`
	Typ string `json:"typ"` // "access" or "refresh"
	jwt.RegisteredClaims
}

var ErrInvalidToken = errors.New("invalid token")

func (s *Service) issue(sub, typ string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Sub: sub,
		Typ: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "iris-backend",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.hmac)
}

func (s *Service) IssueAccess(sub string) (string, error) {
	return s.issue(sub, "access", s.accessTTL)
}

func (s *Service) IssueRefresh(sub string) (string, error) {
	return s.issue(sub, "refresh", s.refreshTTL)
}

func (s *Service) RefreshTTL() time.Duration { return s.refreshTTL }

// Parse verifies the signature and expiry and checks the token type.
func (s *Service) Parse(tokenStr, wantTyp string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	c, ok := token.Claims.(*Claims)
	if !ok || c.Typ != wantTyp || c.Sub == "" {
		return nil, ErrInvalidToken
	}
	return c, nil
}
