package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/skillforge/skillforge-lms/internal/apperr"
)

// Token lifetimes per flow.
const (
	PasswordLoginTTL  = 7 * 24 * time.Hour
	FederatedLoginTTL = 30 * 24 * time.Hour
	PasswordResetTTL  = time.Hour
)

type Service struct{ hmac []byte }

func NewService(secret string) *Service { return &Service{hmac: []byte(secret)} }

type Claims struct {
	Sub  string `json:"sub"`
	Role string `json:"role"` // "instructor" or "student"
	jwt.RegisteredClaims
}

func (s *Service) IssueToken(userID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Sub:  userID,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "skillforge",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.hmac)
}

func (s *Service) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.hmac, nil
	})
	if err != nil || !token.Valid {
		return nil, apperr.Unauthorized("invalid or expired token")
	}
	c, ok := token.Claims.(*Claims)
	if !ok {
		return nil, apperr.Unauthorized("invalid or expired token")
	}
	return c, nil
}
