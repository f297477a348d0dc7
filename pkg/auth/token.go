package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenService signs and validates the unsubscribe tokens embedded in
// every email footer. Tokens carry the subscriber id only; possession
// of a valid token is sufficient to cancel that subscription.
type TokenService interface {
	GenerateUnsubscribeToken(subscriberID uuid.UUID) (string, error)
	ValidateUnsubscribeToken(token string) (uuid.UUID, error)
}

type jwtService struct {
	secret []byte
	expiry time.Duration
}

func NewJWTService(secret string, expiry time.Duration) TokenService {
	return &jwtService{secret: []byte(secret), expiry: expiry}
}

func (s *jwtService) GenerateUnsubscribeToken(subscriberID uuid.UUID) (string, error) {
	claims := jwt.MapClaims{
		"sub":   subscriberID.String(),
		"scope": "unsubscribe",
		"exp":   time.Now().Add(s.expiry).Unix(),
		"iat":   time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *jwtService) ValidateUnsubscribeToken(tokenStr string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return uuid.Nil, fmt.Errorf("invalid token claims")
	}
	if scope, _ := claims["scope"].(string); scope != "unsubscribe" {
		return uuid.Nil, fmt.Errorf("invalid token scope")
	}

	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid subscriber id in token: %w", err)
	}
	return id, nil
}
