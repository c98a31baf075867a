package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const sessionTTL = 24 * time.Hour

// SessionService issues and verifies signed player session tokens. A token
// binds a player name to a room code so a reconnecting client can prove who
// it was without re-joining.
type SessionService struct {
	secret []byte
}

func NewSessionService(secret string) *SessionService {
	return &SessionService{secret: []byte(secret)}
}

type sessionClaims struct {
	Code   string `json:"sala"`
	Player string `json:"jugador"`
	jwt.RegisteredClaims
}

func (s *SessionService) IssueToken(code, player string) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Code:   code,
		Player: player,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ParseToken returns the room code and player name carried by a valid token.
func (s *SessionService) ParseToken(token string) (code, player string, err error) {
	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", "", err
	}
	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid {
		return "", "", errors.New("invalid session token")
	}
	return claims.Code, claims.Player, nil
}
