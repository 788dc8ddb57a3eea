package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"watchwhat/internal/model"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// AuthService issues and validates session-scoped participant tokens.
type AuthService struct {
	jwtSecret []byte
}

func NewAuthService(secret string) *AuthService {
	return &AuthService{jwtSecret: []byte(secret)}
}

// GenerateParticipantToken creates a token tying a participant to a session.
func (s *AuthService) GenerateParticipantToken(participant *model.Participant) (string, error) {
	claims := &model.ParticipantClaims{
		SessionID:     participant.SessionID,
		ParticipantID: participant.ID,
		Name:          participant.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateParticipantToken validates a participant JWT and returns its claims.
func (s *AuthService) ValidateParticipantToken(tokenString string) (*model.ParticipantClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.ParticipantClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.ParticipantClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
