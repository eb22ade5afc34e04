package service

import (
	"crypto/subtle"
	"fmt"
	"time"

	"buddyboard/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// AdminClaims are carried in the bearer token handed out by /api/auth.
type AdminClaims struct {
	jwt.RegisteredClaims
}

// AuthService checks the single admin account and issues HS256 tokens.
type AuthService struct {
	cfg    config.APIAuthConfig
	logger *zerolog.Logger
	now    func() time.Time
}

func NewAuthService(cfg config.APIAuthConfig, logger *zerolog.Logger) *AuthService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &AuthService{cfg: cfg, logger: logger, now: time.Now}
}

// Authenticate returns a signed token when the credentials match.
func (s *AuthService) Authenticate(username, password string) (string, error) {
	if !s.checkCredentials(username, password) {
		s.logger.Warn().Str("username", username).Msg("invalid admin credentials")
		return "", ErrUnauthorized
	}

	now := s.now()
	ttl := time.Duration(s.cfg.TokenTTL) * time.Second
	claims := AdminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   username,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.TokenSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	s.logger.Info().Str("username", username).Msg("admin logged in")
	return token, nil
}

func (s *AuthService) checkCredentials(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.Username)) == 1

	var passOK bool
	if s.cfg.PasswordHash != "" {
		passOK = bcrypt.CompareHashAndPassword([]byte(s.cfg.PasswordHash), []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.Password)) == 1
	}
	return userOK && passOK
}

// Validate parses a bearer token and returns its subject.
func (s *AuthService) Validate(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{},
		func(token *jwt.Token) (interface{}, error) {
			return []byte(s.cfg.TokenSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return "", ErrUnauthorized
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || claims.Subject == "" {
		return "", ErrUnauthorized
	}
	if s.cfg.Issuer != "" && claims.Issuer != s.cfg.Issuer {
		return "", ErrUnauthorized
	}
	return claims.Subject, nil
}
