// Package jwt issues and validates the access/refresh token pairs used to
// authenticate phone-verified users.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/haramapp/lottery-backend/internal/config"
)

// Token types carried in the "typ" claim
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// ErrWrongTokenType is returned when a token is valid but of the wrong kind
// for the call site (e.g. a refresh token presented as an access token).
var ErrWrongTokenType = errors.New("wrong token type")

// Claims is the validated content of a token
type Claims struct {
	UserID      string
	PhoneNumber string
	TokenType   string
}

// TokenService signs and validates HS256 token pairs
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenService creates a TokenService from configuration
func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{
		secret:     []byte(cfg.JWT.Secret),
		accessTTL:  time.Duration(cfg.JWT.AccessExpiresIn) * time.Second,
		refreshTTL: time.Duration(cfg.JWT.RefreshExpiresIn) * time.Second,
	}
}

// IssuePair generates a fresh access/refresh token pair for the identity
func (s *TokenService) IssuePair(userID, phoneNumber string) (accessToken, refreshToken string, err error) {
	accessToken, err = s.sign(userID, phoneNumber, TokenTypeAccess, s.accessTTL)
	if err != nil {
		return "", "", err
	}
	refreshToken, err = s.sign(userID, phoneNumber, TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

// Validate parses and verifies a token of the expected type
func (s *TokenService) Validate(tokenString, expectedType string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	claims := &Claims{}
	claims.UserID, _ = mapClaims["sub"].(string)
	claims.PhoneNumber, _ = mapClaims["phone"].(string)
	claims.TokenType, _ = mapClaims["typ"].(string)

	if claims.UserID == "" {
		return nil, errors.New("token is missing a subject")
	}
	if claims.TokenType != expectedType {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

func (s *TokenService) sign(userID, phoneNumber, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"phone": phoneNumber,
		"typ":   tokenType,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
