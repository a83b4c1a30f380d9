package security

import (
	"context"
	"errors"
	"strings"
	"time"

	"franchise-catalog/internal/catalog/config"
	apperrors "franchise-catalog/internal/shared/errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenInvalid          = errors.New("token is invalid")
	ErrTokenExpired          = errors.New("token is expired")
	ErrTokenSignatureInvalid = errors.New("token signature is invalid")
)

// Claims carries the operator identity in the standard subject claim
type Claims struct {
	jwt.RegisteredClaims
}

// TokenService issues and checks the HS256 bearer tokens guarding mutating routes
type TokenService struct {
	secretKey []byte
	issuer    string
	ttl       time.Duration
}

// NewTokenService creates a token service from the auth configuration
func NewTokenService(cfg config.AuthConfig) (*TokenService, error) {
	if cfg.JWTSecretKey == "" {
		return nil, errors.New("jwt secret key cannot be empty")
	}
	if cfg.JWTIssuer == "" {
		return nil, errors.New("jwt issuer cannot be empty")
	}
	if cfg.AccessTokenTTL <= 0 {
		return nil, errors.New("jwt access token TTL must be positive")
	}

	return &TokenService{
		secretKey: []byte(cfg.JWTSecretKey),
		issuer:    cfg.JWTIssuer,
		ttl:       cfg.AccessTokenTTL,
	}, nil
}

// GenerateToken signs a token for subject
func (s *TokenService) GenerateToken(ctx context.Context, subject string) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", errors.New("token subject cannot be empty")
	}

	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// ValidateToken checks signature, issuer and expiry and returns the claims.
// Failures are authentication AppErrors coded TOKEN_EXPIRED or INVALID_TOKEN whose cause is one of
// the Err* sentinels above.
func (s *TokenService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, rejected(ErrTokenInvalid)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, s.keyFor, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, rejected(ErrTokenExpired)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, rejected(ErrTokenSignatureInvalid)
	case err != nil, !token.Valid, claims.Subject == "":
		return nil, rejected(ErrTokenInvalid)
	}
	return claims, nil
}

// keyFor only hands out the shared secret to HMAC-signed tokens
func (s *TokenService) keyFor(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, ErrTokenSignatureInvalid
	}
	return s.secretKey, nil
}

func rejected(cause error) *apperrors.AppError {
	code := "INVALID_TOKEN"
	if errors.Is(cause, ErrTokenExpired) {
		code = "TOKEN_EXPIRED"
	}
	return apperrors.NewAuthenticationError(cause.Error()).
		WithCode(code).
		WithCause(cause).
		WithComponent("token_service")
}
