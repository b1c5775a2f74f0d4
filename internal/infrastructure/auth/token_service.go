package auth

import (
	"context"
	"errors"
	"time"

	"github.com/authbase/backend/internal/application/account"
	"github.com/authbase/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrWrongPurpose     = errors.New("token purpose mismatch")
	ErrTokenRevoked     = errors.New("token has been revoked")
)

// Claims represents custom JWT claims for app-scoped tokens
type Claims struct {
	jwt.RegisteredClaims
	AppID   string `json:"app_id"`
	UserID  string `json:"user_id"`
	Purpose string `json:"purpose"`
}

// TokenService signs and validates JWTs with each app's own secret.
// Rotating an app's secret therefore invalidates every token it ever
// issued, without any bookkeeping.
type TokenService struct {
	issuer      string
	expirations map[account.TokenPurpose]time.Duration
	revocations RevocationList
}

// NewTokenService creates a new token service. revocations may be nil, in
// which case explicit revocation is disabled and tokens live until expiry.
func NewTokenService(cfg config.TokenConfig, revocations RevocationList) *TokenService {
	return &TokenService{
		issuer: cfg.Issuer,
		expirations: map[account.TokenPurpose]time.Duration{
			account.PurposeSession:           cfg.SessionExpiration,
			account.PurposeEmailVerification: cfg.VerificationExpiration,
			account.PurposePasswordReset:     cfg.ResetExpiration,
		},
		revocations: revocations,
	}
}

// Issue signs a token for the given user with the app's secret
func (s *TokenService) Issue(secret string, appID, userID uuid.UUID, purpose account.TokenPurpose) (string, time.Time, error) {
	expiration, ok := s.expirations[purpose]
	if !ok {
		return "", time.Time{}, ErrWrongPurpose
	}

	now := time.Now()
	expiresAt := now.Add(expiration)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   userID.String(),
			Audience:  jwt.ClaimStrings{appID.String()},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		AppID:   appID.String(),
		UserID:  userID.String(),
		Purpose: string(purpose),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Validate checks the signature, expiry, purpose and revocation state of a
// token and returns its claims
func (s *TokenService) Validate(ctx context.Context, secret, tokenString string, purpose account.TokenPurpose) (*account.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}

	if claims.Purpose != string(purpose) {
		return nil, ErrWrongPurpose
	}

	appID, err := uuid.Parse(claims.AppID)
	if err != nil {
		return nil, ErrInvalidClaims
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrInvalidClaims
	}

	if s.revocations != nil {
		revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}

	return &account.TokenClaims{
		AppID:   appID,
		UserID:  userID,
		Purpose: account.TokenPurpose(claims.Purpose),
	}, nil
}

// Revoke marks a token as unusable for the remainder of its lifetime. The
// signature is deliberately not checked: revoking requires possession of
// the token, and a forged one was never valid anyway.
func (s *TokenService) Revoke(ctx context.Context, tokenString string) error {
	if s.revocations == nil {
		return nil
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return ErrInvalidToken
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		return ErrInvalidClaims
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	return s.revocations.Revoke(ctx, claims.ID, ttl)
}

// Ensure TokenService implements account.TokenIssuer
var _ account.TokenIssuer = (*TokenService)(nil)
