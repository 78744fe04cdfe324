package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// HMACVerifier validates HS256 tokens signed with a shared secret.
// Used in development and tests; production runs JWKSVerifier.
type HMACVerifier struct {
	secret   []byte
	issuer   string
	audience string
	policy   AdminPolicy
}

func NewHMACVerifier(secret, issuer, audience string, adminEmails []string) *HMACVerifier {
	return &HMACVerifier{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		policy:   NewAdminPolicy(adminEmails),
	}
}

func (v *HMACVerifier) Verify(ctx context.Context, tokenStr string) (*Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return v.policy.identity(claims)
}

// TokenParams describes a token minted by GenerateToken.
type TokenParams struct {
	UID           string
	Email         string
	EmailVerified bool
	Admin         bool
	Issuer        string
	Audience      string
	TTL           time.Duration
}

// GenerateToken подписывает HS256 токен, который принимает HMACVerifier.
func GenerateToken(secret string, p TokenParams) (string, error) {
	if p.TTL <= 0 {
		p.TTL = time.Hour
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UID,
			Issuer:    p.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.TTL)),
		},
		Email:         p.Email,
		EmailVerified: p.EmailVerified,
		Admin:         p.Admin,
	}
	if p.Audience != "" {
		claims.Audience = jwt.ClaimStrings{p.Audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
