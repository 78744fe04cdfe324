package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"trust_backend/internal/logger"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// JWKSVerifier validates RS256/ES256 ID tokens against a remote JWKS
// (Firebase, Keycloak, Auth0 ...). Keys are refreshed in the background.
type JWKSVerifier struct {
	jwks     keyfunc.Keyfunc
	issuer   string
	audience string
	leeway   time.Duration
	policy   AdminPolicy
}

type JWKSOptions struct {
	URL             string
	Issuer          string
	Audience        string
	RefreshInterval time.Duration
	Leeway          time.Duration
	AdminEmails     []string
	HTTPClient      *http.Client
}

func NewJWKSVerifier(opts JWKSOptions) (*JWKSVerifier, error) {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	refresh := opts.RefreshInterval
	if refresh <= 0 {
		refresh = time.Hour
	}

	// NoErrorReturnFirstHTTPReq - стартуем даже если провайдер ещё недоступен
	storage, err := jwkset.NewStorageFromHTTP(opts.URL, jwkset.HTTPClientStorageOptions{
		Client:                    client,
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           refresh,
		RefreshErrorHandler: func(ctx context.Context, err error) {
			logger.Error("JWKS refresh failed",
				slog.String("error", err.Error()),
				slog.String("url", opts.URL),
			)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS storage: %w", err)
	}

	kf, err := keyfunc.New(keyfunc.Options{Storage: storage})
	if err != nil {
		return nil, fmt.Errorf("failed to create keyfunc: %w", err)
	}

	v := NewJWKSVerifierWithKeyfunc(kf, opts.Issuer, opts.Audience, opts.AdminEmails)
	v.leeway = opts.Leeway
	return v, nil
}

// NewJWKSVerifierWithKeyfunc uses a prepared keyfunc, e.g. keyfunc.NewJWKSetJSON in tests.
func NewJWKSVerifierWithKeyfunc(kf keyfunc.Keyfunc, issuer, audience string, adminEmails []string) *JWKSVerifier {
	return &JWKSVerifier{
		jwks:     kf,
		issuer:   issuer,
		audience: audience,
		policy:   NewAdminPolicy(adminEmails),
	}
}

func (v *JWKSVerifier) Verify(ctx context.Context, tokenStr string) (*Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, v.jwks.KeyfuncCtx(ctx), opts...)
	if err != nil || !token.Valid {
		logger.CtxDebug(ctx, "token verification failed", slog.Any("error", err))
		return nil, ErrInvalidToken
	}
	return v.policy.identity(claims)
}
