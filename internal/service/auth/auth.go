// internal/service/auth/auth.go
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"showroom-service/internal/domain/auth"
	xerrors "showroom-service/internal/pkg/errors"
	"showroom-service/internal/pkg/jwt"
	"showroom-service/internal/pkg/session"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer signs access tokens. Implemented by jwt.Generator.
type TokenIssuer interface {
	GenerateAccessToken(subject, email string, roles []string, device string) (*jwt.Token, error)
}

// TokenVerifier checks access tokens. Implemented by jwt.Verifier.
type TokenVerifier interface {
	Verify(token string) (*jwt.Claims, error)
}

// SessionStore is implemented by session.Manager.
type SessionStore interface {
	CreateSession(ctx context.Context, s *session.SessionData) error
	GetSession(ctx context.Context, subject, jti string) (*session.SessionData, error)
	InvalidateSession(ctx context.Context, subject, jti string) error
	IsTokenBlacklisted(ctx context.Context, jti string) (bool, error)
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// LoginLimiter is implemented by session.RateLimiter.
type LoginLimiter interface {
	CheckLoginAttempt(ctx context.Context, ip, email string) (bool, int64, error)
	ResetLoginAttempts(ctx context.Context, ip, email string) error
}

// SessionDisconnector drops realtime connections of a revoked session.
type SessionDisconnector interface {
	DisconnectSession(subject, sessionID, reason string)
}

type AuthService struct {
	account      *auth.Account
	issuer       TokenIssuer
	verifier     TokenVerifier
	sessions     SessionStore
	limiter      LoginLimiter
	disconnector SessionDisconnector
	logger       *zap.Logger
	now          func() time.Time
}

// NewAuthService builds the back-office auth boundary. A nil account
// disables login; disconnector may be nil.
func NewAuthService(
	account *auth.Account,
	issuer TokenIssuer,
	verifier TokenVerifier,
	sessions SessionStore,
	limiter LoginLimiter,
	disconnector SessionDisconnector,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		account:      account,
		issuer:       issuer,
		verifier:     verifier,
		sessions:     sessions,
		limiter:      limiter,
		disconnector: disconnector,
		logger:       logger,
		now:          time.Now,
	}
}

// ========== Login ==========

// Login authenticates the configured account and opens a session.
func (s *AuthService) Login(ctx context.Context, req *auth.LoginRequest) (*auth.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	allowed, remaining, err := s.limiter.CheckLoginAttempt(ctx, req.IPAddress, email)
	if err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}
	if !allowed {
		s.logger.Warn("login rate limited", zap.String("ip", req.IPAddress), zap.String("email", email))
		return nil, fmt.Errorf("%w: too many login attempts, please try again in 15 minutes", xerrors.ErrRateLimited)
	}

	if s.account == nil || !strings.EqualFold(s.account.Email, email) {
		return nil, fmt.Errorf("%w: invalid credentials", xerrors.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.account.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("login failed", zap.String("ip", req.IPAddress), zap.Int64("attempts_remaining", remaining))
		return nil, fmt.Errorf("%w: invalid credentials (attempts remaining: %d)", xerrors.ErrUnauthorized, remaining)
	}

	if err := s.limiter.ResetLoginAttempts(ctx, req.IPAddress, email); err != nil {
		s.logger.Warn("failed to reset login attempts", zap.Error(err))
	}

	token, err := s.issuer.GenerateAccessToken(email, email, s.account.Roles, req.Device)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	now := s.now()
	if err := s.sessions.CreateSession(ctx, &session.SessionData{
		JTI:            token.JTI,
		Subject:        email,
		Email:          email,
		Roles:          s.account.Roles,
		Device:         req.Device,
		IPAddress:      req.IPAddress,
		UserAgent:      req.UserAgent,
		LoginAt:        now,
		LastActivityAt: now,
		ExpiresAt:      token.ExpiresAt,
	}); err != nil {
		s.logger.Error("failed to create session", zap.Error(err))
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("admin logged in",
		zap.String("email", email),
		zap.String("jti", token.JTI),
		zap.String("ip", req.IPAddress),
	)

	return &auth.LoginResponse{
		AccessToken: token.Value,
		TokenType:   "Bearer",
		ExpiresIn:   int(token.ExpiresAt.Sub(now).Seconds()),
		ExpiresAt:   token.ExpiresAt,
		User:        auth.UserInfo{Email: email, Roles: s.account.Roles},
	}, nil
}

// ========== Logout ==========

// Logout invalidates the session and blacklists its token until expiry.
func (s *AuthService) Logout(ctx context.Context, claims *jwt.Claims) error {
	if err := s.sessions.InvalidateSession(ctx, claims.Subject, claims.ID); err != nil {
		return fmt.Errorf("failed to invalidate session: %w", err)
	}

	ttl := time.Hour
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(s.now())
	}
	if err := s.sessions.BlacklistToken(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}

	if s.disconnector != nil {
		s.disconnector.DisconnectSession(claims.Subject, claims.ID, "logged out")
	}

	s.logger.Info("admin logged out", zap.String("email", claims.Email), zap.String("jti", claims.ID))
	return nil
}

// ========== Token validation ==========

// ValidateToken verifies the token and checks its session is still live.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := s.verifier.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token: %v", xerrors.ErrUnauthorized, err)
	}

	blacklisted, err := s.sessions.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check blacklist: %w", err)
	}
	if blacklisted {
		return nil, fmt.Errorf("%w: token has been revoked", xerrors.ErrUnauthorized)
	}

	if _, err := s.sessions.GetSession(ctx, claims.Subject, claims.ID); err != nil {
		return nil, fmt.Errorf("session not found or expired: %w", err)
	}
	return claims, nil
}

// Me describes the session behind claims.
func (s *AuthService) Me(ctx context.Context, claims *jwt.Claims) (*auth.SessionInfo, error) {
	sess, err := s.sessions.GetSession(ctx, claims.Subject, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &auth.SessionInfo{
		UserInfo:  auth.UserInfo{Email: sess.Email, Roles: sess.Roles},
		Device:    sess.Device,
		IPAddress: sess.IPAddress,
		LoginAt:   sess.LoginAt,
		ExpiresAt: sess.ExpiresAt,
	}, nil
}

// AttachDisconnector sets the realtime hub once it exists; the hub itself
// validates tokens through this service.
func (s *AuthService) AttachDisconnector(d SessionDisconnector) {
	s.disconnector = d
}
