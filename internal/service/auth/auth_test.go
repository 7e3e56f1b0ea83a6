package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"showroom-service/internal/domain/auth"
	xerrors "showroom-service/internal/pkg/errors"
	"showroom-service/internal/pkg/jwt"
	"showroom-service/internal/pkg/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type memSessions struct {
	sessions    map[string]*session.SessionData
	blacklisted map[string]time.Duration
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: map[string]*session.SessionData{}, blacklisted: map[string]time.Duration{}}
}

func (m *memSessions) CreateSession(_ context.Context, s *session.SessionData) error {
	m.sessions[s.Subject+":"+s.JTI] = s
	return nil
}

func (m *memSessions) GetSession(_ context.Context, subject, jti string) (*session.SessionData, error) {
	s, ok := m.sessions[subject+":"+jti]
	if !ok {
		return nil, xerrors.ErrSessionExpired
	}
	return s, nil
}

func (m *memSessions) InvalidateSession(_ context.Context, subject, jti string) error {
	delete(m.sessions, subject+":"+jti)
	return nil
}

func (m *memSessions) IsTokenBlacklisted(_ context.Context, jti string) (bool, error) {
	_, ok := m.blacklisted[jti]
	return ok, nil
}

func (m *memSessions) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	m.blacklisted[jti] = ttl
	return nil
}

type countingLimiter struct {
	attempts map[string]int64
	max      int64
}

func (l *countingLimiter) CheckLoginAttempt(_ context.Context, ip, email string) (bool, int64, error) {
	l.attempts[ip+email]++
	n := l.attempts[ip+email]
	return n <= l.max, l.max - n, nil
}

func (l *countingLimiter) ResetLoginAttempts(_ context.Context, ip, email string) error {
	delete(l.attempts, ip+email)
	return nil
}

type disconnects []string

func (d *disconnects) DisconnectSession(subject, sessionID, _ string) {
	*d = append(*d, subject+":"+sessionID)
}

type fixture struct {
	svc      *AuthService
	sessions *memSessions
	dropped  *disconnects
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	account := &auth.Account{Email: "admin@showroom.test", PasswordHash: string(hash), Roles: []string{jwt.RoleAdmin}}
	sessions := newMemSessions()
	dropped := &disconnects{}
	svc := NewAuthService(
		account,
		jwt.NewGenerator(key, "showroom", "backoffice", "k1", time.Hour),
		jwt.NewVerifier(&key.PublicKey, "showroom", "backoffice"),
		sessions,
		&countingLimiter{attempts: map[string]int64{}, max: 3},
		dropped,
		zap.NewNop(),
	)
	return fixture{svc: svc, sessions: sessions, dropped: dropped}
}

func login(f fixture, password string) (*auth.LoginResponse, error) {
	return f.svc.Login(context.Background(), &auth.LoginRequest{
		Email: " Admin@Showroom.test ", Password: password, Device: "web", IPAddress: "10.0.0.1",
	})
}

func TestLoginIssuesTokenAndSession(t *testing.T) {
	f := newFixture(t)

	res, err := login(f, "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, "admin@showroom.test", res.User.Email)
	assert.InDelta(t, 3600, res.ExpiresIn, 5)
	require.Len(t, f.sessions.sessions, 1)

	claims, err := f.svc.ValidateToken(context.Background(), res.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin())
	assert.Equal(t, "web", claims.Device)

	me, err := f.svc.Me(context.Background(), claims)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", me.IPAddress)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newFixture(t)

	_, err := login(f, "wrong")
	assert.True(t, xerrors.Is(err, xerrors.ErrUnauthorized))

	_, err = f.svc.Login(context.Background(), &auth.LoginRequest{Email: "other@showroom.test", Password: "s3cret-pass"})
	assert.True(t, xerrors.Is(err, xerrors.ErrUnauthorized))
	assert.Empty(t, f.sessions.sessions)
}

func TestLoginIsRateLimited(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 3; i++ {
		_, err := login(f, "wrong")
		require.True(t, xerrors.Is(err, xerrors.ErrUnauthorized))
	}
	_, err := login(f, "s3cret-pass")
	assert.True(t, xerrors.Is(err, xerrors.ErrRateLimited))
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newFixture(t)
	res, err := login(f, "s3cret-pass")
	require.NoError(t, err)
	claims, err := f.svc.ValidateToken(context.Background(), res.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(context.Background(), claims))
	assert.Empty(t, f.sessions.sessions)
	assert.Greater(t, f.sessions.blacklisted[claims.ID], 59*time.Minute)
	assert.Equal(t, disconnects{"admin@showroom.test:" + claims.ID}, *f.dropped)

	_, err = f.svc.ValidateToken(context.Background(), res.AccessToken)
	assert.True(t, xerrors.Is(err, xerrors.ErrUnauthorized))
}

func TestValidateTokenRequiresSession(t *testing.T) {
	f := newFixture(t)
	res, err := login(f, "s3cret-pass")
	require.NoError(t, err)

	f.sessions.sessions = map[string]*session.SessionData{}
	_, err = f.svc.ValidateToken(context.Background(), res.AccessToken)
	assert.True(t, xerrors.Is(err, xerrors.ErrSessionExpired))

	_, err = f.svc.ValidateToken(context.Background(), "not-a-token")
	assert.True(t, xerrors.Is(err, xerrors.ErrUnauthorized))
}

func TestBootstrapAccount(t *testing.T) {
	logger := zap.NewNop()

	account, err := BootstrapAccount("", "", "", logger)
	require.NoError(t, err)
	assert.Nil(t, account)

	_, err = BootstrapAccount("admin@showroom.test", "", "", logger)
	assert.Error(t, err)

	_, err = BootstrapAccount("admin@showroom.test", "", "plain-text", logger)
	assert.Error(t, err)

	account, err = BootstrapAccount(" Admin@Showroom.test", "s3cret-pass", "", logger)
	require.NoError(t, err)
	assert.Equal(t, "admin@showroom.test", account.Email)
	assert.Equal(t, []string{jwt.RoleAdmin}, account.Roles)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte("s3cret-pass")))
}
