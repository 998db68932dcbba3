package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"ai-assistant-be/internal/constant"
	"ai-assistant-be/internal/dto"
	"ai-assistant-be/internal/repository/memory"
	"ai-assistant-be/internal/repository/specification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMailer struct {
	mu     sync.Mutex
	otps   map[string]string
	resets map[string]string
}

func newStubMailer() *stubMailer {
	return &stubMailer{otps: map[string]string{}, resets: map[string]string{}}
}

func (m *stubMailer) SendOTP(toEmail, otp string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.otps[toEmail] = otp
	return nil
}

func (m *stubMailer) SendResetToken(toEmail, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets[toEmail] = token
	return nil
}

func (m *stubMailer) resetTokenFor(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resets[email]
}

type authFixture struct {
	svc     IAuthService
	factory *memory.RepositoryFactory
	mailer  *stubMailer
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	factory := memory.NewRepositoryFactory()
	m := newStubMailer()
	svc := NewAuthService(factory, m, nil)
	return &authFixture{svc: svc, factory: factory, mailer: m}
}

func (f *authFixture) registerAndVerify(t *testing.T, email, password string) {
	t.Helper()
	ctx := context.Background()

	res, err := f.svc.Register(ctx, &dto.RegisterRequest{Email: email, Password: password, FullName: "Test User"})
	require.NoError(t, err)

	// The OTP is delivered by mail; read it back from the token store
	token, err := f.factory.NewUnitOfWork(ctx).UserRepository().FindEmailVerificationToken(ctx,
		specification.UserOwnedBy{UserID: res.Id},
	)
	require.NoError(t, err)
	require.NotNil(t, token)
	require.Len(t, token.Token, 6)

	require.NoError(t, f.svc.VerifyEmail(ctx, &dto.VerifyEmailRequest{Email: email, Token: token.Token}))
}

func TestRegisterVerifyLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.registerAndVerify(t, "alice@example.com", "password123")

	res, err := f.svc.Login(ctx, &dto.LoginRequest{Email: "alice@example.com", Password: "password123"}, "127.0.0.1", "go-test")
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Empty(t, res.RefreshToken)
	assert.Equal(t, "alice@example.com", res.User.Email)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.registerAndVerify(t, "bob@example.com", "password123")

	_, err := f.svc.Register(ctx, &dto.RegisterRequest{Email: "bob@example.com", Password: "other-password", FullName: "Bob"})
	assert.ErrorIs(t, err, constant.ErrEmailAlreadyExists)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.registerAndVerify(t, "carol@example.com", "password123")

	_, err := f.svc.Login(ctx, &dto.LoginRequest{Email: "carol@example.com", Password: "wrong"}, "", "")
	assert.ErrorIs(t, err, constant.ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, &dto.LoginRequest{Email: "nobody@example.com", Password: "password123"}, "", "")
	assert.ErrorIs(t, err, constant.ErrInvalidCredentials)
}

func TestLoginRequiresVerifiedEmail(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, &dto.RegisterRequest{Email: "dave@example.com", Password: "password123", FullName: "Dave"})
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, &dto.LoginRequest{Email: "dave@example.com", Password: "password123"}, "", "")
	assert.Error(t, err)
}

func TestVerifyEmailRejectsBadToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, &dto.RegisterRequest{Email: "erin@example.com", Password: "password123", FullName: "Erin"})
	require.NoError(t, err)

	err = f.svc.VerifyEmail(ctx, &dto.VerifyEmailRequest{Email: "erin@example.com", Token: "000000"})
	assert.ErrorIs(t, err, constant.ErrInvalidToken)
}

func TestRememberMeIssuesRefreshToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.registerAndVerify(t, "frank@example.com", "password123")

	res, err := f.svc.Login(ctx, &dto.LoginRequest{Email: "frank@example.com", Password: "password123", RememberMe: true}, "127.0.0.1", "go-test")
	require.NoError(t, err)
	require.NotEmpty(t, res.RefreshToken)

	// Logout revokes by hash without erroring
	assert.NoError(t, f.svc.Logout(ctx, res.RefreshToken))
}

func TestPasswordResetFlow(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.registerAndVerify(t, "grace@example.com", "password123")

	require.NoError(t, f.svc.ForgotPassword(ctx, &dto.ForgotPasswordRequest{Email: "grace@example.com"}))

	var token string
	require.Eventually(t, func() bool {
		token = f.mailer.resetTokenFor("grace@example.com")
		return token != ""
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, f.svc.ResetPassword(ctx, &dto.ResetPasswordRequest{Token: token, NewPassword: "newpassword456"}))

	// Old password no longer works, new one does
	_, err := f.svc.Login(ctx, &dto.LoginRequest{Email: "grace@example.com", Password: "password123"}, "", "")
	assert.ErrorIs(t, err, constant.ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, &dto.LoginRequest{Email: "grace@example.com", Password: "newpassword456"}, "", "")
	assert.NoError(t, err)

	// A used token cannot be replayed
	err = f.svc.ResetPassword(ctx, &dto.ResetPasswordRequest{Token: token, NewPassword: "thirdpassword789"})
	assert.ErrorIs(t, err, constant.ErrInvalidToken)
}

func TestForgotPasswordDoesNotLeakExistence(t *testing.T) {
	f := newAuthFixture(t)
	assert.NoError(t, f.svc.ForgotPassword(context.Background(), &dto.ForgotPasswordRequest{Email: "ghost@example.com"}))
}
