package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"storefront/internal/apperr"
	"storefront/internal/notify"
	"storefront/internal/store"
)

const testSecret = "test-secret"

func newAuthService(s store.Store, sms notify.Sender) *AuthService {
	return NewAuthService(s, AuthConfig{
		JWTSecret:  testSecret,
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
		OTPTTL:     10 * time.Minute,
	}, notify.FixedOTP{Code: "Ab12cd"}, sms)
}

func signupInput() SignupInput {
	return SignupInput{
		Email:    " Jane@Example.com ",
		Password: "secret1",
		FullName: "Jane Doe",
		Phone:    "+250788000111",
	}
}

func TestSignupAndLogin(t *testing.T) {
	svc := newAuthService(store.NewMemory(), notify.LogSender{})
	ctx := context.Background()

	user, err := svc.Signup(ctx, signupInput())
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	_, err = svc.Signup(ctx, signupInput())
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	in := signupInput()
	in.Email = "other@example.com"
	_, err = svc.Signup(ctx, in)
	assert.True(t, apperr.Is(err, apperr.KindConflict), "phone is unique too")

	in.Phone = ""
	in.Password = "123"
	_, err = svc.Signup(ctx, in)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.Login(ctx, "jane@example.com", "wrong-password")
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	_, err = svc.Login(ctx, "nobody@example.com", "secret1")
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	session, err := svc.Login(ctx, "JANE@example.com", "secret1")
	require.NoError(t, err)
	assert.EqualValues(t, 900, session.ExpiresIn)
	assert.NotEmpty(t, session.RefreshToken)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(session.AccessToken, claims, func(*jwt.Token) (any, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims["userId"])
	assert.Equal(t, "user", claims["role"])
}

func TestRefreshRotatesToken(t *testing.T) {
	svc := newAuthService(store.NewMemory(), notify.LogSender{})
	ctx := context.Background()
	_, err := svc.Signup(ctx, signupInput())
	require.NoError(t, err)
	session, err := svc.Login(ctx, "jane@example.com", "secret1")
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, session.RefreshToken, rotated.RefreshToken)

	_, err = svc.Refresh(ctx, session.RefreshToken)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized), "a rotated token cannot be reused")

	require.NoError(t, svc.Logout(ctx, rotated.RefreshToken))
	_, err = svc.Refresh(ctx, rotated.RefreshToken)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	assert.True(t, apperr.Is(svc.Logout(ctx, rotated.RefreshToken), apperr.KindUnauthorized))
}

func TestRefreshRejectsExpiredToken(t *testing.T) {
	svc := newAuthService(store.NewMemory(), notify.LogSender{})
	ctx := context.Background()
	_, err := svc.Signup(ctx, signupInput())
	require.NoError(t, err)
	session, err := svc.Login(ctx, "jane@example.com", "secret1")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	_, err = svc.Refresh(ctx, session.RefreshToken)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func TestUpdatePassword(t *testing.T) {
	svc := newAuthService(store.NewMemory(), notify.LogSender{})
	ctx := context.Background()
	user, err := svc.Signup(ctx, signupInput())
	require.NoError(t, err)

	err = svc.UpdatePassword(ctx, user.ID, "not-it", "newsecret")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	require.NoError(t, svc.UpdatePassword(ctx, user.ID, "secret1", "newsecret"))
	_, err = svc.Login(ctx, "jane@example.com", "newsecret")
	assert.NoError(t, err)
}

func TestForgotAndResetPassword(t *testing.T) {
	ctrl := gomock.NewController(t)
	sms := notify.NewMockSender(ctrl)
	sms.EXPECT().
		Send(gomock.Any(), "+250788000111", notify.ResetTokenMessage("Ab12cd")).
		Return(notify.Delivery{Success: true, Message: "SMS sent successfully"}, nil)

	s := store.NewMemory()
	svc := newAuthService(s, sms)
	ctx := context.Background()
	user, err := svc.Signup(ctx, signupInput())
	require.NoError(t, err)

	delivery, err := svc.ForgotPassword(ctx, "+250788000111")
	require.NoError(t, err)
	assert.True(t, delivery.Success)

	stored, err := s.Users.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "Ab12cd", stored.ResetOTPHash)

	err = svc.ResetPassword(ctx, "+250788000111", "zzzzzz", "brandnew")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	require.NoError(t, svc.ResetPassword(ctx, "+250788000111", "Ab12cd", "brandnew"))
	_, err = svc.Login(ctx, "jane@example.com", "brandnew")
	require.NoError(t, err)

	err = svc.ResetPassword(ctx, "+250788000111", "Ab12cd", "again123")
	assert.True(t, apperr.Is(err, apperr.KindValidation), "tokens are single use")
}

func TestResetPasswordExpiredToken(t *testing.T) {
	svc := newAuthService(store.NewMemory(), notify.LogSender{})
	ctx := context.Background()
	_, err := svc.Signup(ctx, signupInput())
	require.NoError(t, err)
	_, err = svc.ForgotPassword(ctx, "+250788000111")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(time.Hour) }
	err = svc.ResetPassword(ctx, "+250788000111", "Ab12cd", "brandnew")
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, "reset token expired", appErr.Message)
}

func TestForgotPasswordSMSFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	sms := notify.NewMockSender(ctrl)
	sms.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(notify.Delivery{Message: "provider down"}, errors.New("provider down"))

	svc := newAuthService(store.NewMemory(), sms)
	ctx := context.Background()
	_, err := svc.Signup(ctx, signupInput())
	require.NoError(t, err)

	_, err = svc.ForgotPassword(ctx, "+250788000111")
	assert.True(t, apperr.Is(err, apperr.KindExternal))

	_, err = svc.ForgotPassword(ctx, "+250700000000")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
