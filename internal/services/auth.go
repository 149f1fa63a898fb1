package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/store"
)

const minPasswordLength = 6

type AuthConfig struct {
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	OTPTTL     time.Duration
}

type AuthService struct {
	store store.Store
	cfg   AuthConfig
	otp   notify.OTPGenerator
	sms   notify.Sender
	now   func() time.Time
}

func NewAuthService(s store.Store, cfg AuthConfig, otp notify.OTPGenerator, sms notify.Sender) *AuthService {
	return &AuthService{store: s, cfg: cfg, otp: otp, sms: sms, now: time.Now}
}

type SignupInput struct {
	Email    string
	Password string
	FullName string
	UserName string
	Phone    string
	Gender   string
	Location string
}

type Session struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresIn    int64        `json:"expiresIn"`
	User         *models.User `json:"user"`
}

// SignAccessToken issues the bearer token read by the auth middleware.
func SignAccessToken(secret string, user *models.User, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":    user.ID.Hex(),
		"userId": user.ID.Hex(),
		"role":   user.Role,
		"email":  user.Email,
		"exp":    time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateRefreshString() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func checkPassword(password string) error {
	if len(strings.TrimSpace(password)) < minPasswordLength {
		return apperr.Validationf("password must be at least %d characters", minPasswordLength)
	}
	return nil
}

/* =========================
   SIGNUP & LOGIN
========================= */

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	email, err := requireText(strings.ToLower(in.Email), "email")
	if err != nil {
		return nil, err
	}
	fullName, err := requireText(in.FullName, "fullName")
	if err != nil {
		return nil, err
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}
	phone := strings.TrimSpace(in.Phone)

	if _, err := s.store.Users.GetByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict("email already registered")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if phone != "" {
		if _, err := s.store.Users.GetByPhone(ctx, phone); err == nil {
			return nil, apperr.Conflict("phone already registered")
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("lookup phone: %w", err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := &models.User{
		ID:           primitive.NewObjectID(),
		Email:        email,
		PasswordHash: string(hash),
		FullName:     fullName,
		UserName:     strings.TrimSpace(in.UserName),
		Phone:        phone,
		Gender:       strings.TrimSpace(in.Gender),
		Location:     strings.TrimSpace(in.Location),
		Role:         models.RoleUser,
		Wishlist:     []primitive.ObjectID{},
		Orders:       []primitive.ObjectID{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("email or phone already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	log.Println("[AUTH] [INFO] user registered:", email)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, apperr.Validation("email and password are required")
	}

	user, err := s.store.Users.GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		log.Println("[AUTH] [ERROR] login invalid credentials")
		return nil, apperr.Unauthorized("invalid credentials")
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Println("[AUTH] [ERROR] login invalid credentials")
		return nil, apperr.Unauthorized("invalid credentials")
	}

	session, err := s.issueSession(ctx, user, primitive.NewObjectID())
	if err != nil {
		return nil, err
	}
	log.Println("[AUTH] [INFO] user login succeeded:", user.Email)
	return session, nil
}

/* =========================
   REFRESH & LOGOUT
========================= */

// Refresh rotates a refresh token: the presented one is revoked and points at
// its replacement.
func (s *AuthService) Refresh(ctx context.Context, plain string) (*Session, error) {
	plain, err := requireText(plain, "refreshToken")
	if err != nil {
		return nil, err
	}

	token, err := s.store.RefreshTokens.FindActive(ctx, hashToken(plain))
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Unauthorized("invalid refresh token")
	}
	if err != nil {
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}
	if token.Expired(s.now()) {
		if _, err := s.store.RefreshTokens.Revoke(ctx, token.ID, nil); err != nil {
			log.Println("[AUTH] [ERROR] revoke expired token failed:", err)
		}
		return nil, apperr.Unauthorized("refresh token expired")
	}

	user, err := s.store.Users.Get(ctx, token.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Unauthorized("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	replacementID := primitive.NewObjectID()
	ok, err := s.store.RefreshTokens.Revoke(ctx, token.ID, &replacementID)
	if err != nil {
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}
	if !ok {
		return nil, apperr.Unauthorized("invalid refresh token")
	}
	return s.issueSession(ctx, user, replacementID)
}

func (s *AuthService) Logout(ctx context.Context, plain string) error {
	plain, err := requireText(plain, "refreshToken")
	if err != nil {
		return err
	}
	ok, err := s.store.RefreshTokens.RevokeByHash(ctx, hashToken(plain))
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	if !ok {
		return apperr.Unauthorized("invalid refresh token")
	}
	return nil
}

func (s *AuthService) issueSession(ctx context.Context, user *models.User, refreshID primitive.ObjectID) (*Session, error) {
	access, err := SignAccessToken(s.cfg.JWTSecret, user, s.cfg.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	plain, err := generateRefreshString()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	now := s.now()
	refresh := &models.RefreshToken{
		ID:        refreshID,
		UserID:    user.ID,
		TokenHash: hashToken(plain),
		ExpiresAt: now.Add(s.cfg.RefreshTTL),
		CreatedAt: now,
	}
	if err := s.store.RefreshTokens.Create(ctx, refresh); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &Session{
		AccessToken:  access,
		RefreshToken: plain,
		ExpiresIn:    int64(s.cfg.AccessTTL.Seconds()),
		User:         user,
	}, nil
}

/* =========================
   PROFILE & PASSWORDS
========================= */

func (s *AuthService) Profile(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.store.Users.Get(ctx, userID)
	if err != nil {
		return nil, lookupErr(err, "user")
	}
	return user, nil
}

func (s *AuthService) UpdatePassword(ctx context.Context, userID primitive.ObjectID, current, next string) error {
	if strings.TrimSpace(current) == "" {
		return apperr.Validation("oldPassword is required")
	}
	if err := checkPassword(next); err != nil {
		return err
	}

	user, err := s.store.Users.Get(ctx, userID)
	if err != nil {
		return lookupErr(err, "user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return apperr.Validation("current password is incorrect")
	}
	return s.setPassword(ctx, user.ID, next)
}

func (s *AuthService) setPassword(ctx context.Context, userID primitive.ObjectID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.Users.SetPassword(ctx, userID, string(hash)); err != nil {
		return lookupErr(err, "user")
	}
	return nil
}

// ForgotPassword sends a one-time reset token to the account's phone. Only
// its bcrypt hash is stored.
func (s *AuthService) ForgotPassword(ctx context.Context, phone string) (notify.Delivery, error) {
	phone, err := requireText(phone, "phone")
	if err != nil {
		return notify.Delivery{}, err
	}
	user, err := s.store.Users.GetByPhone(ctx, phone)
	if err != nil {
		return notify.Delivery{}, lookupErr(err, "user")
	}

	code, err := s.otp.Generate()
	if err != nil {
		return notify.Delivery{}, fmt.Errorf("generate otp: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return notify.Delivery{}, fmt.Errorf("hash otp: %w", err)
	}
	if err := s.store.Users.SetResetOTP(ctx, user.ID, string(hash), s.now().Add(s.cfg.OTPTTL)); err != nil {
		return notify.Delivery{}, lookupErr(err, "user")
	}

	delivery, err := s.sms.Send(ctx, user.Phone, notify.ResetTokenMessage(code))
	if err != nil {
		return delivery, apperr.External("could not send reset token", err)
	}
	log.Println("[AUTH] [INFO] reset token sent to user:", user.ID.Hex())
	return delivery, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, phone, code, password string) error {
	phone, err := requireText(phone, "phone")
	if err != nil {
		return err
	}
	code, err = requireText(code, "otp")
	if err != nil {
		return err
	}
	if err := checkPassword(password); err != nil {
		return err
	}

	user, err := s.store.Users.GetByPhone(ctx, phone)
	if err != nil {
		return lookupErr(err, "user")
	}
	if user.ResetOTPHash == "" || user.ResetOTPExpiry == nil || s.now().After(*user.ResetOTPExpiry) {
		return apperr.Validation("reset token expired")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.ResetOTPHash), []byte(code)); err != nil {
		return apperr.Validation("invalid reset token")
	}

	if err := s.setPassword(ctx, user.ID, password); err != nil {
		return err
	}
	if err := s.store.Users.ClearResetOTP(ctx, user.ID); err != nil {
		return lookupErr(err, "user")
	}
	log.Println("[AUTH] [INFO] password reset for user:", user.ID.Hex())
	return nil
}
