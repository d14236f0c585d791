package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"marathon_backend/internals/configs"
	authModel "marathon_backend/internals/features/users/auth/model"
	authRepo "marathon_backend/internals/features/users/auth/repository"
	helper "marathon_backend/internals/helpers"
)

const maxOTPAttempts = 5

// OTPSender delivers the login code (WhatsApp in production).
type OTPSender interface {
	SendOTP(ctx context.Context, mobile, code string) error
}

type AuthService struct {
	db     *gorm.DB
	cfg    configs.AuthConfig
	sender OTPSender
	redis  *redis.Client
	log    *zap.Logger
	now    func() time.Time
}

func NewAuthService(db *gorm.DB, cfg configs.AuthConfig, sender OTPSender, rdb *redis.Client, log *zap.Logger) *AuthService {
	return &AuthService{db: db, cfg: cfg, sender: sender, redis: rdb, log: log.Named("auth"), now: time.Now}
}

type LoginResult struct {
	Token string               `json:"token"`
	User  *authModel.UserModel `json:"user"`
}

// SendOTP creates the user on first contact and sends a fresh 6-digit code.
func (s *AuthService) SendOTP(ctx context.Context, mobile string) error {
	user, err := authRepo.FirstOrCreateByMobile(ctx, s.db, mobile)
	if err != nil {
		return err
	}

	now := s.now()
	if user.UserOTPSentAt != nil && now.Sub(*user.UserOTPSentAt) < s.cfg.OTPResendAfter {
		return helper.Conflict("OTP_THROTTLED", "please wait before requesting another code")
	}
	if ok, err := s.reserveSend(ctx, mobile); err != nil {
		s.log.Warn("otp throttle unavailable", zap.Error(err))
	} else if !ok {
		return helper.Conflict("OTP_THROTTLED", "please wait before requesting another code")
	}

	code, err := GenerateOTP()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash otp: %w", err)
	}
	if err := authRepo.SaveOTP(ctx, s.db, user.UserID, string(hash), now); err != nil {
		return err
	}

	if s.cfg.DevMode {
		s.log.Info("otp generated", zap.String("mobile", mobile), zap.String("otp", code))
	}
	if s.sender == nil {
		return nil
	}
	if err := s.sender.SendOTP(ctx, mobile, code); err != nil {
		s.log.Error("otp delivery failed", zap.String("mobile", mobile), zap.Error(err))
		return helper.Upstream("could not deliver the code", err)
	}
	return nil
}

// reserveSend is a cross-instance guard; false means a code went out very recently.
func (s *AuthService) reserveSend(ctx context.Context, mobile string) (bool, error) {
	if s.redis == nil || s.cfg.OTPResendAfter <= 0 {
		return true, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return s.redis.SetNX(ctx, "marathon:otp-throttle:"+mobile, 1, s.cfg.OTPResendAfter).Result()
}

func (s *AuthService) VerifyOTP(ctx context.Context, mobile, code string) (*LoginResult, error) {
	user, err := authRepo.FindUserByMobile(ctx, s.db, mobile)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, helper.Unauthorized("invalid or expired code")
	}
	if err != nil {
		return nil, err
	}
	if user.UserOTPHash == nil || user.UserOTPSentAt == nil {
		return nil, helper.Unauthorized("invalid or expired code")
	}
	if s.now().Sub(*user.UserOTPSentAt) > s.cfg.OTPExpiry {
		return nil, helper.Unauthorized("code expired, request a new one")
	}
	if user.UserOTPAttempts >= maxOTPAttempts {
		return nil, helper.Unauthorized("too many attempts, request a new code")
	}
	if bcrypt.CompareHashAndPassword([]byte(*user.UserOTPHash), []byte(code)) != nil {
		if err := authRepo.IncrementOTPAttempts(ctx, s.db, user.UserID); err != nil {
			s.log.Warn("count otp attempt failed", zap.Error(err))
		}
		return nil, helper.Unauthorized("invalid or expired code")
	}

	now := s.now()
	if err := authRepo.MarkVerified(ctx, s.db, user.UserID, now); err != nil {
		return nil, err
	}
	user.UserIsVerified = true
	user.UserLastLoginAt = &now

	token, err := helper.IssueToken(s.cfg.JWTSecret, user.UserID, roleOf(user), s.cfg.JWTExpiresIn)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: user}, nil
}

// AdminLogin checks ADMIN_MOBILE / ADMIN_PASSWORD. The password may be stored as a bcrypt hash.
func (s *AuthService) AdminLogin(ctx context.Context, mobile, password string) (string, error) {
	if s.cfg.AdminMobile == "" || s.cfg.AdminPassword == "" {
		return "", helper.Forbidden("admin login is not configured")
	}
	if !CheckAdminCredentials(s.cfg, mobile, password) {
		return "", helper.Unauthorized("invalid credentials")
	}
	return helper.IssueToken(s.cfg.JWTSecret, 0, helper.RoleAdmin, s.cfg.JWTExpiresIn)
}

func CheckAdminCredentials(cfg configs.AuthConfig, mobile, password string) bool {
	mobileOK := subtle.ConstantTimeCompare([]byte(mobile), []byte(cfg.AdminMobile)) == 1
	var passOK bool
	if strings.HasPrefix(cfg.AdminPassword, "$2") {
		passOK = bcrypt.CompareHashAndPassword([]byte(cfg.AdminPassword), []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(cfg.AdminPassword)) == 1
	}
	return mobileOK && passOK
}

func (s *AuthService) Me(ctx context.Context, userID uint) (*authModel.UserModel, error) {
	u, err := authRepo.FindUserByID(ctx, s.db, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, helper.NotFound("user not found")
	}
	return u, err
}

// Logout revokes the presented token until its own expiry.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	if raw == "" {
		return helper.Unauthorized("authentication required")
	}
	claims, err := helper.ParseToken(s.cfg.JWTSecret, raw)
	if err != nil {
		return helper.Unauthorized("invalid token")
	}
	exp := s.now().Add(s.cfg.JWTExpiresIn)
	if v, ok := claims["exp"].(float64); ok {
		exp = time.Unix(int64(v), 0)
	}
	return authRepo.BlacklistToken(ctx, s.db, raw, exp)
}

// GenerateOTP returns six random digits from crypto/rand.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func roleOf(u *authModel.UserModel) string {
	if u.UserRole == helper.RoleAdmin {
		return helper.RoleAdmin
	}
	return helper.RoleUser
}
