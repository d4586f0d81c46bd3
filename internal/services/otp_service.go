package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/haramapp/lottery-backend/internal/config"
	"github.com/haramapp/lottery-backend/internal/models"
	"github.com/haramapp/lottery-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure OTPServiceImpl implements OTPService
var _ OTPService = (*OTPServiceImpl)(nil)

// OTPServiceImpl handles OTP issuance, verification and cleanup
type OTPServiceImpl struct {
	otpRepo repositories.OTPRepository
	cfg     *config.Config
}

// NewOTPService creates a new OTPServiceImpl
func NewOTPService(otpRepo repositories.OTPRepository, cfg *config.Config) *OTPServiceImpl {
	return &OTPServiceImpl{
		otpRepo: otpRepo,
		cfg:     cfg,
	}
}

// RequestCode issues a new code for the phone/purpose pair. The trailing
// rate-limit window counts codes of any purpose; the stored record carries
// only the bcrypt hash.
func (s *OTPServiceImpl) RequestCode(ctx context.Context, phoneNumber, purpose string, now time.Time) (string, *models.OTPCode, error) {
	windowStart := now.Add(-time.Duration(s.cfg.OTP.RateLimitMinutes) * time.Minute)
	recent, err := s.otpRepo.CountCreatedSince(ctx, phoneNumber, windowStart)
	if err != nil {
		slog.Error("Failed to count recent OTP codes", "error", err, "phone", maskPhone(phoneNumber))
		return "", nil, fmt.Errorf("failed to check OTP rate limit: %w", err)
	}
	if recent >= int64(s.cfg.OTP.RateLimitCount) {
		slog.Warn("OTP request rate limited", "phone", maskPhone(phoneNumber), "recent", recent)
		return "", nil, ErrRateLimited
	}

	code, err := generateNumericCode(s.cfg.OTP.CodeLength)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate OTP code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, fmt.Errorf("failed to hash OTP code: %w", err)
	}

	otp := &models.OTPCode{
		PhoneNumber: phoneNumber,
		CodeHash:    string(hash),
		Purpose:     purpose,
		CreatedAt:   now,
		ExpiresAt:   now.Add(time.Duration(s.cfg.OTP.ExpiryMinutes) * time.Minute),
		IsUsed:      false,
	}
	if err := s.otpRepo.Create(ctx, otp); err != nil {
		slog.Error("Failed to store OTP code", "error", err, "phone", maskPhone(phoneNumber))
		return "", nil, fmt.Errorf("failed to store OTP code: %w", err)
	}

	slog.Info("OTP code issued", "phone", maskPhone(phoneNumber), "purpose", purpose, "expiresAt", otp.ExpiresAt)
	return code, otp, nil
}

// VerifyCode verifies the submitted code against the newest unused code for
// the pair. The mark-used write is conditioned on the unused state, so a
// code can be consumed exactly once even under concurrent attempts.
func (s *OTPServiceImpl) VerifyCode(ctx context.Context, phoneNumber, code, purpose string, now time.Time) error {
	otp, err := s.otpRepo.FindLatestUnused(ctx, phoneNumber, purpose)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrCodeNotFound
		}
		slog.Error("Failed to look up OTP code", "error", err, "phone", maskPhone(phoneNumber))
		return fmt.Errorf("failed to look up OTP code: %w", err)
	}

	if otp.IsExpired(now) {
		return ErrCodeExpired
	}

	if bcrypt.CompareHashAndPassword([]byte(otp.CodeHash), []byte(code)) != nil {
		return ErrCodeMismatch
	}

	consumed, err := s.otpRepo.MarkUsed(ctx, otp.ID)
	if err != nil {
		slog.Error("Failed to mark OTP code as used", "error", err, "otpId", otp.ID)
		return fmt.Errorf("failed to consume OTP code: %w", err)
	}
	if !consumed {
		// A concurrent verification won the race; for this caller the code
		// no longer exists in an unused state.
		return ErrCodeNotFound
	}
	return nil
}

// CleanupExpired batch-deletes codes past expiry. Advisory: verification
// never depends on it.
func (s *OTPServiceImpl) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	removed, err := s.otpRepo.DeleteExpired(ctx, now)
	if err != nil {
		slog.Error("Failed to clean up expired OTP codes", "error", err)
		return 0, fmt.Errorf("failed to clean up expired OTP codes: %w", err)
	}
	if removed > 0 {
		slog.Info("Expired OTP codes removed", "count", removed)
	}
	return removed, nil
}

// generateNumericCode draws a fixed-length digit string from crypto/rand.
// Bytes of 250 and above are rejected so every digit is equally likely.
func generateNumericCode(length int) (string, error) {
	const digits = "0123456789"
	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= 250 {
				continue
			}
			out = append(out, digits[int(b)%len(digits)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}

// maskPhone masks a phone number for logging (first 3 and last 2 digits)
func maskPhone(phone string) string {
	if len(phone) > 5 {
		return phone[:3] + "*****" + phone[len(phone)-2:]
	}
	return "*****"
}
