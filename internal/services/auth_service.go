package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/haramapp/lottery-backend/internal/config"
	"github.com/haramapp/lottery-backend/internal/models"
	"github.com/haramapp/lottery-backend/internal/repositories"
	"github.com/haramapp/lottery-backend/pkg/jwt"
	"github.com/haramapp/lottery-backend/pkg/smsgateway"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure AuthServiceImpl implements AuthService
var _ AuthService = (*AuthServiceImpl)(nil)

var (
	phonePattern      = regexp.MustCompile(`^[0-9]{10,15}$`)
	nationalIDPattern = regexp.MustCompile(`^[0-9]{10}$`)
)

// AuthServiceImpl handles OTP-based registration and login
type AuthServiceImpl struct {
	userRepo   repositories.UserRepository
	otpService OTPService
	tokens     *jwt.TokenService
	gateway    smsgateway.Gateway
	cfg        *config.Config
}

// NewAuthService creates a new AuthServiceImpl
func NewAuthService(
	userRepo repositories.UserRepository,
	otpService OTPService,
	tokens *jwt.TokenService,
	gateway smsgateway.Gateway,
	cfg *config.Config,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		userRepo:   userRepo,
		otpService: otpService,
		tokens:     tokens,
		gateway:    gateway,
		cfg:        cfg,
	}
}

// RequestOTP issues a code for the phone number and delivers it via the SMS
// gateway. Registration requires the number to be new; login requires it to
// be known.
func (s *AuthServiceImpl) RequestOTP(ctx context.Context, phoneNumber, purpose string) (int, error) {
	phone, err := normalizePhone(phoneNumber)
	if err != nil {
		return 0, err
	}

	_, err = s.userRepo.FindByPhone(ctx, phone)
	switch purpose {
	case models.OTPPurposeRegister:
		if err == nil {
			return 0, ErrUserExists
		}
		if err != mongo.ErrNoDocuments {
			return 0, fmt.Errorf("failed to look up user: %w", err)
		}
	case models.OTPPurposeLogin:
		if err == mongo.ErrNoDocuments {
			return 0, ErrUserNotFound
		}
		if err != nil {
			return 0, fmt.Errorf("failed to look up user: %w", err)
		}
	default:
		return 0, &ValidationError{Field: "purpose", Message: "must be register or login"}
	}

	code, otp, err := s.otpService.RequestCode(ctx, phone, purpose, time.Now())
	if err != nil {
		return 0, err
	}

	if _, err := s.gateway.SendTemplate(ctx, phone, s.cfg.SMS.OTPTemplate, code); err != nil {
		slog.Error("Failed to deliver OTP SMS", "error", err, "phone", maskPhone(phone))
		return 0, fmt.Errorf("failed to send OTP: %w", err)
	}

	return int(time.Until(otp.ExpiresAt).Minutes()), nil
}

// VerifyOTP consumes the code and authenticates the phone number. A register
// verification creates a new verified user; a login verification marks an
// unverified user as verified.
func (s *AuthServiceImpl) VerifyOTP(ctx context.Context, phoneNumber, code, purpose string) (*models.User, *models.TokenPair, bool, error) {
	phone, err := normalizePhone(phoneNumber)
	if err != nil {
		return nil, nil, false, err
	}

	if err := s.otpService.VerifyCode(ctx, phone, code, purpose, time.Now()); err != nil {
		return nil, nil, false, err
	}

	var user *models.User
	created := false

	switch purpose {
	case models.OTPPurposeRegister:
		user = &models.User{
			PhoneNumber:     phone,
			IsPhoneVerified: true,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, nil, false, ErrUserExists
			}
			slog.Error("Failed to create user", "error", err, "phone", maskPhone(phone))
			return nil, nil, false, fmt.Errorf("failed to create user: %w", err)
		}
		created = true
		slog.Info("User registered", "userId", user.ID, "phone", maskPhone(phone))

	case models.OTPPurposeLogin:
		user, err = s.userRepo.FindByPhone(ctx, phone)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, nil, false, ErrUserNotFound
			}
			return nil, nil, false, fmt.Errorf("failed to look up user: %w", err)
		}
		if !user.IsPhoneVerified {
			user.IsPhoneVerified = true
			if err := s.userRepo.Update(ctx, user); err != nil {
				slog.Error("Failed to update verification flag", "error", err, "userId", user.ID)
				return nil, nil, false, fmt.Errorf("failed to update user: %w", err)
			}
		}

	default:
		return nil, nil, false, &ValidationError{Field: "purpose", Message: "must be register or login"}
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, nil, false, err
	}
	return user, pair, created, nil
}

// Refresh validates a refresh token and issues a fresh pair
func (s *AuthServiceImpl) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	claims, err := s.tokens.Validate(refreshToken, jwt.TokenTypeRefresh)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token subject: %w", err)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	return s.issuePair(user)
}

// Profile returns the user's profile
func (s *AuthServiceImpl) Profile(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return user, nil
}

// UpdateProfile updates the mutable profile fields
func (s *AuthServiceImpl) UpdateProfile(ctx context.Context, userID primitive.ObjectID, req *models.UpdateProfileRequest) (*models.User, error) {
	if req.NationalID != "" && !nationalIDPattern.MatchString(req.NationalID) {
		return nil, &ValidationError{Field: "nationalId", Message: "must be exactly 10 digits"}
	}

	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.NationalID != "" {
		user.NationalID = req.NationalID
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func (s *AuthServiceImpl) issuePair(user *models.User) (*models.TokenPair, error) {
	access, refresh, err := s.tokens.IssuePair(user.ID.Hex(), user.PhoneNumber)
	if err != nil {
		slog.Error("Failed to issue token pair", "error", err, "userId", user.ID)
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}
	return &models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// normalizePhone strips separators and validates the remaining digit string
func normalizePhone(phoneNumber string) (string, error) {
	var b strings.Builder
	for _, r := range phoneNumber {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '+' || r == '(' || r == ')':
			// separator, drop it
		default:
			return "", &ValidationError{Field: "phoneNumber", Message: "contains invalid characters"}
		}
	}
	phone := b.String()
	if !phonePattern.MatchString(phone) {
		return "", &ValidationError{Field: "phoneNumber", Message: "must be 10 to 15 digits"}
	}
	return phone, nil
}
