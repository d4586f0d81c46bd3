package services

import (
	"context"
	"time"

	"github.com/haramapp/lottery-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OTPService defines the interface for OTP issuance and verification
type OTPService interface {
	// RequestCode issues a fresh code for the phone/purpose pair and returns
	// the plaintext for out-of-band delivery. The plaintext never reaches
	// the store.
	RequestCode(ctx context.Context, phoneNumber, purpose string, now time.Time) (code string, otp *models.OTPCode, err error)

	// VerifyCode checks the submitted code against the newest unused code
	// for the pair and consumes it on success.
	VerifyCode(ctx context.Context, phoneNumber, code, purpose string, now time.Time) error

	// CleanupExpired removes codes past their expiry and returns the count
	CleanupExpired(ctx context.Context, now time.Time) (int64, error)
}

// AuthService defines the interface for phone-number authentication
type AuthService interface {
	RequestOTP(ctx context.Context, phoneNumber, purpose string) (expiresInMinutes int, err error)
	// VerifyOTP authenticates the phone number. For the register purpose a
	// new verified user is created; created reports whether that happened.
	VerifyOTP(ctx context.Context, phoneNumber, code, purpose string) (user *models.User, pair *models.TokenPair, created bool, err error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	Profile(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID primitive.ObjectID, req *models.UpdateProfileRequest) (*models.User, error)
}

// LotteryService defines the interface for the weekly lottery lifecycle
type LotteryService interface {
	// Participate creates a pending ticket for the user if the registration
	// window is open and the eligibility rules hold.
	Participate(ctx context.Context, userID primitive.ObjectID, now time.Time) (*models.Ticket, error)

	// WinnerTicket returns the user's current won ticket
	WinnerTicket(ctx context.Context, userID primitive.ObjectID) (*models.Ticket, error)

	// CompleteWinnerInfo fills in the delivery details on the user's won
	// ticket before the completion deadline.
	CompleteWinnerInfo(ctx context.Context, userID primitive.ObjectID, req *models.WinnerInfoRequest, now time.Time) (*models.Ticket, error)

	// TicketHistory returns all of the user's tickets, newest first
	TicketHistory(ctx context.Context, userID primitive.ObjectID) ([]*models.Ticket, error)

	// CurrentWeekPendingTickets returns the current week's candidate pool
	CurrentWeekPendingTickets(ctx context.Context, now time.Time) ([]*models.Ticket, error)

	// CurrentWeekWinners returns the tickets won in the current week
	CurrentWeekWinners(ctx context.Context, now time.Time) ([]*models.Ticket, error)

	// SelectWinners draws up to count winners uniformly at random from the
	// current week's pending pool and marks them won.
	SelectWinners(ctx context.Context, now time.Time, count int) ([]*models.Ticket, error)

	// NotifyWinners sends a per-winner SMS and returns sent/failed counts.
	// A failed delivery never aborts the batch.
	NotifyWinners(ctx context.Context, winners []*models.Ticket) (sent, failed int)

	// RunDraw performs the full weekly draw: selection plus notification.
	// The scheduler and the manual admin trigger both call this.
	RunDraw(ctx context.Context, now time.Time) ([]*models.Ticket, error)

	// SweepIncompleteWinners cancels won tickets past their completion
	// deadline with missing info. Idempotent.
	SweepIncompleteWinners(ctx context.Context, now time.Time) (int, error)
}
