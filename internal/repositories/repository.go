package repositories

import (
	"context"
	"time"

	"github.com/haramapp/lottery-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByPhone(ctx context.Context, phoneNumber string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Count(ctx context.Context) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

// OTPRepository defines the interface for OTP code data operations
type OTPRepository interface {
	Create(ctx context.Context, code *models.OTPCode) error
	// FindLatestUnused returns the most recently created unused code for
	// the phone/purpose pair, or mongo.ErrNoDocuments if none exists.
	FindLatestUnused(ctx context.Context, phoneNumber, purpose string) (*models.OTPCode, error)
	CountCreatedSince(ctx context.Context, phoneNumber string, since time.Time) (int64, error)
	// MarkUsed flips isUsed on the code only if it is still unused and
	// reports whether this call performed the flip.
	MarkUsed(ctx context.Context, id primitive.ObjectID) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

// TicketRepository defines the interface for lottery ticket data operations
type TicketRepository interface {
	Create(ctx context.Context, ticket *models.Ticket) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Ticket, error)
	ExistsByNumber(ctx context.Context, ticketNumber string) (bool, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Ticket, error)
	HasTicketSince(ctx context.Context, userID primitive.ObjectID, since time.Time) (bool, error)
	HasWonTicketSince(ctx context.Context, userID primitive.ObjectID, since time.Time) (bool, error)
	// FindWonByUser returns the user's current won ticket, or
	// mongo.ErrNoDocuments if they have none.
	FindWonByUser(ctx context.Context, userID primitive.ObjectID) (*models.Ticket, error)
	FindPendingSince(ctx context.Context, since time.Time) ([]*models.Ticket, error)
	FindWonSince(ctx context.Context, since time.Time) ([]*models.Ticket, error)
	FindAllWon(ctx context.Context) ([]*models.Ticket, error)
	// FindLatestCompletedInfo returns the user's most recent non-cancelled
	// ticket with both full name and national id populated, or
	// mongo.ErrNoDocuments if there is none.
	FindLatestCompletedInfo(ctx context.Context, userID primitive.ObjectID) (*models.Ticket, error)
	// MarkWon transitions a ticket to won only while it is still pending and
	// reports whether the transition happened. Empty carry-over fields are
	// left untouched on the document.
	MarkWon(ctx context.Context, id primitive.ObjectID, receivedDate, selectedPeriod, fullName, nationalID string) (bool, error)
	// MarkCancelled transitions a ticket to cancelled only while it is won
	// and reports whether the transition happened.
	MarkCancelled(ctx context.Context, id primitive.ObjectID) (bool, error)
	UpdateInfo(ctx context.Context, id primitive.ObjectID, info *models.WinnerInfoRequest) error
	EnsureIndexes(ctx context.Context) error
}
