package services

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/haramapp/lottery-backend/internal/config"
	"github.com/haramapp/lottery-backend/internal/models"
	"github.com/haramapp/lottery-backend/internal/repositories"
	"github.com/haramapp/lottery-backend/internal/timewindow"
	"github.com/haramapp/lottery-backend/pkg/smsgateway"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure LotteryServiceImpl implements LotteryService
var _ LotteryService = (*LotteryServiceImpl)(nil)

const (
	ticketNumberLength   = 10
	ticketNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	ticketNumberRetries  = 5

	// Default labels stamped on every winner at selection time
	defaultReceivedDate   = "پنجشنبه"
	defaultSelectedPeriod = "ناهار"
)

// LotteryServiceImpl handles ticket lifecycle, winner selection and the
// cancellation sweep
type LotteryServiceImpl struct {
	ticketRepo repositories.TicketRepository
	userRepo   repositories.UserRepository
	gateway    smsgateway.Gateway
	cal        *timewindow.Calendar
	cfg        *config.Config

	mu  sync.Mutex
	rng *rand.Rand
}

// NewLotteryService creates a new LotteryServiceImpl
func NewLotteryService(
	ticketRepo repositories.TicketRepository,
	userRepo repositories.UserRepository,
	gateway smsgateway.Gateway,
	cal *timewindow.Calendar,
	cfg *config.Config,
) *LotteryServiceImpl {
	return &LotteryServiceImpl{
		ticketRepo: ticketRepo,
		userRepo:   userRepo,
		gateway:    gateway,
		cal:        cal,
		cfg:        cfg,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Participate creates a pending ticket for the user in the current
// registration week. The unique {userId, weekStart} index is the final
// arbiter for concurrent calls from the same user.
func (s *LotteryServiceImpl) Participate(ctx context.Context, userID primitive.ObjectID, now time.Time) (*models.Ticket, error) {
	if !s.cal.IsRegistrationOpen(now) {
		return nil, ErrRegistrationClosed
	}

	weekStart := s.cal.WeekStart(now)

	participated, err := s.ticketRepo.HasTicketSince(ctx, userID, weekStart)
	if err != nil {
		return nil, fmt.Errorf("failed to check participation: %w", err)
	}
	if participated {
		return nil, ErrAlreadyParticipated
	}

	recentWinStart := now.AddDate(0, 0, -s.cfg.Lottery.RecentWinDays)
	recentWin, err := s.ticketRepo.HasWonTicketSince(ctx, userID, recentWinStart)
	if err != nil {
		return nil, fmt.Errorf("failed to check recent wins: %w", err)
	}
	if recentWin {
		return nil, ErrRecentWinner
	}

	for attempt := 0; attempt < ticketNumberRetries; attempt++ {
		number, err := s.generateTicketNumber(ctx)
		if err != nil {
			return nil, err
		}

		ticket := &models.Ticket{
			UserID:       userID,
			TicketNumber: number,
			WeekStart:    weekStart,
			Status:       models.TicketStatusPending,
			CreatedAt:    now,
		}
		err = s.ticketRepo.Create(ctx, ticket)
		if err == nil {
			slog.Info("Ticket created", "ticketNumber", number, "userId", userID, "weekStart", weekStart)
			return ticket, nil
		}
		if mongo.IsDuplicateKeyError(err) {
			if strings.Contains(err.Error(), "ticketNumber") {
				// Number collision, draw a new one
				continue
			}
			// The per-week index fired: a concurrent call won
			return nil, ErrAlreadyParticipated
		}
		slog.Error("Failed to create ticket", "error", err, "userId", userID)
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}
	return nil, fmt.Errorf("failed to generate a unique ticket number after %d attempts", ticketNumberRetries)
}

// WinnerTicket returns the user's current won ticket
func (s *LotteryServiceImpl) WinnerTicket(ctx context.Context, userID primitive.ObjectID) (*models.Ticket, error) {
	ticket, err := s.ticketRepo.FindWonByUser(ctx, userID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNoWinningTicket
		}
		return nil, fmt.Errorf("failed to look up winning ticket: %w", err)
	}
	return ticket, nil
}

// CompleteWinnerInfo overwrites the delivery-info fields on the user's won
// ticket. The deadline boundary itself counts as passed.
func (s *LotteryServiceImpl) CompleteWinnerInfo(ctx context.Context, userID primitive.ObjectID, req *models.WinnerInfoRequest, now time.Time) (*models.Ticket, error) {
	if err := validateWinnerInfo(req); err != nil {
		return nil, err
	}

	ticket, err := s.WinnerTicket(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !now.Before(s.cal.CompletionDeadline(ticket.CreatedAt)) {
		return nil, ErrDeadlinePassed
	}

	if err := s.ticketRepo.UpdateInfo(ctx, ticket.ID, req); err != nil {
		slog.Error("Failed to update winner info", "error", err, "ticketId", ticket.ID)
		return nil, fmt.Errorf("failed to update winner info: %w", err)
	}

	ticket.FullName = req.FullName
	ticket.NationalID = req.NationalID
	ticket.ReceivedDate = req.ReceivedDate
	ticket.SelectedPeriod = req.SelectedPeriod
	ticket.Quantity = req.Quantity
	slog.Info("Winner info completed", "ticketNumber", ticket.TicketNumber, "userId", userID)
	return ticket, nil
}

// TicketHistory returns all of the user's tickets, newest first
func (s *LotteryServiceImpl) TicketHistory(ctx context.Context, userID primitive.ObjectID) ([]*models.Ticket, error) {
	tickets, err := s.ticketRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ticket history: %w", err)
	}
	return tickets, nil
}

// CurrentWeekPendingTickets returns the current week's candidate pool
func (s *LotteryServiceImpl) CurrentWeekPendingTickets(ctx context.Context, now time.Time) ([]*models.Ticket, error) {
	tickets, err := s.ticketRepo.FindPendingSince(ctx, s.cal.WeekStart(now))
	if err != nil {
		return nil, fmt.Errorf("failed to load pending tickets: %w", err)
	}
	return tickets, nil
}

// CurrentWeekWinners returns the tickets won in the current week
func (s *LotteryServiceImpl) CurrentWeekWinners(ctx context.Context, now time.Time) ([]*models.Ticket, error) {
	tickets, err := s.ticketRepo.FindWonSince(ctx, s.cal.WeekStart(now))
	if err != nil {
		return nil, fmt.Errorf("failed to load current winners: %w", err)
	}
	return tickets, nil
}

// SelectWinners draws up to count tickets uniformly at random from the
// current week's pending pool and marks each one won. Winners inherit name
// and national id from the owner's most recent completed ticket when one
// exists. Each winner is written in its own update conditioned on the
// pending state, so a concurrent run can never double-select a ticket.
func (s *LotteryServiceImpl) SelectWinners(ctx context.Context, now time.Time, count int) ([]*models.Ticket, error) {
	pool, err := s.CurrentWeekPendingTickets(ctx, now)
	if err != nil {
		return nil, err
	}

	if count > len(pool) {
		count = len(pool)
	}
	if count <= 0 {
		slog.Info("No pending tickets to draw from", "weekStart", s.cal.WeekStart(now))
		return []*models.Ticket{}, nil
	}

	s.mu.Lock()
	s.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	s.mu.Unlock()

	winners := make([]*models.Ticket, 0, count)
	for _, ticket := range pool[:count] {
		fullName, nationalID := "", ""
		prev, err := s.ticketRepo.FindLatestCompletedInfo(ctx, ticket.UserID)
		if err != nil && err != mongo.ErrNoDocuments {
			slog.Error("Failed to load carry-over info", "error", err, "userId", ticket.UserID)
			return winners, fmt.Errorf("failed to load carry-over info: %w", err)
		}
		if err == nil && prev.HasCarryOverInfo() {
			fullName = prev.FullName
			nationalID = prev.NationalID
		}

		won, err := s.ticketRepo.MarkWon(ctx, ticket.ID, defaultReceivedDate, defaultSelectedPeriod, fullName, nationalID)
		if err != nil {
			slog.Error("Failed to mark winner", "error", err, "ticketId", ticket.ID)
			return winners, fmt.Errorf("failed to mark winner: %w", err)
		}
		if !won {
			// Another selection run claimed this ticket first
			slog.Warn("Ticket left pending state during draw, skipping", "ticketNumber", ticket.TicketNumber)
			continue
		}

		ticket.Status = models.TicketStatusWon
		ticket.ReceivedDate = defaultReceivedDate
		ticket.SelectedPeriod = defaultSelectedPeriod
		ticket.FullName = fullName
		ticket.NationalID = nationalID
		winners = append(winners, ticket)
	}

	slog.Info("Winners selected", "count", len(winners), "poolSize", len(pool))
	return winners, nil
}

// NotifyWinners sends the ticket number to each winner's phone. Failures
// are counted and logged; they never abort the batch or revert a win.
func (s *LotteryServiceImpl) NotifyWinners(ctx context.Context, winners []*models.Ticket) (int, int) {
	sent, failed := 0, 0
	for _, winner := range winners {
		user, err := s.userRepo.FindByID(ctx, winner.UserID)
		if err != nil {
			failed++
			slog.Error("Failed to load winner's user record", "error", err, "ticketNumber", winner.TicketNumber)
			continue
		}

		_, err = s.gateway.SendTemplate(ctx, user.PhoneNumber, s.cfg.SMS.WinnerTemplate, winner.TicketNumber)
		if err != nil {
			failed++
			slog.Error("Failed to send winner SMS", "error", err,
				"phone", maskPhone(user.PhoneNumber), "ticketNumber", winner.TicketNumber)
			continue
		}
		sent++
		slog.Info("Winner SMS sent", "phone", maskPhone(user.PhoneNumber), "ticketNumber", winner.TicketNumber)
	}
	return sent, failed
}

// RunDraw performs the weekly draw end to end. Both the scheduler and the
// manual admin trigger land here, so the rules live in exactly one place.
func (s *LotteryServiceImpl) RunDraw(ctx context.Context, now time.Time) ([]*models.Ticket, error) {
	winners, err := s.SelectWinners(ctx, now, s.cfg.Lottery.WinnersCount)
	if err != nil {
		return winners, err
	}
	if len(winners) == 0 {
		return winners, nil
	}

	sent, failed := s.NotifyWinners(ctx, winners)
	slog.Info("Draw completed", "winners", len(winners), "smsSent", sent, "smsFailed", failed)
	return winners, nil
}

// SweepIncompleteWinners cancels every won ticket whose completion deadline
// has been reached with delivery info still missing. Already-cancelled
// tickets are never revisited, so re-running is a no-op.
func (s *LotteryServiceImpl) SweepIncompleteWinners(ctx context.Context, now time.Time) (int, error) {
	won, err := s.ticketRepo.FindAllWon(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load won tickets: %w", err)
	}

	cancelled := 0
	for _, ticket := range won {
		if now.Before(s.cal.CompletionDeadline(ticket.CreatedAt)) {
			continue
		}
		if ticket.InfoComplete() {
			continue
		}

		done, err := s.ticketRepo.MarkCancelled(ctx, ticket.ID)
		if err != nil {
			// Per-ticket writes: whatever was cancelled so far stays cancelled
			slog.Error("Failed to cancel incomplete winner", "error", err, "ticketNumber", ticket.TicketNumber)
			return cancelled, fmt.Errorf("failed to cancel ticket %s: %w", ticket.TicketNumber, err)
		}
		if done {
			cancelled++
			slog.Info("Cancelled incomplete winner", "ticketNumber", ticket.TicketNumber, "userId", ticket.UserID)
		}
	}

	slog.Info("Winner sweep finished", "cancelled", cancelled, "examined", len(won))
	return cancelled, nil
}

// generateTicketNumber draws random candidates until one is unused
func (s *LotteryServiceImpl) generateTicketNumber(ctx context.Context) (string, error) {
	for {
		buf := make([]byte, ticketNumberLength)
		s.mu.Lock()
		for i := range buf {
			buf[i] = ticketNumberAlphabet[s.rng.Intn(len(ticketNumberAlphabet))]
		}
		s.mu.Unlock()
		number := string(buf)

		exists, err := s.ticketRepo.ExistsByNumber(ctx, number)
		if err != nil {
			return "", fmt.Errorf("failed to check ticket number: %w", err)
		}
		if !exists {
			return number, nil
		}
	}
}

// validateWinnerInfo checks the delivery details submitted by a winner
func validateWinnerInfo(req *models.WinnerInfoRequest) error {
	if strings.TrimSpace(req.FullName) == "" {
		return &ValidationError{Field: "fullName", Message: "must not be empty"}
	}
	if !nationalIDPattern.MatchString(req.NationalID) {
		return &ValidationError{Field: "nationalId", Message: "must be exactly 10 digits"}
	}
	if strings.TrimSpace(req.ReceivedDate) == "" {
		return &ValidationError{Field: "receivedDate", Message: "must not be empty"}
	}
	if strings.TrimSpace(req.SelectedPeriod) == "" {
		return &ValidationError{Field: "selectedPeriod", Message: "must not be empty"}
	}
	if req.Quantity < 1 || req.Quantity > 3 {
		return &ValidationError{Field: "quantity", Message: "must be between 1 and 3"}
	}
	return nil
}
