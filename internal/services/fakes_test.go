package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/haramapp/lottery-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// duplicateKeyError mimics the server-side unique index violation so the
// services see exactly what the driver would surface.
func duplicateKeyError(index string) error {
	return mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{
			Code:    11000,
			Message: fmt.Sprintf("E11000 duplicate key error collection: test index: %s", index),
		}},
	}
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*models.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.PhoneNumber == user.PhoneNumber {
			return duplicateKeyError("phoneNumber_unique")
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) FindByPhone(ctx context.Context, phoneNumber string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.PhoneNumber == phoneNumber {
			clone := *u
			return &clone, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return mongo.ErrNoDocuments
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

func (r *fakeUserRepo) EnsureIndexes(ctx context.Context) error { return nil }

type fakeOTPRepo struct {
	mu    sync.Mutex
	codes []*models.OTPCode
}

func newFakeOTPRepo() *fakeOTPRepo { return &fakeOTPRepo{} }

func (r *fakeOTPRepo) Create(ctx context.Context, code *models.OTPCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if code.ID.IsZero() {
		code.ID = primitive.NewObjectID()
	}
	clone := *code
	r.codes = append(r.codes, &clone)
	return nil
}

func (r *fakeOTPRepo) FindLatestUnused(ctx context.Context, phoneNumber, purpose string) (*models.OTPCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.OTPCode
	for _, c := range r.codes {
		if c.PhoneNumber != phoneNumber || c.Purpose != purpose || c.IsUsed {
			continue
		}
		if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
			latest = c
		}
	}
	if latest == nil {
		return nil, mongo.ErrNoDocuments
	}
	clone := *latest
	return &clone, nil
}

func (r *fakeOTPRepo) CountCreatedSince(ctx context.Context, phoneNumber string, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.codes {
		if c.PhoneNumber == phoneNumber && !c.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *fakeOTPRepo) MarkUsed(ctx context.Context, id primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.codes {
		if c.ID == id && !c.IsUsed {
			c.IsUsed = true
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeOTPRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.codes[:0]
	var removed int64
	for _, c := range r.codes {
		if c.IsExpired(now) {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	r.codes = kept
	return removed, nil
}

func (r *fakeOTPRepo) EnsureIndexes(ctx context.Context) error { return nil }

type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets []*models.Ticket

	// failCreate forces the next Create to return this error once
	failCreate error
}

func newFakeTicketRepo() *fakeTicketRepo { return &fakeTicketRepo{} }

func (r *fakeTicketRepo) Create(ctx context.Context, ticket *models.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		err := r.failCreate
		r.failCreate = nil
		return err
	}
	for _, t := range r.tickets {
		if t.TicketNumber == ticket.TicketNumber {
			return duplicateKeyError("ticketNumber_unique")
		}
		if t.UserID == ticket.UserID && t.WeekStart.Equal(ticket.WeekStart) {
			return duplicateKeyError("userId_weekStart_unique")
		}
	}
	if ticket.ID.IsZero() {
		ticket.ID = primitive.NewObjectID()
	}
	clone := *ticket
	r.tickets = append(r.tickets, &clone)
	return nil
}

func (r *fakeTicketRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.ID == id {
			clone := *t
			return &clone, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeTicketRepo) ExistsByNumber(ctx context.Context, ticketNumber string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.TicketNumber == ticketNumber {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeTicketRepo) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Ticket{}
	for _, t := range r.tickets {
		if t.UserID == userID {
			clone := *t
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeTicketRepo) HasTicketSince(ctx context.Context, userID primitive.ObjectID, since time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.UserID == userID && !t.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeTicketRepo) HasWonTicketSince(ctx context.Context, userID primitive.ObjectID, since time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.UserID == userID && t.Status == models.TicketStatusWon && !t.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeTicketRepo) FindWonByUser(ctx context.Context, userID primitive.ObjectID) (*models.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.UserID == userID && t.Status == models.TicketStatusWon {
			clone := *t
			return &clone, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeTicketRepo) FindPendingSince(ctx context.Context, since time.Time) ([]*models.Ticket, error) {
	return r.findByStatusSince(models.TicketStatusPending, since), nil
}

func (r *fakeTicketRepo) FindWonSince(ctx context.Context, since time.Time) ([]*models.Ticket, error) {
	return r.findByStatusSince(models.TicketStatusWon, since), nil
}

func (r *fakeTicketRepo) FindAllWon(ctx context.Context) ([]*models.Ticket, error) {
	return r.findByStatusSince(models.TicketStatusWon, time.Time{}), nil
}

func (r *fakeTicketRepo) findByStatusSince(status string, since time.Time) []*models.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Ticket{}
	for _, t := range r.tickets {
		if t.Status == status && !t.CreatedAt.Before(since) {
			clone := *t
			out = append(out, &clone)
		}
	}
	return out
}

func (r *fakeTicketRepo) FindLatestCompletedInfo(ctx context.Context, userID primitive.ObjectID) (*models.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.Ticket
	for _, t := range r.tickets {
		if t.UserID != userID || t.Status == models.TicketStatusCancelled {
			continue
		}
		if t.FullName == "" || t.NationalID == "" {
			continue
		}
		if latest == nil || t.CreatedAt.After(latest.CreatedAt) {
			latest = t
		}
	}
	if latest == nil {
		return nil, mongo.ErrNoDocuments
	}
	clone := *latest
	return &clone, nil
}

func (r *fakeTicketRepo) MarkWon(ctx context.Context, id primitive.ObjectID, receivedDate, selectedPeriod, fullName, nationalID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.ID == id && t.Status == models.TicketStatusPending {
			t.Status = models.TicketStatusWon
			t.ReceivedDate = receivedDate
			t.SelectedPeriod = selectedPeriod
			if fullName != "" {
				t.FullName = fullName
			}
			if nationalID != "" {
				t.NationalID = nationalID
			}
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeTicketRepo) MarkCancelled(ctx context.Context, id primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.ID == id && t.Status == models.TicketStatusWon {
			t.Status = models.TicketStatusCancelled
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeTicketRepo) UpdateInfo(ctx context.Context, id primitive.ObjectID, info *models.WinnerInfoRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.ID == id {
			t.FullName = info.FullName
			t.NationalID = info.NationalID
			t.ReceivedDate = info.ReceivedDate
			t.SelectedPeriod = info.SelectedPeriod
			t.Quantity = info.Quantity
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (r *fakeTicketRepo) EnsureIndexes(ctx context.Context) error { return nil }

type sentSMS struct {
	Receptor string
	Template string
	Token    string
}

type fakeGateway struct {
	mu   sync.Mutex
	sent []sentSMS

	// failFor makes deliveries to these receptors fail
	failFor map[string]bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{failFor: make(map[string]bool)}
}

func (g *fakeGateway) SendTemplate(ctx context.Context, receptor, template, token string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failFor[receptor] {
		return "", fmt.Errorf("provider rejected message to %s", receptor)
	}
	g.sent = append(g.sent, sentSMS{Receptor: receptor, Template: template, Token: token})
	return fmt.Sprintf("msg-%d", len(g.sent)), nil
}
