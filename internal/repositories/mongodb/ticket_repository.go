package mongodb

import (
	"context"
	"time"

	"github.com/haramapp/lottery-backend/internal/models"
	"github.com/haramapp/lottery-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Compile-time check to ensure TicketRepository implements the interface
var _ repositories.TicketRepository = (*TicketRepository)(nil)

// TicketRepository handles MongoDB operations for Ticket
type TicketRepository struct {
	collection *mongo.Collection
}

// NewTicketRepository creates a new TicketRepository
func NewTicketRepository(db *mongo.Database) *TicketRepository {
	return &TicketRepository{
		collection: db.Collection("lottery_tickets"),
	}
}

// Create inserts a new ticket. A duplicate key error surfaces unchanged so
// callers can distinguish a ticket-number collision from a same-week
// participation conflict via the violated index name.
func (r *TicketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	ticket.ID = primitive.NewObjectID()
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now()
	}
	ticket.UpdatedAt = ticket.CreatedAt
	_, err := r.collection.InsertOne(ctx, ticket)
	return err
}

// FindByID finds a ticket by ID
func (r *TicketRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&ticket)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// ExistsByNumber reports whether a ticket with the given number exists
func (r *TicketRepository) ExistsByNumber(ctx context.Context, ticketNumber string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"ticketNumber": ticketNumber})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindByUser retrieves all tickets owned by the user, newest first
func (r *TicketRepository) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Ticket, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.findMany(ctx, bson.M{"userId": userID}, opts)
}

// HasTicketSince reports whether the user owns any ticket created at or
// after the given instant
func (r *TicketRepository) HasTicketSince(ctx context.Context, userID primitive.ObjectID, since time.Time) (bool, error) {
	filter := bson.M{
		"userId":    userID,
		"createdAt": bson.M{"$gte": since},
	}
	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasWonTicketSince reports whether the user owns a won ticket created at or
// after the given instant
func (r *TicketRepository) HasWonTicketSince(ctx context.Context, userID primitive.ObjectID, since time.Time) (bool, error) {
	filter := bson.M{
		"userId":    userID,
		"status":    models.TicketStatusWon,
		"createdAt": bson.M{"$gte": since},
	}
	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindWonByUser returns the user's current won ticket, newest first if there
// happen to be several
func (r *TicketRepository) FindWonByUser(ctx context.Context, userID primitive.ObjectID) (*models.Ticket, error) {
	var ticket models.Ticket
	filter := bson.M{"userId": userID, "status": models.TicketStatusWon}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	err := r.collection.FindOne(ctx, filter, opts).Decode(&ticket)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// FindPendingSince retrieves pending tickets created at or after the given
// instant (the current-week candidate pool)
func (r *TicketRepository) FindPendingSince(ctx context.Context, since time.Time) ([]*models.Ticket, error) {
	filter := bson.M{
		"status":    models.TicketStatusPending,
		"createdAt": bson.M{"$gte": since},
	}
	return r.findMany(ctx, filter, nil)
}

// FindWonSince retrieves won tickets created at or after the given instant,
// newest first
func (r *TicketRepository) FindWonSince(ctx context.Context, since time.Time) ([]*models.Ticket, error) {
	filter := bson.M{
		"status":    models.TicketStatusWon,
		"createdAt": bson.M{"$gte": since},
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.findMany(ctx, filter, opts)
}

// FindAllWon retrieves every won ticket (the sweep candidate set)
func (r *TicketRepository) FindAllWon(ctx context.Context) ([]*models.Ticket, error) {
	return r.findMany(ctx, bson.M{"status": models.TicketStatusWon}, nil)
}

// FindLatestCompletedInfo finds the user's most recent non-cancelled ticket
// with both carry-over fields populated
func (r *TicketRepository) FindLatestCompletedInfo(ctx context.Context, userID primitive.ObjectID) (*models.Ticket, error) {
	var ticket models.Ticket
	filter := bson.M{
		"userId":     userID,
		"status":     bson.M{"$ne": models.TicketStatusCancelled},
		"fullName":   bson.M{"$nin": bson.A{nil, ""}},
		"nationalId": bson.M{"$nin": bson.A{nil, ""}},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	err := r.collection.FindOne(ctx, filter, opts).Decode(&ticket)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// MarkWon transitions a ticket from pending to won. The pending-state filter
// makes concurrent selection runs mutually exclusive per ticket.
func (r *TicketRepository) MarkWon(ctx context.Context, id primitive.ObjectID, receivedDate, selectedPeriod, fullName, nationalID string) (bool, error) {
	set := bson.M{
		"status":         models.TicketStatusWon,
		"receivedDate":   receivedDate,
		"selectedPeriod": selectedPeriod,
		"updatedAt":      time.Now(),
	}
	if fullName != "" {
		set["fullName"] = fullName
	}
	if nationalID != "" {
		set["nationalId"] = nationalID
	}
	filter := bson.M{"_id": id, "status": models.TicketStatusPending}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	return result.ModifiedCount == 1, nil
}

// MarkCancelled transitions a ticket from won to cancelled
func (r *TicketRepository) MarkCancelled(ctx context.Context, id primitive.ObjectID) (bool, error) {
	filter := bson.M{"_id": id, "status": models.TicketStatusWon}
	update := bson.M{"$set": bson.M{
		"status":    models.TicketStatusCancelled,
		"updatedAt": time.Now(),
	}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount == 1, nil
}

// UpdateInfo overwrites all delivery-info fields on the ticket
func (r *TicketRepository) UpdateInfo(ctx context.Context, id primitive.ObjectID, info *models.WinnerInfoRequest) error {
	update := bson.M{"$set": bson.M{
		"fullName":       info.FullName,
		"nationalId":     info.NationalID,
		"receivedDate":   info.ReceivedDate,
		"selectedPeriod": info.SelectedPeriod,
		"quantity":       info.Quantity,
		"updatedAt":      time.Now(),
	}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

// EnsureIndexes creates the unique ticket number index and the unique
// per-user-per-week index that backs the participation rule
func (r *TicketRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "ticketNumber", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("ticketNumber_unique"),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "weekStart", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("userId_weekStart_unique"),
		},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	return err
}

func (r *TicketRepository) findMany(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Ticket, error) {
	var tickets []*models.Ticket
	var cursor *mongo.Cursor
	var err error
	if opts != nil {
		cursor, err = r.collection.Find(ctx, filter, opts)
	} else {
		cursor, err = r.collection.Find(ctx, filter)
	}
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &tickets); err != nil {
		return nil, err
	}
	if tickets == nil {
		tickets = []*models.Ticket{}
	}
	return tickets, nil
}
