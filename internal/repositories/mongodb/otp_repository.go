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

// Compile-time check to ensure OTPRepository implements the interface
var _ repositories.OTPRepository = (*OTPRepository)(nil)

// OTPRepository handles MongoDB operations for OTPCode
type OTPRepository struct {
	collection *mongo.Collection
}

// NewOTPRepository creates a new OTPRepository
func NewOTPRepository(db *mongo.Database) *OTPRepository {
	return &OTPRepository{
		collection: db.Collection("otp_codes"),
	}
}

// Create inserts a new OTP code record
func (r *OTPRepository) Create(ctx context.Context, code *models.OTPCode) error {
	code.ID = primitive.NewObjectID()
	_, err := r.collection.InsertOne(ctx, code)
	return err
}

// FindLatestUnused finds the most recently created unused code for the
// phone/purpose pair. Older unverified codes are deliberately ignored.
func (r *OTPRepository) FindLatestUnused(ctx context.Context, phoneNumber, purpose string) (*models.OTPCode, error) {
	var code models.OTPCode
	filter := bson.M{
		"phoneNumber": phoneNumber,
		"purpose":     purpose,
		"isUsed":      false,
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	err := r.collection.FindOne(ctx, filter, opts).Decode(&code)
	if err != nil {
		return nil, err // Includes mongo.ErrNoDocuments
	}
	return &code, nil
}

// CountCreatedSince counts codes issued to the phone number (any purpose)
// at or after the given instant
func (r *OTPRepository) CountCreatedSince(ctx context.Context, phoneNumber string, since time.Time) (int64, error) {
	filter := bson.M{
		"phoneNumber": phoneNumber,
		"createdAt":   bson.M{"$gte": since},
	}
	return r.collection.CountDocuments(ctx, filter)
}

// MarkUsed atomically flips isUsed on a still-unused code. The unused-state
// condition in the filter is what makes a code single-use under concurrent
// verification attempts.
func (r *OTPRepository) MarkUsed(ctx context.Context, id primitive.ObjectID) (bool, error) {
	filter := bson.M{"_id": id, "isUsed": false}
	update := bson.M{"$set": bson.M{"isUsed": true}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount == 1, nil
}

// DeleteExpired removes codes past their expiry and returns the count removed
func (r *OTPRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	filter := bson.M{"expiresAt": bson.M{"$lt": now}}
	result, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// EnsureIndexes creates the lookup indexes used by verification and rate
// limiting
func (r *OTPRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "phoneNumber", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "phoneNumber", Value: 1}, {Key: "purpose", Value: 1}, {Key: "isUsed", Value: 1}}},
	})
	return err
}
