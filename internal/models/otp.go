package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OTP purposes
const (
	OTPPurposeRegister = "register"
	OTPPurposeLogin    = "login"
)

// OTPCode represents one issued one-time password. Only the bcrypt hash of
// the code is ever stored; the plaintext exists solely in the SMS payload.
type OTPCode struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	PhoneNumber string             `bson:"phoneNumber" json:"phoneNumber"`
	CodeHash    string             `bson:"codeHash" json:"-"`
	Purpose     string             `bson:"purpose" json:"purpose"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	ExpiresAt   time.Time          `bson:"expiresAt" json:"expiresAt"`
	IsUsed      bool               `bson:"isUsed" json:"isUsed"`
}

// IsExpired reports whether the code is past its expiry at the given instant.
// The expiry instant itself counts as expired.
func (o *OTPCode) IsExpired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}
