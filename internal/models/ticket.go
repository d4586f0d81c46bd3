package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Ticket statuses. Transitions are monotonic: a ticket never returns to
// pending once it has left it. "active" and "expired" are schema members
// reachable only through direct administrative edits.
const (
	TicketStatusPending   = "pending"
	TicketStatusActive    = "active"
	TicketStatusWon       = "won"
	TicketStatusExpired   = "expired"
	TicketStatusCancelled = "cancelled"
)

// Ticket represents one lottery entry tied to a user and a registration week.
// WeekStart anchors the ticket to its registration week; together with UserID
// it is covered by a unique index, which is what makes "one pending ticket
// per user per week" hold under concurrent participation calls.
type Ticket struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	TicketNumber   string             `bson:"ticketNumber" json:"ticketNumber"`
	WeekStart      time.Time          `bson:"weekStart" json:"weekStart"`
	Status         string             `bson:"status" json:"status"`
	FullName       string             `bson:"fullName,omitempty" json:"fullName,omitempty"`
	NationalID     string             `bson:"nationalId,omitempty" json:"nationalId,omitempty"`
	ReceivedDate   string             `bson:"receivedDate,omitempty" json:"receivedDate,omitempty"`
	SelectedPeriod string             `bson:"selectedPeriod,omitempty" json:"selectedPeriod,omitempty"`
	Quantity       int                `bson:"quantity,omitempty" json:"quantity,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// InfoComplete reports whether every delivery-info field has been filled in.
func (t *Ticket) InfoComplete() bool {
	return t.FullName != "" &&
		t.NationalID != "" &&
		t.ReceivedDate != "" &&
		t.SelectedPeriod != "" &&
		t.Quantity != 0
}

// HasCarryOverInfo reports whether the ticket can serve as a carry-over
// source for a later win (name and national id both populated).
func (t *Ticket) HasCarryOverInfo() bool {
	return t.FullName != "" && t.NationalID != ""
}
