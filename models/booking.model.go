package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Booking records a paid (or manually registered) purchase of a tour by a
// user. Bookings are created after the external payment confirmation.
type Booking struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Tour      primitive.ObjectID `bson:"tour" json:"tour" validate:"required"`
	User      primitive.ObjectID `bson:"user" json:"user" validate:"required"`
	Price     float64            `bson:"price" json:"price" validate:"required,gt=0"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	Paid      bool               `bson:"paid" json:"paid"`
}

// BeforeSave stamps the creation time before the first insert.
func (b *Booking) BeforeSave() {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
}
