package model

import (
	"time"

	"github.com/google/uuid"
)

// Review is a rating left by a user on a product.
type Review struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	ProductID   uuid.UUID
	Rating      int
	Text        string
	DateCreated time.Time
}

// InitMeta assigns the ID and stamps DateCreated with the insert time.
func (r *Review) InitMeta() {
	r.ID = uuid.New()
	r.DateCreated = time.Now()
}

// ReviewDetail is a review joined with its author and the product's seller.
type ReviewDetail struct {
	Review
	Username string
	SellerID uuid.UUID
}

// OrderProduct is a line item of a past order.
type OrderProduct struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	CreatedAt time.Time
}

func (o *OrderProduct) InitMeta() {
	o.ID = uuid.New()
	o.CreatedAt = time.Now()
}
