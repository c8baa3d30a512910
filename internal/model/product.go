package model

import (
	"time"

	"github.com/google/uuid"
)

// Product represents an item listed by a seller.
type Product struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	Description string
	Price       float64
	UpdatedAt   time.Time
	CreatedAt   time.Time
}

// InitMeta initializes the product metadata including ID and timestamps.
func (p *Product) InitMeta() {
	p.ID = uuid.New()
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
}

// Touch refreshes the modification timestamp.
func (p *Product) Touch() {
	p.UpdatedAt = time.Now()
}
