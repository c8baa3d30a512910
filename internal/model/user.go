package model

import (
	"time"

	"github.com/google/uuid"
)

// User is the identity behind a session. Sellers are users owning products.
type User struct {
	ID        uuid.UUID
	Username  string
	Email     string
	UpdatedAt time.Time
	CreatedAt time.Time
}

func (t *User) InitMeta() {
	t.ID = uuid.New()
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
}
