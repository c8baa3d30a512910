package model

import (
	"time"

	"github.com/google/uuid"
)

// ProductImage is a picture attached to a product. PreviewImage marks the display image.
type ProductImage struct {
	ID           uuid.UUID
	ProductID    uuid.UUID
	URL          string
	PreviewImage bool
	Position     int
	CreatedAt    time.Time
}

func (i *ProductImage) InitMeta() {
	i.ID = uuid.New()
	i.CreatedAt = time.Now()
}
