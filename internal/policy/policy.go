// Package policy holds the capability checks applied before a product is mutated.
package policy

import (
	"github.com/google/uuid"
	"github.com/iyhunko/marketplace-items/internal/model"
)

// Decision is the outcome of a capability check.
type Decision int

const (
	Forbid Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "forbid"
}

// CanModify allows only the seller who listed the product to edit it, delete it or attach images.
func CanModify(product *model.Product, actorID uuid.UUID) Decision {
	if product == nil || actorID == uuid.Nil {
		return Forbid
	}
	if product.UserID == actorID {
		return Allow
	}
	return Forbid
}
