package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/iyhunko/marketplace-items/internal/model"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("resource not found")

// UserRepository reads and registers users.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) (*model.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// ProductRepository manages product rows.
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) (*model.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

// ImageRepository manages product images. Images are kept in insertion order.
type ImageRepository interface {
	Create(ctx context.Context, image *model.ProductImage) (*model.ProductImage, error)
	ListByProductID(ctx context.Context, productID uuid.UUID) ([]model.ProductImage, error)
}

// ReviewRepository manages reviews.
type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) (*model.Review, error)
	ListByProductID(ctx context.Context, productID uuid.UUID) ([]model.ReviewDetail, error)
	CountByProductID(ctx context.Context, productID uuid.UUID) (int, error)
}

// SellerStatsReader computes shop-level aggregates for a seller.
type SellerStatsReader interface {
	SellerAggregates(ctx context.Context, sellerID uuid.UUID) (model.SellerAggregates, error)
}

// Store groups the repositories sharing one executor.
// Repositories obtained from the Store passed to WithinTransaction run inside that transaction.
type Store interface {
	Users() UserRepository
	Products() ProductRepository
	Images() ImageRepository
	Reviews() ReviewRepository
	SellerStats() SellerStatsReader
	WithinTransaction(ctx context.Context, fn func(tx Store) error) error
}

// UniqueConstraintError represents a database unique constraint violation error.
type UniqueConstraintError struct {
	Detail string
}

func (u *UniqueConstraintError) Error() string {
	return "resource must be unique: " + u.Detail
}
