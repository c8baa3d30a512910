package sql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/iyhunko/marketplace-items/internal/model"
)

// SellerStatsRepository implements repository.SellerStatsReader with aggregate queries
// over every product the seller owns. Both are recomputed on each call.
type SellerStatsRepository struct {
	exec dbExecutor
}

// NewSellerStatsRepository creates a new SellerStatsRepository instance.
func NewSellerStatsRepository(db *sql.DB) *SellerStatsRepository {
	return &SellerStatsRepository{exec: db}
}

func (r *SellerStatsRepository) SellerAggregates(ctx context.Context, sellerID uuid.UUID) (model.SellerAggregates, error) {
	var reviewCount, ratingSum, salesCount int

	ratingQuery := `SELECT COUNT(r.id), COALESCE(SUM(r.rating), 0)
	                FROM reviews r
	                JOIN products p ON p.id = r.product_id
	                WHERE p.user_id = $1`
	if err := r.queryRow(ctx, ratingQuery, sellerID, &reviewCount, &ratingSum); err != nil {
		return model.SellerAggregates{}, fmt.Errorf("failed to aggregate seller ratings: %w", err)
	}

	salesQuery := `SELECT COALESCE(SUM(op.quantity), 0)
	               FROM order_products op
	               JOIN products p ON p.id = op.product_id
	               WHERE p.user_id = $1`
	if err := r.queryRow(ctx, salesQuery, sellerID, &salesCount); err != nil {
		return model.SellerAggregates{}, fmt.Errorf("failed to aggregate seller sales: %w", err)
	}

	return model.NewSellerAggregates(ratingSum, reviewCount, salesCount), nil
}

func (r *SellerStatsRepository) queryRow(ctx context.Context, query string, sellerID uuid.UUID, dest ...any) error {
	stmt, err := r.exec.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	return stmt.QueryRowContext(ctx, sellerID).Scan(dest...)
}
