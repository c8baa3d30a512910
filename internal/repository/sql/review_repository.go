package sql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/iyhunko/marketplace-items/internal/model"
	"github.com/iyhunko/marketplace-items/internal/repository"
)

// ReviewRepository implements repository.ReviewRepository.
type ReviewRepository struct {
	exec dbExecutor
}

// NewReviewRepository creates a new ReviewRepository instance.
func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{exec: db}
}

// Create inserts a review. DateCreated is stamped with the insert time when unset.
func (r *ReviewRepository) Create(ctx context.Context, review *model.Review) (*model.Review, error) {
	if review.ID == uuid.Nil {
		review.InitMeta()
	}

	query := `INSERT INTO reviews (id, user_id, product_id, rating, text, date_created)
	          VALUES ($1, $2, $3, $4, $5, $6)`

	stmt, err := r.exec.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, review.ID, review.UserID, review.ProductID, review.Rating, review.Text, review.DateCreated)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("review target: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to insert review: %w", err)
	}

	return review, nil
}

// ListByProductID loads every review of a product together with its author and the product's seller
// in a single query, oldest first.
func (r *ReviewRepository) ListByProductID(ctx context.Context, productID uuid.UUID) ([]model.ReviewDetail, error) {
	query := `SELECT r.id, r.user_id, r.product_id, r.rating, r.text, r.date_created, u.username, p.user_id
	          FROM reviews r
	          JOIN users u ON u.id = r.user_id
	          JOIN products p ON p.id = r.product_id
	          WHERE r.product_id = $1
	          ORDER BY r.date_created, r.id`

	stmt, err := r.exec.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]model.ReviewDetail, 0)
	for rows.Next() {
		var d model.ReviewDetail
		err := rows.Scan(&d.ID, &d.UserID, &d.ProductID, &d.Rating, &d.Text, &d.DateCreated, &d.Username, &d.SellerID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, d)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return reviews, nil
}

// CountByProductID returns the number of reviews left on one product.
func (r *ReviewRepository) CountByProductID(ctx context.Context, productID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM reviews WHERE product_id = $1`

	stmt, err := r.exec.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare count statement: %w", err)
	}
	defer stmt.Close()

	var count int
	if err := stmt.QueryRowContext(ctx, productID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	return count, nil
}
