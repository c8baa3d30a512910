package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/iyhunko/marketplace-items/internal/model"
	"github.com/iyhunko/marketplace-items/internal/repository"
)

// ImageRepository implements repository.ImageRepository.
type ImageRepository struct {
	exec dbExecutor
}

// NewImageRepository creates a new ImageRepository instance.
func NewImageRepository(db *sql.DB) *ImageRepository {
	return &ImageRepository{exec: db}
}

// Create appends an image to the product's image list.
// The position is assigned by the database as one past the current last image.
// The product row is locked first, so concurrent appends inside transactions get distinct positions.
func (r *ImageRepository) Create(ctx context.Context, image *model.ProductImage) (*model.ProductImage, error) {
	if image.ID == uuid.Nil {
		image.InitMeta()
	}

	if err := r.lockProduct(ctx, image.ProductID); err != nil {
		return nil, err
	}

	query := `INSERT INTO product_images (id, product_id, url, preview_image, position, created_at)
	          SELECT $1::uuid, $2::uuid, $3::text, $4::boolean, COALESCE(MAX(position) + 1, 0), $5::timestamptz
	          FROM product_images WHERE product_id = $2::uuid
	          RETURNING position`

	stmt, err := r.exec.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	err = stmt.QueryRowContext(ctx, image.ID, image.ProductID, image.URL, image.PreviewImage, image.CreatedAt).Scan(&image.Position)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("product %s: %w", image.ProductID, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to insert product image: %w", err)
	}

	return image, nil
}

// lockProduct holds the product row until the surrounding transaction ends.
func (r *ImageRepository) lockProduct(ctx context.Context, productID uuid.UUID) error {
	stmt, err := r.exec.PrepareContext(ctx, `SELECT id FROM products WHERE id = $1 FOR UPDATE`)
	if err != nil {
		return fmt.Errorf("failed to prepare lock statement: %w", err)
	}
	defer stmt.Close()

	var locked uuid.UUID
	err = stmt.QueryRowContext(ctx, productID).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("product %s: %w", productID, repository.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to lock product: %w", err)
	}
	return nil
}

// ListByProductID returns the product's images in insertion order.
func (r *ImageRepository) ListByProductID(ctx context.Context, productID uuid.UUID) ([]model.ProductImage, error) {
	query := `SELECT id, product_id, url, preview_image, position, created_at
	          FROM product_images WHERE product_id = $1 ORDER BY position, created_at`

	stmt, err := r.exec.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query product images: %w", err)
	}
	defer rows.Close()

	images := make([]model.ProductImage, 0)
	for rows.Next() {
		var image model.ProductImage
		err := rows.Scan(&image.ID, &image.ProductID, &image.URL, &image.PreviewImage, &image.Position, &image.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product image: %w", err)
		}
		images = append(images, image)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return images, nil
}
