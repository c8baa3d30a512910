package sql

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/iyhunko/marketplace-items/internal/model"
	"github.com/iyhunko/marketplace-items/internal/repository"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewImageRepository(db)
	ctx := context.Background()

	t.Run("appends image after the last position", func(t *testing.T) {
		image := &model.ProductImage{
			ProductID:    uuid.New(),
			URL:          "https://cdn.example.com/a.png",
			PreviewImage: true,
		}

		mock.ExpectPrepare("SELECT id FROM products WHERE id = \\$1 FOR UPDATE").
			ExpectQuery().
			WithArgs(image.ProductID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(image.ProductID.String()))
		mock.ExpectPrepare("INSERT INTO product_images (.+) COALESCE\\(MAX\\(position\\) \\+ 1, 0\\)").
			ExpectQuery().
			WithArgs(sqlmock.AnyArg(), image.ProductID, image.URL, true, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"position"}).AddRow(2))

		created, err := repo.Create(ctx, image)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, created.ID)
		assert.Equal(t, 2, created.Position)
		assert.True(t, created.PreviewImage)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing product", func(t *testing.T) {
		image := &model.ProductImage{ProductID: uuid.New(), URL: "https://cdn.example.com/b.png"}

		mock.ExpectPrepare("SELECT id FROM products WHERE id = \\$1 FOR UPDATE").
			ExpectQuery().
			WithArgs(image.ProductID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.Create(ctx, image)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("product removed before the insert", func(t *testing.T) {
		image := &model.ProductImage{ProductID: uuid.New(), URL: "https://cdn.example.com/c.png"}

		mock.ExpectPrepare("SELECT id FROM products WHERE id = \\$1 FOR UPDATE").
			ExpectQuery().
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(image.ProductID.String()))
		mock.ExpectPrepare("INSERT INTO product_images").
			ExpectQuery().
			WillReturnError(&pgconn.PgError{Code: pqForeignKeyViolationErrCode})

		_, err := repo.Create(ctx, image)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestImageRepository_ListByProductID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewImageRepository(db)
	ctx := context.Background()

	t.Run("images in position order", func(t *testing.T) {
		productID := uuid.New()
		now := time.Now()

		rows := sqlmock.NewRows([]string{"id", "product_id", "url", "preview_image", "position", "created_at"}).
			AddRow(uuid.NewString(), productID.String(), "https://cdn.example.com/1.png", true, 0, now).
			AddRow(uuid.NewString(), productID.String(), "https://cdn.example.com/2.png", false, 1, now)

		mock.ExpectPrepare("SELECT (.+) FROM product_images WHERE product_id = \\$1 ORDER BY position, created_at").
			ExpectQuery().
			WithArgs(productID).
			WillReturnRows(rows)

		images, err := repo.ListByProductID(ctx, productID)
		require.NoError(t, err)
		require.Len(t, images, 2)
		assert.Equal(t, "https://cdn.example.com/1.png", images[0].URL)
		assert.True(t, images[0].PreviewImage)
		assert.Equal(t, 1, images[1].Position)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no images yields empty slice", func(t *testing.T) {
		productID := uuid.New()

		mock.ExpectPrepare("SELECT (.+) FROM product_images").
			ExpectQuery().
			WithArgs(productID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "url", "preview_image", "position", "created_at"}))

		images, err := repo.ListByProductID(ctx, productID)
		require.NoError(t, err)
		assert.NotNil(t, images)
		assert.Empty(t, images)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
