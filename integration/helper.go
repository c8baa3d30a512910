package integration

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/iyhunko/marketplace-items/internal/model"
	reposql "github.com/iyhunko/marketplace-items/internal/repository/sql"
	_ "github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

// TestDB holds the test database connection and cleanup function
type TestDB struct {
	DB       *sql.DB
	Pool     *dockertest.Pool
	Resource *dockertest.Resource
}

// SetupTestDB sets up a PostgreSQL container using dockertest and runs migrations.
// The test is skipped in -short mode or when Docker is not reachable.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	// Create dockertest pool
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("Could not connect to docker: %s", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("Docker is not available: %s", err)
	}

	// Set max wait time for Docker operations
	pool.MaxWait = 120 * time.Second

	// Pull and run PostgreSQL container
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16",
		Env: []string{
			"POSTGRES_PASSWORD=secret",
			"POSTGRES_USER=testuser",
			"POSTGRES_DB=testdb",
			"listen_addresses='*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("Could not start resource: %s", err)
	}

	// Set container to expire after 2 minutes to avoid orphaned containers
	if err := resource.Expire(120); err != nil {
		t.Fatalf("Could not set expiration: %s", err)
	}

	hostAndPort := resource.GetHostPort("5432/tcp")
	databaseURL := fmt.Sprintf("postgres://testuser:secret@%s/testdb?sslmode=disable", hostAndPort)

	log.Println("Connecting to database on url: ", databaseURL)

	// Wait for database to be ready
	var db *sql.DB
	if err = pool.Retry(func() error {
		var err error
		db, err = sql.Open("postgres", databaseURL)
		if err != nil {
			return err
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("Could not connect to docker: %s", err)
	}

	// Get the migrations path - go up from integration folder to root
	migrationsPath := "../migrations"
	if _, err := os.Stat(migrationsPath); os.IsNotExist(err) {
		t.Fatalf("Migrations directory not found: %s", migrationsPath)
	}

	if err := reposql.RunMigrations(db, migrationsPath); err != nil {
		t.Fatalf("Could not run migrations: %s", err)
	}

	return &TestDB{
		DB:       db,
		Pool:     pool,
		Resource: resource,
	}
}

// Cleanup closes the database connection and purges the Docker container
func (tdb *TestDB) Cleanup(t *testing.T) {
	t.Helper()

	if tdb.DB != nil {
		if err := tdb.DB.Close(); err != nil {
			t.Errorf("Could not close database: %s", err)
		}
	}

	if tdb.Pool != nil && tdb.Resource != nil {
		if err := tdb.Pool.Purge(tdb.Resource); err != nil {
			t.Errorf("Could not purge resource: %s", err)
		}
	}
}

// TruncateTables truncates all tables in the test database
func (tdb *TestDB) TruncateTables(t *testing.T) {
	t.Helper()

	ctx := context.Background()
	tables := []string{"order_products", "reviews", "product_images", "products", "users"}

	for _, table := range tables {
		_, err := tdb.DB.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			t.Fatalf("Could not truncate table %s: %s", table, err)
		}
	}
}

// InsertUser stores a user with a unique username.
func (tdb *TestDB) InsertUser(t *testing.T, username string) *model.User {
	t.Helper()

	user, err := reposql.NewUserRepository(tdb.DB).Create(context.Background(), &model.User{
		Username: username,
		Email:    username + "@example.com",
	})
	if err != nil {
		t.Fatalf("Could not insert user %s: %s", username, err)
	}
	return user
}

// InsertProduct stores a product owned by sellerID.
func (tdb *TestDB) InsertProduct(t *testing.T, sellerID uuid.UUID, name string, price float64) *model.Product {
	t.Helper()

	product, err := reposql.NewProductRepository(tdb.DB).Create(context.Background(), &model.Product{
		UserID:      sellerID,
		Name:        name,
		Description: name + " description",
		Price:       price,
	})
	if err != nil {
		t.Fatalf("Could not insert product %s: %s", name, err)
	}
	return product
}

// InsertReview stores a review of productID written by userID.
func (tdb *TestDB) InsertReview(t *testing.T, userID, productID uuid.UUID, rating int, text string) *model.Review {
	t.Helper()

	review, err := reposql.NewReviewRepository(tdb.DB).Create(context.Background(), &model.Review{
		UserID:    userID,
		ProductID: productID,
		Rating:    rating,
		Text:      text,
	})
	if err != nil {
		t.Fatalf("Could not insert review: %s", err)
	}
	return review
}

// InsertOrderLine records a sale of quantity units of productID.
func (tdb *TestDB) InsertOrderLine(t *testing.T, productID uuid.UUID, quantity int) {
	t.Helper()

	line := &model.OrderProduct{ProductID: productID, Quantity: quantity}
	line.InitMeta()
	_, err := tdb.DB.ExecContext(context.Background(),
		"INSERT INTO order_products (id, product_id, quantity, created_at) VALUES ($1, $2, $3, $4)",
		line.ID, line.ProductID, line.Quantity, line.CreatedAt,
	)
	if err != nil {
		t.Fatalf("Could not insert order line: %s", err)
	}
}

// CountRows returns the number of rows in table matching the optional where clause.
func (tdb *TestDB) CountRows(t *testing.T, table, where string, args ...any) int {
	t.Helper()

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", table)
	if where != "" {
		query += " WHERE " + where
	}
	var n int
	if err := tdb.DB.QueryRowContext(context.Background(), query, args...).Scan(&n); err != nil {
		t.Fatalf("Could not count %s: %s", table, err)
	}
	return n
}
