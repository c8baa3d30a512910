package sql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iyhunko/marketplace-items/internal/repository"
)

// Store implements repository.Store on top of PostgreSQL.
type Store struct {
	db  *sql.DB
	txn *sql.Tx
}

// NewStore creates a Store that runs statements directly on db until a transaction is opened.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// getExecutor returns the active executor (transaction if exists, otherwise db)
func (s *Store) getExecutor() dbExecutor {
	if s.txn != nil {
		return s.txn
	}
	return s.db
}

func (s *Store) Users() repository.UserRepository {
	return &UserRepository{exec: s.getExecutor()}
}

func (s *Store) Products() repository.ProductRepository {
	return &ProductRepository{exec: s.getExecutor()}
}

func (s *Store) Images() repository.ImageRepository {
	return &ImageRepository{exec: s.getExecutor()}
}

func (s *Store) Reviews() repository.ReviewRepository {
	return &ReviewRepository{exec: s.getExecutor()}
}

func (s *Store) SellerStats() repository.SellerStatsReader {
	return &SellerStatsRepository{exec: s.getExecutor()}
}

// WithinTransaction executes fn within a database transaction.
// The transaction is rolled back when fn returns an error or panics, and committed otherwise.
// Calling it on a Store that is already transactional reuses the open transaction.
func (s *Store) WithinTransaction(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.txn != nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Store{db: s.db, txn: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("failed to rollback transaction: %w (original error: %v)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
