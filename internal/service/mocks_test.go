package service_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/iyhunko/marketplace-items/internal/model"
	"github.com/iyhunko/marketplace-items/internal/repository"
	"github.com/iyhunko/marketplace-items/internal/sqs"
	"github.com/stretchr/testify/mock"
)

// MockStore hands out the mock repositories and runs transactions inline.
type MockStore struct {
	mock.Mock
	products *MockProductRepository
	images   *MockImageRepository
	reviews  *MockReviewRepository
	users    *MockUserRepository
	stats    *MockSellerStats
}

func newMockStore() *MockStore {
	return &MockStore{
		products: new(MockProductRepository),
		images:   new(MockImageRepository),
		reviews:  new(MockReviewRepository),
		users:    new(MockUserRepository),
		stats:    new(MockSellerStats),
	}
}

func (m *MockStore) Users() repository.UserRepository          { return m.users }
func (m *MockStore) Products() repository.ProductRepository    { return m.products }
func (m *MockStore) Images() repository.ImageRepository        { return m.images }
func (m *MockStore) Reviews() repository.ReviewRepository      { return m.reviews }
func (m *MockStore) SellerStats() repository.SellerStatsReader { return m.stats }

func (m *MockStore) WithinTransaction(ctx context.Context, fn func(tx repository.Store) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(m)
}

func (m *MockStore) assertAll(t mock.TestingT) {
	m.AssertExpectations(t)
	m.products.AssertExpectations(t)
	m.images.AssertExpectations(t)
	m.reviews.AssertExpectations(t)
	m.users.AssertExpectations(t)
	m.stats.AssertExpectations(t)
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, product *model.Product) (*model.Product, error) {
	args := m.Called(ctx, product)
	if fn, ok := args.Get(0).(func(context.Context, *model.Product) *model.Product); ok {
		return fn(ctx, product), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) Update(ctx context.Context, product *model.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockImageRepository struct {
	mock.Mock
}

func (m *MockImageRepository) Create(ctx context.Context, image *model.ProductImage) (*model.ProductImage, error) {
	args := m.Called(ctx, image)
	if fn, ok := args.Get(0).(func(context.Context, *model.ProductImage) *model.ProductImage); ok {
		return fn(ctx, image), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProductImage), args.Error(1)
}

func (m *MockImageRepository) ListByProductID(ctx context.Context, productID uuid.UUID) ([]model.ProductImage, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ProductImage), args.Error(1)
}

type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Create(ctx context.Context, review *model.Review) (*model.Review, error) {
	args := m.Called(ctx, review)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Review), args.Error(1)
}

func (m *MockReviewRepository) ListByProductID(ctx context.Context, productID uuid.UUID) ([]model.ReviewDetail, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ReviewDetail), args.Error(1)
}

func (m *MockReviewRepository) CountByProductID(ctx context.Context, productID uuid.UUID) (int, error) {
	args := m.Called(ctx, productID)
	return args.Int(0), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) (*model.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

type MockSellerStats struct {
	mock.Mock
}

func (m *MockSellerStats) SellerAggregates(ctx context.Context, sellerID uuid.UUID) (model.SellerAggregates, error) {
	args := m.Called(ctx, sellerID)
	return args.Get(0).(model.SellerAggregates), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) PublishItemMessage(ctx context.Context, msg sqs.ItemMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
