package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/iyhunko/marketplace-items/internal/metrics"
	"github.com/iyhunko/marketplace-items/internal/model"
	"github.com/iyhunko/marketplace-items/internal/policy"
	"github.com/iyhunko/marketplace-items/internal/repository"
	"github.com/iyhunko/marketplace-items/internal/sqs"
)

var (
	ErrItemNotFound = errors.New("item could not be found")
	ErrForbidden    = errors.New("forbidden")
)

// ItemInput holds validated item fields. ImageURLs is only used on create.
type ItemInput struct {
	Name        string
	Description string
	Price       float64
	ImageURLs   []string
}

// ImageInput holds a validated image attachment.
type ImageInput struct {
	URL          string
	PreviewImage bool
}

// InputFunc yields validated input. Mutations call it only after the item was found
// and the actor was allowed to modify it.
type InputFunc[T any] func() (T, error)

// Notifier publishes item lifecycle events.
type Notifier interface {
	PublishItemMessage(ctx context.Context, msg sqs.ItemMessage) error
}

// ItemDetails is an item together with its seller's shop statistics.
type ItemDetails struct {
	Product         model.Product
	Seller          model.User
	Aggregates      model.SellerAggregates
	ItemReviewCount int
	ImageURLs       []string
}

type ItemService struct {
	store    repository.Store
	notifier Notifier
}

// NewItemService creates the service. notifier may be nil.
func NewItemService(store repository.Store, notifier Notifier) *ItemService {
	return &ItemService{
		store:    store,
		notifier: notifier,
	}
}

// CreateItem lists a new item for seller. The first image URL becomes the preview image.
func (s *ItemService) CreateItem(ctx context.Context, seller *model.User, in ItemInput) (*ItemDetails, error) {
	var details *ItemDetails
	err := s.store.WithinTransaction(ctx, func(tx repository.Store) error {
		product, err := tx.Products().Create(ctx, &model.Product{
			UserID:      seller.ID,
			Name:        in.Name,
			Description: in.Description,
			Price:       in.Price,
		})
		if err != nil {
			return err
		}

		urls := make([]string, 0, len(in.ImageURLs))
		for i, url := range in.ImageURLs {
			image, err := tx.Images().Create(ctx, &model.ProductImage{
				ProductID:    product.ID,
				URL:          url,
				PreviewImage: i == 0,
			})
			if err != nil {
				return err
			}
			urls = append(urls, image.URL)
		}

		agg, err := tx.SellerStats().SellerAggregates(ctx, seller.ID)
		if err != nil {
			return err
		}

		details = &ItemDetails{
			Product:    *product,
			Seller:     *seller,
			Aggregates: agg,
			ImageURLs:  urls,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ItemsCreated.Inc()
	s.notify(ctx, sqs.ActionCreated, &details.Product)

	return details, nil
}

// GetItem returns an item with its seller statistics. It needs no authentication.
func (s *ItemService) GetItem(ctx context.Context, id uuid.UUID) (*ItemDetails, error) {
	var details *ItemDetails
	err := s.store.WithinTransaction(ctx, func(tx repository.Store) error {
		product, err := findItem(ctx, tx, id)
		if err != nil {
			return err
		}

		seller, err := tx.Users().FindByID(ctx, product.UserID)
		if err != nil {
			return err
		}

		details, err = describe(ctx, tx, product, seller)
		return err
	})
	if err != nil {
		return nil, err
	}
	return details, nil
}

// EditItem replaces the name, description and price of an item owned by actor.
// Images and reviews are left untouched.
func (s *ItemService) EditItem(ctx context.Context, actor *model.User, id uuid.UUID, input InputFunc[ItemInput]) (*ItemDetails, error) {
	var details *ItemDetails
	err := s.store.WithinTransaction(ctx, func(tx repository.Store) error {
		product, err := findModifiable(ctx, tx, actor, id, "edit")
		if err != nil {
			return err
		}

		in, err := input()
		if err != nil {
			return err
		}

		product.Name = in.Name
		product.Description = in.Description
		product.Price = in.Price
		if err := tx.Products().Update(ctx, product); err != nil {
			return err
		}

		details, err = describe(ctx, tx, product, actor)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.ItemsUpdated.Inc()
	s.notify(ctx, sqs.ActionUpdated, &details.Product)

	return details, nil
}

// DeleteItem removes an item owned by actor along with its images, reviews and order lines.
func (s *ItemService) DeleteItem(ctx context.Context, actor *model.User, id uuid.UUID) error {
	var deleted *model.Product
	err := s.store.WithinTransaction(ctx, func(tx repository.Store) error {
		product, err := findModifiable(ctx, tx, actor, id, "delete")
		if err != nil {
			return err
		}

		if err := tx.Products().DeleteByID(ctx, product.ID); err != nil {
			return err
		}
		deleted = product
		return nil
	})
	if err != nil {
		return err
	}

	metrics.ItemsDeleted.Inc()
	s.notify(ctx, sqs.ActionDeleted, deleted)

	return nil
}

// AddImage attaches an image to an item owned by actor. Other images keep their preview flag.
func (s *ItemService) AddImage(ctx context.Context, actor *model.User, id uuid.UUID, input InputFunc[ImageInput]) (*model.ProductImage, error) {
	var image *model.ProductImage
	err := s.store.WithinTransaction(ctx, func(tx repository.Store) error {
		product, err := findModifiable(ctx, tx, actor, id, "add_image")
		if err != nil {
			return err
		}

		in, err := input()
		if err != nil {
			return err
		}

		image, err = tx.Images().Create(ctx, &model.ProductImage{
			ProductID:    product.ID,
			URL:          in.URL,
			PreviewImage: in.PreviewImage,
		})
		return mapNotFound(err, id)
	})
	if err != nil {
		return nil, err
	}

	metrics.ItemImagesAdded.Inc()

	return image, nil
}

// ListReviews returns every review of an item, oldest first.
func (s *ItemService) ListReviews(ctx context.Context, id uuid.UUID) ([]model.ReviewDetail, error) {
	var reviews []model.ReviewDetail
	err := s.store.WithinTransaction(ctx, func(tx repository.Store) error {
		if _, err := findItem(ctx, tx, id); err != nil {
			return err
		}

		var err error
		reviews, err = tx.Reviews().ListByProductID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

func findItem(ctx context.Context, tx repository.Store, id uuid.UUID) (*model.Product, error) {
	product, err := tx.Products().FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, id)
	}
	return product, nil
}

// findModifiable loads the item and applies the ownership policy. Existence is checked first.
func findModifiable(ctx context.Context, tx repository.Store, actor *model.User, id uuid.UUID, operation string) (*model.Product, error) {
	product, err := findItem(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if policy.CanModify(product, actor.ID) != policy.Allow {
		metrics.AuthorizationDenials.WithLabelValues(operation).Inc()
		slog.Info("item modification denied",
			slog.String("operation", operation),
			slog.String("item_id", id.String()),
			slog.String("user_id", actor.ID.String()),
		)
		return nil, fmt.Errorf("%w: %s %s", ErrForbidden, operation, id)
	}

	return product, nil
}

func describe(ctx context.Context, tx repository.Store, product *model.Product, seller *model.User) (*ItemDetails, error) {
	agg, err := tx.SellerStats().SellerAggregates(ctx, seller.ID)
	if err != nil {
		return nil, err
	}

	reviewCount, err := tx.Reviews().CountByProductID(ctx, product.ID)
	if err != nil {
		return nil, err
	}

	images, err := tx.Images().ListByProductID(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(images))
	for _, image := range images {
		urls = append(urls, image.URL)
	}

	return &ItemDetails{
		Product:         *product,
		Seller:          *seller,
		Aggregates:      agg,
		ItemReviewCount: reviewCount,
		ImageURLs:       urls,
	}, nil
}

func mapNotFound(err error, id uuid.UUID) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return err
}

// notify is best effort: a failed publish is logged and never fails the request.
func (s *ItemService) notify(ctx context.Context, action string, product *model.Product) {
	if s.notifier == nil {
		return
	}
	msg := sqs.ItemMessage{
		Action:   action,
		ItemID:   product.ID.String(),
		SellerID: product.UserID.String(),
		Name:     product.Name,
		Price:    product.Price,
	}
	if err := s.notifier.PublishItemMessage(ctx, msg); err != nil {
		slog.Error("Failed to send SQS message", slog.Any("err", err), slog.String("action", action), slog.String("item_id", msg.ItemID))
	}
}
