package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/iyhunko/marketplace-items/internal/http/form"
	"github.com/iyhunko/marketplace-items/internal/http/middleware"
	"github.com/iyhunko/marketplace-items/internal/model"
	"github.com/iyhunko/marketplace-items/internal/service"
)

// ItemService is the set of item operations exposed over HTTP.
type ItemService interface {
	CreateItem(ctx context.Context, seller *model.User, in service.ItemInput) (*service.ItemDetails, error)
	GetItem(ctx context.Context, id uuid.UUID) (*service.ItemDetails, error)
	EditItem(ctx context.Context, actor *model.User, id uuid.UUID, input service.InputFunc[service.ItemInput]) (*service.ItemDetails, error)
	DeleteItem(ctx context.Context, actor *model.User, id uuid.UUID) error
	AddImage(ctx context.Context, actor *model.User, id uuid.UUID, input service.InputFunc[service.ImageInput]) (*model.ProductImage, error)
	ListReviews(ctx context.Context, id uuid.UUID) ([]model.ReviewDetail, error)
}

// ItemController handles HTTP requests for item operations.
type ItemController struct {
	items  ItemService
	binder *form.Binder
}

// NewItemController creates a new ItemController.
func NewItemController(items ItemService, binder *form.Binder) *ItemController {
	return &ItemController{
		items:  items,
		binder: binder,
	}
}

// ItemRequest is the create and edit form. images_urls is a comma separated list and is ignored on edit.
type ItemRequest struct {
	Name        string  `json:"name" form:"name" binding:"required,max=75"`
	Price       float64 `json:"price" form:"price" binding:"required,finite,gt=0"`
	Description string  `json:"description" form:"description" binding:"required,max=2000"`
	ImagesURLs  string  `json:"images_urls" form:"images_urls"`
}

func (r ItemRequest) input() service.ItemInput {
	var urls []string
	for _, url := range strings.Split(r.ImagesURLs, ",") {
		if url = strings.TrimSpace(url); url != "" {
			urls = append(urls, url)
		}
	}
	return service.ItemInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		ImageURLs:   urls,
	}
}

// ImageRequest is the add-image form.
type ImageRequest struct {
	URL          string `json:"url" form:"url" binding:"required,url"`
	PreviewImage bool   `json:"preview_image" form:"preview_image"`
}

// ItemResponse is an item together with its shop statistics.
type ItemResponse struct {
	ID            string   `json:"id"`
	SellerID      string   `json:"sellerId"`
	Name          string   `json:"name"`
	ShopName      string   `json:"shopName"`
	Price         float64  `json:"price"`
	AvgShopRating float64  `json:"avgShopRating"`
	ShopSales     int      `json:"shopSales"`
	Description   string   `json:"description"`
	ShopReviews   int      `json:"shopReviews"`
	ItemReviews   int      `json:"itemReviews"`
	ImageURLs     []string `json:"imageURLs"`
}

type ImageResponse struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	PreviewImage bool   `json:"preview_image"`
}

type ReviewUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type ReviewResponse struct {
	ID         string     `json:"id"`
	User       ReviewUser `json:"user"`
	SellerID   string     `json:"sellerId"`
	ItemID     string     `json:"itemId"`
	StarRating int        `json:"starRating"`
	Text       string     `json:"text"`
	Date       string     `json:"date"`
}

type ReviewListResponse struct {
	ItemReviews []ReviewResponse `json:"itemReviews"`
}

// CreateItem handles POST /api/items.
func (ic *ItemController) CreateItem(c *gin.Context) {
	var req ItemRequest
	if err := ic.binder.Bind(c, &req); err != nil {
		ic.respondError(c, err)
		return
	}

	details, err := ic.items.CreateItem(c.Request.Context(), middleware.CurrentUser(c), req.input())
	if err != nil {
		ic.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toItemResponse(details))
}

// GetItem handles GET /api/items/:id.
func (ic *ItemController) GetItem(c *gin.Context) {
	id, ok := ic.itemID(c)
	if !ok {
		return
	}

	details, err := ic.items.GetItem(c.Request.Context(), id)
	if err != nil {
		ic.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toItemResponse(details))
}

// EditItem handles PUT /api/items/:id. The body is only read once the item exists and belongs to the caller.
func (ic *ItemController) EditItem(c *gin.Context) {
	id, ok := ic.itemID(c)
	if !ok {
		return
	}

	details, err := ic.items.EditItem(c.Request.Context(), middleware.CurrentUser(c), id, func() (service.ItemInput, error) {
		var req ItemRequest
		if err := ic.binder.Bind(c, &req); err != nil {
			return service.ItemInput{}, err
		}
		return req.input(), nil
	})
	if err != nil {
		ic.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toItemResponse(details))
}

// DeleteItem handles DELETE /api/items/:id.
func (ic *ItemController) DeleteItem(c *gin.Context) {
	id, ok := ic.itemID(c)
	if !ok {
		return
	}

	if err := ic.items.DeleteItem(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		ic.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully deleted"})
}

// AddImage handles POST /api/items/:id/images.
func (ic *ItemController) AddImage(c *gin.Context) {
	id, ok := ic.itemID(c)
	if !ok {
		return
	}

	image, err := ic.items.AddImage(c.Request.Context(), middleware.CurrentUser(c), id, func() (service.ImageInput, error) {
		var req ImageRequest
		if err := ic.binder.Bind(c, &req); err != nil {
			return service.ImageInput{}, err
		}
		return service.ImageInput{URL: req.URL, PreviewImage: req.PreviewImage}, nil
	})
	if err != nil {
		ic.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ImageResponse{
		ID:           image.ID.String(),
		URL:          image.URL,
		PreviewImage: image.PreviewImage,
	})
}

// ListReviews handles GET /api/items/:id/reviews.
func (ic *ItemController) ListReviews(c *gin.Context) {
	id, ok := ic.itemID(c)
	if !ok {
		return
	}

	reviews, err := ic.items.ListReviews(c.Request.Context(), id)
	if err != nil {
		ic.respondError(c, err)
		return
	}

	resp := ReviewListResponse{ItemReviews: make([]ReviewResponse, 0, len(reviews))}
	for _, r := range reviews {
		resp.ItemReviews = append(resp.ItemReviews, ReviewResponse{
			ID:         r.ID.String(),
			User:       ReviewUser{ID: r.UserID.String(), Username: r.Username},
			SellerID:   r.SellerID.String(),
			ItemID:     r.ProductID.String(),
			StarRating: r.Rating,
			Text:       r.Text,
			Date:       r.DateCreated.UTC().Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, resp)
}

// itemID parses the path id. A malformed id cannot name an item, so it is reported as not found.
func (ic *ItemController) itemID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Item could not be found"})
		return uuid.Nil, false
	}
	return id, true
}

func (ic *ItemController) respondError(c *gin.Context, err error) {
	var fieldErrs form.Errors
	switch {
	case errors.As(err, &fieldErrs):
		c.JSON(http.StatusBadRequest, gin.H{"errors": fieldErrs})
	case errors.Is(err, service.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Item could not be found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
	default:
		slog.Error("Item request failed",
			slog.Any("err", err),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
	}
}

func toItemResponse(d *service.ItemDetails) ItemResponse {
	urls := d.ImageURLs
	if urls == nil {
		urls = []string{}
	}
	return ItemResponse{
		ID:            d.Product.ID.String(),
		SellerID:      d.Product.UserID.String(),
		Name:          d.Product.Name,
		ShopName:      d.Seller.Username,
		Price:         d.Product.Price,
		AvgShopRating: d.Aggregates.AvgRating,
		ShopSales:     d.Aggregates.SalesCount,
		Description:   d.Product.Description,
		ShopReviews:   d.Aggregates.ReviewCount,
		ItemReviews:   d.ItemReviewCount,
		ImageURLs:     urls,
	}
}
