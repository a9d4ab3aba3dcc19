package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/shop-identity/internal/domain"
	"github.com/prperemyshlev/shop-identity/internal/dto"
	"github.com/prperemyshlev/shop-identity/internal/service"
	"go.uber.org/zap"
)

// CollectionHandler serves the cart and wishlist of the authenticated account
type CollectionHandler struct {
	collections service.CollectionService
	logger      *zap.Logger
}

// NewCollectionHandler creates a new cart and wishlist handler
func NewCollectionHandler(collections service.CollectionService, logger *zap.Logger) *CollectionHandler {
	return &CollectionHandler{
		collections: collections,
		logger:      logger,
	}
}

// GetCart returns the cart and its count
func (h *CollectionHandler) GetCart(c *gin.Context) {
	response, err := h.collections.GetCart(c.Request.Context(), c.GetString(ctxUserIDKey))
	h.respond(c, response, err)
}

// PutCartLine upserts the line under :key
func (h *CollectionHandler) PutCartLine(c *gin.Context) {
	var req dto.CartLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	line := domain.CartLine{
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
		Name:      req.Name,
		Price:     req.Price,
		Image:     req.Image,
	}

	response, err := h.collections.PutCartLine(c.Request.Context(), c.GetString(ctxUserIDKey), c.Param("key"), line)
	h.respond(c, response, err)
}

// RemoveCartLine deletes the line under :key
func (h *CollectionHandler) RemoveCartLine(c *gin.Context) {
	response, err := h.collections.RemoveCartLine(c.Request.Context(), c.GetString(ctxUserIDKey), c.Param("key"))
	h.respond(c, response, err)
}

// ClearCart empties the cart
func (h *CollectionHandler) ClearCart(c *gin.Context) {
	response, err := h.collections.ClearCart(c.Request.Context(), c.GetString(ctxUserIDKey))
	h.respond(c, response, err)
}

// GetWishlist returns the wishlist and its count
func (h *CollectionHandler) GetWishlist(c *gin.Context) {
	response, err := h.collections.GetWishlist(c.Request.Context(), c.GetString(ctxUserIDKey))
	h.respond(c, response, err)
}

// PutWishlistItem upserts the item under :key
func (h *CollectionHandler) PutWishlistItem(c *gin.Context) {
	var req dto.WishlistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	item := domain.WishlistItem{
		ProductID: req.ProductID,
		Name:      req.Name,
		Price:     req.Price,
		Image:     req.Image,
	}

	response, err := h.collections.PutWishlistItem(c.Request.Context(), c.GetString(ctxUserIDKey), c.Param("key"), item)
	h.respond(c, response, err)
}

// RemoveWishlistItem deletes the item under :key
func (h *CollectionHandler) RemoveWishlistItem(c *gin.Context) {
	response, err := h.collections.RemoveWishlistItem(c.Request.Context(), c.GetString(ctxUserIDKey), c.Param("key"))
	h.respond(c, response, err)
}

// ClearWishlist empties the wishlist
func (h *CollectionHandler) ClearWishlist(c *gin.Context) {
	response, err := h.collections.ClearWishlist(c.Request.Context(), c.GetString(ctxUserIDKey))
	h.respond(c, response, err)
}

func (h *CollectionHandler) respond(c *gin.Context, response any, err error) {
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response)
}
