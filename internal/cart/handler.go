package cart

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/saltyperk/kidocart/internal/auth"
)

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) GetMyCart(c *gin.Context) {
	userID := auth.UserID(c)

	crt, err := h.store.GetCart(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load cart"})
		return
	}
	c.JSON(http.StatusOK, crt)
}

type addItemReq struct {
	ProductID int64  `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

func (h *Handler) AddItem(c *gin.Context) {
	userID := auth.UserID(c)

	var req addItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	if err := h.store.AddItem(c.Request.Context(), userID, req.ProductID, req.Quantity, req.Size, req.Color); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to add item"})
		return
	}

	crt, err := h.store.GetCart(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load cart"})
		return
	}
	c.JSON(http.StatusOK, crt)
}

type updateItemReq struct {
	ProductID int64  `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

func (h *Handler) UpdateItem(c *gin.Context) {
	userID := auth.UserID(c)

	var req updateItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err := h.store.UpdateItem(c.Request.Context(), userID, req.ProductID, req.Quantity, req.Size, req.Color)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found in cart"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to update item"})
		return
	}

	crt, err := h.store.GetCart(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load cart"})
		return
	}
	c.JSON(http.StatusOK, crt)
}

func (h *Handler) RemoveItem(c *gin.Context) {
	userID := auth.UserID(c)

	productID, _ := strconv.ParseInt(c.Query("product_id"), 10, 64)
	if productID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_id required"})
		return
	}

	err := h.store.RemoveItem(c.Request.Context(), userID, productID, c.Query("size"), c.Query("color"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to remove item"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart"})
}

func (h *Handler) Clear(c *gin.Context) {
	userID := auth.UserID(c)

	if err := h.store.ClearCart(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear cart"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}
