package wishlist

import (
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

func (h *Handler) List(c *gin.Context) {
	userID := auth.UserID(c)

	items, err := h.store.List(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load wishlist"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type toggleReq struct {
	ProductID int64 `json:"product_id" binding:"required"`
}

func (h *Handler) Toggle(c *gin.Context) {
	userID := auth.UserID(c)

	var req toggleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	added, err := h.store.Toggle(c.Request.Context(), userID, req.ProductID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update wishlist"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": added})
}

func (h *Handler) Remove(c *gin.Context) {
	userID := auth.UserID(c)

	productID, _ := strconv.ParseInt(c.Query("product_id"), 10, 64)
	if productID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_id required"})
		return
	}

	if err := h.store.Remove(c.Request.Context(), userID, productID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove item"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item removed from wishlist"})
}
