package orders

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/saltyperk/kidocart/internal/auth"
	"github.com/saltyperk/kidocart/internal/domain/order"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type createOrderReq struct {
	ShippingAddress struct {
		FirstName string `json:"first_name" binding:"required"`
		LastName  string `json:"last_name" binding:"required"`
		Phone     string `json:"phone" binding:"required"`
		Address   string `json:"address" binding:"required"`
		Address2  string `json:"address2"`
		City      string `json:"city" binding:"required"`
		State     string `json:"state" binding:"required"`
		Zip       string `json:"zip" binding:"required"`
		Country   string `json:"country"`
	} `json:"shipping_address" binding:"required"`
	PaymentMethod string `json:"payment_method" binding:"required"`
}

func (h *Handler) Create(c *gin.Context) {
	userID := auth.UserID(c)

	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		return
	}

	o, err := h.svc.Create(c.Request.Context(), userID, CreateInput{
		ShippingAddress: order.ShippingAddress{
			FirstName: req.ShippingAddress.FirstName,
			LastName:  req.ShippingAddress.LastName,
			Phone:     req.ShippingAddress.Phone,
			Address:   req.ShippingAddress.Address,
			Address2:  req.ShippingAddress.Address2,
			City:      req.ShippingAddress.City,
			State:     req.ShippingAddress.State,
			Zip:       req.ShippingAddress.Zip,
			Country:   req.ShippingAddress.Country,
		},
		PaymentMethod: req.PaymentMethod,
	})
	if errors.Is(err, ErrEmptyCart) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cart is empty"})
		return
	}
	if errors.Is(err, ErrInsufficientStock) {
		c.JSON(http.StatusConflict, gin.H{"error": "insufficient stock"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create order"})
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (h *Handler) List(c *gin.Context) {
	userID := auth.UserID(c)

	list, err := h.svc.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": list})
}

func (h *Handler) Get(c *gin.Context) {
	userID := auth.UserID(c)

	o, err := h.svc.Get(c.Request.Context(), userID, c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load order"})
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *Handler) Cancel(c *gin.Context) {
	userID := auth.UserID(c)

	o, err := h.svc.Cancel(c.Request.Context(), userID, c.Param("id"))
	var stateErr InvalidStateError
	if errors.As(err, &stateErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": stateErr.Error()})
		return
	}
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to cancel order"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled successfully", "order": o})
}

// Admin endpoints

func (h *Handler) AdminList(c *gin.Context) {
	list, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": list})
}

type updateStatusReq struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) AdminUpdateStatus(c *gin.Context) {
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	o, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if errors.Is(err, ErrInvalidStatus) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status value"})
		return
	}
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update order"})
		return
	}
	c.JSON(http.StatusOK, o)
}
