package addresses

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/saltyperk/kidocart/internal/auth"
	"github.com/saltyperk/kidocart/internal/domain/address"
	"github.com/saltyperk/kidocart/internal/web"
)

var pincodeRe = regexp.MustCompile(`^[0-9]{6}$`)

type Handler struct {
	repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) List(c *gin.Context) {
	userID := auth.UserID(c)

	list, err := h.repo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load addresses"})
		return
	}
	if list == nil {
		list = []address.Address{}
	}
	c.JSON(http.StatusOK, gin.H{"items": list})
}

type addressReq struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Address   string `json:"address" binding:"required"`
	Apartment string `json:"apartment"`
	City      string `json:"city" binding:"required"`
	State     string `json:"state" binding:"required"`
	Pincode   string `json:"pincode" binding:"required"`
	IsDefault bool   `json:"is_default"`
}

func (h *Handler) Create(c *gin.Context) {
	userID := auth.UserID(c)

	var req addressReq
	if err := web.StrictBindJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if !pincodeRe.MatchString(req.Pincode) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pincode must be 6 digits"})
		return
	}

	a, err := h.repo.Create(c.Request.Context(), userID, toInput(req))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save address"})
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *Handler) Update(c *gin.Context) {
	userID := auth.UserID(c)

	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)

	var req addressReq
	if err := web.StrictBindJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if !pincodeRe.MatchString(req.Pincode) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pincode must be 6 digits"})
		return
	}

	a, err := h.repo.Update(c.Request.Context(), userID, id, toInput(req))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "address not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update address"})
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) Delete(c *gin.Context) {
	userID := auth.UserID(c)

	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)

	err := h.repo.Delete(c.Request.Context(), userID, id)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "address not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete address"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Address deleted successfully"})
}

func toInput(req addressReq) AddressInput {
	return AddressInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Address:   req.Address,
		Apartment: req.Apartment,
		City:      req.City,
		State:     req.State,
		Pincode:   req.Pincode,
		IsDefault: req.IsDefault,
	}
}
