package products

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/saltyperk/kidocart/internal/web"
)

type Handler struct {
	repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{repo: repo}
}

// Public: list products (optional ?category=, ?featured=true)
func (h *Handler) List(c *gin.Context) {
	f := ListFilter{
		Category: c.Query("category"),
		Featured: c.Query("featured") == "true",
	}

	items, err := h.repo.List(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) Get(c *gin.Context) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	p, err := h.repo.ByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

type productReq struct {
	Name          string   `json:"name" binding:"required"`
	Description   string   `json:"description"`
	Price         float64  `json:"price" binding:"required,gt=0"`
	OriginalPrice float64  `json:"original_price"`
	Category      string   `json:"category" binding:"required"`
	AgeGroup      string   `json:"age_group"`
	Brand         string   `json:"brand"`
	Images        []string `json:"images"`
	Stock         int      `json:"stock" binding:"gte=0"`
	Sizes         []string `json:"sizes"`
	Colors        []string `json:"colors"`
	Badge         string   `json:"badge"`
	Featured      bool     `json:"featured"`
}

// Admin: add product
func (h *Handler) AdminCreate(c *gin.Context) {
	var req productReq
	if err := web.StrictBindJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	p, err := h.repo.Create(c.Request.Context(), toInput(req))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to create product"})
		return
	}
	c.JSON(http.StatusCreated, p)
}

// Admin: update product (allow-listed fields only)
func (h *Handler) AdminUpdate(c *gin.Context) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)

	var req productReq
	if err := web.StrictBindJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	p, err := h.repo.Update(c.Request.Context(), id, toInput(req))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to update product"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func toInput(req productReq) ProductInput {
	return ProductInput{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		Category:      req.Category,
		AgeGroup:      req.AgeGroup,
		Brand:         req.Brand,
		Images:        req.Images,
		Stock:         req.Stock,
		Sizes:         req.Sizes,
		Colors:        req.Colors,
		Badge:         req.Badge,
		Featured:      req.Featured,
	}
}
