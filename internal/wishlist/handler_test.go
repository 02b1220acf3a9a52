package wishlist

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saltyperk/kidocart/internal/auth"
	"github.com/saltyperk/kidocart/internal/domain/wishlist"
)

type memStore struct {
	items map[int64]map[int64]bool
}

func newMemStore() *memStore {
	return &memStore{items: map[int64]map[int64]bool{}}
}

func (m *memStore) Toggle(_ context.Context, userID, productID int64) (bool, error) {
	if m.items[userID] == nil {
		m.items[userID] = map[int64]bool{}
	}
	if m.items[userID][productID] {
		delete(m.items[userID], productID)
		return false, nil
	}
	m.items[userID][productID] = true
	return true, nil
}

func (m *memStore) Remove(_ context.Context, userID, productID int64) error {
	delete(m.items[userID], productID)
	return nil
}

func (m *memStore) List(_ context.Context, userID int64) ([]wishlist.Item, error) {
	out := []wishlist.Item{}
	for productID := range m.items[userID] {
		out = append(out, wishlist.Item{ProductID: productID})
	}
	return out, nil
}

func newRouter(store Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(store)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(auth.CtxUserIDKey, int64(7)) })
	r.GET("/wishlist", h.List)
	r.POST("/wishlist/toggle", h.Toggle)
	r.DELETE("/wishlist/items", h.Remove)
	return r
}

func post(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestToggleFlipsMembership(t *testing.T) {
	store := newMemStore()
	r := newRouter(store)

	w := post(r, "/wishlist/toggle", `{"product_id":3}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]bool
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp["added"])

	w = post(r, "/wishlist/toggle", `{"product_id":3}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp["added"])

	assert.Empty(t, store.items[7])
}

func TestToggleRequiresProductID(t *testing.T) {
	r := newRouter(newMemStore())

	w := post(r, "/wishlist/toggle", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRemoveRequiresProductID(t *testing.T) {
	r := newRouter(newMemStore())

	req := httptest.NewRequest(http.MethodDelete, "/wishlist/items", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListEmptyWishlist(t *testing.T) {
	r := newRouter(newMemStore())

	req := httptest.NewRequest(http.MethodGet, "/wishlist", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":[]}`, w.Body.String())
}
