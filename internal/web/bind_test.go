package web

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bindTarget struct {
	Name  string  `json:"name" binding:"required"`
	Price float64 `json:"price" binding:"gt=0"`
}

func bindContext(t *testing.T, body string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("POST", "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c
}

func TestStrictBindJSONAccepts(t *testing.T) {
	c := bindContext(t, `{"name":"Tee","price":250}`)

	var got bindTarget
	require.NoError(t, StrictBindJSON(c, &got))
	assert.Equal(t, "Tee", got.Name)
	assert.Equal(t, 250.0, got.Price)
}

func TestStrictBindJSONRejectsUnknownField(t *testing.T) {
	c := bindContext(t, `{"name":"Tee","price":250,"prize":1}`)

	var got bindTarget
	err := StrictBindJSON(c, &got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prize")
}

func TestStrictBindJSONValidates(t *testing.T) {
	c := bindContext(t, `{"price":250}`)

	var got bindTarget
	assert.Error(t, StrictBindJSON(c, &got))
}
