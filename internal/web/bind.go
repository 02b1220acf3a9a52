// Package web holds small HTTP helpers shared by the feature handlers.
package web

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// StrictBindJSON decodes the request body into obj, rejecting unknown
// fields, then runs the same binding validation ShouldBindJSON would.
// Write endpoints use it so a misspelled field fails loudly instead of
// being silently dropped.
func StrictBindJSON(c *gin.Context, obj any) error {
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(obj); err != nil {
		return err
	}
	return binding.Validator.ValidateStruct(obj)
}
