package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/course-planner-api/pkg/errors"
)

// Envelope represents the common response contract.
type Envelope struct {
	Data  interface{}      `json:"data,omitempty"`
	Error *appErrors.Error `json:"error,omitempty"`
	Meta  interface{}      `json:"meta,omitempty"`
}

// JSON sends a success response with optional metadata such as search statistics.
func JSON(c *gin.Context, status int, data interface{}, meta interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, Envelope{Data: data, Meta: meta})
}

// OK responds with HTTP 200 and no metadata.
func OK(c *gin.Context, data interface{}) {
	JSON(c, http.StatusOK, data, nil)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}, meta interface{}) {
	JSON(c, http.StatusCreated, data, meta)
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, Envelope{Error: appErr})
}

// Attachment streams a rendered file with a download disposition.
func Attachment(c *gin.Context, filename, contentType string, body []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, body)
}

// NoContent responds with HTTP 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
