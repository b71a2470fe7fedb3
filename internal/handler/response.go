package handler

import (
	"net/http"

	"github.com/blues/tts/internal/logic"
	"github.com/gin-gonic/gin"
)

// Response is the JSON envelope every endpoint returns
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// SuccessResponse success envelope
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse error envelope
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
	})
}

// FailFromError maps logic errors onto status codes: validation errors
// are the caller's fault, everything else is a persistence failure
func FailFromError(c *gin.Context, err error) {
	if logic.IsValidation(err) {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	ErrorResponse(c, http.StatusInternalServerError, err.Error())
}
