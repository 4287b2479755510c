// Package api defines the JSON envelope shared by every endpoint.
package api

import "github.com/gin-gonic/gin"

// Response is the envelope returned on success.
// StatusCode mirrors the HTTP status of the response.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data,omitempty"`
	Message    string `json:"message"`
}

// ErrorResponse is the envelope returned on failure.
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// OK writes a success envelope with the given status.
func OK(c *gin.Context, status int, data any, message string) {
	c.JSON(status, Response{StatusCode: status, Data: data, Message: message})
}

// Fail writes an error envelope with the given status.
func Fail(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{StatusCode: status, Message: message})
}
