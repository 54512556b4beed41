package utils

import (
	"github.com/gin-gonic/gin"
)

type JSONResponse struct {
	Status  bool           `json:"status"`
	Message string         `json:"message"`
	Code    string         `json:"code,omitempty"`
	Data    interface{}    `json:"data,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
		Data:    nil,
	})
}

// RespondFailure writes an error envelope carrying a machine readable code.
func RespondFailure(c *gin.Context, httpStatus int, code, message string, details map[string]any) {
	c.JSON(httpStatus, JSONResponse{
		Status:  false,
		Message: message,
		Code:    code,
		Details: details,
	})
}
