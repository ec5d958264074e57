package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/campaign-tracker/internal/errors"
	"github.com/wfunc/campaign-tracker/internal/middleware"
)

// ErrorResponse 错误响应
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// SuccessResponse 成功响应
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// respondError 把应用错误映射为JSON错误响应
// 状态码由错误码分组决定（后端组503、访问组403等）
func respondError(c *gin.Context, err error) {
	appErr, ok := err.(*errors.AppError)
	if !ok {
		appErr = errors.Wrap(err, errors.ErrUnknown)
	}

	c.JSON(appErr.HTTPStatus(), ErrorResponse{
		Code:      fmt.Sprintf("E%04d", appErr.Code),
		Message:   appErr.Message,
		Details:   appErr.Details,
		RequestID: middleware.GetRequestID(c),
	})
}
