package common

import (
	"net/http"

	"github.com/anoixa/dicom-portal/internal/apperror"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type Response struct {
	Status string      `json:"status"`
	Msg    string      `json:"msg"`
	Kind   string      `json:"kind,omitempty"`
	Data   interface{} `json:"data,omitempty"`
}

func Respond(c *gin.Context, httpStatus int, status string, message string, data interface{}) {
	c.JSON(httpStatus, Response{
		Status: status,
		Msg:    message,
		Data:   data,
	})
}

// RespondSuccess sends a success response with data.
func RespondSuccess(c *gin.Context, data interface{}) {
	Respond(c, http.StatusOK, "success", "", data)
}

// RespondCreated 返回 201
func RespondCreated(c *gin.Context, data interface{}) {
	Respond(c, http.StatusCreated, "success", "", data)
}

// RespondSuccessMessage sends a success response with message and data.
func RespondSuccessMessage(c *gin.Context, message string, data interface{}) {
	Respond(c, http.StatusOK, "success", message, data)
}

// RespondError sends an error response with message.
func RespondError(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, Response{
		Status: "error",
		Msg:    message,
		Kind:   string(kindForStatus(httpStatus)),
	})
}

// RespondErrorAbort 返回错误并终止后续处理
func RespondErrorAbort(c *gin.Context, httpStatus int, message string) {
	RespondError(c, httpStatus, message)
	c.Abort()
}

// RespondAppError 按错误类别映射状态码，上游失败不向客户端暴露细节
func RespondAppError(c *gin.Context, err error) {
	kind := apperror.KindOf(err)
	status := apperror.HTTPStatus(kind)

	if kind == apperror.KindUpstreamFailure {
		log.Error().
			Err(err).
			Str("path", c.Request.URL.Path).
			Str("request_id", c.GetString(RequestIDKey)).
			Msg("request failed")
	}

	c.JSON(status, Response{
		Status: "error",
		Msg:    apperror.MessageOf(err),
		Kind:   string(kind),
	})
}

// RequestIDKey 请求 ID 在 gin 上下文中的键
const RequestIDKey = "request_id"

func kindForStatus(status int) apperror.Kind {
	switch status {
	case http.StatusNotFound:
		return apperror.KindNotFound
	case http.StatusForbidden:
		return apperror.KindForbidden
	case http.StatusConflict:
		return apperror.KindConflict
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		return apperror.KindInvalidInput
	case http.StatusUnauthorized:
		return apperror.KindUnauthorized
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return ""
	default:
		return apperror.KindUpstreamFailure
	}
}
