package response

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/masteryyh/vidtube/pkg/customerrors"
)

type GenericResponse struct {
	Status  int    `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func NewGenericResponse(status int, message string, data any) *GenericResponse {
	return &GenericResponse{
		Status:  status,
		Message: message,
		Data:    data,
	}
}

func OK(c *gin.Context, data any) {
	Message(c, http.StatusOK, "ok", data)
}

func Created(c *gin.Context, data any) {
	Message(c, http.StatusCreated, "created", data)
}

func Message(c *gin.Context, status int, message string, data any) {
	c.JSON(status, NewGenericResponse(status, message, data))
}

// Failed is the single place errors are turned into responses. Anything that is
// not a business error is logged and reported as a generic internal error.
func Failed(c *gin.Context, err error) {
	bizErr := translate(c, err)
	c.JSON(bizErr.Code, &ErrorResponse{Status: bizErr.Code, Message: bizErr.Message})
}

func Abort(c *gin.Context, reason any) {
	err, ok := reason.(error)
	if ok {
		bizErr := translate(c, err)
		c.AbortWithStatusJSON(bizErr.Code, &ErrorResponse{Status: bizErr.Code, Message: bizErr.Message})
	} else {
		slog.ErrorContext(c, "an error occurred or panic recovered", "reason", reason)
		c.AbortWithStatusJSON(http.StatusInternalServerError, &ErrorResponse{
			Status:  http.StatusInternalServerError,
			Message: customerrors.ErrInternalServerError.Message,
		})
	}
}

func translate(c *gin.Context, err error) *customerrors.BusinessError {
	bizErr := customerrors.GetBusinessError(err)
	if bizErr != nil {
		return bizErr
	}
	if customerrors.IsTransient(err) {
		slog.WarnContext(c, "transient failure while serving request", "error", err, "path", c.FullPath())
		return customerrors.ErrStoreUnavailable
	}
	slog.ErrorContext(c, "unexpected failure while serving request", "error", err, "path", c.FullPath())
	return customerrors.ErrInternalServerError
}
