package response

import (
	"errors"
	"net/http"

	"revenue-settlement-engine/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// Envelope is the response shape consumed by the calling request layer.
// Success reports that the engine processed the request; Status reports the
// business outcome. A rejected precondition (missing fields, insufficient
// balance, rate conflict) is Success=true, Status=false with a short Msg,
// never a thrown error or a stack trace.
type Envelope struct {
	Success bool   `json:"success"`
	Status  bool   `json:"status"`
	Msg     string `json:"msg"`
	Data    any    `json:"data,omitempty"`
}

// OK sends a 200 envelope with both flags set.
func OK(c *gin.Context, msg string, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Status: true, Msg: msg, Data: data})
}

// Created sends a 201 envelope with both flags set.
func Created(c *gin.Context, msg string, data any) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Status: true, Msg: msg, Data: data})
}

// Rejected sends a structured negative business result. The engine handled
// the request; the operation was refused and nothing was mutated.
func Rejected(c *gin.Context, httpStatus int, msg string, data any) {
	c.JSON(httpStatus, Envelope{Success: true, Status: false, Msg: msg, Data: data})
}

// Error maps an error to the envelope. *apperror.AppError keeps its code and
// HTTP status; anything else collapses to a generic 500 with no internal
// detail leaked.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, Envelope{
			Success: appErr.HTTPStatus < http.StatusInternalServerError,
			Status:  false,
			Msg:     appErr.Message,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, Envelope{
		Success: false,
		Status:  false,
		Msg:     "Internal server error",
	})
}
