package httperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type HTTPError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func Write(c *gin.Context, status int, code, message string) {
	c.JSON(status, HTTPError{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, code, message string) {
	Write(c, http.StatusBadRequest, code, message)
}

func NotFound(c *gin.Context, code, message string) {
	Write(c, http.StatusNotFound, code, message)
}

func Internal(c *gin.Context, code, message string) {
	Write(c, http.StatusInternalServerError, code, message)
}

func Unauthorized(c *gin.Context, code, message string) {
	Write(c, http.StatusUnauthorized, code, message)
}

// Respond maps an error from the core onto a status code and body naming
// the failed field or precondition.
func Respond(c *gin.Context, err error) {
	var (
		ve ValidationError
		ce ClientResolutionError
		se InvalidStateTransition
		pe PersistenceError
		be BusinessError
	)

	switch {
	case errors.As(err, &ce):
		c.JSON(http.StatusUnprocessableEntity, HTTPError{Code: "client_resolution_error", Message: ce.Error(), Field: "client"})
	case errors.As(err, &ve):
		c.JSON(http.StatusUnprocessableEntity, HTTPError{Code: "validation_error", Message: ve.Error(), Field: ve.Field})
	case errors.As(err, &se):
		c.JSON(http.StatusConflict, HTTPError{Code: "invalid_state_transition", Message: se.Error(), Field: "status"})
	case errors.As(err, &be):
		status := http.StatusBadRequest
		switch be.Code {
		case CodeAppointmentNotFound, CodeClientNotFound, CodeUnknownAction:
			status = http.StatusNotFound
		}
		Write(c, status, be.Code, be.Code)
	case errors.As(err, &pe):
		Internal(c, "persistence_error", pe.Op)
	default:
		Internal(c, "internal_error", err.Error())
	}
}
