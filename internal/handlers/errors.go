package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pricing-service/internal/models"
	"pricing-service/internal/pricing"
	"pricing-service/internal/repository"
	"pricing-service/internal/services"
)

// respondError maps a service error to a status code and the error envelope.
// The wrapped chain is only exposed as details when exposeDetails is set.
func respondError(c *gin.Context, err error, fallback string, exposeDetails bool) {
	status, code, message := http.StatusInternalServerError, "INTERNAL_ERROR", fallback

	switch {
	case errors.Is(err, pricing.ErrInvalidInput), errors.Is(err, services.ErrInvalidStatus):
		status, code, message = http.StatusBadRequest, "VALIDATION_ERROR", err.Error()
	case errors.Is(err, repository.ErrNotFound):
		status, code, message = http.StatusNotFound, "NOT_FOUND", err.Error()
	case errors.Is(err, repository.ErrInvalidTransition):
		status, code, message = http.StatusConflict, "INVALID_TRANSITION", err.Error()
	case errors.Is(err, repository.ErrDuplicate):
		status, code, message = http.StatusConflict, "DUPLICATE", err.Error()
	}

	body := models.ErrorResponse{
		Success: false,
		Error:   models.Error{Code: code, Message: message},
	}
	if status == http.StatusInternalServerError && exposeDetails {
		body.Error.Details = err.Error()
	}
	c.JSON(status, body)
}

func validationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Success: false,
		Error: models.Error{
			Code:    "VALIDATION_ERROR",
			Message: err.Error(),
		},
	})
}

func invalidID(c *gin.Context, what string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Success: false,
		Error: models.Error{
			Code:    "INVALID_ID",
			Message: "Invalid " + what + " ID",
		},
	})
}
