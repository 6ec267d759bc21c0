package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/GriffinCanCode/docuseal-embed/internal/docuseal"
	"github.com/GriffinCanCode/docuseal-embed/internal/embed"
	"github.com/GriffinCanCode/docuseal-embed/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/docuseal-embed/internal/probe"
	"github.com/GriffinCanCode/docuseal-embed/internal/shared/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	var invalidURL *docuseal.InvalidURLError
	var upstream *probe.StatusError

	switch {
	case errors.As(err, &invalidURL),
		errors.Is(err, embed.ErrMissingSource),
		errors.Is(err, embed.ErrUntrustedSource),
		errors.Is(err, probe.ErrHostNotAllowed):
		return http.StatusBadRequest
	case errors.Is(err, embed.ErrUnknownPreset):
		return http.StatusNotFound
	case errors.Is(err, probe.ErrDisabled),
		errors.Is(err, resilience.ErrCircuitOpen),
		errors.Is(err, resilience.ErrTooManyRequests):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case docuseal.HasCode(err, docuseal.CodeRetryExceeded), errors.As(err, &upstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as a JSON error body. Server errors are logged.
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	body := types.ErrorResponse{Error: err.Error()}

	var de *docuseal.Error
	if errors.As(err, &de) {
		body.Code = de.Code
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err))
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: msg})
}
