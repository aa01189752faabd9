package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"pcds2030/internal/daterange"
	apperrors "pcds2030/internal/errors"
	"pcds2030/internal/middleware"
	"pcds2030/internal/services"
)

// getActor builds the service-layer actor from the authenticated identity.
// Returns ErrUnauthorized if not present.
func getActor(c *gin.Context) (services.Actor, error) {
	userID, role, agencyID, ok := middleware.Identity(c)
	if !ok {
		return services.Actor{}, apperrors.ErrUnauthorized
	}
	return services.Actor{UserID: userID, Role: role, AgencyID: agencyID}, nil
}

// parsePathID parses a uint path parameter.
// Returns ErrInvalidInput if the parameter is not a valid positive integer.
func parsePathID(c *gin.Context, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return uint(id), nil
}

// parseOptionalUint parses an optional uint query parameter.
func parseOptionalUint(c *gin.Context, key string) (*uint, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, key+" must be a positive integer")
	}
	u := uint(id)
	return &u, nil
}

// parseOptionalDay parses an optional YYYY-MM-DD value.
func parseOptionalDay(field string, v *string) (*time.Time, error) {
	if v == nil || *v == "" {
		return nil, nil
	}
	d, err := daterange.ParseDay(*v)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, field+" must be YYYY-MM-DD")
	}
	return &d, nil
}

// respondWithError writes a consistent JSON error response. AppErrors keep
// their status, code, kind and message; other errors become a logged 500.
func respondWithError(c *gin.Context, err error) {
	middleware.RenderError(c, err)
}

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
