package services

import (
	apperrors "pcds2030/internal/errors"
	"pcds2030/internal/models"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID   uint
	Role     models.UserRole
	AgencyID *uint
}

// IsAdmin reports whether the actor holds administrator capability.
func (a Actor) IsAdmin() bool {
	return a.Role == models.UserRoleAdmin
}

// CanAccessAgency reports whether the actor may act on data owned by agencyID.
func (a Actor) CanAccessAgency(agencyID uint) bool {
	if a.IsAdmin() {
		return true
	}
	return a.AgencyID != nil && *a.AgencyID == agencyID
}

// requireAdmin returns ErrPermissionDenied for non-admin actors.
func requireAdmin(actor Actor) error {
	if !actor.IsAdmin() {
		return apperrors.ErrPermissionDenied
	}
	return nil
}
