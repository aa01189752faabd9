// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"pcds2030/internal/models"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("period_type", validatePeriodType)
		_ = v.RegisterValidation("period_status", validatePeriodStatus)
		_ = v.RegisterValidation("target_status", validateTargetStatus)
		_ = v.RegisterValidation("user_role", validateUserRole)
	}
}

func validatePeriodType(fl validator.FieldLevel) bool {
	return models.PeriodType(fl.Field().String()).Valid()
}

func validatePeriodStatus(fl validator.FieldLevel) bool {
	return models.PeriodStatus(fl.Field().String()).Valid()
}

// validateTargetStatus accepts an empty value; the service defaults it.
func validateTargetStatus(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == "" || models.TargetStatus(s).Valid()
}

func validateUserRole(fl validator.FieldLevel) bool {
	switch models.UserRole(fl.Field().String()) {
	case models.UserRoleAdmin, models.UserRoleAgency, models.UserRoleFocal:
		return true
	}
	return false
}
