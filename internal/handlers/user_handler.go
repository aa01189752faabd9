package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "pcds2030/internal/errors"
	"pcds2030/internal/models"
	"pcds2030/internal/services"
)

// UserHandler handles user administration.
type UserHandler struct {
	userService  services.UserServicer
	auditService services.AuditServicer
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService services.UserServicer, auditService services.AuditServicer) *UserHandler {
	return &UserHandler{userService: userService, auditService: auditService}
}

// CreateUserRequest represents the request payload for creating a user.
type CreateUserRequest struct {
	Username string          `json:"username" binding:"required,min=3,max=100"`
	Password string          `json:"password" binding:"required,min=8,max=128"`
	FullName string          `json:"full_name" binding:"max=200"`
	Role     models.UserRole `json:"role" binding:"required,user_role"`
	AgencyID *uint           `json:"agency_id"`
}

// CreateUser handles user creation by an administrator.
// @Summary     Create a user
// @Description Create an admin, agency or focal user
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateUserRequest true "User details"
// @Success     201 {object} models.User "User created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Permission denied"
// @Failure     404 {object} ErrorResponse "Agency not found"
// @Failure     409 {object} ErrorResponse "Duplicate username"
// @Router      /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.userService.CreateUser(actor, req.Username, req.Password, req.FullName, req.Role, req.AgencyID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, services.AuditCreateUser, models.AuditStatusSuccess, c.ClientIP(),
		map[string]any{"new_user_id": user.ID, "username": user.Username, "role": user.Role})

	c.JSON(http.StatusCreated, gin.H{"user": user})
}
