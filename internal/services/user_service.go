package services

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "pcds2030/internal/errors"
	"pcds2030/internal/models"
)

// userService handles user-related business logic.
type userService struct {
	db *gorm.DB
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB) UserServicer {
	return &userService{db: db}
}

// CreateUser registers a new user. Agency and focal users must belong to an
// existing agency; admins must not belong to one.
func (s *userService) CreateUser(actor Actor, username, password, fullName string, role models.UserRole, agencyID *uint) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "username and password are required")
	}
	switch role {
	case models.UserRoleAdmin, models.UserRoleAgency, models.UserRoleFocal:
	default:
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "unknown role %q", role)
	}
	if role.RequiresAgency() && agencyID == nil {
		return nil, apperrors.Newf(apperrors.ErrInvalidAgencyRole, "Role %s requires an agency", role)
	}
	if !role.RequiresAgency() && agencyID != nil {
		return nil, apperrors.Newf(apperrors.ErrInvalidAgencyRole, "Role %s cannot belong to an agency", role)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Username: username,
		Password: string(hashedPassword),
		FullName: fullName,
		Role:     role,
		AgencyID: agencyID,
		IsActive: true,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return apperrors.ErrDuplicateUsername
		}

		if agencyID != nil {
			var agencies int64
			if err := tx.Model(&models.Agency{}).Where("agency_id = ?", *agencyID).Count(&agencies).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if agencies == 0 {
				return apperrors.ErrAgencyNotFound
			}
		}

		if err := tx.Create(user).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.Where("user_id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// AttemptLogin checks credentials and stamps the login time. Unknown users,
// inactive users and wrong passwords all yield ErrInvalidCredentials.
func (s *userService) AttemptLogin(username, password string) (*models.User, error) {
	var user models.User
	err := s.db.Where("username = ? AND is_active = ?", strings.ToLower(strings.TrimSpace(username)), true).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.db.Model(&user).Update("last_login_at", now).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	user.LastLoginAt = &now
	return &user, nil
}
