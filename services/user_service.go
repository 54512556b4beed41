package services

import (
	"context"
	"errors"
	"strings"

	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// EnsureStaffUser creates the bootstrap staff account when it is missing.
// An existing account keeps its password.
func (s *UserService) EnsureStaffUser(ctx context.Context, name, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, Validation("Staff email and password are required", nil)
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, Internal("Failed to load user", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, Internal("Failed to hash password", err)
	}

	user = models.User{
		Name:     name,
		Email:    email,
		Password: string(hashed),
		Role:     models.RoleStaff,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, Internal("Failed to create user", err)
	}

	utils.InfoLogger.Printf("Staff user created: %s", user.Email)
	return &user, nil
}

func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, Unauthorized("invalid credentials")
	}
	if err != nil {
		return nil, Internal("Failed to load user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, Unauthorized("invalid credentials")
	}
	return &user, nil
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFound("User")
	}
	if err != nil {
		return nil, Internal("Failed to load user", err)
	}
	return &user, nil
}
