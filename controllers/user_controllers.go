package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-booking/services"
	"github.com/yeremiapane/restaurant-booking/utils"
	"gorm.io/gorm"
)

type UserController struct {
	Users    *services.UserService
	TokenTTL time.Duration
}

func NewUserController(db *gorm.DB, tokenTTL time.Duration) *UserController {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &UserController{
		Users:    services.NewUserService(db),
		TokenTTL: tokenTTL,
	}
}

// Login staff -> return JWT
func (uc *UserController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}

	user, err := uc.Users.Authenticate(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		utils.InfoLogger.Printf("Failed login attempt for %s", input.Email)
		respondServiceError(c, err)
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Role, uc.TokenTTL)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Login successful for user: %s, role: %s", user.Email, user.Role)

	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token":      token,
		"user_role":  strings.ToLower(user.Role),
		"expires_in": int(uc.TokenTTL.Seconds()),
	})
}

// GetProfile -> memeriksa user dari JWT
func (uc *UserController) GetProfile(c *gin.Context) {
	userIDInterface, exists := c.Get("user_id")
	if !exists {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("user id not found in context"))
		return
	}

	userID, ok := userIDInterface.(uint)
	if !ok {
		utils.RespondError(c, http.StatusInternalServerError, errors.New("invalid user id type"))
		return
	}

	user, err := uc.Users.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Profile data retrieved successfully", gin.H{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"role":  user.Role,
	})
}
