package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/yeremiapane/restaurant-booking/config"
	"github.com/yeremiapane/restaurant-booking/database"
	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/router"
	"github.com/yeremiapane/restaurant-booking/services"
	"github.com/yeremiapane/restaurant-booking/utils"
	"gorm.io/gorm"
)

func init() {
	// Load .env file di awal sebelum apapun
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading: %v", err)
	}

	utils.InitLogger()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Invalid configuration: %v", err)
	}
	utils.ConfigureLogger(cfg.LogLevel, cfg.LogFormat)
	utils.SetJWTSecret(cfg.JWTSecret)

	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize DB
	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	autoMigrate(db)
	bootstrapStaff(db, cfg)

	r := router.SetupRouter(db, cfg)

	utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func autoMigrate(db *gorm.DB) {
	if err := models.AutoMigrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")

	if err := database.InstallCapacityGuard(db); err != nil {
		utils.ErrorLogger.Fatalf("Error setting up triggers: %v", err)
	}
}

func bootstrapStaff(db *gorm.DB, cfg *config.Config) {
	if cfg.StaffEmail == "" || cfg.StaffPassword == "" {
		utils.InfoLogger.Println("STAFF_EMAIL/STAFF_PASSWORD not set, skipping staff bootstrap")
		return
	}
	if _, err := services.NewUserService(db).EnsureStaffUser(context.Background(), "Staff", cfg.StaffEmail, cfg.StaffPassword); err != nil {
		utils.ErrorLogger.Fatalf("Failed to create staff user: %v", err)
	}
}
