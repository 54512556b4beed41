// Command loadrestaurants seeds restaurants and tables from a .csv or .xlsx
// file with the columns restaurant_name, location, table_size, table_count.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/yeremiapane/restaurant-booking/config"
	"github.com/yeremiapane/restaurant-booking/database"
	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/services"
	"github.com/yeremiapane/restaurant-booking/utils"
)

func main() {
	path := flag.String("csv", "restaurants.csv", "path to the restaurants file (.csv or .xlsx)")
	flag.Parse()

	_ = godotenv.Load()
	utils.InitLogger()

	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Invalid configuration: %v", err)
	}
	utils.ConfigureLogger(cfg.LogLevel, cfg.LogFormat)

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	if err := database.InstallCapacityGuard(db); err != nil {
		utils.ErrorLogger.Fatalf("Error setting up triggers: %v", err)
	}

	os.Exit(run(context.Background(), services.NewImportService(db), *path))
}

func run(ctx context.Context, svc *services.ImportService, path string) int {
	result, err := svc.ImportFile(ctx, path)
	if errors.Is(err, services.ErrSourceNotFound) {
		fmt.Fprintf(os.Stderr, "File not found at %s\n", path)
		return 1
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
		return 1
	}

	fmt.Printf("Done seeding %d rows.\n", result.Processed)
	return 0
}
