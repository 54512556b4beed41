package models

import "gorm.io/gorm"

// AutoMigrate migrates every entity of the booking service.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Restaurant{},
		&Table{},
		&Booking{},
	)
}
