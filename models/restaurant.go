package models

import "time"

type Restaurant struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	Location     string    `gorm:"type:varchar(200);not null" json:"location"`
	Description  *string   `gorm:"type:text" json:"description,omitempty"`
	Phone        *string   `gorm:"type:varchar(20)" json:"phone,omitempty"`
	Email        *string   `gorm:"type:varchar(254)" json:"email,omitempty"`
	OpeningHours *string   `gorm:"type:varchar(200)" json:"opening_hours,omitempty"`
	IsActive     bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
	Tables       []Table   `gorm:"foreignKey:RestaurantID" json:"tables,omitempty"`
}

func (r Restaurant) String() string {
	return r.Name + " (" + r.Location + ")"
}
