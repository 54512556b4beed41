package models

import (
	"fmt"
	"time"
)

const (
	MinTableSize = 1
	MaxTableSize = 20
)

// Table is a group of identical physical tables: Quantity tables seating Size guests each.
type Table struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	RestaurantID uint        `gorm:"not null;uniqueIndex:idx_restaurant_table_size" json:"restaurant_id"`
	Restaurant   *Restaurant `gorm:"foreignKey:RestaurantID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Size         int         `gorm:"not null;uniqueIndex:idx_restaurant_table_size;check:chk_restaurant_tables_size,size >= 1 AND size <= 20" json:"size"`
	Quantity     int         `gorm:"not null;check:chk_restaurant_tables_quantity,quantity >= 1" json:"quantity"`
	IsActive     bool        `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt    time.Time   `gorm:"not null" json:"created_at"`
}

// TableName keeps clear of the TABLES keyword in MySQL.
func (Table) TableName() string {
	return "restaurant_tables"
}

func (t Table) String() string {
	return fmt.Sprintf("Table for %d (x%d)", t.Size, t.Quantity)
}
