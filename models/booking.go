package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusNoShow    BookingStatus = "no_show"
)

const (
	MinGuests = 1
	MaxGuests = 20
)

// Booking is identified by a random UUID so identifiers cannot be enumerated.
type Booking struct {
	ID              uuid.UUID      `gorm:"type:char(36);primaryKey" json:"id"`
	GuestName       string         `gorm:"type:varchar(100);not null" json:"guest_name"`
	GuestEmail      string         `gorm:"type:varchar(254);not null" json:"guest_email"`
	GuestPhone      *string        `gorm:"type:varchar(20)" json:"guest_phone,omitempty"`
	VisitDate       datatypes.Date `gorm:"not null;index:idx_bookings_slot,priority:2" json:"visit_date"`
	VisitTime       datatypes.Time `gorm:"not null;index:idx_bookings_slot,priority:3" json:"visit_time"`
	NumberOfGuests  int            `gorm:"not null;check:chk_bookings_guests,number_of_guests >= 1 AND number_of_guests <= 20" json:"number_of_guests"`
	RestaurantID    uint           `gorm:"not null;index" json:"restaurant_id"`
	Restaurant      *Restaurant    `gorm:"foreignKey:RestaurantID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"restaurant,omitempty"`
	TableID         *uint          `gorm:"index:idx_bookings_slot,priority:1" json:"table_id"`
	Table           *Table         `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"table,omitempty"`
	Status          BookingStatus  `gorm:"type:varchar(20);not null;default:'confirmed';index:idx_bookings_slot,priority:4" json:"status"`
	SpecialRequests *string        `gorm:"type:text" json:"special_requests,omitempty"`
	CreatedAt       time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null" json:"updated_at"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

func (b *Booking) Slot() Slot {
	return Slot{Date: b.VisitDate, Time: b.VisitTime}
}

// IsPast reports whether the visit starts strictly before now.
func (b *Booking) IsPast(now time.Time) bool {
	return b.Slot().At(now.Location()).Before(now)
}

func (b *Booking) CanBeCancelled(now time.Time) bool {
	return !b.IsPast(now) && b.Status == BookingStatusConfirmed
}

func (b *Booking) String() string {
	restaurant := fmt.Sprintf("restaurant #%d", b.RestaurantID)
	if b.Restaurant != nil {
		restaurant = b.Restaurant.Name
	}
	return fmt.Sprintf("%s at %s on %s (party of %d)", b.GuestName, restaurant, b.Slot(), b.NumberOfGuests)
}
