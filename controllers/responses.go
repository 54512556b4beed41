package controllers

import (
	"time"

	"github.com/yeremiapane/restaurant-booking/models"
)

type restaurantSummary struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

type tableSummary struct {
	ID   uint `json:"id"`
	Size int  `json:"size"`
}

type bookingResponse struct {
	ID              string               `json:"id"`
	GuestName       string               `json:"guest_name"`
	GuestEmail      string               `json:"guest_email"`
	GuestPhone      *string              `json:"guest_phone,omitempty"`
	VisitDate       string               `json:"visit_date"`
	VisitTime       string               `json:"visit_time"`
	NumberOfGuests  int                  `json:"number_of_guests"`
	Status          models.BookingStatus `json:"status"`
	SpecialRequests *string              `json:"special_requests,omitempty"`
	RestaurantID    uint                 `json:"restaurant_id"`
	Restaurant      *restaurantSummary   `json:"restaurant,omitempty"`
	Table           *tableSummary        `json:"table,omitempty"`
	CanCancel       bool                 `json:"can_cancel"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

func newBookingResponse(b *models.Booking, now time.Time) bookingResponse {
	slot := b.Slot()
	resp := bookingResponse{
		ID:              b.ID.String(),
		GuestName:       b.GuestName,
		GuestEmail:      b.GuestEmail,
		GuestPhone:      b.GuestPhone,
		VisitDate:       slot.DateString(),
		VisitTime:       slot.TimeString(),
		NumberOfGuests:  b.NumberOfGuests,
		Status:          b.Status,
		SpecialRequests: b.SpecialRequests,
		RestaurantID:    b.RestaurantID,
		CanCancel:       b.CanBeCancelled(now),
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
	if b.Restaurant != nil {
		resp.Restaurant = &restaurantSummary{ID: b.Restaurant.ID, Name: b.Restaurant.Name, Location: b.Restaurant.Location}
	}
	if b.Table != nil {
		resp.Table = &tableSummary{ID: b.Table.ID, Size: b.Table.Size}
	}
	return resp
}

func newBookingResponses(bookings []models.Booking, now time.Time) []bookingResponse {
	out := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, newBookingResponse(&bookings[i], now))
	}
	return out
}
