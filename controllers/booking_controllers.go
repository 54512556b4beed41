package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/services"
	"github.com/yeremiapane/restaurant-booking/utils"
	"gorm.io/gorm"
)

type BookingController struct {
	Bookings    *services.BookingService
	Restaurants *services.RestaurantService
}

func NewBookingController(db *gorm.DB, opts ...services.Option) *BookingController {
	RegisterValidators()
	return &BookingController{
		Bookings:    services.NewBookingService(db, opts...),
		Restaurants: services.NewRestaurantService(db, opts...),
	}
}

type createBookingRequest struct {
	GuestName       string `json:"guest_name" form:"guest_name" binding:"required,not_blank,max=100"`
	GuestEmail      string `json:"guest_email" form:"guest_email" binding:"required,email,max=254"`
	GuestPhone      string `json:"guest_phone" form:"guest_phone" binding:"omitempty,max=20"`
	VisitDate       string `json:"visit_date" form:"visit_date" binding:"required,datetime=2006-01-02"`
	VisitTime       string `json:"visit_time" form:"visit_time" binding:"required,visit_time"`
	NumberOfGuests  int    `json:"number_of_guests" form:"number_of_guests" binding:"required,min=1,max=20"`
	RestaurantID    uint   `json:"restaurant" form:"restaurant" binding:"required"`
	SpecialRequests string `json:"special_requests" form:"special_requests" binding:"omitempty,max=1000"`
}

// Landing -> data untuk halaman booking (featured restaurants)
func (bc *BookingController) Landing(c *gin.Context) {
	featured, err := bc.Restaurants.Featured(c.Request.Context(), services.FeaturedRestaurants)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Booking form", gin.H{
		"featured_restaurants": featured,
		"min_guests":           models.MinGuests,
		"max_guests":           models.MaxGuests,
		"min_date":             models.SlotAt(bc.Bookings.Now()).DateString(),
	})
}

// CreateBooking -> guest submits a booking request (JSON or form)
func (bc *BookingController) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	slot, err := models.ParseSlot(req.VisitDate, req.VisitTime)
	if err != nil {
		utils.RespondFailure(c, http.StatusBadRequest, services.CodeValidation, "Invalid request", map[string]any{
			"visit_date": err.Error(),
		})
		return
	}

	booking, err := bc.Bookings.AttemptBooking(c.Request.Context(), services.BookingRequest{
		RestaurantID: req.RestaurantID,
		PartySize:    req.NumberOfGuests,
		Slot:         slot,
		Guest: services.GuestInfo{
			Name:            req.GuestName,
			Email:           req.GuestEmail,
			Phone:           req.GuestPhone,
			SpecialRequests: req.SpecialRequests,
		},
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Booking confirmed! Your booking ID is "+booking.ID.String(),
		newBookingResponse(booking, bc.Bookings.Now()))
}

// GetBooking -> detail booking berdasarkan id acak
func (bc *BookingController) GetBooking(c *gin.Context) {
	id, ok := bookingIDParam(c)
	if !ok {
		return
	}

	booking, err := bc.Bookings.GetBooking(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Booking detail", newBookingResponse(booking, bc.Bookings.Now()))
}

// CancelPrompt shows what would be cancelled. It never changes the booking.
func (bc *BookingController) CancelPrompt(c *gin.Context) {
	id, ok := bookingIDParam(c)
	if !ok {
		return
	}

	booking, cancellable, err := bc.Bookings.CancellationPreview(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !cancellable {
		respondServiceError(c, services.CannotCancel())
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Confirm cancellation", gin.H{
		"booking": newBookingResponse(booking, bc.Bookings.Now()),
		"confirm": gin.H{
			"method": http.MethodPost,
			"path":   "/booking/" + booking.ID.String() + "/cancel",
		},
	})
}

// CancelBooking -> konfirmasi pembatalan oleh tamu
func (bc *BookingController) CancelBooking(c *gin.Context) {
	id, ok := bookingIDParam(c)
	if !ok {
		return
	}

	booking, err := bc.Bookings.Cancel(c.Request.Context(), id, services.ActorGuest)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Booking cancelled successfully.", newBookingResponse(booking, bc.Bookings.Now()))
}

// CheckAvailability -> snapshot meja yang masih kosong untuk satu slot
func (bc *BookingController) CheckAvailability(c *gin.Context) {
	restaurantParam := strings.TrimSpace(c.Query("restaurant_id"))
	dateParam := strings.TrimSpace(c.Query("date"))
	timeParam := strings.TrimSpace(c.Query("time"))
	guestsParam := strings.TrimSpace(c.Query("guests"))

	if restaurantParam == "" || dateParam == "" || timeParam == "" || guestsParam == "" {
		utils.RespondFailure(c, http.StatusBadRequest, "MISSING_PARAMETERS", "Missing parameters", nil)
		return
	}

	restaurantID, err1 := strconv.ParseUint(restaurantParam, 10, 64)
	guests, err2 := strconv.Atoi(guestsParam)
	slot, err3 := models.ParseSlot(dateParam, timeParam)
	if err1 != nil || err2 != nil || err3 != nil {
		utils.RespondFailure(c, http.StatusBadRequest, "INVALID_PARAMETERS", "Invalid parameters", nil)
		return
	}

	tables, err := bc.Bookings.QueryAvailability(c.Request.Context(), uint(restaurantID), slot, guests)
	if err != nil {
		appErr := services.AsAppError(err)
		if appErr.HTTPStatus == http.StatusBadRequest || appErr.HTTPStatus == http.StatusNotFound {
			utils.RespondFailure(c, http.StatusBadRequest, "INVALID_PARAMETERS", "Invalid parameters", appErr.Details)
			return
		}
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Availability", gin.H{
		"available": len(tables) > 0,
		"tables":    tables,
	})
}

// bookingIDParam parses :booking_id. Malformed ids look the same as unknown ones.
func bookingIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("booking_id"))
	if err != nil {
		respondServiceError(c, services.NotFound("Booking"))
		return uuid.Nil, false
	}
	return id, true
}

func uintParam(c *gin.Context, name, resource string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondServiceError(c, services.NotFound(resource))
		return 0, false
	}
	return uint(id), true
}
