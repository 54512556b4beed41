package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/services"
	"github.com/yeremiapane/restaurant-booking/utils"
	"gorm.io/gorm"
)

// maxImportUpload caps the size of an uploaded import file.
const maxImportUpload = 10 << 20

type AdminController struct {
	Bookings    *services.BookingService
	Restaurants *services.RestaurantService
	Imports     *services.ImportService
}

func NewAdminController(db *gorm.DB, opts ...services.Option) *AdminController {
	RegisterValidators()
	return &AdminController{
		Bookings:    services.NewBookingService(db, opts...),
		Restaurants: services.NewRestaurantService(db, opts...),
		Imports:     services.NewImportService(db),
	}
}

type restaurantRequest struct {
	Name         string  `json:"name" binding:"required,not_blank,max=100"`
	Location     string  `json:"location" binding:"required,not_blank,max=200"`
	Description  *string `json:"description"`
	Phone        *string `json:"phone" binding:"omitempty,max=20"`
	Email        *string `json:"email" binding:"omitempty,email,max=254"`
	OpeningHours *string `json:"opening_hours" binding:"omitempty,max=200"`
}

func (r restaurantRequest) input() services.RestaurantInput {
	return services.RestaurantInput{
		Name:         r.Name,
		Location:     r.Location,
		Description:  r.Description,
		Phone:        r.Phone,
		Email:        r.Email,
		OpeningHours: r.OpeningHours,
	}
}

type activeRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// GetRestaurant -> staff view, termasuk restoran dan meja nonaktif
func (ac *AdminController) GetRestaurant(c *gin.Context) {
	id, ok := uintParam(c, "restaurant_id", "Restaurant")
	if !ok {
		return
	}
	restaurant, err := ac.Restaurants.GetRestaurant(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Restaurant detail", restaurant)
}

func (ac *AdminController) CreateRestaurant(c *gin.Context) {
	var req restaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	restaurant, err := ac.Restaurants.CreateRestaurant(c.Request.Context(), req.input())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Restaurant created successfully", restaurant)
}

func (ac *AdminController) UpdateRestaurant(c *gin.Context) {
	id, ok := uintParam(c, "restaurant_id", "Restaurant")
	if !ok {
		return
	}

	var req restaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	restaurant, err := ac.Restaurants.UpdateRestaurant(c.Request.Context(), id, req.input())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Restaurant updated", restaurant)
}

// SetRestaurantActive -> soft delete / aktifkan kembali restoran
func (ac *AdminController) SetRestaurantActive(c *gin.Context) {
	id, ok := uintParam(c, "restaurant_id", "Restaurant")
	if !ok {
		return
	}

	var req activeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	restaurant, err := ac.Restaurants.SetRestaurantActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Restaurant status updated", restaurant)
}

// DeactivateRestaurant is the DELETE form of soft delete.
func (ac *AdminController) DeactivateRestaurant(c *gin.Context) {
	id, ok := uintParam(c, "restaurant_id", "Restaurant")
	if !ok {
		return
	}

	restaurant, err := ac.Restaurants.SetRestaurantActive(c.Request.Context(), id, false)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Restaurant deactivated", restaurant)
}

// ListBookings -> booking per restoran, terbaru dulu. Filter: ?date=&status=&page=
func (ac *AdminController) ListBookings(c *gin.Context) {
	restaurantID, ok := uintParam(c, "restaurant_id", "Restaurant")
	if !ok {
		return
	}

	var filter services.BookingFilter
	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		slot, err := models.ParseSlot(raw, "00:00")
		if err != nil {
			utils.RespondFailure(c, http.StatusBadRequest, services.CodeValidation, "Invalid request", map[string]any{
				"date": err.Error(),
			})
			return
		}
		date := slot.Date
		filter.Date = &date
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := models.BookingStatus(raw)
		switch status {
		case models.BookingStatusConfirmed, models.BookingStatusCancelled,
			models.BookingStatusCompleted, models.BookingStatusNoShow:
			filter.Status = status
		default:
			utils.RespondFailure(c, http.StatusBadRequest, services.CodeValidation, "Invalid request", map[string]any{
				"status": "unknown status",
			})
			return
		}
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if err != nil || pageSize > 100 {
		pageSize = 20
	}

	result, err := ac.Bookings.ListRestaurantBookings(c.Request.Context(), restaurantID, filter, page, pageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	now := ac.Bookings.Now()
	utils.RespondJSON(c, http.StatusOK, "List of bookings", services.Page[bookingResponse]{
		Items:      newBookingResponses(result.Items, now),
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
		HasNext:    result.HasNext,
		HasPrev:    result.HasPrev,
		Total:      result.Total,
	})
}

func (ac *AdminController) CancelBooking(c *gin.Context) {
	id, ok := bookingIDParam(c)
	if !ok {
		return
	}

	booking, err := ac.Bookings.Cancel(c.Request.Context(), id, services.ActorStaff)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Booking cancelled", newBookingResponse(booking, ac.Bookings.Now()))
}

func (ac *AdminController) CompleteBooking(c *gin.Context) {
	id, ok := bookingIDParam(c)
	if !ok {
		return
	}

	booking, err := ac.Bookings.MarkCompleted(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Booking marked completed", newBookingResponse(booking, ac.Bookings.Now()))
}

func (ac *AdminController) NoShowBooking(c *gin.Context) {
	id, ok := bookingIDParam(c)
	if !ok {
		return
	}

	booking, err := ac.Bookings.MarkNoShow(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Booking marked no_show", newBookingResponse(booking, ac.Bookings.Now()))
}

// ImportRestaurants -> upload .csv / .xlsx (multipart field "file")
func (ac *AdminController) ImportRestaurants(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportUpload)

	header, err := c.FormFile("file")
	if err != nil {
		utils.RespondFailure(c, http.StatusBadRequest, services.CodeValidation, "Invalid request", map[string]any{
			"file": "This field is required.",
		})
		return
	}

	file, err := header.Open()
	if err != nil {
		respondServiceError(c, services.Internal("Failed to read upload", err))
		return
	}
	defer file.Close()

	var result services.ImportResult
	if services.IsWorkbook(header.Filename) {
		result, err = ac.Imports.ImportXLSX(c.Request.Context(), file)
	} else {
		result, err = ac.Imports.ImportCSV(c.Request.Context(), file)
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.InfoLogger.Printf("Import uploaded by user %v: %d processed, %d skipped", c.GetUint("user_id"), result.Processed, result.Skipped)
	utils.RespondJSON(c, http.StatusOK, "Done seeding "+strconv.Itoa(result.Processed)+" rows.", result)
}
