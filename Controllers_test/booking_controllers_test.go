package Controllers_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-booking/controllers"
	"github.com/yeremiapane/restaurant-booking/models"
)

func setupBookingRouter(db *gorm.DB) *gin.Engine {
	router := gin.New()
	bookingCtrl := controllers.NewBookingController(db, testClock())
	router.GET("/booking", bookingCtrl.Landing)
	router.POST("/booking", bookingCtrl.CreateBooking)
	router.GET("/booking/:booking_id", bookingCtrl.GetBooking)
	router.GET("/booking/:booking_id/cancel", bookingCtrl.CancelPrompt)
	router.POST("/booking/:booking_id/cancel", bookingCtrl.CancelBooking)
	router.GET("/api/check-availability", bookingCtrl.CheckAvailability)
	return router
}

func bookingPayload(restaurantID uint, guests int) map[string]interface{} {
	return map[string]interface{}{
		"guest_name":       "Alice",
		"guest_email":      "alice@example.com",
		"visit_date":       "2030-01-10",
		"visit_time":       "18:30",
		"number_of_guests": guests,
		"restaurant":       restaurantID,
	}
}

func TestCreateBookingMatchesSmallestTable(t *testing.T) {
	db := setupTestDB(t)
	restaurant := seedTestDiner(t, db)
	router := setupBookingRouter(db)

	w := performJSON(t, router, http.MethodPost, "/booking", bookingPayload(restaurant.ID, 2), "")
	assert.Equal(t, http.StatusCreated, w.Code)

	response := decodeResponse(t, w)
	assert.Contains(t, response["message"], "Booking confirmed!")
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "confirmed", data["status"])
	assert.Equal(t, "2030-01-10", data["visit_date"])
	assert.Equal(t, "18:30", data["visit_time"])
	table := data["table"].(map[string]interface{})
	assert.Equal(t, float64(2), table["size"])
	assert.Equal(t, int64(1), countBookings(t, db))
}

func TestCreateBookingOverbookingPrevention(t *testing.T) {
	db := setupTestDB(t)
	restaurant := seedTestDiner(t, db)
	router := setupBookingRouter(db)

	for i := 0; i < 2; i++ {
		w := performJSON(t, router, http.MethodPost, "/booking", bookingPayload(restaurant.ID, 2), "")
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := performJSON(t, router, http.MethodPost, "/booking", bookingPayload(restaurant.ID, 2), "")
	assert.Equal(t, http.StatusConflict, w.Code)
	response := decodeResponse(t, w)
	assert.Equal(t, "NO_AVAILABILITY", response["code"])
	assert.Equal(t, "No tables available at that time", response["message"])
	assert.Equal(t, int64(2), countBookings(t, db))
}

func TestCreateBookingLargerPartyUsesLargeTable(t *testing.T) {
	db := setupTestDB(t)
	restaurant := seedTestDiner(t, db)
	router := setupBookingRouter(db)

	w := performJSON(t, router, http.MethodPost, "/booking", bookingPayload(restaurant.ID, 3), "")
	require.Equal(t, http.StatusCreated, w.Code)

	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["number_of_guests"])
	assert.Equal(t, float64(4), data["table"].(map[string]interface{})["size"])
}

func TestCreateBookingInPastIsRejected(t *testing.T) {
	db := setupTestDB(t)
	restaurant := seedTestDiner(t, db)
	router := setupBookingRouter(db)

	payload := bookingPayload(restaurant.ID, 2)
	payload["visit_time"] = "11:00"

	w := performJSON(t, router, http.MethodPost, "/booking", payload, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeResponse(t, w)["code"])
	assert.Equal(t, int64(0), countBookings(t, db))
}

func TestCreateBookingMissingFields(t *testing.T) {
	db := setupTestDB(t)
	restaurant := seedTestDiner(t, db)
	router := setupBookingRouter(db)

	payload := bookingPayload(restaurant.ID, 2)
	delete(payload, "guest_email")
	payload["visit_time"] = "25:99"

	w := performJSON(t, router, http.MethodPost, "/booking", payload, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	details := decodeResponse(t, w)["details"].(map[string]interface{})
	assert.Equal(t, "This field is required.", details["guest_email"])
	assert.Equal(t, "Enter a valid time (HH:MM).", details["visit_time"])
	assert.Equal(t, int64(0), countBookings(t, db))
}

func TestCreateBookingFromForm(t *testing.T) {
	db := setupTestDB(t)
	restaurant := seedTestDiner(t, db)
	router := setupBookingRouter(db)

	form := url.Values{
		"guest_name":       {"Bob"},
		"guest_email":      {"bob@example.com"},
		"visit_date":       {"2030-01-11"},
		"visit_time":       {"19:00"},
		"number_of_guests": {"2"},
		"restaurant":       {strconv.Itoa(int(restaurant.ID))},
		"special_requests": {"Window seat"},
	}
	req, err := http.NewRequest(http.MethodPost, "/booking", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "Window seat", data["special_requests"])
}

func TestBookingDetailAndCancelFlow(t *testing.T) {
	db := setupTestDB(t)
	restaurant := seedTestDiner(t, db)
	router := setupBookingRouter(db)

	w := performJSON(t, router, http.MethodPost, "/booking", bookingPayload(restaurant.ID, 2), "")
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeResponse(t, w)["data"].(map[string]interface{})["id"].(string)

	w = performJSON(t, router, http.MethodGet, "/booking/"+id, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	detail := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "Test Diner", detail["restaurant"].(map[string]interface{})["name"])
	assert.Equal(t, true, detail["can_cancel"])

	// viewing the prompt changes nothing
	w = performJSON(t, router, http.MethodGet, "/booking/"+id+"/cancel", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	var stored models.Booking
	require.NoError(t, db.First(&stored, "id = ?", id).Error)
	assert.Equal(t, models.BookingStatusConfirmed, stored.Status)

	w = performJSON(t, router, http.MethodPost, "/booking/"+id+"/cancel", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cancelled", decodeResponse(t, w)["data"].(map[string]interface{})["status"])

	w = performJSON(t, router, http.MethodPost, "/booking/"+id+"/cancel", nil, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	response := decodeResponse(t, w)
	assert.Equal(t, "CANNOT_CANCEL", response["code"])
	assert.Equal(t, "This booking cannot be cancelled", response["message"])

	w = performJSON(t, router, http.MethodGet, "/booking/"+id+"/cancel", nil, "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBookingDetailUnknownID(t *testing.T) {
	db := setupTestDB(t)
	router := setupBookingRouter(db)

	w := performJSON(t, router, http.MethodGet, "/booking/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performJSON(t, router, http.MethodGet, "/booking/6f1c1c4e-6a5d-4d41-9d54-2f1a3f0b9b11", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decodeResponse(t, w)["code"])
}

func TestBookingLandingShowsFeatured(t *testing.T) {
	db := setupTestDB(t)
	for _, name := range []string{"A Place", "B Place", "C Place", "D Place"} {
		require.NoError(t, db.Create(&models.Restaurant{Name: name, Location: "Town", IsActive: true}).Error)
	}
	router := setupBookingRouter(db)

	w := performJSON(t, router, http.MethodGet, "/booking", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Len(t, data["featured_restaurants"], 3)
	assert.Equal(t, "2030-01-10", data["min_date"])
}

func TestCheckAvailability(t *testing.T) {
	db := setupTestDB(t)
	restaurant := seedTestDiner(t, db)
	router := setupBookingRouter(db)
	rid := strconv.Itoa(int(restaurant.ID))

	w := performJSON(t, router, http.MethodGet, "/api/check-availability?restaurant_id="+rid+"&date=2030-01-10", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing parameters", decodeResponse(t, w)["message"])

	w = performJSON(t, router, http.MethodGet, "/api/check-availability?restaurant_id=abc&date=2030-01-10&time=18:30&guests=2", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid parameters", decodeResponse(t, w)["message"])

	w = performJSON(t, router, http.MethodGet, "/api/check-availability?restaurant_id=999&date=2030-01-10&time=18:30&guests=2", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performJSON(t, router, http.MethodGet, "/api/check-availability?restaurant_id="+rid+"&date=2030-01-10&time=18:30&guests=3", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, true, data["available"])
	tables := data["tables"].([]interface{})
	require.Len(t, tables, 1)
	assert.Equal(t, float64(4), tables[0].(map[string]interface{})["size"])
	assert.Equal(t, float64(1), tables[0].(map[string]interface{})["available"])

	w = performJSON(t, router, http.MethodGet, "/api/check-availability?restaurant_id="+rid+"&date=2030-01-10&time=18:30&guests=9", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	data = decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, false, data["available"])
	assert.Empty(t, data["tables"])
}
