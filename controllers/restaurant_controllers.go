package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-booking/services"
	"github.com/yeremiapane/restaurant-booking/utils"
	"gorm.io/gorm"
)

type RestaurantController struct {
	Restaurants *services.RestaurantService
	PageSize    int
}

func NewRestaurantController(db *gorm.DB, pageSize int, opts ...services.Option) *RestaurantController {
	return &RestaurantController{
		Restaurants: services.NewRestaurantService(db, opts...),
		PageSize:    pageSize,
	}
}

// ListRestaurants -> daftar restoran aktif, ?page=N
func (rc *RestaurantController) ListRestaurants(c *gin.Context) {
	// halaman tidak valid dianggap halaman pertama
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = 1
	}

	result, err := rc.Restaurants.ListActive(c.Request.Context(), page, rc.PageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of restaurants", result)
}

// GetRestaurant -> detail restoran beserta meja aktif
func (rc *RestaurantController) GetRestaurant(c *gin.Context) {
	id, ok := uintParam(c, "restaurant_id", "Restaurant")
	if !ok {
		return
	}

	restaurant, err := rc.Restaurants.GetActive(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Restaurant detail", restaurant)
}
