package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-booking/services"
	"github.com/yeremiapane/restaurant-booking/utils"
	"gorm.io/gorm"
)

// TableController mengelola inventaris meja per restoran (staff only).
type TableController struct {
	Restaurants *services.RestaurantService
}

func NewTableController(db *gorm.DB, opts ...services.Option) *TableController {
	RegisterValidators()
	return &TableController{
		Restaurants: services.NewRestaurantService(db, opts...),
	}
}

// CreateTable -> tambah meja; ukuran yang sudah ada menambah quantity
func (tc *TableController) CreateTable(c *gin.Context) {
	restaurantID, ok := uintParam(c, "restaurant_id", "Restaurant")
	if !ok {
		return
	}

	var req struct {
		Size     int `json:"size" binding:"required,min=1,max=20"`
		Quantity int `json:"quantity" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	table, err := tc.Restaurants.AddTable(c.Request.Context(), restaurantID, req.Size, req.Quantity)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.InfoLogger.Printf("Table saved: restaurant=%d size=%d quantity=%d", restaurantID, table.Size, table.Quantity)
	utils.RespondJSON(c, http.StatusCreated, "Table saved", table)
}

// UpdateTable -> ubah quantity dan/atau status aktif
func (tc *TableController) UpdateTable(c *gin.Context) {
	tableID, ok := uintParam(c, "table_id", "Table")
	if !ok {
		return
	}

	var req struct {
		Quantity *int  `json:"quantity" binding:"omitempty,min=1"`
		IsActive *bool `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	table, err := tc.Restaurants.UpdateTable(c.Request.Context(), tableID, services.TableUpdate{
		Quantity: req.Quantity,
		IsActive: req.IsActive,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Table updated", table)
}

// DeleteTable -> soft delete, booking lama tetap valid
func (tc *TableController) DeleteTable(c *gin.Context) {
	tableID, ok := uintParam(c, "table_id", "Table")
	if !ok {
		return
	}

	table, err := tc.Restaurants.SetTableActive(c.Request.Context(), tableID, false)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.InfoLogger.Printf("Table %d deactivated", tableID)
	utils.RespondJSON(c, http.StatusOK, "Table deactivated", table)
}
