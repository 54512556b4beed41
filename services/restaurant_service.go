package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const FeaturedRestaurants = 3

type RestaurantInput struct {
	Name         string
	Location     string
	Description  *string
	Phone        *string
	Email        *string
	OpeningHours *string
}

type RestaurantService struct {
	settings
	db *gorm.DB
}

func NewRestaurantService(db *gorm.DB, opts ...Option) *RestaurantService {
	return &RestaurantService{
		settings: newSettings(opts),
		db:       db,
	}
}

// ListActive pages through active restaurants ordered by name.
func (s *RestaurantService) ListActive(ctx context.Context, page, pageSize int) (Page[models.Restaurant], error) {
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Restaurant{}).Where("is_active = ?", true).Count(&total).Error; err != nil {
		return Page[models.Restaurant]{}, Internal("Failed to count restaurants", err)
	}

	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	page, _ = ClampPage(page, pageSize, int(total))

	var restaurants []models.Restaurant
	err := db.Where("is_active = ?", true).
		Order("name ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&restaurants).Error
	if err != nil {
		return Page[models.Restaurant]{}, Internal("Failed to list restaurants", err)
	}

	return NewPage(restaurants, page, pageSize, int(total)), nil
}

func (s *RestaurantService) Featured(ctx context.Context, n int) ([]models.Restaurant, error) {
	if n <= 0 {
		n = FeaturedRestaurants
	}
	var restaurants []models.Restaurant
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Limit(n).
		Find(&restaurants).Error
	if err != nil {
		return nil, Internal("Failed to list restaurants", err)
	}
	return restaurants, nil
}

// GetActive returns an active restaurant with its active tables, smallest first.
func (s *RestaurantService) GetActive(ctx context.Context, id uint) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := s.db.WithContext(ctx).
		Preload("Tables", func(tx *gorm.DB) *gorm.DB {
			return tx.Where("is_active = ?", true).Order("size ASC")
		}).
		Where("id = ? AND is_active = ?", id, true).
		First(&restaurant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFound("Restaurant")
	}
	if err != nil {
		return nil, Internal("Failed to load restaurant", err)
	}
	return &restaurant, nil
}

// GetRestaurant ignores the active flag; staff can still see inactive ones.
func (s *RestaurantService) GetRestaurant(ctx context.Context, id uint) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := s.db.WithContext(ctx).
		Preload("Tables", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("size ASC")
		}).
		First(&restaurant, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFound("Restaurant")
	}
	if err != nil {
		return nil, Internal("Failed to load restaurant", err)
	}
	return &restaurant, nil
}

func (s *RestaurantService) CreateRestaurant(ctx context.Context, in RestaurantInput) (*models.Restaurant, error) {
	if err := validateRestaurantInput(in); err != nil {
		return nil, err
	}

	restaurant := models.Restaurant{
		Name:         strings.TrimSpace(in.Name),
		Location:     strings.TrimSpace(in.Location),
		Description:  in.Description,
		Phone:        in.Phone,
		Email:        in.Email,
		OpeningHours: in.OpeningHours,
		IsActive:     true,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUniqueName(tx, restaurant.Name, 0); err != nil {
			return err
		}
		return tx.Create(&restaurant).Error
	})
	if err != nil {
		return nil, asServiceError(err, "Failed to create restaurant")
	}

	utils.InfoLogger.WithField("restaurant_id", restaurant.ID).Infof("Restaurant created: %s", restaurant.Name)
	return &restaurant, nil
}

func (s *RestaurantService) UpdateRestaurant(ctx context.Context, id uint, in RestaurantInput) (*models.Restaurant, error) {
	if err := validateRestaurantInput(in); err != nil {
		return nil, err
	}

	var restaurant models.Restaurant
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&restaurant, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NotFound("Restaurant")
			}
			return err
		}

		name := strings.TrimSpace(in.Name)
		if err := ensureUniqueName(tx, name, restaurant.ID); err != nil {
			return err
		}

		return tx.Model(&restaurant).Updates(map[string]any{
			"name":          name,
			"location":      strings.TrimSpace(in.Location),
			"description":   in.Description,
			"phone":         in.Phone,
			"email":         in.Email,
			"opening_hours": in.OpeningHours,
		}).Error
	})
	if err != nil {
		return nil, asServiceError(err, "Failed to update restaurant")
	}

	return s.GetRestaurant(ctx, id)
}

// SetRestaurantActive toggles the soft-delete flag. Bookings are untouched.
func (s *RestaurantService) SetRestaurantActive(ctx context.Context, id uint, active bool) (*models.Restaurant, error) {
	db := s.db.WithContext(ctx)

	var restaurant models.Restaurant
	if err := db.First(&restaurant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("Restaurant")
		}
		return nil, Internal("Failed to load restaurant", err)
	}
	if err := db.Model(&restaurant).Update("is_active", active).Error; err != nil {
		return nil, Internal("Failed to update restaurant", err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{"restaurant_id": id, "active": active}).Info("Restaurant active flag changed")
	return s.GetRestaurant(ctx, id)
}

// AddTable adds quantity tables of the given size. An existing row for the
// same size gets its quantity raised and is reactivated.
func (s *RestaurantService) AddTable(ctx context.Context, restaurantID uint, size, quantity int) (*models.Table, error) {
	if err := validateTable(size, quantity); err != nil {
		return nil, err
	}

	var table models.Table
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var restaurant models.Restaurant
		if err := tx.First(&restaurant, restaurantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NotFound("Restaurant")
			}
			return err
		}

		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("restaurant_id = ? AND size = ?", restaurantID, size).
			First(&table).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			table = models.Table{RestaurantID: restaurantID, Size: size, Quantity: quantity, IsActive: true}
			return tx.Create(&table).Error
		case err != nil:
			return err
		}

		table.Quantity += quantity
		table.IsActive = true
		return tx.Model(&table).Updates(map[string]any{
			"quantity":  table.Quantity,
			"is_active": true,
		}).Error
	})
	if err != nil {
		return nil, asServiceError(err, "Failed to add table")
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"restaurant_id": restaurantID,
		"table_id":      table.ID,
	}).Infof("Table saved: %s", table)
	return &table, nil
}

// TableUpdate lists the table fields to change; nil fields are left alone.
type TableUpdate struct {
	Quantity *int
	IsActive *bool
}

// UpdateTable applies every field of u in one transaction. A new quantity
// may not drop below the confirmed bookings already held on any upcoming slot.
func (s *RestaurantService) UpdateTable(ctx context.Context, tableID uint, u TableUpdate) (*models.Table, error) {
	if u.Quantity == nil && u.IsActive == nil {
		return nil, Validation("Invalid request", map[string]any{"body": "quantity or is_active is required"})
	}
	if u.Quantity != nil && *u.Quantity < 1 {
		return nil, Validation("Invalid quantity", map[string]any{"quantity": "must be at least 1"})
	}
	today := models.SlotAt(s.Now()).Date

	var table models.Table
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&table, tableID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NotFound("Table")
			}
			return err
		}

		changes := map[string]any{}
		if u.Quantity != nil {
			var busiest struct{ Confirmed int64 }
			err := tx.Model(&models.Booking{}).
				Select("COUNT(*) AS confirmed").
				Where("table_id = ? AND status = ? AND visit_date >= ?", table.ID, models.BookingStatusConfirmed, today).
				Group("visit_date, visit_time").
				Order("confirmed DESC").
				Limit(1).
				Scan(&busiest).Error
			if err != nil {
				return err
			}
			if int64(*u.Quantity) < busiest.Confirmed {
				return Conflict("Quantity is below existing confirmed bookings").WithDetails(map[string]any{
					"confirmed": busiest.Confirmed,
				})
			}
			changes["quantity"] = *u.Quantity
			table.Quantity = *u.Quantity
		}
		if u.IsActive != nil {
			changes["is_active"] = *u.IsActive
			table.IsActive = *u.IsActive
		}
		return tx.Model(&table).Updates(changes).Error
	})
	if err != nil {
		return nil, asServiceError(err, "Failed to update table")
	}

	utils.InfoLogger.WithField("table_id", table.ID).Infof("Table updated: %s active=%t", table, table.IsActive)
	return &table, nil
}

func (s *RestaurantService) UpdateTableQuantity(ctx context.Context, tableID uint, quantity int) (*models.Table, error) {
	return s.UpdateTable(ctx, tableID, TableUpdate{Quantity: &quantity})
}

// SetTableActive toggles the soft-delete flag of a table.
func (s *RestaurantService) SetTableActive(ctx context.Context, tableID uint, active bool) (*models.Table, error) {
	return s.UpdateTable(ctx, tableID, TableUpdate{IsActive: &active})
}

func ensureUniqueName(tx *gorm.DB, name string, exceptID uint) error {
	var count int64
	if err := tx.Model(&models.Restaurant{}).Where("name = ? AND id <> ?", name, exceptID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return Conflict("Restaurant name already exists")
	}
	return nil
}

func validateRestaurantInput(in RestaurantInput) error {
	details := map[string]any{}
	if name := strings.TrimSpace(in.Name); name == "" {
		details["name"] = "is required"
	} else if len(name) > 100 {
		details["name"] = "must be at most 100 characters"
	}
	if strings.TrimSpace(in.Location) == "" {
		details["location"] = "is required"
	}
	if len(details) > 0 {
		return Validation("Invalid restaurant", details)
	}
	return nil
}

func validateTable(size, quantity int) error {
	details := map[string]any{}
	if size < models.MinTableSize || size > models.MaxTableSize {
		details["size"] = "must be between 1 and 20"
	}
	if quantity < 1 {
		details["quantity"] = "must be at least 1"
	}
	if len(details) > 0 {
		return Validation("Invalid table", details)
	}
	return nil
}

// asServiceError passes AppErrors through and wraps anything else as Internal.
func asServiceError(err error, message string) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	utils.ErrorLogger.Errorf("%s: %v", message, err)
	return Internal(message, err)
}
