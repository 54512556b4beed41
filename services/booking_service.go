package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-booking/database"
	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Actor identifies who asked for a state change.
type Actor string

const (
	ActorGuest Actor = "guest"
	ActorStaff Actor = "staff"
)

// errTableFull means the candidate had no room; the allocation loop moves on.
var errTableFull = errors.New("table full")

type GuestInfo struct {
	Name            string
	Email           string
	Phone           string
	SpecialRequests string
}

type BookingRequest struct {
	RestaurantID uint
	PartySize    int
	Slot         models.Slot
	Guest        GuestInfo
}

// TableAvailability is a snapshot of free units for one table size.
type TableAvailability struct {
	TableID   uint `json:"id"`
	Size      int  `json:"size"`
	Available int  `json:"available"`
}

type BookingFilter struct {
	Date   *datatypes.Date
	Status models.BookingStatus
}

type BookingService struct {
	settings
	db *gorm.DB
}

func NewBookingService(db *gorm.DB, opts ...Option) *BookingService {
	return &BookingService{
		settings: newSettings(opts),
		db:       db,
	}
}

// AttemptBooking assigns the smallest active table that fits the party and
// still has a free unit at the slot. Candidates are tried in ascending size
// order, each inside its own transaction holding a row lock on the table.
func (s *BookingService) AttemptBooking(ctx context.Context, req BookingRequest) (*models.Booking, error) {
	now := s.Now()

	restaurant, err := s.activeRestaurant(ctx, req.RestaurantID)
	if err != nil {
		return nil, err
	}
	if err := validatePartySize(req.PartySize); err != nil {
		return nil, err
	}
	if err := validateGuest(req.Guest); err != nil {
		return nil, err
	}
	if req.Slot.At(s.loc).Before(now) {
		return nil, PastVisit()
	}

	candidates, err := s.candidateTables(ctx, s.db.WithContext(ctx), restaurant.ID, req.PartySize)
	if err != nil {
		return nil, Internal("Failed to load tables", err)
	}

	fields := logrus.Fields{
		"restaurant_id": restaurant.ID,
		"party_size":    req.PartySize,
		"slot":          req.Slot.String(),
	}

	for _, table := range candidates {
		booking, err := s.reserve(ctx, table.ID, req)
		if errors.Is(err, errTableFull) {
			continue
		}
		if err != nil {
			utils.ErrorLogger.WithFields(fields).WithField("table_id", table.ID).Errorf("Error reserving table: %v", err)
			return nil, Internal("Failed to create booking", err)
		}

		booking.Restaurant = restaurant
		utils.InfoLogger.WithFields(fields).WithFields(logrus.Fields{
			"table_id":   table.ID,
			"table_size": table.Size,
			"booking_id": booking.ID.String(),
		}).Info("Booking confirmed")
		return booking, nil
	}

	utils.InfoLogger.WithFields(fields).Info("No table available")
	return nil, NoAvailability()
}

// reserve runs the locked count and insert for one table. It returns
// errTableFull when the table has no free unit, leaving nothing written.
func (s *BookingService) reserve(ctx context.Context, tableID uint, req BookingRequest) (*models.Booking, error) {
	var created *models.Booking

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var table models.Table
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND is_active = ?", tableID, true).
			First(&table).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// deactivated since the candidate list was read
			return errTableFull
		}
		if err != nil {
			return err
		}

		taken, err := countConfirmed(tx, table.ID, req.Slot)
		if err != nil {
			return err
		}
		if taken >= int64(table.Quantity) {
			return errTableFull
		}

		booking := newBooking(req, table)
		if err := tx.Create(booking).Error; err != nil {
			if database.IsCapacityGuardError(err) {
				return errTableFull
			}
			return err
		}

		taken, err = countConfirmed(tx, table.ID, req.Slot)
		if err != nil {
			return err
		}
		if taken > int64(table.Quantity) {
			return errTableFull
		}

		booking.Table = &table
		created = booking
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func newBooking(req BookingRequest, table models.Table) *models.Booking {
	tableID := table.ID
	booking := &models.Booking{
		ID:             uuid.New(),
		GuestName:      strings.TrimSpace(req.Guest.Name),
		GuestEmail:     strings.TrimSpace(req.Guest.Email),
		VisitDate:      req.Slot.Date,
		VisitTime:      req.Slot.Time,
		NumberOfGuests: req.PartySize,
		RestaurantID:   req.RestaurantID,
		TableID:        &tableID,
		Status:         models.BookingStatusConfirmed,
	}
	if phone := strings.TrimSpace(req.Guest.Phone); phone != "" {
		booking.GuestPhone = &phone
	}
	if notes := strings.TrimSpace(req.Guest.SpecialRequests); notes != "" {
		booking.SpecialRequests = &notes
	}
	return booking
}

func countConfirmed(tx *gorm.DB, tableID uint, slot models.Slot) (int64, error) {
	var count int64
	err := tx.Model(&models.Booking{}).
		Where("table_id = ? AND visit_date = ? AND visit_time = ? AND status = ?",
			tableID, slot.Date, slot.Time, models.BookingStatusConfirmed).
		Count(&count).Error
	return count, err
}

// Cancel moves a confirmed future booking to cancelled. Checks run in
// order: existence, visit not past, status confirmed.
func (s *BookingService) Cancel(ctx context.Context, id uuid.UUID, actor Actor) (*models.Booking, error) {
	now := s.Now()
	var booking models.Booking

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&booking).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NotFound("Booking")
		}
		if err != nil {
			return err
		}

		if booking.IsPast(now) || booking.Status != models.BookingStatusConfirmed {
			return CannotCancel()
		}

		booking.Status = models.BookingStatusCancelled
		booking.UpdatedAt = now.UTC()
		return tx.Model(&booking).Updates(map[string]any{
			"status":     booking.Status,
			"updated_at": booking.UpdatedAt,
		}).Error
	})
	if err != nil {
		var appErr *AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		utils.ErrorLogger.Errorf("Error cancelling booking %s: %v", id, err)
		return nil, Internal("Failed to cancel booking", err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"booking_id": booking.ID.String(),
		"actor":      string(actor),
	}).Info("Booking cancelled")
	return &booking, nil
}

// CancellationPreview loads a booking for the confirmation step and reports
// whether cancelling it would currently succeed. Nothing is written.
func (s *BookingService) CancellationPreview(ctx context.Context, id uuid.UUID) (*models.Booking, bool, error) {
	booking, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return booking, booking.CanBeCancelled(s.Now()), nil
}

func (s *BookingService) MarkCompleted(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return s.transition(ctx, id, models.BookingStatusCompleted)
}

func (s *BookingService) MarkNoShow(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return s.transition(ctx, id, models.BookingStatusNoShow)
}

// transition applies an operational status change, allowed only from confirmed.
func (s *BookingService) transition(ctx context.Context, id uuid.UUID, to models.BookingStatus) (*models.Booking, error) {
	now := s.Now()
	var booking models.Booking

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&booking).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NotFound("Booking")
		}
		if err != nil {
			return err
		}
		if booking.Status != models.BookingStatusConfirmed {
			return Conflict("Only confirmed bookings can be marked " + string(to))
		}

		booking.Status = to
		booking.UpdatedAt = now.UTC()
		return tx.Model(&booking).Updates(map[string]any{
			"status":     booking.Status,
			"updated_at": booking.UpdatedAt,
		}).Error
	})
	if err != nil {
		var appErr *AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, Internal("Failed to update booking", err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"booking_id": booking.ID.String(),
		"status":     string(to),
	}).Info("Booking status changed")
	return &booking, nil
}

// QueryAvailability reports free units per candidate table without locking.
// The result is a snapshot and may be stale by the time a booking is made.
func (s *BookingService) QueryAvailability(ctx context.Context, restaurantID uint, slot models.Slot, partySize int) ([]TableAvailability, error) {
	restaurant, err := s.activeRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if err := validatePartySize(partySize); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	candidates, err := s.candidateTables(ctx, db, restaurant.ID, partySize)
	if err != nil {
		return nil, Internal("Failed to load tables", err)
	}

	result := make([]TableAvailability, 0, len(candidates))
	if len(candidates) == 0 {
		return result, nil
	}

	ids := make([]uint, 0, len(candidates))
	for _, t := range candidates {
		ids = append(ids, t.ID)
	}

	var rows []struct {
		TableID   uint
		Confirmed int64
	}
	err = db.Model(&models.Booking{}).
		Select("table_id, COUNT(*) AS confirmed").
		Where("table_id IN ? AND visit_date = ? AND visit_time = ? AND status = ?",
			ids, slot.Date, slot.Time, models.BookingStatusConfirmed).
		Group("table_id").
		Scan(&rows).Error
	if err != nil {
		return nil, Internal("Failed to count bookings", err)
	}

	taken := make(map[uint]int64, len(rows))
	for _, r := range rows {
		taken[r.TableID] = r.Confirmed
	}

	for _, t := range candidates {
		free := t.Quantity - int(taken[t.ID])
		if free > 0 {
			result = append(result, TableAvailability{TableID: t.ID, Size: t.Size, Available: free})
		}
	}
	return result, nil
}

// GetBooking returns a booking regardless of the restaurant's active flag.
func (s *BookingService) GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.WithContext(ctx).
		Preload("Restaurant").
		Preload("Table").
		Where("id = ?", id).
		First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFound("Booking")
	}
	if err != nil {
		return nil, Internal("Failed to load booking", err)
	}
	return &booking, nil
}

// ListRestaurantBookings lists bookings newest first for staff.
func (s *BookingService) ListRestaurantBookings(ctx context.Context, restaurantID uint, filter BookingFilter, page, pageSize int) (Page[models.Booking], error) {
	db := s.db.WithContext(ctx)

	var exists int64
	if err := db.Model(&models.Restaurant{}).Where("id = ?", restaurantID).Count(&exists).Error; err != nil {
		return Page[models.Booking]{}, Internal("Failed to load restaurant", err)
	}
	if exists == 0 {
		return Page[models.Booking]{}, NotFound("Restaurant")
	}

	scope := func(tx *gorm.DB) *gorm.DB {
		tx = tx.Where("restaurant_id = ?", restaurantID)
		if filter.Date != nil {
			tx = tx.Where("visit_date = ?", *filter.Date)
		}
		if filter.Status != "" {
			tx = tx.Where("status = ?", filter.Status)
		}
		return tx
	}

	var total int64
	if err := db.Model(&models.Booking{}).Scopes(scope).Count(&total).Error; err != nil {
		return Page[models.Booking]{}, Internal("Failed to count bookings", err)
	}

	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	page, _ = ClampPage(page, pageSize, int(total))

	var bookings []models.Booking
	err := db.Scopes(scope).
		Preload("Table").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&bookings).Error
	if err != nil {
		return Page[models.Booking]{}, Internal("Failed to list bookings", err)
	}

	return NewPage(bookings, page, pageSize, int(total)), nil
}

func (s *BookingService) activeRestaurant(ctx context.Context, id uint) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := s.db.WithContext(ctx).
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

// candidateTables materialises the active tables that fit the party,
// smallest first.
func (s *BookingService) candidateTables(ctx context.Context, db *gorm.DB, restaurantID uint, partySize int) ([]models.Table, error) {
	var tables []models.Table
	err := db.WithContext(ctx).
		Where("restaurant_id = ? AND is_active = ? AND size >= ?", restaurantID, true, partySize).
		Order("size ASC").
		Order("id ASC").
		Find(&tables).Error
	return tables, err
}

func validatePartySize(n int) error {
	if n < models.MinGuests || n > models.MaxGuests {
		return Validation("Invalid number of guests", map[string]any{
			"number_of_guests": "must be between 1 and 20",
		})
	}
	return nil
}

func validateGuest(g GuestInfo) error {
	details := map[string]any{}
	if strings.TrimSpace(g.Name) == "" {
		details["guest_name"] = "is required"
	}
	if strings.TrimSpace(g.Email) == "" {
		details["guest_email"] = "is required"
	}
	if len(details) > 0 {
		return Validation("Invalid guest details", details)
	}
	return nil
}
