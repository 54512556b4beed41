package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-booking/models"
	"gorm.io/gorm"
)

var dinnerSlot = models.NewSlot(2030, time.January, 10, 18, 30)

func bookingRequest(restaurantID uint, guests int, slot models.Slot) BookingRequest {
	return BookingRequest{
		RestaurantID: restaurantID,
		PartySize:    guests,
		Slot:         slot,
		Guest:        GuestInfo{Name: "Alice", Email: "alice@example.com"},
	}
}

func TestAttemptBookingSmallestFit(t *testing.T) {
	db := setupTestDB(t)
	restaurant, small, large := seedTestDiner(t, db)
	svc := newTestBookingService(db)
	ctx := context.Background()

	first, err := svc.AttemptBooking(ctx, bookingRequest(restaurant.ID, 2, dinnerSlot))
	require.NoError(t, err)
	require.NotNil(t, first.TableID)
	assert.Equal(t, small.ID, *first.TableID)
	assert.Equal(t, models.BookingStatusConfirmed, first.Status)
	assert.NotEqual(t, uuid.Nil, first.ID)
	assert.Equal(t, uuid.Version(4), first.ID.Version())

	second, err := svc.AttemptBooking(ctx, bookingRequest(restaurant.ID, 2, dinnerSlot))
	require.NoError(t, err)
	assert.Equal(t, large.ID, *second.TableID)

	third, err := svc.AttemptBooking(ctx, bookingRequest(restaurant.ID, 2, dinnerSlot))
	assert.Nil(t, third)
	assert.True(t, errors.Is(err, ErrNoAvailability))
	assert.Equal(t, MsgNoAvailability, AsAppError(err).Message)

	assert.Equal(t, int64(2), countBookings(t, db))
}

func TestAttemptBookingLargerPartySkipsSmallTable(t *testing.T) {
	db := setupTestDB(t)
	restaurant, _, large := seedTestDiner(t, db)
	svc := newTestBookingService(db)

	booking, err := svc.AttemptBooking(context.Background(), bookingRequest(restaurant.ID, 3, dinnerSlot))
	require.NoError(t, err)
	assert.Equal(t, large.ID, *booking.TableID)
	assert.Equal(t, 3, booking.NumberOfGuests)
	require.NotNil(t, booking.Table)
	assert.GreaterOrEqual(t, booking.Table.Size, booking.NumberOfGuests)
}

func TestAttemptBookingPastVisitIsValidationError(t *testing.T) {
	db := setupTestDB(t)
	restaurant, _, _ := seedTestDiner(t, db)
	svc := newTestBookingService(db)

	past := models.NewSlot(2030, time.January, 10, 11, 59)
	_, err := svc.AttemptBooking(context.Background(), bookingRequest(restaurant.ID, 2, past))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPastVisit))
	assert.False(t, errors.Is(err, ErrNoAvailability))
	assert.Equal(t, CodeValidation, AsAppError(err).Code)
	assert.Equal(t, int64(0), countBookings(t, db))
}

func TestAttemptBookingAtCurrentMinuteIsAccepted(t *testing.T) {
	db := setupTestDB(t)
	restaurant, _, _ := seedTestDiner(t, db)
	svc := newTestBookingService(db)

	_, err := svc.AttemptBooking(context.Background(), bookingRequest(restaurant.ID, 2, models.SlotAt(testNow)))
	assert.NoError(t, err)
}

func TestAttemptBookingUsesConfiguredLocation(t *testing.T) {
	db := setupTestDB(t)
	restaurant, _, _ := seedTestDiner(t, db)

	// 12:00 UTC is 13:00 in a UTC+1 zone, so a 12:30 visit there is already past.
	loc := time.FixedZone("UTC+1", 3600)
	svc := NewBookingService(db, WithClock(FixedClock(testNow)), WithLocation(loc))

	_, err := svc.AttemptBooking(context.Background(), bookingRequest(restaurant.ID, 2, models.NewSlot(2030, time.January, 10, 12, 30)))
	assert.True(t, errors.Is(err, ErrPastVisit))
}

func TestAttemptBookingValidation(t *testing.T) {
	db := setupTestDB(t)
	restaurant, _, _ := seedTestDiner(t, db)
	svc := newTestBookingService(db)
	ctx := context.Background()

	tests := []struct {
		name string
		req  BookingRequest
		code string
	}{
		{"zero guests", bookingRequest(restaurant.ID, 0, dinnerSlot), CodeValidation},
		{"too many guests", bookingRequest(restaurant.ID, 21, dinnerSlot), CodeValidation},
		{"unknown restaurant", bookingRequest(restaurant.ID+100, 2, dinnerSlot), CodeNotFound},
		{"blank guest name", BookingRequest{
			RestaurantID: restaurant.ID,
			PartySize:    2,
			Slot:         dinnerSlot,
			Guest:        GuestInfo{Name: "  ", Email: "alice@example.com"},
		}, CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AttemptBooking(ctx, tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.code, AsAppError(err).Code)
		})
	}
	assert.Equal(t, int64(0), countBookings(t, db))
}

func TestAttemptBookingSkipsInactive(t *testing.T) {
	db := setupTestDB(t)
	restaurant, small, large := seedTestDiner(t, db)
	svc := newTestBookingService(db)
	ctx := context.Background()

	require.NoError(t, db.Model(&small).Update("is_active", false).Error)
	booking, err := svc.AttemptBooking(ctx, bookingRequest(restaurant.ID, 2, dinnerSlot))
	require.NoError(t, err)
	assert.Equal(t, large.ID, *booking.TableID)

	require.NoError(t, db.Model(&restaurant).Update("is_active", false).Error)
	_, err = svc.AttemptBooking(ctx, bookingRequest(restaurant.ID, 2, models.NewSlot(2030, time.January, 11, 19, 0)))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAttemptBookingNoCandidateTables(t *testing.T) {
	db := setupTestDB(t)
	restaurant, _, _ := seedTestDiner(t, db)
	svc := newTestBookingService(db)

	_, err := svc.AttemptBooking(context.Background(), bookingRequest(restaurant.ID, 8, dinnerSlot))
	assert.True(t, errors.Is(err, ErrNoAvailability))
	assert.Equal(t, int64(0), countBookings(t, db))
}

// With the in-memory database the pool holds one connection, so the
// attempts run one after another; see the file-backed variant below for
// attempts that overlap inside SQLite.
func TestAttemptBookingConcurrentLastUnit(t *testing.T) {
	assertLastUnitRace(t, setupTestDB(t))
}

func TestAttemptBookingConcurrentLastUnitSharedFile(t *testing.T) {
	assertLastUnitRace(t, setupFileTestDB(t, 8))
}

func assertLastUnitRace(t *testing.T, db *gorm.DB) {
	t.Helper()

	restaurant := models.Restaurant{Name: "Busy Bistro", Location: "Old Town", IsActive: true}
	require.NoError(t, db.Create(&restaurant).Error)
	table := models.Table{RestaurantID: restaurant.ID, Size: 2, Quantity: 3, IsActive: true}
	require.NoError(t, db.Create(&table).Error)

	svc := newTestBookingService(db)

	const attempts = 12
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.AttemptBooking(context.Background(), bookingRequest(restaurant.ID, 2, dinnerSlot))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrNoAvailability):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 3, succeeded)
	assert.Equal(t, attempts-3, rejected)
	assert.Equal(t, int64(3), countBookings(t, db))
}

func TestCancelBooking(t *testing.T) {
	db := setupTestDB(t)
	restaurant, small, _ := seedTestDiner(t, db)
	svc := newTestBookingService(db)
	ctx := context.Background()

	booking, err := svc.AttemptBooking(ctx, bookingRequest(restaurant.ID, 2, dinnerSlot))
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, booking.ID, ActorGuest)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)

	// cancelled twice
	_, err = svc.Cancel(ctx, booking.ID, ActorGuest)
	assert.True(t, errors.Is(err, ErrCannotCancel))
	assert.Equal(t, MsgCannotCancel, AsAppError(err).Message)

	// the freed unit can be booked again
	again, err := svc.AttemptBooking(ctx, bookingRequest(restaurant.ID, 2, dinnerSlot))
	require.NoError(t, err)
	assert.Equal(t, small.ID, *again.TableID)
}

func TestCancelBookingRules(t *testing.T) {
	db := setupTestDB(t)
	restaurant, small, _ := seedTestDiner(t, db)
	svc := newTestBookingService(db)
	ctx := context.Background()

	_, err := svc.Cancel(ctx, uuid.New(), ActorGuest)
	assert.True(t, errors.Is(err, ErrNotFound))

	// a visit that already started cannot be cancelled, even by staff
	tableID := small.ID
	past := models.Booking{
		GuestName:      "Bob",
		GuestEmail:     "bob@example.com",
		VisitDate:      models.NewSlot(2030, time.January, 9, 19, 0).Date,
		VisitTime:      models.NewSlot(2030, time.January, 9, 19, 0).Time,
		NumberOfGuests: 2,
		RestaurantID:   restaurant.ID,
		TableID:        &tableID,
		Status:         models.BookingStatusConfirmed,
	}
	require.NoError(t, db.Create(&past).Error)
	_, err = svc.Cancel(ctx, past.ID, ActorStaff)
	assert.True(t, errors.Is(err, ErrCannotCancel))

	booking, err := svc.AttemptBooking(ctx, bookingRequest(restaurant.ID, 2, dinnerSlot))
	require.NoError(t, err)
	_, err = svc.MarkNoShow(ctx, booking.ID)
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, booking.ID, ActorStaff)
	assert.True(t, errors.Is(err, ErrCannotCancel))

	var stored models.Booking
	require.NoError(t, db.First(&stored, "id = ?", past.ID).Error)
	assert.Equal(t, models.BookingStatusConfirmed, stored.Status)
}

func TestCancellationPreviewDoesNotMutate(t *testing.T) {
	db := setupTestDB(t)
	restaurant, _, _ := seedTestDiner(t, db)
	svc := newTestBookingService(db)
	ctx := context.Background()

	booking, err := svc.AttemptBooking(ctx, bookingRequest(restaurant.ID, 2, dinnerSlot))
	require.NoError(t, err)

	preview, ok, err := svc.CancellationPreview(ctx, booking.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, models.BookingStatusConfirmed, preview.Status)
	require.NotNil(t, preview.Restaurant)
	assert.Equal(t, "Test Diner", preview.Restaurant.Name)
}

func TestStatusTransitions(t *testing.T) {
	db := setupTestDB(t)
	restaurant, _, _ := seedTestDiner(t, db)
	svc := newTestBookingService(db)
	ctx := context.Background()

	booking, err := svc.AttemptBooking(ctx, bookingRequest(restaurant.ID, 2, dinnerSlot))
	require.NoError(t, err)

	completed, err := svc.MarkCompleted(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCompleted, completed.Status)

	_, err = svc.MarkNoShow(ctx, booking.ID)
	assert.True(t, errors.Is(err, ErrConflict))

	_, err = svc.MarkCompleted(ctx, uuid.New())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestQueryAvailability(t *testing.T) {
	db := setupTestDB(t)
	restaurant, small, large := seedTestDiner(t, db)
	require.NoError(t, db.Model(&large).Update("quantity", 2).Error)
	svc := newTestBookingService(db)
	ctx := context.Background()

	tables, err := svc.QueryAvailability(ctx, restaurant.ID, dinnerSlot, 2)
	require.NoError(t, err)
	assert.Equal(t, []TableAvailability{
		{TableID: small.ID, Size: 2, Available: 1},
		{TableID: large.ID, Size: 4, Available: 2},
	}, tables)

	_, err = svc.AttemptBooking(ctx, bookingRequest(restaurant.ID, 2, dinnerSlot))
	require.NoError(t, err)
	_, err = svc.AttemptBooking(ctx, bookingRequest(restaurant.ID, 3, dinnerSlot))
	require.NoError(t, err)

	tables, err = svc.QueryAvailability(ctx, restaurant.ID, dinnerSlot, 2)
	require.NoError(t, err)
	assert.Equal(t, []TableAvailability{{TableID: large.ID, Size: 4, Available: 1}}, tables)

	// other slots are untouched
	tables, err = svc.QueryAvailability(ctx, restaurant.ID, models.NewSlot(2030, time.January, 10, 19, 0), 2)
	require.NoError(t, err)
	assert.Len(t, tables, 2)

	_, err = svc.QueryAvailability(ctx, restaurant.ID, dinnerSlot, 0)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestListRestaurantBookings(t *testing.T) {
	db := setupTestDB(t)
	restaurant, _, _ := seedTestDiner(t, db)
	svc := newTestBookingService(db)
	ctx := context.Background()

	_, err := svc.AttemptBooking(ctx, bookingRequest(restaurant.ID, 2, dinnerSlot))
	require.NoError(t, err)
	next := models.NewSlot(2030, time.January, 12, 20, 0)
	second, err := svc.AttemptBooking(ctx, bookingRequest(restaurant.ID, 2, next))
	require.NoError(t, err)

	page, err := svc.ListRestaurantBookings(ctx, restaurant.ID, BookingFilter{}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	page, err = svc.ListRestaurantBookings(ctx, restaurant.ID, BookingFilter{Date: &next.Date}, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, second.ID, page.Items[0].ID)

	_, err = svc.ListRestaurantBookings(ctx, restaurant.ID+10, BookingFilter{}, 1, 10)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestBookingString(t *testing.T) {
	booking := models.Booking{
		GuestName:      "Bob",
		VisitDate:      dinnerSlot.Date,
		VisitTime:      dinnerSlot.Time,
		NumberOfGuests: 2,
		Restaurant:     &models.Restaurant{Name: "Test Diner"},
	}
	assert.Contains(t, booking.String(), "Bob")
	assert.Contains(t, booking.String(), "Test Diner")
	assert.Contains(t, models.Table{Size: 2, Quantity: 1}.String(), "Table for 2")
}
