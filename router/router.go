package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-booking/config"
	"github.com/yeremiapane/restaurant-booking/controllers"
	"github.com/yeremiapane/restaurant-booking/middlewares"
	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/services"
	"github.com/yeremiapane/restaurant-booking/utils"
	"gorm.io/gorm"
)

// SetupRouter wires every HTTP route. opts are passed to the services,
// mainly so tests can pin the clock.
func SetupRouter(db *gorm.DB, cfg *config.Config, opts ...services.Option) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	loc, err := cfg.Location()
	if err != nil {
		utils.ErrorLogger.Warnf("Falling back to UTC: %v", err)
	} else {
		opts = append([]services.Option{services.WithLocation(loc)}, opts...)
	}

	// Apply security middlewares
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(cfg.CORSOrigin))
	r.Use(middlewares.LoggerMiddleware())

	// Inisialisasi controller
	userCtrl := controllers.NewUserController(db, cfg.JWTTTL)
	bookingCtrl := controllers.NewBookingController(db, opts...)
	restaurantCtrl := controllers.NewRestaurantController(db, cfg.RestaurantPageSize, opts...)
	adminCtrl := controllers.NewAdminController(db, opts...)
	tableCtrl := controllers.NewTableController(db, opts...)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Rate limiter untuk login
	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/login", userCtrl.Login)
	}

	// -- GUEST (Tanpa Auth) --
	submitLimiter := middlewares.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	r.GET("/booking", bookingCtrl.Landing)
	r.POST("/booking", submitLimiter.RateLimit(), bookingCtrl.CreateBooking)
	r.GET("/booking/:booking_id", bookingCtrl.GetBooking)
	r.GET("/booking/:booking_id/cancel", bookingCtrl.CancelPrompt)
	r.POST("/booking/:booking_id/cancel", bookingCtrl.CancelBooking)

	r.GET("/restaurants", restaurantCtrl.ListRestaurants)
	r.GET("/restaurants/:restaurant_id", restaurantCtrl.GetRestaurant)

	r.GET("/api/check-availability", bookingCtrl.CheckAvailability)

	// ----------------------------------------------------------------
	//                      STAFF ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/admin")
	auth.Use(middlewares.AuthMiddleware(), middlewares.RequireRole(models.RoleStaff))

	auth.GET("/profile", userCtrl.GetProfile)

	// RESTAURANTS
	auth.POST("/restaurants", adminCtrl.CreateRestaurant)
	auth.GET("/restaurants/:restaurant_id", adminCtrl.GetRestaurant)
	auth.PUT("/restaurants/:restaurant_id", adminCtrl.UpdateRestaurant)
	auth.PATCH("/restaurants/:restaurant_id/status", adminCtrl.SetRestaurantActive)
	auth.DELETE("/restaurants/:restaurant_id", adminCtrl.DeactivateRestaurant)

	// TABLES
	auth.POST("/restaurants/:restaurant_id/tables", tableCtrl.CreateTable)
	auth.PATCH("/tables/:table_id", tableCtrl.UpdateTable)
	auth.DELETE("/tables/:table_id", tableCtrl.DeleteTable)

	// BOOKINGS
	auth.GET("/restaurants/:restaurant_id/bookings", adminCtrl.ListBookings)
	auth.POST("/bookings/:booking_id/cancel", adminCtrl.CancelBooking)
	auth.POST("/bookings/:booking_id/complete", adminCtrl.CompleteBooking)
	auth.POST("/bookings/:booking_id/no-show", adminCtrl.NoShowBooking)

	// IMPORT
	auth.POST("/import", adminCtrl.ImportRestaurants)

	return r
}
