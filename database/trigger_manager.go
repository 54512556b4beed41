package database

import (
	"fmt"
	"strings"

	"github.com/yeremiapane/restaurant-booking/utils"
	"gorm.io/gorm"
)

const (
	CapacityGuardTrigger = "trg_bookings_capacity_guard"
	// CapacityGuardMessage is raised by the trigger when a confirmed insert
	// would exceed the quantity of the referenced table.
	CapacityGuardMessage = "table capacity exceeded"
)

const sqliteCapacityGuard = `
CREATE TRIGGER IF NOT EXISTS trg_bookings_capacity_guard
BEFORE INSERT ON bookings
WHEN NEW.status = 'confirmed' AND NEW.table_id IS NOT NULL AND (
	SELECT COUNT(*) FROM bookings
	WHERE table_id = NEW.table_id
	  AND visit_date = NEW.visit_date
	  AND visit_time = NEW.visit_time
	  AND status = 'confirmed'
) >= (SELECT quantity FROM restaurant_tables WHERE id = NEW.table_id)
BEGIN
	SELECT RAISE(ABORT, 'table capacity exceeded');
END`

const mysqlCapacityGuard = `
CREATE TRIGGER trg_bookings_capacity_guard
BEFORE INSERT ON bookings
FOR EACH ROW
BEGIN
	IF NEW.status = 'confirmed' AND NEW.table_id IS NOT NULL AND (
		SELECT COUNT(*) FROM bookings
		WHERE table_id = NEW.table_id
		  AND visit_date = NEW.visit_date
		  AND visit_time = NEW.visit_time
		  AND status = 'confirmed'
	) >= (SELECT quantity FROM restaurant_tables WHERE id = NEW.table_id) THEN
		SIGNAL SQLSTATE '45000' SET MESSAGE_TEXT = 'table capacity exceeded';
	END IF;
END`

const postgresCapacityGuardFunc = `
CREATE OR REPLACE FUNCTION bookings_capacity_guard() RETURNS trigger AS $$
BEGIN
	IF NEW.status = 'confirmed' AND NEW.table_id IS NOT NULL AND (
		SELECT COUNT(*) FROM bookings
		WHERE table_id = NEW.table_id
		  AND visit_date = NEW.visit_date
		  AND visit_time = NEW.visit_time
		  AND status = 'confirmed'
	) >= (SELECT quantity FROM restaurant_tables WHERE id = NEW.table_id) THEN
		RAISE EXCEPTION 'table capacity exceeded';
	END IF;
	RETURN NEW;
END;
$$ LANGUAGE plpgsql`

// InstallCapacityGuard creates the bookings insert trigger for the active
// dialect. It is safe to call on every start.
func InstallCapacityGuard(db *gorm.DB) error {
	var statements []string

	switch name := db.Dialector.Name(); name {
	case "sqlite":
		statements = []string{sqliteCapacityGuard}
	case "mysql":
		statements = []string{
			"DROP TRIGGER IF EXISTS " + CapacityGuardTrigger,
			mysqlCapacityGuard,
		}
	case "postgres":
		statements = []string{
			postgresCapacityGuardFunc,
			"DROP TRIGGER IF EXISTS " + CapacityGuardTrigger + " ON bookings",
			"CREATE TRIGGER " + CapacityGuardTrigger + " BEFORE INSERT ON bookings FOR EACH ROW EXECUTE FUNCTION bookings_capacity_guard()",
		}
	default:
		return fmt.Errorf("capacity guard: unsupported dialect %q", name)
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			utils.ErrorLogger.Printf("Error executing trigger: %v\nStatement: %s", err, strings.TrimSpace(stmt))
			return fmt.Errorf("capacity guard: %w", err)
		}
	}

	utils.InfoLogger.Printf("Trigger installed: %s (%s)", CapacityGuardTrigger, db.Dialector.Name())
	return nil
}

// IsCapacityGuardError reports whether err was raised by the capacity trigger.
func IsCapacityGuardError(err error) bool {
	return err != nil && strings.Contains(err.Error(), CapacityGuardMessage)
}
