package database

import (
	"fmt"

	"github.com/Baaaki/apartment-booking/internal/models"
	"github.com/Baaaki/apartment-booking/pkg/logger"
	"gorm.io/gorm"
)

// One direct rating per (user, apartment); reservation-scoped ratings are unique by reservation_id.
const directRatingIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_ratings_direct
	ON ratings (user_id, apartment_id) WHERE reservation_id IS NULL`

const btreeGistExtension = `CREATE EXTENSION IF NOT EXISTS btree_gist`

// Active reservations on the same apartment may not overlap. Ranges are half-open
// so a stay ending at 11:00 and one starting at 11:00 are both accepted.
const reservationOverlapConstraint = `
DO $$
BEGIN
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'reservations_no_overlap') THEN
		ALTER TABLE reservations ADD CONSTRAINT reservations_no_overlap
			EXCLUDE USING gist (
				apartment_id WITH =,
				tstzrange(start_time, end_time, '[)') WITH &&
			) WHERE (status IN ('pending', 'confirmed') AND NOT is_deleted);
	END IF;
END
$$;`

// OverlapConstraintName is reported by PostgreSQL when the constraint rejects a row.
const OverlapConstraintName = "reservations_no_overlap"

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if err := db.Exec(directRatingIndex).Error; err != nil {
		return fmt.Errorf("create direct rating index: %w", err)
	}

	if db.Dialector.Name() == "postgres" {
		if err := db.Exec(btreeGistExtension).Error; err != nil {
			return fmt.Errorf("enable btree_gist: %w", err)
		}
		if err := db.Exec(reservationOverlapConstraint).Error; err != nil {
			return fmt.Errorf("create reservation overlap constraint: %w", err)
		}
	}

	logger.Log.Info("Database migration completed")
	return nil
}
