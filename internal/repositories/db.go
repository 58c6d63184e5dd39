package repositories

import (
	"errors"
	"fmt"

	"rentstore/internal/apperrors"
	"rentstore/internal/config"
	"rentstore/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to the database selected by cfg.Driver.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.Driver == "sqlite" {
		// SQLite allows one writer; a single connection also keeps ":memory:" databases shared.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access sqlite pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// AutoMigrate creates or updates every table the application uses.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.Discount{},
		&models.User{},
		&models.Order{},
		&models.OrderItem{},
		&models.Rental{},
		&models.NotificationTask{},
		&models.CartSnapshot{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return nil
}

// translate maps GORM errors onto application error categories.
func translate(err error, what string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, apperrors.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", what, apperrors.ErrConflict)
	default:
		return fmt.Errorf("%s: %w: %w", what, apperrors.ErrPersistence, err)
	}
}

// updateAll writes every column of value, zero values included, to the row with id.
// Save is avoided on purpose: it falls back to an upsert when nothing matches.
func updateAll(db *gorm.DB, model any, id string, value any, what string, omit ...string) error {
	omit = append(omit, "ID", "CreatedAt")
	res := db.Model(model).Where("id = ?", id).Select("*").Omit(omit...).Updates(value)
	if res.Error != nil {
		return translate(res.Error, fmt.Sprintf("failed to update %s", what))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s with ID %s not found for update: %w", what, id, apperrors.ErrNotFound)
	}
	return nil
}

// deleteByID hard-deletes (or soft-deletes, for models with DeletedAt) the row with id.
func deleteByID(db *gorm.DB, model any, id, what string) error {
	res := db.Delete(model, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error, fmt.Sprintf("failed to delete %s", what))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s with ID %s not found for deletion: %w", what, id, apperrors.ErrNotFound)
	}
	return nil
}
