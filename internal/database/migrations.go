package database

import (
	"account-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// RunMigrations performs all database migrations
func RunMigrations() error {
	db := GetDB()

	if err := db.AutoMigrate(&models.User{}); err != nil {
		return err
	}
	if err := db.AutoMigrate(&models.RefreshToken{}); err != nil {
		return err
	}
	if err := db.AutoMigrate(&models.BlacklistedToken{}); err != nil {
		return err
	}
	if err := db.AutoMigrate(&models.VerificationCode{}); err != nil {
		return err
	}

	log.Info().Msg("Database migrations completed successfully")
	return nil
}
