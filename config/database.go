package config

import (
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Phabs974/ListePCMontage/models"
)

var DB *gorm.DB

// ConnectDatabase establishes a connection to the PostgreSQL database
func ConnectDatabase(databaseURL string) error {
	var err error
	DB, err = gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Database connection established successfully")
	return nil
}

// Migrate runs the schema migrations for all models
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{}, &models.Order{})
}

// EnsureDefaultAdmin creates the configured admin account when the user
// table is empty, so a fresh deployment is reachable without manual setup
func EnsureDefaultAdmin(db *gorm.DB, cfg *Config) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	role := models.Role(cfg.AdminRole)
	if !role.Valid() {
		role = models.RoleAdmin
	}

	user := models.User{
		Username: cfg.AdminUsername,
		Role:     role,
	}
	if err := user.SetPassword(cfg.AdminPassword); err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	if err := db.Create(&user).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	log.Printf("Created default %s user %q", role, cfg.AdminUsername)
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// SetDB sets the database instance (primarily for testing)
func SetDB(db *gorm.DB) {
	DB = db
}
