package db

import (
	"github.com/chronograph-app/chronograph/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDatabase(dsn string) (*gorm.DB, error) {
	var err error

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
	})

	if err != nil {
		return nil, err
	}

	return DB, nil
}

func MigrateDatabase(gdb *gorm.DB) error {
	models := []interface{}{
		&models.User{},
		&models.Calendar{},
		&models.CalendarMembership{},
		&models.Event{},
		&models.EventRecurrence{},
		&models.EventMembership{},
		&models.CalendarInvitation{},
		&models.EventInvitation{},
		&models.HolidayImport{},
	}

	migrator := gdb.Migrator()

	for _, model := range models {
		if !migrator.HasTable(model) {
			if err := gdb.AutoMigrate(model); err != nil {
				return err
			}
		}
	}

	return nil
}
