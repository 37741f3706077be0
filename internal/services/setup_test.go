package services

import (
	"fmt"
	"testing"

	"github.com/chronograph-app/chronograph/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	// Each connection to :memory: would get its own database, so pin the
	// pool to one connection. This also serializes concurrent test writers.
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("unwrap test database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = gdb.AutoMigrate(
		&models.User{},
		&models.Calendar{},
		&models.CalendarMembership{},
		&models.Event{},
		&models.EventRecurrence{},
		&models.EventMembership{},
		&models.CalendarInvitation{},
		&models.EventInvitation{},
		&models.HolidayImport{},
	)
	if err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	return gdb
}

func createUser(t *testing.T, gdb *gorm.DB, name string) *models.User {
	t.Helper()

	user := models.User{
		Name:         name,
		Email:        fmt.Sprintf("%s@example.com", name),
		PasswordHash: "x",
	}
	if err := gdb.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}

	return &user
}

func createCalendar(t *testing.T, gdb *gorm.DB, owner *models.User, visibility models.Visibility) *models.Calendar {
	t.Helper()

	calendar, err := NewCalendarService(gdb).Create(CalendarInput{
		Name:       fmt.Sprintf("%s's calendar", owner.Name),
		Visibility: visibility,
	}, owner.ID)
	if err != nil {
		t.Fatalf("create calendar: %v", err)
	}

	return calendar
}

func createMainCalendar(t *testing.T, gdb *gorm.DB, owner *models.User) *models.Calendar {
	t.Helper()

	calendar, err := NewCalendarService(gdb).Create(CalendarInput{
		Name:   "Main calendar",
		IsMain: true,
	}, owner.ID)
	if err != nil {
		t.Fatalf("create main calendar: %v", err)
	}

	return calendar
}
