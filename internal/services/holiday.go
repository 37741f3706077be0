package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chronograph-app/chronograph/internal/apperr"
	"github.com/chronograph-app/chronograph/internal/holidays"
	"github.com/chronograph-app/chronograph/internal/models"
	"gorm.io/gorm"
)

const holidayEventColor = "#4635b1"

type HolidayService struct {
	db     *gorm.DB
	source holidays.Source
}

func NewHolidayService(gdb *gorm.DB, source holidays.Source) *HolidayService {
	return &HolidayService{db: gdb, source: source}
}

// ImportHolidays upserts the user's "<CC> Holidays" calendar and replaces
// that year's OCCASION events with the fetched set. The replace is one
// transaction: a failed import never leaves a partially cleared year.
func (s *HolidayService) ImportHolidays(countryCode string, year int, userID uint) (*models.Calendar, error) {
	countryCode = strings.ToUpper(strings.TrimSpace(countryCode))
	if len(countryCode) != 2 {
		return nil, apperr.Validation("country code must be two letters")
	}
	if year < 1900 || year > 2200 {
		return nil, apperr.Validation("year out of range")
	}

	list, err := s.source.GetPublicHolidays(year, countryCode)
	if err != nil {
		return nil, apperr.Internal("failed to fetch public holidays", err)
	}

	calendar, err := s.upsertHolidayCalendar(countryCode, userID)
	if err != nil {
		return nil, err
	}

	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := yearStart.AddDate(1, 0, 0)

	events := make([]models.Event, 0, len(list))
	for _, holiday := range list {
		date, err := time.Parse("2006-01-02", holiday.Date)
		if err != nil {
			return nil, apperr.Internal(fmt.Sprintf("holiday %q has malformed date %q", holiday.Name, holiday.Date), err)
		}
		events = append(events, models.Event{
			Name:       holiday.Name,
			StartAt:    date,
			Category:   models.CategoryOccasion,
			CalendarID: calendar.ID,
			CreatorID:  userID,
			Color:      holidayEventColor,
		})
	}

	payload, err := json.Marshal(list)
	if err != nil {
		return nil, apperr.Internal("failed to encode holiday payload", err)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("calendar_id = ? AND category = ? AND start_at >= ? AND start_at < ?",
			calendar.ID, models.CategoryOccasion, yearStart, yearEnd).
			Delete(&models.Event{}).Error; err != nil {
			return err
		}

		if len(events) > 0 {
			if err := tx.Create(&events).Error; err != nil {
				return err
			}
		}

		return tx.Create(&models.HolidayImport{
			CalendarID:  calendar.ID,
			CountryCode: countryCode,
			Year:        year,
			Payload:     payload,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return calendar, nil
}

func (s *HolidayService) upsertHolidayCalendar(countryCode string, userID uint) (*models.Calendar, error) {
	name := countryCode + " Holidays"

	var calendar models.Calendar
	err := s.db.Where("owner_id = ? AND name = ?", userID, name).First(&calendar).Error
	if err == nil {
		return &calendar, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	calendars := NewCalendarService(s.db)
	return calendars.Create(CalendarInput{
		Name:       name,
		Visibility: models.VisibilityPrivate,
	}, userID)
}

// Imports lists the audit trail for a holiday calendar, newest first.
func (s *HolidayService) Imports(calendarID, userID uint) ([]models.HolidayImport, error) {
	var calendar models.Calendar
	if err := s.db.First(&calendar, calendarID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("calendar not found")
		}
		return nil, err
	}

	if calendar.OwnerID != userID {
		return nil, apperr.Forbidden("only the calendar owner can view imports")
	}

	var imports []models.HolidayImport
	if err := s.db.Where("calendar_id = ?", calendarID).Order("created_at desc").Find(&imports).Error; err != nil {
		return nil, err
	}

	return imports, nil
}
