package services

import (
	"errors"
	"strings"
	"time"

	"github.com/chronograph-app/chronograph/internal/apperr"
	"github.com/chronograph-app/chronograph/internal/authz"
	"github.com/chronograph-app/chronograph/internal/models"
	"github.com/chronograph-app/chronograph/internal/recurrence"
	"gorm.io/gorm"
)

// MaxQueryWindow caps the event query window so the per-event recurrence
// probe stays cheap.
const MaxQueryWindow = 31 * 24 * time.Hour

type EventService struct {
	db *gorm.DB
}

func NewEventService(gdb *gorm.DB) *EventService {
	return &EventService{db: gdb}
}

type EventQuery struct {
	CalendarID *uint
	From       *time.Time
	To         *time.Time
	Search     string
}

// FindVisible answers which events the user can see in the window. The SQL
// prefilter is coarse; the in-process recurrence check is authoritative.
func (s *EventService) FindVisible(userID uint, query EventQuery) ([]models.Event, error) {
	now := time.Now()
	from := now.AddDate(0, 0, -3)
	to := now.AddDate(0, 0, 4)
	if query.From != nil {
		from = *query.From
	}
	if query.To != nil {
		to = *query.To
	}

	if !to.After(from) {
		return nil, apperr.Validation("toDate must be after fromDate")
	}
	if to.Sub(from) > MaxQueryWindow {
		return nil, apperr.Validation("date range must be within one month")
	}

	var calendarIDs []uint
	if err := s.db.Model(&models.CalendarMembership{}).
		Where("user_id = ?", userID).
		Pluck("calendar_id", &calendarIDs).Error; err != nil {
		return nil, err
	}

	scope := calendarIDs
	if query.CalendarID != nil {
		found := false
		for _, id := range calendarIDs {
			if id == *query.CalendarID {
				found = true
				break
			}
		}
		if !found {
			return nil, apperr.Forbidden(authz.ReasonNotCalendarMember)
		}
		scope = []uint{*query.CalendarID}
	}

	if len(scope) == 0 {
		return []models.Event{}, nil
	}

	memberSub := s.db.Model(&models.EventMembership{}).Select("event_id").Where("calendar_id IN ?", scope)
	recurringSub := s.db.Model(&models.EventRecurrence{}).Select("event_id")

	tx := s.db.Preload("Recurrence").
		Where("(events.calendar_id IN ? OR events.id IN (?))", scope, memberSub).
		Where("((events.start_at >= ? AND events.start_at < ?) OR (events.end_at IS NOT NULL AND events.end_at >= ? AND events.end_at < ?) OR events.id IN (?))",
			from, to, from, to, recurringSub)

	if query.Search != "" {
		pattern := "%" + strings.ToLower(query.Search) + "%"
		tx = tx.Where("(LOWER(events.name) LIKE ? OR LOWER(events.description) LIKE ?)", pattern, pattern)
	}

	var candidates []models.Event
	if err := tx.Find(&candidates).Error; err != nil {
		return nil, err
	}

	seen := make(map[uint]bool, len(candidates))
	visible := make([]models.Event, 0, len(candidates))

	for _, event := range candidates {
		if seen[event.ID] {
			continue
		}

		var period time.Duration
		if event.Recurrence != nil {
			period = event.Recurrence.RepeatPeriod
		}
		if !recurrence.Matches(event.StartAt, event.EndAt, period, from, to) {
			continue
		}

		seen[event.ID] = true
		visible = append(visible, event)
	}

	return visible, nil
}

type EventInput struct {
	Name        string
	Description string
	Color       string
	Link        string
	StartAt     time.Time
	EndAt       *time.Time
	Category    models.EventCategory
	CalendarID  uint
	Frequency   models.Frequency
	Interval    int
}

func validateEventInput(input EventInput) error {
	if !input.Category.Valid() {
		return apperr.Validation("invalid event category")
	}
	if input.EndAt != nil && input.StartAt.After(*input.EndAt) {
		return apperr.Validation("startAt must be before endAt")
	}
	if !input.Category.HasEnd() && input.EndAt != nil {
		return apperr.Validation("endAt must be empty for REMINDER and OCCASION categories")
	}
	if input.Category.HasEnd() && input.EndAt == nil {
		return apperr.Validation("endAt must be set for ARRANGEMENT and TASK categories")
	}
	if (input.Frequency != "") != (input.Interval != 0) {
		return apperr.Validation("frequency and interval must be provided together")
	}
	return nil
}

func (s *EventService) Create(input EventInput, userID uint) (*models.Event, error) {
	if err := validateEventInput(input); err != nil {
		return nil, err
	}

	var calendar models.Calendar
	if err := s.db.First(&calendar, input.CalendarID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("calendar not found")
		}
		return nil, err
	}

	membership, err := calendarMembershipOf(s.db, calendar.ID, userID)
	if err != nil {
		return nil, err
	}
	if err := authz.CanCreateEvent(membership); err != nil {
		return nil, err
	}

	var period time.Duration
	if input.Frequency != "" {
		period, err = recurrence.Period(input.Frequency, input.Interval)
		if err != nil {
			return nil, err
		}
	}

	event := models.Event{
		Name:        input.Name,
		Description: input.Description,
		Color:       input.Color,
		Link:        input.Link,
		StartAt:     input.StartAt,
		EndAt:       input.EndAt,
		Category:    input.Category,
		CalendarID:  input.CalendarID,
		CreatorID:   userID,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&event).Error; err != nil {
			return err
		}

		if input.Frequency != "" {
			rec := models.EventRecurrence{
				EventID:      event.ID,
				Frequency:    input.Frequency,
				Interval:     input.Interval,
				RepeatPeriod: period,
			}
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
			event.Recurrence = &rec
		}

		return tx.Create(&models.EventMembership{
			EventID:    event.ID,
			UserID:     userID,
			CalendarID: input.CalendarID,
			Role:       models.RoleOwner,
		}).Error
	})

	if err != nil {
		return nil, err
	}

	return &event, nil
}

func (s *EventService) Update(eventID uint, input EventInput, userID uint) (*models.Event, error) {
	var event models.Event

	if err := s.db.Preload("Recurrence").First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("event not found")
		}
		return nil, err
	}

	if err := authz.CanMutateEvent(&event, userID); err != nil {
		return nil, err
	}

	if err := validateEventInput(input); err != nil {
		return nil, err
	}

	var period time.Duration
	if input.Frequency != "" {
		var err error
		period, err = recurrence.Period(input.Frequency, input.Interval)
		if err != nil {
			return nil, err
		}
	}

	event.Name = input.Name
	event.Description = input.Description
	event.Color = input.Color
	event.Link = input.Link
	event.StartAt = input.StartAt
	event.Category = input.Category
	if input.Category.HasEnd() {
		event.EndAt = input.EndAt
	} else {
		event.EndAt = nil
	}
	if input.CalendarID != 0 {
		event.CalendarID = input.CalendarID
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&event).Error; err != nil {
			return err
		}

		switch {
		case input.Frequency != "" && event.Recurrence != nil:
			event.Recurrence.Frequency = input.Frequency
			event.Recurrence.Interval = input.Interval
			event.Recurrence.RepeatPeriod = period
			return tx.Save(event.Recurrence).Error
		case input.Frequency != "":
			rec := models.EventRecurrence{
				EventID:      event.ID,
				Frequency:    input.Frequency,
				Interval:     input.Interval,
				RepeatPeriod: period,
			}
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
			event.Recurrence = &rec
			return nil
		case event.Recurrence != nil:
			if err := tx.Delete(event.Recurrence).Error; err != nil {
				return err
			}
			event.Recurrence = nil
			return nil
		default:
			return nil
		}
	})

	if err != nil {
		return nil, err
	}

	return &event, nil
}

func (s *EventService) Delete(eventID, userID uint) error {
	var event models.Event

	if err := s.db.First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("event not found")
		}
		return err
	}

	if err := authz.CanMutateEvent(&event, userID); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", eventID).Delete(&models.EventRecurrence{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", eventID).Delete(&models.EventMembership{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", eventID).Delete(&models.EventInvitation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&event).Error
	})
}

// FindForExport returns every event of one calendar, window-free, for a user
// who can read it. Recurrences are preloaded so exporters can emit RRULEs.
func (s *EventService) FindForExport(calendarID, userID uint) (*models.Calendar, []models.Event, error) {
	var calendar models.Calendar
	if err := s.db.First(&calendar, calendarID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.NotFound("calendar not found")
		}
		return nil, nil, err
	}

	membership, err := calendarMembershipOf(s.db, calendar.ID, userID)
	if err != nil {
		return nil, nil, err
	}
	if err := authz.CanReadCalendar(&calendar, userID, membership); err != nil {
		return nil, nil, err
	}

	var events []models.Event
	if err := s.db.Preload("Recurrence").
		Where("calendar_id = ?", calendarID).
		Order("start_at").
		Find(&events).Error; err != nil {
		return nil, nil, err
	}

	return &calendar, events, nil
}

// FindByID loads an event for a user who can read its calendar.
func (s *EventService) FindByID(eventID, userID uint) (*models.Event, error) {
	var event models.Event

	if err := s.db.Preload("Recurrence").First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("event not found")
		}
		return nil, err
	}

	var calendar models.Calendar
	if err := s.db.First(&calendar, event.CalendarID).Error; err != nil {
		return nil, err
	}

	membership, err := calendarMembershipOf(s.db, calendar.ID, userID)
	if err != nil {
		return nil, err
	}
	if err := authz.CanReadCalendar(&calendar, userID, membership); err != nil {
		return nil, err
	}

	return &event, nil
}
