package services

import (
	"errors"
	"strings"

	"github.com/chronograph-app/chronograph/internal/apperr"
	"github.com/chronograph-app/chronograph/internal/authz"
	"github.com/chronograph-app/chronograph/internal/models"
	"gorm.io/gorm"
)

type CalendarService struct {
	db *gorm.DB
}

func NewCalendarService(gdb *gorm.DB) *CalendarService {
	return &CalendarService{db: gdb}
}

type CalendarInput struct {
	Name        string
	Description string
	Visibility  models.Visibility
	IsMain      bool
}

func (s *CalendarService) Create(input CalendarInput, ownerID uint) (*models.Calendar, error) {
	var calendar *models.Calendar

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		calendar, err = s.CreateTx(tx, input, ownerID)
		return err
	})

	if err != nil {
		return nil, err
	}

	return calendar, nil
}

// CreateTx creates a calendar and its OWNER membership inside an existing
// transaction, so account registration can bundle the main-calendar bootstrap
// with the user insert.
func (s *CalendarService) CreateTx(tx *gorm.DB, input CalendarInput, ownerID uint) (*models.Calendar, error) {
	if input.Visibility == "" {
		input.Visibility = models.VisibilityPrivate
	}

	switch input.Visibility {
	case models.VisibilityPrivate, models.VisibilityShared, models.VisibilityPublic:
	default:
		return nil, apperr.Validation("invalid visibility")
	}

	calendar := models.Calendar{
		Name:        input.Name,
		Description: input.Description,
		Visibility:  input.Visibility,
		OwnerID:     ownerID,
		IsMain:      input.IsMain,
	}

	if err := tx.Create(&calendar).Error; err != nil {
		return nil, err
	}

	membership := models.CalendarMembership{
		CalendarID: calendar.ID,
		UserID:     ownerID,
		Role:       models.RoleOwner,
	}

	if err := tx.Create(&membership).Error; err != nil {
		return nil, err
	}

	return &calendar, nil
}

func (s *CalendarService) FindByID(id, userID uint) (*models.Calendar, error) {
	var calendar models.Calendar

	if err := s.db.First(&calendar, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("calendar not found")
		}
		return nil, err
	}

	membership, err := s.membershipOf(calendar.ID, userID)
	if err != nil {
		return nil, err
	}

	if err := authz.CanReadCalendar(&calendar, userID, membership); err != nil {
		return nil, err
	}

	return &calendar, nil
}

func (s *CalendarService) FindOwned(userID uint, search string) ([]models.Calendar, error) {
	var calendars []models.Calendar

	tx := s.db.Where("owner_id = ?", userID)
	tx = applyCalendarSearch(tx, search)

	if err := tx.Order("created_at asc").Find(&calendars).Error; err != nil {
		return nil, err
	}

	return calendars, nil
}

// FindParticipating lists calendars the user is a member of but does not own.
func (s *CalendarService) FindParticipating(userID uint, search string) ([]models.Calendar, error) {
	var calendars []models.Calendar

	tx := s.db.
		Joins("JOIN calendar_memberships cm ON cm.calendar_id = calendars.id AND cm.deleted_at IS NULL").
		Where("cm.user_id = ? AND calendars.owner_id <> ?", userID, userID)
	tx = applyCalendarSearch(tx, search)

	if err := tx.Order("calendars.created_at asc").Find(&calendars).Error; err != nil {
		return nil, err
	}

	return calendars, nil
}

type PublicCalendarQuery struct {
	Name      string
	SortBy    string // "created_at" or "participants"
	SortOrder string // "asc" or "desc"
	Page      int
	Limit     int
}

type PageMeta struct {
	TotalItems   int64 `json:"total_items"`
	ItemCount    int   `json:"item_count"`
	ItemsPerPage int   `json:"items_per_page"`
	CurrentPage  int   `json:"current_page"`
}

type CalendarPage struct {
	Items []models.Calendar `json:"items"`
	Meta  PageMeta          `json:"meta"`
}

func (s *CalendarService) FindPublic(query PublicCalendarQuery) (*CalendarPage, error) {
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 || query.Limit > 100 {
		query.Limit = 20
	}
	order := "asc"
	if strings.EqualFold(query.SortOrder, "desc") {
		order = "desc"
	}

	base := s.db.Model(&models.Calendar{}).Where("visibility = ?", models.VisibilityPublic)
	if query.Name != "" {
		base = base.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(query.Name)+"%")
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	tx := base.Session(&gorm.Session{})
	if query.SortBy == "participants" {
		tx = tx.
			Joins("LEFT JOIN calendar_memberships cm ON cm.calendar_id = calendars.id AND cm.deleted_at IS NULL").
			Group("calendars.id").
			Order("COUNT(cm.id) " + order)
	} else {
		tx = tx.Order("created_at " + order)
	}

	var calendars []models.Calendar
	if err := tx.Offset(query.Limit * (query.Page - 1)).Limit(query.Limit).Find(&calendars).Error; err != nil {
		return nil, err
	}

	return &CalendarPage{
		Items: calendars,
		Meta: PageMeta{
			TotalItems:   total,
			ItemCount:    len(calendars),
			ItemsPerPage: query.Limit,
			CurrentPage:  query.Page,
		},
	}, nil
}

// Participate joins a PUBLIC calendar directly, without an invitation.
func (s *CalendarService) Participate(calendarID, userID uint) (*models.CalendarMembership, error) {
	var calendar models.Calendar

	if err := s.db.First(&calendar, calendarID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("calendar not found")
		}
		return nil, err
	}

	if calendar.Visibility != models.VisibilityPublic {
		return nil, apperr.Forbidden("calendar is not public")
	}

	existing, err := s.membershipOf(calendarID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("user is already a participant")
	}

	membership := models.CalendarMembership{
		CalendarID: calendarID,
		UserID:     userID,
		Role:       models.RoleMember,
	}

	if err := s.db.Create(&membership).Error; err != nil {
		// Two concurrent joins can both pass the membership check; the loser
		// hits the idx_calendar_user unique index instead.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("user is already a participant")
		}
		return nil, err
	}

	return &membership, nil
}

type UpdateCalendarInput struct {
	Name        string
	Description string
	Visibility  models.Visibility
}

func (s *CalendarService) Update(id, userID uint, input UpdateCalendarInput) (*models.Calendar, error) {
	var calendar models.Calendar

	if err := s.db.First(&calendar, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("calendar not found")
		}
		return nil, err
	}

	if err := authz.CanMutateCalendar(&calendar, userID); err != nil {
		return nil, err
	}

	if input.Name != "" {
		calendar.Name = input.Name
	}
	calendar.Description = input.Description
	if input.Visibility != "" {
		switch input.Visibility {
		case models.VisibilityPrivate, models.VisibilityShared, models.VisibilityPublic:
			calendar.Visibility = input.Visibility
		default:
			return nil, apperr.Validation("invalid visibility")
		}
	}

	if err := s.db.Save(&calendar).Error; err != nil {
		return nil, err
	}

	return &calendar, nil
}

func (s *CalendarService) Delete(id, userID uint) error {
	var calendar models.Calendar

	if err := s.db.First(&calendar, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("calendar not found")
		}
		return err
	}

	if err := authz.CanMutateCalendar(&calendar, userID); err != nil {
		return err
	}

	if calendar.IsMain {
		return apperr.Forbidden("main calendar cannot be deleted")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("calendar_id = ?", id).Delete(&models.CalendarMembership{}).Error; err != nil {
			return err
		}
		if err := tx.Where("calendar_id = ?", id).Delete(&models.CalendarInvitation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&calendar).Error
	})
}

func (s *CalendarService) membershipOf(calendarID, userID uint) (*models.CalendarMembership, error) {
	return calendarMembershipOf(s.db, calendarID, userID)
}

func calendarMembershipOf(gdb *gorm.DB, calendarID, userID uint) (*models.CalendarMembership, error) {
	var membership models.CalendarMembership

	err := gdb.Where("calendar_id = ? AND user_id = ?", calendarID, userID).First(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &membership, nil
}

func applyCalendarSearch(tx *gorm.DB, search string) *gorm.DB {
	if search == "" {
		return tx
	}
	pattern := "%" + strings.ToLower(search) + "%"
	return tx.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", pattern, pattern)
}
