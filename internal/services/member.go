package services

import (
	"errors"

	"github.com/chronograph-app/chronograph/internal/apperr"
	"github.com/chronograph-app/chronograph/internal/authz"
	"github.com/chronograph-app/chronograph/internal/models"
	"gorm.io/gorm"
)

type MemberService struct {
	db *gorm.DB
}

func NewMemberService(gdb *gorm.DB) *MemberService {
	return &MemberService{db: gdb}
}

func (s *MemberService) ListCalendarMembers(calendarID, userID uint) ([]models.CalendarMembership, error) {
	var calendar models.Calendar
	if err := s.db.First(&calendar, calendarID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("calendar not found")
		}
		return nil, err
	}

	membership, err := calendarMembershipOf(s.db, calendarID, userID)
	if err != nil {
		return nil, err
	}
	if err := authz.CanListCalendarMembers(&calendar, userID, membership); err != nil {
		return nil, err
	}

	var members []models.CalendarMembership
	if err := s.db.Preload("User").Where("calendar_id = ?", calendarID).Find(&members).Error; err != nil {
		return nil, err
	}

	return members, nil
}

func (s *MemberService) UpdateCalendarMemberRole(calendarID, targetUserID, actorID uint, role models.Role) (*models.CalendarMembership, error) {
	var calendar models.Calendar
	if err := s.db.First(&calendar, calendarID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("calendar not found")
		}
		return nil, err
	}

	switch role {
	case models.RoleOwner, models.RoleAdmin, models.RoleMember:
	default:
		return nil, apperr.Validation("invalid role")
	}

	target, err := calendarMembershipOf(s.db, calendarID, targetUserID)
	if err != nil {
		return nil, err
	}

	if err := authz.CanChangeMemberRole(&calendar, actorID, targetUserID, role, target); err != nil {
		return nil, err
	}

	target.Role = role
	if err := s.db.Save(target).Error; err != nil {
		return nil, err
	}

	return target, nil
}

func (s *MemberService) RemoveCalendarMember(calendarID, targetUserID, actorID uint) error {
	var calendar models.Calendar
	if err := s.db.First(&calendar, calendarID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("calendar not found")
		}
		return err
	}

	target, err := calendarMembershipOf(s.db, calendarID, targetUserID)
	if err != nil {
		return err
	}

	if err := authz.CanRemoveMember(&calendar, actorID, targetUserID, target); err != nil {
		return err
	}

	// Hard delete so a later re-invite can recreate the unique pair.
	return s.db.Unscoped().Delete(target).Error
}

func (s *MemberService) ListEventMembers(eventID, userID uint) ([]models.EventMembership, error) {
	var event models.Event
	if err := s.db.First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("event not found")
		}
		return nil, err
	}

	membership, err := eventMembershipOf(s.db, eventID, userID)
	if err != nil {
		return nil, err
	}
	if err := authz.CanListEventMembers(&event, userID, membership); err != nil {
		return nil, err
	}

	var members []models.EventMembership
	if err := s.db.Preload("User").Where("event_id = ?", eventID).Find(&members).Error; err != nil {
		return nil, err
	}

	return members, nil
}

func (s *MemberService) RemoveEventMember(eventID, targetUserID, actorID uint) error {
	var event models.Event
	if err := s.db.First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("event not found")
		}
		return err
	}

	target, err := eventMembershipOf(s.db, eventID, targetUserID)
	if err != nil {
		return err
	}

	if err := authz.CanRemoveEventMember(&event, actorID, targetUserID, target); err != nil {
		return err
	}

	return s.db.Unscoped().Delete(target).Error
}

func eventMembershipOf(gdb *gorm.DB, eventID, userID uint) (*models.EventMembership, error) {
	var membership models.EventMembership

	err := gdb.Where("event_id = ? AND user_id = ?", eventID, userID).First(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &membership, nil
}
