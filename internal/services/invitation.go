package services

import (
	"errors"
	"fmt"
	"log"

	"github.com/chronograph-app/chronograph/internal/apperr"
	"github.com/chronograph-app/chronograph/internal/authz"
	"github.com/chronograph-app/chronograph/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notifier delivers invitation mail. Implementations are best effort; a
// failed delivery never affects the invitation record.
type Notifier interface {
	SendCalendarInvitation(to, inviterName, calendarName, acceptLink, declineLink string) error
	SendEventInvitation(to, inviterName, eventName, acceptLink, declineLink string) error
}

type InvitationService struct {
	db        *gorm.DB
	notifier  Notifier
	clientURL string
}

func NewInvitationService(gdb *gorm.DB, notifier Notifier, clientURL string) *InvitationService {
	return &InvitationService{db: gdb, notifier: notifier, clientURL: clientURL}
}

// InviteToCalendar creates a PENDING invitation for the user behind email.
// A prior invitation for the pair is replaced outright, so the id and token
// in any previously mailed links stop resolving.
func (s *InvitationService) InviteToCalendar(calendarID uint, email string, inviterID uint) (*models.CalendarInvitation, error) {
	var calendar models.Calendar
	if err := s.db.First(&calendar, calendarID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("calendar not found")
		}
		return nil, err
	}

	if err := authz.CanInvite(calendar.OwnerID, inviterID); err != nil {
		return nil, err
	}

	invitee, err := s.userByEmail(email)
	if err != nil {
		return nil, err
	}

	var inviter models.User
	if err := s.db.First(&inviter, inviterID).Error; err != nil {
		return nil, err
	}

	membership, err := calendarMembershipOf(s.db, calendarID, invitee.ID)
	if err != nil {
		return nil, err
	}
	if membership != nil {
		return nil, apperr.Conflict("user is already a member of this calendar")
	}

	invitation := models.CalendarInvitation{
		CalendarID: calendarID,
		UserID:     invitee.ID,
		Status:     models.InvitationPending,
		Token:      uuid.NewString(),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().
			Where("calendar_id = ? AND user_id = ?", calendarID, invitee.ID).
			Delete(&models.CalendarInvitation{}).Error; err != nil {
			return err
		}
		return tx.Create(&invitation).Error
	})
	if err != nil {
		return nil, err
	}

	s.queueNotification(func() error {
		return s.notifier.SendCalendarInvitation(
			invitee.Email,
			inviter.Name,
			calendar.Name,
			fmt.Sprintf("%s/calendar-invitation/%d/accept/%s", s.clientURL, calendarID, invitation.Token),
			fmt.Sprintf("%s/calendar-invitation/%d/decline/%s", s.clientURL, calendarID, invitation.Token),
		)
	})

	return &invitation, nil
}

// AcceptCalendarInvitation is single-winner: the status flip is a conditional
// update on PENDING, and the membership row plus the PRIVATE->SHARED
// promotion commit atomically with it.
func (s *InvitationService) AcceptCalendarInvitation(invitationID, userID uint) (*models.CalendarInvitation, error) {
	var invitation models.CalendarInvitation

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Calendar").First(&invitation, invitationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("invitation not found")
			}
			return err
		}

		if err := authz.CanRespondToInvitation(invitation.UserID, invitation.Status, userID); err != nil {
			return err
		}

		res := tx.Model(&models.CalendarInvitation{}).
			Where("id = ? AND status = ?", invitationID, models.InvitationPending).
			Update("status", models.InvitationAccepted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict(authz.ReasonAlreadyProcessed)
		}
		invitation.Status = models.InvitationAccepted

		if err := tx.Create(&models.CalendarMembership{
			CalendarID: invitation.CalendarID,
			UserID:     userID,
			Role:       models.RoleMember,
		}).Error; err != nil {
			return err
		}

		if invitation.Calendar.Visibility == models.VisibilityPrivate {
			if err := tx.Model(&models.Calendar{}).
				Where("id = ?", invitation.CalendarID).
				Update("visibility", models.VisibilityShared).Error; err != nil {
				return err
			}
			invitation.Calendar.Visibility = models.VisibilityShared
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return &invitation, nil
}

func (s *InvitationService) DeclineCalendarInvitation(invitationID, userID uint) (*models.CalendarInvitation, error) {
	var invitation models.CalendarInvitation

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&invitation, invitationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("invitation not found")
			}
			return err
		}

		if err := authz.CanRespondToInvitation(invitation.UserID, invitation.Status, userID); err != nil {
			return err
		}

		res := tx.Model(&models.CalendarInvitation{}).
			Where("id = ? AND status = ?", invitationID, models.InvitationPending).
			Update("status", models.InvitationDeclined)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict(authz.ReasonAlreadyProcessed)
		}
		invitation.Status = models.InvitationDeclined

		return nil
	})

	if err != nil {
		return nil, err
	}

	return &invitation, nil
}

func (s *InvitationService) MyCalendarInvitations(userID uint) ([]models.CalendarInvitation, error) {
	var invitations []models.CalendarInvitation

	err := s.db.Preload("Calendar").
		Where("user_id = ? AND status = ?", userID, models.InvitationPending).
		Find(&invitations).Error
	if err != nil {
		return nil, err
	}

	return invitations, nil
}

func (s *InvitationService) CalendarInvitations(calendarID, userID uint) ([]models.CalendarInvitation, error) {
	var calendar models.Calendar
	if err := s.db.First(&calendar, calendarID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("calendar not found")
		}
		return nil, err
	}

	if err := authz.CanInvite(calendar.OwnerID, userID); err != nil {
		return nil, err
	}

	var invitations []models.CalendarInvitation
	if err := s.db.Preload("User").Where("calendar_id = ?", calendarID).Find(&invitations).Error; err != nil {
		return nil, err
	}

	return invitations, nil
}

func (s *InvitationService) FindCalendarInvitationByToken(token string) (*models.CalendarInvitation, error) {
	var invitation models.CalendarInvitation

	err := s.db.Preload("Calendar").Where("token = ?", token).First(&invitation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("invitation not found")
	}
	if err != nil {
		return nil, err
	}

	return &invitation, nil
}

func (s *InvitationService) InviteToEvent(eventID uint, email string, inviterID uint) (*models.EventInvitation, error) {
	var event models.Event
	if err := s.db.First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("event not found")
		}
		return nil, err
	}

	if err := authz.CanInvite(event.CreatorID, inviterID); err != nil {
		return nil, err
	}

	invitee, err := s.userByEmail(email)
	if err != nil {
		return nil, err
	}

	var inviter models.User
	if err := s.db.First(&inviter, inviterID).Error; err != nil {
		return nil, err
	}

	membership, err := eventMembershipOf(s.db, eventID, invitee.ID)
	if err != nil {
		return nil, err
	}
	if membership != nil {
		return nil, apperr.Conflict("user is already a member of this event")
	}

	invitation := models.EventInvitation{
		EventID: eventID,
		UserID:  invitee.ID,
		Status:  models.InvitationPending,
		Token:   uuid.NewString(),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().
			Where("event_id = ? AND user_id = ?", eventID, invitee.ID).
			Delete(&models.EventInvitation{}).Error; err != nil {
			return err
		}
		return tx.Create(&invitation).Error
	})
	if err != nil {
		return nil, err
	}

	s.queueNotification(func() error {
		return s.notifier.SendEventInvitation(
			invitee.Email,
			inviter.Name,
			event.Name,
			fmt.Sprintf("%s/event-invitation/%d/accept/%s", s.clientURL, eventID, invitation.Token),
			fmt.Sprintf("%s/event-invitation/%d/decline/%s", s.clientURL, eventID, invitation.Token),
		)
	})

	return &invitation, nil
}

// AcceptEventInvitation attaches the event to the invitee's main calendar
// through the denormalized membership CalendarID.
func (s *InvitationService) AcceptEventInvitation(invitationID, userID uint) (*models.EventInvitation, error) {
	var invitation models.EventInvitation

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Event").First(&invitation, invitationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("invitation not found")
			}
			return err
		}

		if err := authz.CanRespondToInvitation(invitation.UserID, invitation.Status, userID); err != nil {
			return err
		}

		var mainCalendar models.Calendar
		if err := tx.Where("owner_id = ? AND is_main = ?", userID, true).First(&mainCalendar).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("main calendar not found")
			}
			return err
		}

		res := tx.Model(&models.EventInvitation{}).
			Where("id = ? AND status = ?", invitationID, models.InvitationPending).
			Update("status", models.InvitationAccepted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict(authz.ReasonAlreadyProcessed)
		}
		invitation.Status = models.InvitationAccepted

		return tx.Create(&models.EventMembership{
			EventID:    invitation.EventID,
			UserID:     userID,
			CalendarID: mainCalendar.ID,
			Role:       models.RoleMember,
		}).Error
	})

	if err != nil {
		return nil, err
	}

	return &invitation, nil
}

func (s *InvitationService) DeclineEventInvitation(invitationID, userID uint) (*models.EventInvitation, error) {
	var invitation models.EventInvitation

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&invitation, invitationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("invitation not found")
			}
			return err
		}

		if err := authz.CanRespondToInvitation(invitation.UserID, invitation.Status, userID); err != nil {
			return err
		}

		res := tx.Model(&models.EventInvitation{}).
			Where("id = ? AND status = ?", invitationID, models.InvitationPending).
			Update("status", models.InvitationDeclined)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict(authz.ReasonAlreadyProcessed)
		}
		invitation.Status = models.InvitationDeclined

		return nil
	})

	if err != nil {
		return nil, err
	}

	return &invitation, nil
}

func (s *InvitationService) MyEventInvitations(userID uint) ([]models.EventInvitation, error) {
	var invitations []models.EventInvitation

	err := s.db.Preload("Event").
		Where("user_id = ? AND status = ?", userID, models.InvitationPending).
		Find(&invitations).Error
	if err != nil {
		return nil, err
	}

	return invitations, nil
}

func (s *InvitationService) EventInvitations(eventID, userID uint) ([]models.EventInvitation, error) {
	var event models.Event
	if err := s.db.First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("event not found")
		}
		return nil, err
	}

	if err := authz.CanInvite(event.CreatorID, userID); err != nil {
		return nil, err
	}

	var invitations []models.EventInvitation
	if err := s.db.Preload("User").Where("event_id = ?", eventID).Find(&invitations).Error; err != nil {
		return nil, err
	}

	return invitations, nil
}

func (s *InvitationService) FindEventInvitationByToken(token string) (*models.EventInvitation, error) {
	var invitation models.EventInvitation

	err := s.db.Preload("Event").Where("token = ?", token).First(&invitation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("invitation not found")
	}
	if err != nil {
		return nil, err
	}

	return &invitation, nil
}

func (s *InvitationService) userByEmail(email string) (*models.User, error) {
	var user models.User

	err := s.db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// queueNotification runs delivery after the surrounding transaction has
// committed; failures only log.
func (s *InvitationService) queueNotification(send func() error) {
	if s.notifier == nil {
		return
	}
	go func() {
		if err := send(); err != nil {
			log.Printf("Failed to send invitation notification: %v", err)
		}
	}()
}
