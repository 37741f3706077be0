// Package authz holds every permission rule as a pure decision function over
// already-loaded entities. Each denial carries its own stable reason; entity
// absence is resolved to NotFound by callers before these run.
package authz

import (
	"github.com/chronograph-app/chronograph/internal/apperr"
	"github.com/chronograph-app/chronograph/internal/models"
)

const (
	ReasonCalendarPrivate   = "calendar is private"
	ReasonNotParticipant    = "user is not a participant of this shared calendar"
	ReasonNotCalendarMember = "you are not a member of this calendar"
	ReasonNotEventMember    = "you are not a member of this event"
	ReasonOwnerOnlyCalendar = "only the calendar owner can modify this calendar"
	ReasonOwnerOnlyRoles    = "only the owner can update user roles"
	ReasonOwnerOnlyRemove   = "only the owner can remove users"
	ReasonOwnRoleChange     = "owner cannot change their own role"
	ReasonOwnRemoval        = "owner cannot remove themselves"
	ReasonAssignOwner       = "cannot assign OWNER role to another user"
	ReasonNoEventPermission = "you do not have permission to create events"
	ReasonNotEventCreator   = "you do not have permission to modify this event"
	ReasonOwnerOnlyInvite   = "only the owner can invite users"
	ReasonNotYourInvitation = "you can only respond to your own invitations"
	ReasonAlreadyProcessed  = "invitation is already processed"
)

// CanReadCalendar gates reads by visibility tier. membership may be nil when
// the actor holds no row for this calendar.
func CanReadCalendar(calendar *models.Calendar, userID uint, membership *models.CalendarMembership) error {
	if calendar.Visibility == models.VisibilityPublic {
		return nil
	}
	if calendar.OwnerID == userID {
		return nil
	}
	if calendar.Visibility == models.VisibilityPrivate {
		return apperr.Forbidden(ReasonCalendarPrivate)
	}
	if membership == nil {
		return apperr.Forbidden(ReasonNotParticipant)
	}
	return nil
}

func CanListCalendarMembers(calendar *models.Calendar, userID uint, membership *models.CalendarMembership) error {
	if calendar.OwnerID == userID || membership != nil {
		return nil
	}
	return apperr.Forbidden(ReasonNotCalendarMember)
}

func CanMutateCalendar(calendar *models.Calendar, userID uint) error {
	if calendar.OwnerID != userID {
		return apperr.Forbidden(ReasonOwnerOnlyCalendar)
	}
	return nil
}

// CanChangeMemberRole guards role updates: owner only, never on themselves,
// and OWNER is never assignable. targetMembership may be nil.
func CanChangeMemberRole(calendar *models.Calendar, actorID, targetUserID uint, role models.Role, targetMembership *models.CalendarMembership) error {
	if calendar.OwnerID != actorID {
		return apperr.Forbidden(ReasonOwnerOnlyRoles)
	}
	if targetUserID == actorID {
		return apperr.Forbidden(ReasonOwnRoleChange)
	}
	if role == models.RoleOwner {
		return apperr.Forbidden(ReasonAssignOwner)
	}
	if targetMembership == nil {
		return apperr.NotFound("user is not a member of this calendar")
	}
	return nil
}

func CanRemoveMember(calendar *models.Calendar, actorID, targetUserID uint, targetMembership *models.CalendarMembership) error {
	if calendar.OwnerID != actorID {
		return apperr.Forbidden(ReasonOwnerOnlyRemove)
	}
	if targetUserID == actorID {
		return apperr.Forbidden(ReasonOwnRemoval)
	}
	if targetMembership == nil {
		return apperr.NotFound("user is not a member of this calendar")
	}
	return nil
}

// CanCreateEvent requires an OWNER or ADMIN membership on the calendar.
func CanCreateEvent(membership *models.CalendarMembership) error {
	if membership == nil {
		return apperr.Forbidden(ReasonNotCalendarMember)
	}
	if membership.Role != models.RoleOwner && membership.Role != models.RoleAdmin {
		return apperr.Forbidden(ReasonNoEventPermission)
	}
	return nil
}

func CanMutateEvent(event *models.Event, userID uint) error {
	if event.CreatorID != userID {
		return apperr.Forbidden(ReasonNotEventCreator)
	}
	return nil
}

func CanListEventMembers(event *models.Event, userID uint, membership *models.EventMembership) error {
	if event.CreatorID == userID || membership != nil {
		return nil
	}
	return apperr.Forbidden(ReasonNotEventMember)
}

func CanRemoveEventMember(event *models.Event, actorID, targetUserID uint, targetMembership *models.EventMembership) error {
	if event.CreatorID != actorID {
		return apperr.Forbidden(ReasonOwnerOnlyRemove)
	}
	if targetUserID == actorID {
		return apperr.Forbidden(ReasonOwnRemoval)
	}
	if targetMembership == nil {
		return apperr.NotFound("user is not a member of this event")
	}
	return nil
}

// CanInvite applies to both calendars (targetOwnerID = calendar owner) and
// events (targetOwnerID = event creator).
func CanInvite(targetOwnerID, actorID uint) error {
	if targetOwnerID != actorID {
		return apperr.Forbidden(ReasonOwnerOnlyInvite)
	}
	return nil
}

// CanRespondToInvitation checks ownership before state so a foreign user never
// learns whether an invitation is still pending.
func CanRespondToInvitation(inviteeID uint, status models.InvitationStatus, actorID uint) error {
	if inviteeID != actorID {
		return apperr.Forbidden(ReasonNotYourInvitation)
	}
	if status != models.InvitationPending {
		return apperr.Conflict(ReasonAlreadyProcessed)
	}
	return nil
}
