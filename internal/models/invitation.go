package models

import "gorm.io/gorm"

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "PENDING"
	InvitationAccepted InvitationStatus = "ACCEPTED"
	InvitationDeclined InvitationStatus = "DECLINED"
)

// Token is embedded in the emailed accept/decline links; re-inviting a user
// hard-deletes the previous row, so both the id and the token are refreshed.
type CalendarInvitation struct {
	gorm.Model

	CalendarID uint             `gorm:"not null;uniqueIndex:idx_calendar_invitee"`
	UserID     uint             `gorm:"not null;uniqueIndex:idx_calendar_invitee"`
	Status     InvitationStatus `gorm:"not null;default:PENDING"`
	Token      string           `gorm:"not null;uniqueIndex"`

	// Relationships
	Calendar Calendar `gorm:"foreignKey:CalendarID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	User     User     `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

type EventInvitation struct {
	gorm.Model

	EventID uint             `gorm:"not null;uniqueIndex:idx_event_invitee"`
	UserID  uint             `gorm:"not null;uniqueIndex:idx_event_invitee"`
	Status  InvitationStatus `gorm:"not null;default:PENDING"`
	Token   string           `gorm:"not null;uniqueIndex"`

	// Relationships
	Event Event `gorm:"foreignKey:EventID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	User  User  `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
