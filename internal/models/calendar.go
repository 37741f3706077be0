package models

import "gorm.io/gorm"

type Visibility string

const (
	VisibilityPrivate Visibility = "PRIVATE"
	VisibilityShared  Visibility = "SHARED"
	VisibilityPublic  Visibility = "PUBLIC"
)

type Calendar struct {
	gorm.Model

	Name        string     `gorm:"not null"`
	Description string
	Visibility  Visibility `gorm:"not null;default:PRIVATE"`
	OwnerID     uint       `gorm:"not null;index"`
	IsMain      bool       `gorm:"not null;default:false"`

	// Relationships
	Owner       User                 `gorm:"foreignKey:OwnerID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Members     []CalendarMembership `gorm:"foreignKey:CalendarID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Events      []Event              `gorm:"foreignKey:CalendarID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Invitations []CalendarInvitation `gorm:"foreignKey:CalendarID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
