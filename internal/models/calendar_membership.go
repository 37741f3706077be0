package models

import "gorm.io/gorm"

type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

type CalendarMembership struct {
	gorm.Model

	CalendarID uint `gorm:"not null;uniqueIndex:idx_calendar_user"`
	UserID     uint `gorm:"not null;uniqueIndex:idx_calendar_user"`
	Role       Role `gorm:"not null"`

	// Relationships
	Calendar Calendar `gorm:"foreignKey:CalendarID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	User     User     `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
