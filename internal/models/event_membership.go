package models

import "gorm.io/gorm"

// EventMembership links a user to an individual event. CalendarID is
// denormalized: for the creator it names the event's calendar, for invited
// members it names their main calendar so the event surfaces there.
type EventMembership struct {
	gorm.Model

	EventID    uint `gorm:"not null;uniqueIndex:idx_event_user"`
	UserID     uint `gorm:"not null;uniqueIndex:idx_event_user"`
	CalendarID uint `gorm:"not null;index"`
	Role       Role `gorm:"not null"`

	// Relationships
	Event Event `gorm:"foreignKey:EventID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	User  User  `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
