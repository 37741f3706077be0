package models

import (
	"time"

	"gorm.io/gorm"
)

type EventCategory string

const (
	CategoryReminder    EventCategory = "REMINDER"
	CategoryOccasion    EventCategory = "OCCASION"
	CategoryArrangement EventCategory = "ARRANGEMENT"
	CategoryTask        EventCategory = "TASK"
)

// HasEnd reports whether events of this category carry an end instant.
// REMINDER and OCCASION are point-in-time; ARRANGEMENT and TASK span a range.
func (c EventCategory) HasEnd() bool {
	return c == CategoryArrangement || c == CategoryTask
}

func (c EventCategory) Valid() bool {
	switch c {
	case CategoryReminder, CategoryOccasion, CategoryArrangement, CategoryTask:
		return true
	}
	return false
}

type Event struct {
	gorm.Model

	Name        string        `gorm:"not null"`
	Description string
	Color       string
	Link        string
	StartAt     time.Time     `gorm:"not null;index"`
	EndAt       *time.Time
	Category    EventCategory `gorm:"not null"`
	CalendarID  uint          `gorm:"not null;index"`
	CreatorID   uint          `gorm:"not null;index"`

	// Relationships
	Calendar    Calendar          `gorm:"foreignKey:CalendarID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Creator     User              `gorm:"foreignKey:CreatorID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Recurrence  *EventRecurrence  `gorm:"foreignKey:EventID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Members     []EventMembership `gorm:"foreignKey:EventID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Invitations []EventInvitation `gorm:"foreignKey:EventID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
