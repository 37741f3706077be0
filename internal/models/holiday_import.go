package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// HolidayImport records one holiday-calendar refresh. Payload keeps the raw
// provider response for auditing re-imports.
type HolidayImport struct {
	gorm.Model

	CalendarID  uint           `gorm:"not null;index"`
	CountryCode string         `gorm:"not null"`
	Year        int            `gorm:"not null"`
	Payload     datatypes.JSON `gorm:"type:jsonb"`

	Calendar Calendar `gorm:"foreignKey:CalendarID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}
