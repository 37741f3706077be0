package models

import (
	"time"

	"gorm.io/gorm"
)

type Frequency string

const (
	FrequencyMinutely Frequency = "MINUTELY"
	FrequencyHourly   Frequency = "HOURLY"
	FrequencyDaily    Frequency = "DAILY"
	FrequencyWeekly   Frequency = "WEEKLY"
	FrequencyMonthly  Frequency = "MONTHLY"
	FrequencyYearly   Frequency = "YEARLY"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyMinutely, FrequencyHourly, FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// EventRecurrence is one-to-one with Event. RepeatPeriod is the precomputed
// interval x unit-length duration used by the expander; MONTHLY and YEARLY use
// flat 30/365-day units rather than calendar months and years.
type EventRecurrence struct {
	gorm.Model

	EventID      uint          `gorm:"not null;uniqueIndex"`
	Frequency    Frequency     `gorm:"not null"`
	Interval     int           `gorm:"not null"`
	RepeatPeriod time.Duration `gorm:"not null"`

	Event Event `gorm:"foreignKey:EventID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}
