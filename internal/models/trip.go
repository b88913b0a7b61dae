package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	TripStatusScheduled  = "scheduled"
	TripStatusInProgress = "in_progress"
	TripStatusCompleted  = "completed"
	TripStatusCancelled  = "cancelled"
)

type Trip struct {
	gorm.Model
	DriverID      uint      `json:"driverId" gorm:"column:driver_id;not null;index"`
	Driver        Driver    `json:"driver"`
	Origin        string    `json:"origin" gorm:"column:origin"`
	Destination   string    `json:"destination" gorm:"column:destination;not null"`
	Status        string    `json:"status" gorm:"column:status;not null;default:'scheduled'"`
	Seats         int       `json:"seats" gorm:"column:seats"`
	FullyBooked   bool      `json:"fullyBooked" gorm:"column:fully_booked;default:false"`
	DepartureTime time.Time `json:"departureTime" gorm:"column:departure_time"`
}

func (Trip) TableName() string {
	return "trips"
}
