package models

import (
	"gorm.io/gorm"
)

type Reservation struct {
	gorm.Model
	TripID      uint `json:"tripId" gorm:"column:trip_id;not null;index"`
	Trip        Trip `json:"trip"`
	PassengerID uint `json:"passengerId" gorm:"column:passenger_id;not null;index"`
	Passenger   User `json:"passenger"`
	Seats       int  `json:"seats" gorm:"column:seats;default:1"`
}

func (Reservation) TableName() string {
	return "reservations"
}
