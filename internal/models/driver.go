package models

import (
	"gorm.io/gorm"
)

const (
	DriverStatusActive  = "active"
	DriverStatusOffline = "offline"
)

type Driver struct {
	gorm.Model
	UserID       uint   `json:"userId" gorm:"column:user_id;not null;uniqueIndex"`
	User         User   `json:"user"`
	Status       string `json:"status" gorm:"column:status;not null;default:'active'"`
	VehiclePlate string `json:"vehiclePlate" gorm:"column:vehicle_plate"`
	VehicleMake  string `json:"vehicleMake" gorm:"column:vehicle_make"`
	VehicleColor string `json:"vehicleColor" gorm:"column:vehicle_color"`
}

func (Driver) TableName() string {
	return "drivers"
}
