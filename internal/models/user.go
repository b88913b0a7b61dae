package models

import (
	"gorm.io/gorm"
)

type UserType string

const (
	UserTypePassenger UserType = "passenger"
	UserTypeDriver    UserType = "driver"
)

type User struct {
	gorm.Model
	Username    string `json:"username" gorm:"column:username;unique;not null"`
	Email       string `json:"email" gorm:"column:email;unique;not null"`
	PhoneNumber string `json:"phoneNumber" gorm:"column:phone_number"`
	UserType    string `json:"userType" gorm:"column:user_type;not null"`
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}
