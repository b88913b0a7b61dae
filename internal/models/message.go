package models

import (
	"time"
)

// Message is a chat message between the two parties of a reservation.
// ExpiresAt is the retention mark: nil means live, a future value means the
// message is scheduled for purge, a past value means the sweep may remove it.
// The gorm soft-delete type is deliberately not used here since the mark can
// carry future timestamps.
type Message struct {
	ID            string     `json:"id" gorm:"column:id;primaryKey"`
	ReservationID uint       `json:"reservationId" gorm:"column:reservation_id;not null;index"`
	TripID        uint       `json:"tripId" gorm:"column:trip_id;not null;index"`
	SenderID      uint       `json:"senderId" gorm:"column:sender_id;not null"`
	ReceiverID    uint       `json:"receiverId" gorm:"column:receiver_id;not null"`
	Content       string     `json:"content" gorm:"column:content;not null"`
	Timestamp     time.Time  `json:"timestamp" gorm:"column:timestamp;not null;index"`
	ExpiresAt     *time.Time `json:"-" gorm:"column:expires_at;index"`
	CreatedAt     time.Time  `json:"-"`
}

func (Message) TableName() string {
	return "messages"
}
