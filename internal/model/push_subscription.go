package model

import "time"

// PushSubscription holds a user's browser push registration. Museum owners
// with a subscription get notified about bookings and comments on their
// museums.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	UserID    uint      `gorm:"index;not null"`
	CreatedAt time.Time `gorm:"not null"`
}
