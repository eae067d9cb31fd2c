package model

import "time"

// Booking records a user's reservation intent for a museum.
// The composite unique index keeps at most one row per (user, museum) pair;
// handlers reach it through a get-or-create.
type Booking struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_booking_user_museum"`
	MuseumID  uint      `gorm:"not null;uniqueIndex:idx_booking_user_museum"`
	CreatedAt time.Time `gorm:"not null"`

	// Associations
	User   User   `gorm:"foreignKey:UserID"`
	Museum Museum `gorm:"foreignKey:MuseumID;constraint:OnDelete:CASCADE"`
}

// Bookmark records a user's saved favorite. Same at-most-one invariant
// as Booking.
type Bookmark struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_bookmark_user_museum"`
	MuseumID  uint      `gorm:"not null;uniqueIndex:idx_bookmark_user_museum"`
	CreatedAt time.Time `gorm:"not null"`

	// Associations
	User   User   `gorm:"foreignKey:UserID"`
	Museum Museum `gorm:"foreignKey:MuseumID;constraint:OnDelete:CASCADE"`
}
