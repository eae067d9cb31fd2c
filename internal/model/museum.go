package model

import "time"

// Museum belongs to exactly one Authority.
type Museum struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:256;not null;index"`
	Description string `gorm:"type:text"`
	Image       string `gorm:"size:512"`
	AuthorityID uint   `gorm:"index;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Associations
	Authority Authority       `gorm:"foreignKey:AuthorityID;constraint:OnDelete:CASCADE"`
	Comments  []MuseumComment `gorm:"foreignKey:MuseumID;constraint:OnDelete:CASCADE"`
}

// MuseumComment is a visitor rating left on a museum. Immutable once created;
// always listed newest-first.
type MuseumComment struct {
	ID        uint   `gorm:"primaryKey"`
	MuseumID  uint   `gorm:"index;not null"`
	UserID    uint   `gorm:"index;not null"`
	Comment   string `gorm:"type:text;not null"`
	Rating    int    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;index"`

	// Associations
	User User `gorm:"foreignKey:UserID"`
}
