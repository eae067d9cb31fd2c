package model

import "time"

// AuthorityType is a category label for authorities. Rows are seeded
// out-of-band and never edited here.
type AuthorityType struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"uniqueIndex;size:128;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// Authority is a governing body owning zero or more museums.
// Owner is set once at creation and never reassigned.
type Authority struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:256;not null;index"`
	Description string `gorm:"type:text"`
	Image       string `gorm:"size:512"` // media path of the uploaded image
	OwnerID     uint   `gorm:"index;not null"`
	TypeID      uint   `gorm:"index;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Associations
	Owner   User          `gorm:"foreignKey:OwnerID"`
	Type    AuthorityType `gorm:"foreignKey:TypeID"`
	Museums []Museum      `gorm:"foreignKey:AuthorityID;constraint:OnDelete:CASCADE"`
}
