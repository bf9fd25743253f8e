package models

import "time"

type Organization struct {
	ID        int64  `gorm:"primaryKey"`
	Name      string `gorm:"size:200;not null"`
	Slug      string `gorm:"size:200;uniqueIndex;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// DefaultTokenID points at the universal default token used when a
	// server registers without naming an activation key.
	DefaultTokenID *int64 `gorm:"index;null"`

	// Relations
	Users        []User   `gorm:"foreignKey:OrgID"`
	Roles        []Role   `gorm:"foreignKey:OrgID"`
	Servers      []Server `gorm:"foreignKey:OrgID"`
	DefaultToken *Token   `gorm:"foreignKey:DefaultTokenID"`
}
