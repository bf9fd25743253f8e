package models

import "time"

// KickstartData is a provisioning profile. Activation keys attached to a
// profile are applied to every system it installs.
type KickstartData struct {
	ID        int64  `gorm:"primaryKey"`
	OrgID     int64  `gorm:"index;not null"`
	Label     string `gorm:"size:64;not null"`
	Active    bool   `gorm:"default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Tokens []Token `gorm:"many2many:kickstart_tokens;" json:"-"`
}

// KickstartSession tracks one provisioning run of a profile.
type KickstartSession struct {
	ID              int64  `gorm:"primaryKey"`
	OrgID           int64  `gorm:"index;not null"`
	KickstartDataID int64  `gorm:"index;not null"`
	ServerID        *int64 `gorm:"index;null"`
	State           string `gorm:"size:32;default:created"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	KickstartData *KickstartData `gorm:"foreignKey:KickstartDataID"`
}
