package models

import "time"

type Channel struct {
	ID              int64  `gorm:"primaryKey"`
	OrgID           *int64 `gorm:"index;null"` // nil for vendor channels
	Label           string `gorm:"size:128;uniqueIndex;not null"`
	Name            string `gorm:"size:256;not null"`
	ParentChannelID *int64 `gorm:"index;null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsBaseChannel reports whether the channel has no parent.
func (c *Channel) IsBaseChannel() bool {
	return c.ParentChannelID == nil
}
