package models

import "time"

// ActivationKey is a reusable registration credential. Several keys can
// share one token; the root key of a token has no kickstart session, the
// others are per-session derivatives created during provisioning.
type ActivationKey struct {
	ID                 int64  `gorm:"primaryKey"`
	Key                string `gorm:"size:64;uniqueIndex;not null"`
	TokenID            int64  `gorm:"index;not null"`
	KickstartSessionID *int64 `gorm:"index;null"`
	CreatedAt          time.Time

	Token            *Token            `gorm:"foreignKey:TokenID"`
	KickstartSession *KickstartSession `gorm:"foreignKey:KickstartSessionID" json:"-"`
}
