package models

import "time"

// Token is the credential wrapped by an activation key. It owns the channel
// subscriptions, the entitlements and the activation policy handed to
// servers that register with it.
type Token struct {
	ID              int64  `gorm:"primaryKey"`
	OrgID           int64  `gorm:"index;not null"`
	UserID          *int64 `gorm:"index;null"` // creator
	ServerID        *int64 `gorm:"index;null"` // set for re-registration keys
	Note            string `gorm:"size:2048;not null"`
	UsageLimit      *int64 `gorm:"null"`
	Disabled        bool   `gorm:"default:false"`
	DeployConfigs   bool   `gorm:"default:false"`
	ContactMethodID int64  `gorm:"not null;default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Org          *Organization     `gorm:"foreignKey:OrgID" json:"-"`
	Creator      *User             `gorm:"foreignKey:UserID" json:"-"`
	Server       *Server           `gorm:"foreignKey:ServerID" json:"-"`
	Channels     []Channel         `gorm:"many2many:token_channels;"`
	Entitlements []ServerGroupType `gorm:"many2many:token_entitlements;"`
}

// AddChannel subscribes the token to ch unless it already is.
func (t *Token) AddChannel(ch Channel) {
	for _, c := range t.Channels {
		if c.ID == ch.ID {
			return
		}
	}
	t.Channels = append(t.Channels, ch)
}

// AddEntitlement adds e unless the token already carries that label.
func (t *Token) AddEntitlement(e ServerGroupType) {
	for _, have := range t.Entitlements {
		if have.Label == e.Label {
			return
		}
	}
	t.Entitlements = append(t.Entitlements, e)
}

// ContactMethod resolves the token's contact method id.
func (t *Token) ContactMethod() *ContactMethod {
	return FindContactMethodByID(t.ContactMethodID)
}
