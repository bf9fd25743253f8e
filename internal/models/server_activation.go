package models

import "time"

// ServerActivation records that a server registered using a token.
type ServerActivation struct {
	ID        int64 `gorm:"primaryKey"`
	ServerID  int64 `gorm:"index;not null"`
	TokenID   int64 `gorm:"index;not null"`
	CreatedAt time.Time
}

// All lists every model migrated at startup.
func All() []any {
	return []any{
		&Organization{},
		&User{},
		&Role{},
		&Permission{},
		&UserRole{},
		&Server{},
		&ServerGroupType{},
		&Channel{},
		&Token{},
		&ActivationKey{},
		&KickstartData{},
		&KickstartSession{},
		&ServerActivation{},
		&AuditLog{},
	}
}
