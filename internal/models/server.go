package models

import "time"

type ServerStatus string

const (
	ServerOnline  ServerStatus = "online"
	ServerOffline ServerStatus = "offline"
)

// Server is a managed system registered with the controller.
type Server struct {
	ID            int64        `gorm:"primaryKey"`
	OrgID         int64        `gorm:"index;not null"`
	Name          string       `gorm:"size:200;not null"`
	Host          string       `gorm:"size:100;index;not null" json:"Host"`
	OS            string       `gorm:"size:200"`
	PublicKey     string       `gorm:"type:text" json:"-"`
	Status        ServerStatus `gorm:"size:50" json:"Status"`
	LastHeartbeat *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Org          *Organization     `gorm:"foreignKey:OrgID"`
	Entitlements []ServerGroupType `gorm:"many2many:server_entitlements;"`
}

// IsBootstrap reports whether the server only holds the minimal
// pre-entitlement bootstrap entitlement.
func (s *Server) IsBootstrap() bool {
	for _, e := range s.Entitlements {
		if e.Label == BootstrapEntitled {
			return true
		}
	}
	return false
}
