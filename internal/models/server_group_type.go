package models

import "time"

// Well-known entitlement labels.
const (
	EnterpriseEntitled = "enterprise_entitled"
	BootstrapEntitled  = "bootstrap_entitled"
	ContainerBuildHost = "container_build_host"
	MonitoringEntitled = "monitoring_entitled"
	AnsibleControlNode = "ansible_control_node"
	VirtualizationHost = "virtualization_host"
)

// ServerGroupType is an entitlement, the service tier a server or an
// activation key carries.
type ServerGroupType struct {
	ID        int64  `gorm:"primaryKey"`
	Label     string `gorm:"size:64;uniqueIndex;not null"`
	Name      string `gorm:"size:200;not null"`
	IsBase    bool   `gorm:"default:false"`
	CreatedAt time.Time
}
