package seed

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"keyregistry/internal/logger"
	"keyregistry/internal/models"
	"keyregistry/internal/rbac"
)

const (
	AdminEmail = "admin@example.com"
	AdminPass  = "admin123" // change after first login

	DefaultChannelLabel = "sle-product-sles15-sp6-pool-x86_64"
)

var entitlementTypes = []models.ServerGroupType{
	{Label: models.EnterpriseEntitled, Name: "Management", IsBase: true},
	{Label: models.BootstrapEntitled, Name: "Bootstrap", IsBase: true},
	{Label: models.ContainerBuildHost, Name: "Container Build Host"},
	{Label: models.MonitoringEntitled, Name: "Monitoring"},
	{Label: models.AnsibleControlNode, Name: "Ansible Control Node"},
	{Label: models.VirtualizationHost, Name: "Virtualization Host"},
}

func FirstSetup(db *gorm.DB) error {
	// -------------------------
	// 1) Ensure default org
	// -------------------------
	org := models.Organization{Name: "Default Organization", Slug: "default"}
	if err := db.Where("slug = ?", org.Slug).FirstOrCreate(&org).Error; err != nil {
		return err
	}

	// -------------------------
	// 2) Ensure roles
	// -------------------------
	adminRole := models.Role{OrgID: org.ID, Name: "Administrator", Slug: "admin", IsSystem: true}
	operatorRole := models.Role{OrgID: org.ID, Name: "Operator", Slug: "operator", IsSystem: true}
	readonlyRole := models.Role{OrgID: org.ID, Name: "ReadOnly", Slug: "readonly", IsSystem: true}

	for _, r := range []*models.Role{&adminRole, &operatorRole, &readonlyRole} {
		if err := db.Where("org_id = ? AND slug = ?", org.ID, r.Slug).FirstOrCreate(r).Error; err != nil {
			return err
		}
	}

	// -------------------------
	// 3) Ensure permissions
	// -------------------------
	perms := []models.Permission{
		{Resource: "activationkeys", Action: "read", Description: "View activation keys"},
		{Resource: "activationkeys", Action: "write", Description: "Create and delete activation keys"},
		{Resource: "servers", Action: "read", Description: "View servers"},
		{Resource: "servers", Action: "write", Description: "Deregister servers"},
		{Resource: "audit", Action: "read", Description: "View audit logs"},
	}
	for i := range perms {
		perms[i].Key = rbac.Key(perms[i].Resource, perms[i].Action)
	}

	byKey := map[string]models.Permission{}
	for _, p := range perms {
		tmp := p
		if err := db.Where(models.Permission{Key: tmp.Key}).FirstOrCreate(&tmp).Error; err != nil {
			return err
		}
		byKey[tmp.Key] = tmp
	}

	// -------------------------
	// 4) role_permissions mapping
	// -------------------------
	// Appending to the many2many association skips pairs that already exist.
	grant := func(role *models.Role, keys ...string) error {
		var ps []models.Permission
		for _, k := range keys {
			ps = append(ps, byKey[k])
		}
		return db.Model(role).Association("Permissions").Append(ps)
	}

	allKeys := make([]string, 0, len(perms))
	for _, p := range perms {
		allKeys = append(allKeys, p.Key)
	}
	if err := grant(&adminRole, allKeys...); err != nil {
		return err
	}
	if err := grant(&operatorRole, rbac.ActivationKeysRead, rbac.ActivationKeysWrite, rbac.ServersRead, rbac.AuditRead); err != nil {
		return err
	}
	if err := grant(&readonlyRole, rbac.ActivationKeysRead, rbac.ServersRead, rbac.AuditRead); err != nil {
		return err
	}

	// -------------------------
	// 5) Entitlements and the default base channel
	// -------------------------
	for _, e := range entitlementTypes {
		tmp := e
		if err := db.Where(models.ServerGroupType{Label: tmp.Label}).FirstOrCreate(&tmp).Error; err != nil {
			return err
		}
	}

	channel := models.Channel{Label: DefaultChannelLabel, Name: "SLES 15 SP6 Pool x86_64"}
	if err := db.Where(models.Channel{Label: channel.Label}).FirstOrCreate(&channel).Error; err != nil {
		return err
	}

	// -------------------------
	// 6) Ensure admin user
	// -------------------------
	passHash, err := bcrypt.GenerateFromPassword([]byte(AdminPass), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	adminUser := models.User{
		OrgID:        org.ID,
		Email:        AdminEmail,
		Name:         "Admin User",
		Status:       models.UserActive,
		AuthProvider: "local",
		PasswordHash: string(passHash),
	}
	if err := db.Where("org_id = ? AND email = ?", org.ID, AdminEmail).FirstOrCreate(&adminUser).Error; err != nil {
		return err
	}

	// -------------------------
	// 7) user_roles mapping (admin user -> admin role)
	// -------------------------
	ur := models.UserRole{UserID: adminUser.ID, RoleID: adminRole.ID, OrgID: org.ID}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&ur).Error; err != nil {
		return err
	}

	logger.Info("seed ok",
		"admin", AdminEmail,
		"org", org.Slug,
		"roles", []string{adminRole.Slug, operatorRole.Slug, readonlyRole.Slug},
		"perms", len(perms),
		"entitlements", len(entitlementTypes),
	)
	return nil
}
