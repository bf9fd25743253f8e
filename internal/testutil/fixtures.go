package testutil

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"keyregistry/internal/models"
)

// Org creates an organization.
func Org(t *testing.T, gdb *gorm.DB, slug string) *models.Organization {
	t.Helper()
	org := &models.Organization{Name: slug, Slug: slug}
	require.NoError(t, gdb.Create(org).Error)
	return org
}

// User creates an active user in org.
func User(t *testing.T, gdb *gorm.DB, org *models.Organization, email string) *models.User {
	t.Helper()
	u := &models.User{OrgID: org.ID, Email: email, Name: email, Status: models.UserActive}
	require.NoError(t, gdb.Create(u).Error)
	u.Org = org
	return u
}

// Entitlement returns the entitlement with label, creating it on first use.
func Entitlement(t *testing.T, gdb *gorm.DB, label string) models.ServerGroupType {
	t.Helper()
	e := models.ServerGroupType{}
	require.NoError(t, gdb.Where(models.ServerGroupType{Label: label}).
		Attrs(models.ServerGroupType{Name: label}).
		FirstOrCreate(&e).Error)
	return e
}

// Server creates a server in org holding the given entitlements.
func Server(t *testing.T, gdb *gorm.DB, org *models.Organization, host string, entitlements ...string) *models.Server {
	t.Helper()
	srv := &models.Server{OrgID: org.ID, Name: host, Host: host, Status: models.ServerOnline}
	for _, label := range entitlements {
		srv.Entitlements = append(srv.Entitlements, Entitlement(t, gdb, label))
	}
	require.NoError(t, gdb.Create(srv).Error)
	return srv
}

// Channel creates a base channel.
func Channel(t *testing.T, gdb *gorm.DB, label string) *models.Channel {
	t.Helper()
	ch := &models.Channel{Label: label, Name: fmt.Sprintf("Channel %s", label)}
	require.NoError(t, gdb.Create(ch).Error)
	return ch
}
