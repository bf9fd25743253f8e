package activationkey

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyregistry/internal/faults"
	"keyregistry/internal/models"
	"keyregistry/internal/testutil"
)

func TestActivate_NewServer(t *testing.T) {
	f := newFixture(t, passThrough)
	ctx := context.Background()

	key, err := f.reg.CreateNewKey(ctx, f.user, "")
	require.NoError(t, err)

	srv, used, err := f.reg.Activate(ctx, Registration{
		Key:       key.Key,
		Hostname:  "web01",
		Host:      "10.0.0.5",
		OS:        "SUSE Linux Enterprise Server 15 SP6",
		PublicKey: "ssh-rsa AAAA test",
	})
	require.NoError(t, err)
	assert.Equal(t, key.Key, used.Key)
	assert.NotZero(t, srv.ID)
	assert.Equal(t, f.org.ID, srv.OrgID)
	assert.Equal(t, models.ServerOnline, srv.Status)
	assert.Equal(t, []string{models.EnterpriseEntitled}, labels(srv.Entitlements))

	var stored models.Server
	require.NoError(t, f.db.Preload("Entitlements").First(&stored, srv.ID).Error)
	assert.Equal(t, "web01", stored.Name)
	assert.Equal(t, []string{models.EnterpriseEntitled}, labels(stored.Entitlements))

	keys, err := f.reg.LookupByActivatedServer(ctx, &stored)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, key.Key, keys[0].Key)
}

func TestActivate_SameHostReusesServer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	key, err := f.reg.CreateNewKey(ctx, f.user, "")
	require.NoError(t, err)

	reg := Registration{Key: key.Key, Hostname: "db01", Host: "10.0.0.9"}
	first, _, err := f.reg.Activate(ctx, reg)
	require.NoError(t, err)
	second, _, err := f.reg.Activate(ctx, reg)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	var servers int64
	require.NoError(t, f.db.Model(&models.Server{}).Count(&servers).Error)
	assert.Equal(t, int64(1), servers)
}

func TestActivate_ReRegistrationKeyTargetsBoundServer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	srv := testutil.Server(t, f.db, f.org, "10.0.0.20", models.EnterpriseEntitled, models.MonitoringEntitled)
	key, err := f.reg.Create(ctx, f.user, CreateParams{Server: srv})
	require.NoError(t, err)

	got, _, err := f.reg.Activate(ctx, Registration{Key: key.Key, Hostname: "renamed", Host: "10.0.0.21"})
	require.NoError(t, err)
	assert.Equal(t, srv.ID, got.ID)
	assert.Equal(t, "10.0.0.21", got.Host)
	assert.ElementsMatch(t, []string{models.EnterpriseEntitled, models.MonitoringEntitled}, labels(got.Entitlements))
}

func TestActivate_Rejections(t *testing.T) {
	f := newFixture(t, passThrough)
	ctx := context.Background()

	disabled, err := f.reg.Create(ctx, f.user, CreateParams{Key: "disabled"})
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.Token{}).Where("id = ?", disabled.TokenID).Update("disabled", true).Error)

	one := int64(1)
	limited, err := f.reg.Create(ctx, f.user, CreateParams{Key: "limited", UsageLimit: &one})
	require.NoError(t, err)
	_, _, err = f.reg.Activate(ctx, Registration{Key: limited.Key, Hostname: "a", Host: "10.1.0.1"})
	require.NoError(t, err)

	tests := []struct {
		name string
		key  string
	}{
		{"Empty", ""},
		{"Unknown", "no-such-key"},
		{"Disabled", "disabled"},
		{"UsageLimit", "limited"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.reg.Activate(ctx, Registration{Key: tt.key, Hostname: "b", Host: "10.1.0.2"})
			require.ErrorIs(t, err, faults.ErrInvalidToken)

			var fault *faults.Fault
			require.ErrorAs(t, err, &fault)
			assert.Equal(t, faults.InvalidTokenCode, fault.Code)
		})
	}

	var servers int64
	require.NoError(t, f.db.Model(&models.Server{}).Where("host = ?", "10.1.0.2").Count(&servers).Error)
	assert.Zero(t, servers, "rejected registrations write nothing")
}
