package activationkey

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"keyregistry/internal/faults"
	"keyregistry/internal/metrics"
	"keyregistry/internal/models"
)

// Registration describes a host enrolling with an activation key.
type Registration struct {
	Key       string
	Hostname  string
	Host      string
	OS        string
	PublicKey string
}

// Activate registers a host with the activation key named in reg. The
// server is created or refreshed, takes over the token's entitlements
// and the activation is recorded in its history. Keys that are missing,
// disabled or used up yield an invalid token fault.
func (r *Registry) Activate(ctx context.Context, reg Registration) (*models.Server, *models.ActivationKey, error) {
	key, err := r.LookupByKey(ctx, reg.Key)
	if err != nil {
		return nil, nil, faults.WrapInvalidToken(err)
	}
	if key == nil || key.Token == nil {
		metrics.Registrations.WithLabelValues("unknown_key").Inc()
		return nil, nil, faults.InvalidToken()
	}
	token := key.Token
	if token.Disabled {
		metrics.Registrations.WithLabelValues("disabled").Inc()
		return nil, nil, faults.InvalidTokenf("activation key %q is disabled", key.Key)
	}

	var server models.Server
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if token.UsageLimit != nil && *token.UsageLimit > 0 {
			var used int64
			if err := tx.Model(&models.ServerActivation{}).Where("token_id = ?", token.ID).Count(&used).Error; err != nil {
				return fmt.Errorf("failed to count activations: %w", err)
			}
			if used >= *token.UsageLimit {
				metrics.Registrations.WithLabelValues("usage_limit").Inc()
				return faults.InvalidTokenf("activation key %q reached its usage limit of %d", key.Key, *token.UsageLimit)
			}
		}

		if err := findServer(tx, token, reg.Host, &server); err != nil {
			return err
		}

		now := time.Now()
		server.OrgID = token.OrgID
		server.Name = reg.Hostname
		server.Host = reg.Host
		server.OS = reg.OS
		server.Status = models.ServerOnline
		server.LastHeartbeat = &now
		if reg.PublicKey != "" {
			server.PublicKey = reg.PublicKey
		}
		if err := tx.Omit("Entitlements").Save(&server).Error; err != nil {
			return fmt.Errorf("failed to save server: %w", err)
		}

		if err := tx.Model(&server).Association("Entitlements").Replace(token.Entitlements); err != nil {
			return fmt.Errorf("failed to entitle server %d: %w", server.ID, err)
		}

		activation := models.ServerActivation{ServerID: server.ID, TokenID: token.ID}
		if err := tx.Create(&activation).Error; err != nil {
			return fmt.Errorf("failed to record activation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	server.Entitlements = token.Entitlements
	metrics.Registrations.WithLabelValues("ok").Inc()
	r.log.Info("server registered",
		"server_id", server.ID,
		"host", server.Host,
		"key", key.Key,
	)
	return &server, key, nil
}

// findServer loads the server a registration applies to: the bound server
// of a re-registration key, otherwise any server of the token's
// organization already known under host. server is left zero when none
// exists yet.
func findServer(tx *gorm.DB, token *models.Token, host string, server *models.Server) error {
	var err error
	if token.ServerID != nil {
		err = tx.First(server, *token.ServerID).Error
	} else {
		err = tx.Where("org_id = ? AND host = ?", token.OrgID, host).First(server).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if token.ServerID != nil {
			return faults.InvalidTokenf("server bound to activation key no longer exists")
		}
		*server = models.Server{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load server: %w", err)
	}
	return nil
}
