package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"keyregistry/internal/activationkey"
	"keyregistry/internal/auth"
	"keyregistry/internal/models"
)

// ownedServer loads the :id server of the caller's organization.
func ownedServer(c *gin.Context, db *gorm.DB) (*models.Server, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return nil, false
	}
	cl := auth.ClaimsFrom(c)
	var srv models.Server
	err = db.Where("id = ? AND org_id = ?", id, cl.OrgID).First(&srv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "server not found"})
		return nil, false
	}
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return &srv, true
}

// ListServerKeys lists the keys bound to a server, or with ?activated=true
// the keys it has registered with.
func ListServerKeys(db *gorm.DB, reg *activationkey.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		srv, ok := ownedServer(c, db)
		if !ok {
			return
		}

		var (
			keys []models.ActivationKey
			err  error
		)
		if activated, _ := strconv.ParseBool(c.Query("activated")); activated {
			keys, err = reg.LookupByActivatedServer(c.Request.Context(), srv)
		} else {
			keys, err = reg.LookupByServer(c.Request.Context(), srv)
		}
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"activation_keys": toKeyResponses(keys)})
	}
}

// DeregisterServer removes a server together with the keys bound to it.
func DeregisterServer(db *gorm.DB, reg *activationkey.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		srv, ok := ownedServer(c, db)
		if !ok {
			return
		}

		removed, err := reg.RemoveKeysForServer(c.Request.Context(), srv.ID)
		if err != nil {
			writeError(c, err)
			return
		}

		err = db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(srv).Association("Entitlements").Clear(); err != nil {
				return err
			}
			if err := tx.Where("server_id = ?", srv.ID).Delete(&models.ServerActivation{}).Error; err != nil {
				return err
			}
			return tx.Delete(srv).Error
		})
		if err != nil {
			writeError(c, err)
			return
		}

		recordAudit(db, c, srv.OrgID, "server.deregister", "server", srv.ID, map[string]any{
			"host":           srv.Host,
			"tokens_removed": removed,
		})
		c.JSON(http.StatusOK, gin.H{"message": "server deregistered", "tokens_removed": removed})
	}
}
