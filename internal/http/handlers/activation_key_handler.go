package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"keyregistry/internal/activationkey"
	"keyregistry/internal/auth"
	"keyregistry/internal/faults"
	"keyregistry/internal/models"
)

type keyResponse struct {
	ID            int64    `json:"id"`
	Key           string   `json:"key"`
	TokenID       int64    `json:"token_id"`
	Note          string   `json:"note"`
	UsageLimit    *int64   `json:"usage_limit"`
	Disabled      bool     `json:"disabled"`
	DeployConfigs bool     `json:"deploy_configs"`
	ServerID      *int64   `json:"server_id,omitempty"`
	ContactMethod string   `json:"contact_method"`
	Entitlements  []string `json:"entitlements"`
	Channels      []string `json:"channels"`
}

func toKeyResponse(k *models.ActivationKey) keyResponse {
	resp := keyResponse{
		ID:           k.ID,
		Key:          k.Key,
		TokenID:      k.TokenID,
		Entitlements: []string{},
		Channels:     []string{},
	}
	if t := k.Token; t != nil {
		resp.Note = t.Note
		resp.UsageLimit = t.UsageLimit
		resp.Disabled = t.Disabled
		resp.DeployConfigs = t.DeployConfigs
		resp.ServerID = t.ServerID
		if cm := t.ContactMethod(); cm != nil {
			resp.ContactMethod = cm.Label
		}
		for _, e := range t.Entitlements {
			resp.Entitlements = append(resp.Entitlements, e.Label)
		}
		for _, ch := range t.Channels {
			resp.Channels = append(resp.Channels, ch.Label)
		}
	}
	return resp
}

func toKeyResponses(keys []models.ActivationKey) []keyResponse {
	out := make([]keyResponse, 0, len(keys))
	for i := range keys {
		out = append(out, toKeyResponse(&keys[i]))
	}
	return out
}

// CreateActivationKey creates an activation key owned by the caller's
// organization.
func CreateActivationKey(db *gorm.DB, reg *activationkey.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Key              string `json:"key" binding:"omitempty,max=48,keyname"`
			Note             string `json:"note" binding:"max=2048"`
			UsageLimit       *int64 `json:"usage_limit" binding:"omitempty,min=0"`
			BaseChannelID    *int64 `json:"base_channel_id"`
			ServerID         *int64 `json:"server_id"`
			UniversalDefault bool   `json:"universal_default"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			if kerr := keyNameError(err, req.Key); kerr != nil {
				writeError(c, kerr)
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		cl := auth.ClaimsFrom(c)
		var user models.User
		if err := db.Preload("Org").Where("id = ? AND org_id = ?", cl.UserID, cl.OrgID).First(&user).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}

		params := activationkey.CreateParams{
			Key:              req.Key,
			Note:             req.Note,
			UsageLimit:       req.UsageLimit,
			UniversalDefault: req.UniversalDefault,
		}

		if req.ServerID != nil {
			var srv models.Server
			if err := db.Where("id = ? AND org_id = ?", *req.ServerID, cl.OrgID).First(&srv).Error; err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "server not found"})
				return
			}
			params.Server = &srv
		}

		if req.BaseChannelID != nil {
			var ch models.Channel
			err := db.Where("id = ? AND (org_id IS NULL OR org_id = ?)", *req.BaseChannelID, cl.OrgID).First(&ch).Error
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
				return
			}
			if !ch.IsBaseChannel() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "channel " + ch.Label + " is not a base channel"})
				return
			}
			params.BaseChannel = &ch
		}

		key, err := reg.Create(c.Request.Context(), &user, params)
		if err != nil {
			writeError(c, err)
			return
		}

		recordAudit(db, c, cl.OrgID, "activation_key.create", "activation_key", key.ID, map[string]any{
			"key":               key.Key,
			"universal_default": req.UniversalDefault,
			"server_id":         req.ServerID,
		})

		c.JSON(http.StatusCreated, gin.H{"activation_key": toKeyResponse(key)})
	}
}

// lookupOwnedKey resolves the :key path parameter to a key of the caller's
// organization, writing an invalid token fault when there is none.
func lookupOwnedKey(c *gin.Context, reg *activationkey.Registry) (*models.ActivationKey, bool) {
	cl := auth.ClaimsFrom(c)
	key, err := reg.LookupByKey(c.Request.Context(), c.Param("key"))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	if key == nil || key.Token == nil || key.Token.OrgID != cl.OrgID {
		writeFault(c, http.StatusNotFound, faults.InvalidTokenf("activation key %q not found", c.Param("key")))
		return nil, false
	}
	return key, true
}

func GetActivationKey(reg *activationkey.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := lookupOwnedKey(c, reg)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"activation_key": toKeyResponse(key)})
	}
}

func GetActivationKeyByID(reg *activationkey.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		cl := auth.ClaimsFrom(c)
		key, err := reg.LookupByID(c.Request.Context(), id, &models.Organization{ID: cl.OrgID})
		if err != nil {
			writeError(c, err)
			return
		}
		if key == nil {
			writeFault(c, http.StatusNotFound, faults.InvalidToken())
			return
		}
		c.JSON(http.StatusOK, gin.H{"activation_key": toKeyResponse(key)})
	}
}

func ListKeyKickstarts(reg *activationkey.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := lookupOwnedKey(c, reg)
		if !ok {
			return
		}
		profiles, err := reg.ListAssociatedKickstarts(c.Request.Context(), key)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"kickstarts": profiles})
	}
}

func DeleteActivationKey(db *gorm.DB, reg *activationkey.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := lookupOwnedKey(c, reg)
		if !ok {
			return
		}
		if err := reg.RemoveKey(c.Request.Context(), key); err != nil {
			writeError(c, err)
			return
		}
		recordAudit(db, c, key.Token.OrgID, "activation_key.delete", "activation_key", key.ID, map[string]any{"key": key.Key})
		c.JSON(http.StatusOK, gin.H{"message": "activation key deleted"})
	}
}

// GetSessionActivationKey returns the key created for a kickstart session.
func GetSessionActivationKey(db *gorm.DB, reg *activationkey.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		cl := auth.ClaimsFrom(c)
		var sess models.KickstartSession
		err := db.Where("id = ? AND org_id = ?", c.Param("id"), cl.OrgID).First(&sess).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "kickstart session not found"})
			return
		}
		if err != nil {
			writeError(c, err)
			return
		}

		key, err := reg.LookupByKickstartSession(c.Request.Context(), &sess)
		if err != nil {
			writeError(c, err)
			return
		}
		if key == nil {
			writeFault(c, http.StatusNotFound, faults.InvalidToken())
			return
		}
		c.JSON(http.StatusOK, gin.H{"activation_key": toKeyResponse(key)})
	}
}
