package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/ssh"
	"gorm.io/gorm"

	"keyregistry/internal/activationkey"
	"keyregistry/internal/faults"
	"keyregistry/internal/logger"
	"keyregistry/internal/models"
)

// RegisterAgent enrolls a remote host with an activation key.
func RegisterAgent(db *gorm.DB, reg *activationkey.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ActivationKey string `json:"activation_key" binding:"required"`
			Hostname      string `json:"hostname" binding:"required"`
			IP            string `json:"ip" binding:"required"`
			OS            string `json:"os"`
			PublicKey     string `json:"public_key"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}

		pub := strings.TrimSpace(req.PublicKey)
		if pub != "" {
			if _, _, _, _, err := ssh.ParseAuthorizedKey([]byte(pub)); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid public key"})
				return
			}
		}

		server, key, err := reg.Activate(c.Request.Context(), activationkey.Registration{
			Key:       req.ActivationKey,
			Hostname:  req.Hostname,
			Host:      req.IP,
			OS:        req.OS,
			PublicKey: pub,
		})
		var fault *faults.Fault
		if errors.As(err, &fault) {
			logger.Warn("agent registration refused", "host", req.IP, "reason", fault.Message)
			writeFault(c, http.StatusForbidden, fault)
			return
		}
		if err != nil {
			writeError(c, err)
			return
		}

		recordAudit(db, c, server.OrgID, "server.register", "server", server.ID, map[string]any{
			"hostname": req.Hostname,
			"os":       req.OS,
			"key":      key.Key,
		})

		entitlements := make([]string, 0, len(server.Entitlements))
		for _, e := range server.Entitlements {
			entitlements = append(entitlements, e.Label)
		}
		c.JSON(http.StatusOK, gin.H{
			"message":      "agent registered successfully",
			"server_id":    server.ID,
			"entitlements": entitlements,
		})
	}
}

// AgentHeartbeat updates the server's heartbeat timestamp.
func AgentHeartbeat(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ServerID int64  `json:"server_id" binding:"required"`
			IP       string `json:"ip" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}

		res := db.Model(&models.Server{}).
			Where("id = ? AND host = ?", req.ServerID, req.IP).
			Updates(map[string]any{
				"last_heartbeat": time.Now(),
				"status":         models.ServerOnline,
			})
		if res.Error != nil {
			writeError(c, res.Error)
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "server not registered"})
			return
		}

		logger.Debug("heartbeat received", "server_id", req.ServerID, "host", req.IP)
		c.JSON(http.StatusOK, gin.H{"status": "heartbeat ok"})
	}
}
