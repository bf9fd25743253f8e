package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"keyregistry/internal/auth"
	"keyregistry/internal/logger"
	"keyregistry/internal/models"
)

// recordAudit writes an audit row for the current request. orgID is used
// when the request carries no claims (agent calls).
func recordAudit(db *gorm.DB, c *gin.Context, orgID int64, action, resourceType string, resourceID int64, meta map[string]any) {
	var initiatorName string
	var initiatorID int64
	if cl := auth.ClaimsFrom(c); cl != nil {
		initiatorID = cl.UserID
		orgID = cl.OrgID
		var u models.User
		if err := db.First(&u, cl.UserID).Error; err == nil {
			initiatorName = u.Name
		}
	}

	metaJSON, _ := json.Marshal(meta)

	entry := models.AuditLog{
		OrgID:         orgID,
		UserID:        initiatorID,
		Action:        action,
		ResourceType:  resourceType,
		ResourceID:    resourceID,
		Metadata:      datatypes.JSON(metaJSON),
		IP:            c.ClientIP(),
		UserAgent:     c.GetHeader("User-Agent"),
		InitiatorName: initiatorName,
		CreatedAt:     time.Now(),
	}
	if err := db.Create(&entry).Error; err != nil {
		logger.Warn("failed to write audit log", "action", action, "err", err)
	}
}

func ListAudit(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cl := auth.ClaimsFrom(c)
		if cl == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		limit := 20
		if limitStr := c.Query("limit"); limitStr != "" {
			if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 100 {
				limit = parsed
			}
		}

		var afterID int64
		if cursorStr := c.Query("after_id"); cursorStr != "" {
			if parsed, err := strconv.ParseInt(cursorStr, 10, 64); err == nil && parsed > 0 {
				afterID = parsed
			}
		}

		search := strings.TrimSpace(c.Query("q"))

		query := db.Model(&models.AuditLog{}).Where("org_id = ?", cl.OrgID).Order("id DESC")
		if afterID > 0 {
			query = query.Where("id < ?", afterID)
		}
		if search != "" {
			like := "%" + search + "%"
			query = query.Where("(initiator_name LIKE ? OR action LIKE ? OR resource_type LIKE ? OR ip LIKE ?)",
				like, like, like, like)
		}

		var logs []models.AuditLog
		if err := query.Limit(limit + 1).Find(&logs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		var nextCursor *int64
		if len(logs) > limit {
			next := logs[limit-1].ID
			logs = logs[:limit]
			nextCursor = &next
		}

		c.JSON(http.StatusOK, gin.H{
			"logs":        logs,
			"next_cursor": nextCursor,
		})
	}
}
