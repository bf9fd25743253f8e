package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"keyregistry/internal/activationkey"
	"keyregistry/internal/auth"
	"keyregistry/internal/http/handlers"
	"keyregistry/internal/logger"
	"keyregistry/internal/rbac"
)

func NewRouter(db *gorm.DB, reg *activationkey.Registry, jwtSecret string) *gin.Engine {
	if err := handlers.RegisterValidators(); err != nil {
		logger.Warn("failed to register request validators", "err", err)
	}

	r := gin.Default()

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public routes
	r.POST("/api/v1/auth/login", handlers.LoginHandler(db, jwtSecret))
	r.POST("/agents/register", handlers.RegisterAgent(db, reg))
	r.POST("/agents/heartbeat", handlers.AgentHeartbeat(db))

	chk := rbac.Checker{DB: db}
	api := r.Group("/api/v1", auth.JWT(db, jwtSecret))
	{
		keys := api.Group("/activation-keys")
		keys.POST("", requirePerm(chk, rbac.ActivationKeysWrite), handlers.CreateActivationKey(db, reg))
		keys.GET("/id/:id", requirePerm(chk, rbac.ActivationKeysRead), handlers.GetActivationKeyByID(reg))
		keys.GET("/:key", requirePerm(chk, rbac.ActivationKeysRead), handlers.GetActivationKey(reg))
		keys.GET("/:key/kickstarts", requirePerm(chk, rbac.ActivationKeysRead), handlers.ListKeyKickstarts(reg))
		keys.DELETE("/:key", requirePerm(chk, rbac.ActivationKeysWrite), handlers.DeleteActivationKey(db, reg))

		api.GET("/servers/:id/activation-keys", requirePerm(chk, rbac.ServersRead), handlers.ListServerKeys(db, reg))
		api.DELETE("/servers/:id", requirePerm(chk, rbac.ServersWrite), handlers.DeregisterServer(db, reg))

		api.GET("/kickstart-sessions/:id/activation-key", requirePerm(chk, rbac.ActivationKeysRead), handlers.GetSessionActivationKey(db, reg))

		// Audit Trail
		api.GET("/audit", requirePerm(chk, rbac.AuditRead), handlers.ListAudit(db))
	}

	return r
}

func requirePerm(chk rbac.Checker, permKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		cl := auth.ClaimsFrom(c)
		if cl == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		ok, err := chk.Can(c.Request.Context(), cl.UserID, cl.OrgID, permKey)
		if err != nil || !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden", "missing": permKey})
			return
		}
		c.Next()
	}
}
