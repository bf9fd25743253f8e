package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"keyregistry/internal/activationkey"
	"keyregistry/internal/faults"
	"keyregistry/internal/logger"
)

// writeFault renders a fault the way remote callers expect it.
func writeFault(c *gin.Context, status int, f *faults.Fault) {
	c.AbortWithStatusJSON(status, gin.H{
		"faultCode":   f.Code,
		"faultLabel":  f.Label,
		"faultString": f.Message,
	})
}

// writeError maps registry errors onto HTTP responses.
func writeError(c *gin.Context, err error) {
	var verr *activationkey.ValidationError
	var fault *faults.Fault
	switch {
	case errors.As(err, &verr):
		status := http.StatusBadRequest
		if verr.Reason == activationkey.ReasonExists {
			status = http.StatusConflict
		}
		c.AbortWithStatusJSON(status, gin.H{"error": verr.Error(), "reason": verr.Reason})
	case errors.As(err, &fault):
		writeFault(c, http.StatusForbidden, fault)
	default:
		logger.Error("request failed", "path", c.FullPath(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
