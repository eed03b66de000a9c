package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-import-api/internal/models"
)

const auditDetailsKey = "audit_details"

// AuditWriter persists audit log rows.
type AuditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// SetAuditDetail attaches a value to the audit row written for this request.
func SetAuditDetail(c *gin.Context, key string, value interface{}) {
	details, _ := c.Get(auditDetailsKey)
	typed, ok := details.(map[string]interface{})
	if !ok {
		typed = map[string]interface{}{}
		c.Set(auditDetailsKey, typed)
	}
	typed[key] = value
}

// Audit creates a middleware that records audit logs after successful
// requests, including 207 partial imports.
func Audit(repo AuditWriter, logger *zap.Logger, action, resource string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if repo == nil || c.Writer.Status() >= 400 {
			return
		}

		var userID *string
		if claims := CurrentClaims(c); claims != nil {
			userID = &claims.UserID
		}

		values := map[string]interface{}{
			"path":    c.FullPath(),
			"method":  c.Request.Method,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Milliseconds(),
		}
		if details, ok := c.Get(auditDetailsKey); ok {
			if typed, ok := details.(map[string]interface{}); ok {
				for k, v := range typed {
					values[k] = v
				}
			}
		}
		body, _ := json.Marshal(values)

		err := repo.CreateAuditLog(context.WithoutCancel(c.Request.Context()), &models.AuditLog{
			UserID:    userID,
			Action:    action,
			Resource:  resource,
			NewValues: body,
			IPAddress: c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
		})
		if err != nil {
			logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
		}
	}
}
