package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-import-api/internal/models"
	appErrors "github.com/noah-isme/sma-import-api/pkg/errors"
	"github.com/noah-isme/sma-import-api/pkg/middleware/requestid"
)

type stubValidator struct {
	claims *models.JWTClaims
}

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return s.claims, nil
}

type auditRecorder struct {
	logs []*models.AuditLog
	err  error
}

func (r *auditRecorder) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	r.logs = append(r.logs, log)
	return r.err
}

func newRouter(role models.UserRole, audit *auditRecorder, status int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWT(stubValidator{claims: &models.JWTClaims{UserID: "user-1", Role: role}}))
	r.POST("/api/import", ImportOperators(), Audit(audit, nil, models.AuditActionImportRun, "import"), func(c *gin.Context) {
		SetAuditDetail(c, "importType", "teachers")
		c.Status(status)
	})
	return r
}

func perform(r *gin.Engine, auth string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/import", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestJWTRejectsMissingAndInvalidTokens(t *testing.T) {
	r := newRouter(models.RoleAdmin, &auditRecorder{}, http.StatusOK)

	assert.Equal(t, http.StatusUnauthorized, perform(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, "Bearer bad").Code)
}

func TestImportOperatorsRejectsOtherRoles(t *testing.T) {
	audit := &auditRecorder{}
	r := newRouter(models.RoleTeacher, audit, http.StatusOK)

	assert.Equal(t, http.StatusForbidden, perform(r, "Bearer good").Code)
	assert.Empty(t, audit.logs)
}

func TestAuditRecordsPartialImports(t *testing.T) {
	audit := &auditRecorder{}
	r := newRouter(models.RoleSuperAdmin, audit, http.StatusMultiStatus)

	assert.Equal(t, http.StatusMultiStatus, perform(r, "Bearer good").Code)
	require.Len(t, audit.logs, 1)
	log := audit.logs[0]
	assert.Equal(t, models.AuditActionImportRun, log.Action)
	require.NotNil(t, log.UserID)
	assert.Equal(t, "user-1", *log.UserID)

	var values map[string]interface{}
	require.NoError(t, json.Unmarshal(log.NewValues, &values))
	assert.Equal(t, "teachers", values["importType"])
	assert.Equal(t, float64(http.StatusMultiStatus), values["status"])
}

func TestAuditSkipsFailedRequestsAndSurvivesWriteErrors(t *testing.T) {
	audit := &auditRecorder{err: errors.New("db down")}
	failing := newRouter(models.RoleAdmin, audit, http.StatusBadRequest)
	assert.Equal(t, http.StatusBadRequest, perform(failing, "Bearer good").Code)
	assert.Empty(t, audit.logs)

	ok := newRouter(models.RoleAdmin, audit, http.StatusOK)
	assert.Equal(t, http.StatusOK, perform(ok, "Bearer good").Code)
	assert.Len(t, audit.logs, 1)
}

func TestOptionalJWTAttachesClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/reports", OptionalJWT(stubValidator{claims: &models.JWTClaims{UserID: "user-1"}}), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"authenticated": CurrentClaims(c) != nil})
	})

	for auth, want := range map[string]string{"": `{"authenticated":false}`, "Bearer bad": `{"authenticated":false}`, "Bearer good": `{"authenticated":true}`} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/reports", nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, want, w.Body.String())
	}
}

func TestImportActor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, CurrentClaims(c))
	assert.Empty(t, ImportActor(c))

	c.Set(ContextUserKey, "not claims")
	assert.Nil(t, CurrentClaims(c))

	c.Set(ContextUserKey, &models.JWTClaims{UserID: "user-1"})
	assert.Equal(t, "user-1", ImportActor(c))

	c.Set(ContextUserKey, &models.JWTClaims{UserID: "user-1", Email: "ops@school.test"})
	assert.Equal(t, "ops@school.test", ImportActor(c))
}

func TestResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(WithResponseMeta())
	r.GET("/stats", func(c *gin.Context) {
		SetCacheHit(c, true)
		c.JSON(http.StatusOK, ExtractMeta(c))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
	assert.JSONEq(t, `{"cache_hit":true}`, w.Body.String())
}

func TestResponseMetaCarriesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(requestid.Middleware(), WithResponseMeta())
	r.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, ExtractMeta(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	req.Header.Set("X-Request-ID", "batch-upload-7")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.JSONEq(t, `{"request_id":"batch-upload-7"}`, w.Body.String())
}
